// Package number converts the protocol's numeric literals to float64 and
// renders float64 values through a member's format specifier.
//
// Accepted literal forms: plain decimal/exponent ("1.5e3"), and sexagesimal
// with ':', ' ' or ';' separators ("-12:30:15.5", "12 30", "12;30;00").
package number

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrEmpty      = errors.New("number: empty value")
	ErrInvalid    = errors.New("number: invalid value")
	ErrBadFormat  = errors.New("number: invalid format")
	sexagesimalRe = regexp.MustCompile(`^%(\d*)(?:\.(\d+))?m$`)
	printfRe      = regexp.MustCompile(`^%[-+ #0]*\d*(?:\.\d+)?([eEfFgGdi])$`)
)

// Parse converts a protocol numeric literal to float64.
func Parse(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrEmpty
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, raw)
		}
		return v, nil
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ':' || r == ' ' || r == ';' || r == '\t'
	})
	if len(parts) == 0 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	negative := strings.HasPrefix(parts[0], "-")
	total := 0.0
	scale := 1.0
	for i, p := range parts {
		if i > 0 && (strings.HasPrefix(p, "-") || strings.HasPrefix(p, "+")) {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, raw)
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, raw)
		}
		total += math.Abs(v) / scale
		scale *= 60
	}
	if negative {
		total = -total
	}
	return total, nil
}

// Valid reports whether raw parses as a protocol number.
func Valid(raw string) bool {
	_, err := Parse(raw)
	return err == nil
}

// Format renders value using a printf-style or sexagesimal ("%<w>.<f>m") format.
func Format(value float64, format string) (string, error) {
	format = strings.TrimSpace(format)
	if m := sexagesimalRe.FindStringSubmatch(format); m != nil {
		width := 0
		if m[1] != "" {
			width, _ = strconv.Atoi(m[1])
		}
		frac := 6
		if m[2] != "" {
			frac, _ = strconv.Atoi(m[2])
		}
		return pad(sexagesimal(value, frac), width), nil
	}
	m := printfRe.FindStringSubmatch(format)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrBadFormat, format)
	}
	switch m[1] {
	case "d", "i":
		return fmt.Sprintf(format[:len(format)-1]+"d", int64(math.Round(value))), nil
	case "F":
		return fmt.Sprintf(format[:len(format)-1]+"f", value), nil
	default:
		return fmt.Sprintf(format, value), nil
	}
}

// FormatString parses raw and renders it through format.
func FormatString(raw, format string) (string, error) {
	v, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return Format(v, format)
}

// sexagesimal renders |value| as H:M[.m] or H:M:S[.s] depending on frac.
// frac 3 -> H:MM, 5 -> H:MM.m, 6 -> H:MM:SS, 8 -> H:MM:SS.s, 9 -> H:MM:SS.ss.
func sexagesimal(value float64, frac int) string {
	sign := ""
	if value < 0 {
		sign = "-"
	}
	v := math.Abs(value)

	var out string
	switch {
	case frac <= 3:
		total := int64(math.Round(v * 60))
		out = fmt.Sprintf("%d:%02d", total/60, total%60)
	case frac <= 5:
		total := int64(math.Round(v * 600))
		rem := total % 600
		out = fmt.Sprintf("%d:%02d.%d", total/600, rem/10, rem%10)
	case frac <= 6:
		total := int64(math.Round(v * 3600))
		rem := total % 3600
		out = fmt.Sprintf("%d:%02d:%02d", total/3600, rem/60, rem%60)
	case frac <= 8:
		total := int64(math.Round(v * 36000))
		rem := total % 36000
		secs := rem % 600
		out = fmt.Sprintf("%d:%02d:%02d.%d", total/36000, rem/600, secs/10, secs%10)
	default:
		total := int64(math.Round(v * 360000))
		rem := total % 360000
		secs := rem % 6000
		out = fmt.Sprintf("%d:%02d:%02d.%02d", total/360000, rem/6000, secs/100, secs%100)
	}
	if sign != "" && strings.Trim(out, "0:.") == "" {
		sign = ""
	}
	return sign + out
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
