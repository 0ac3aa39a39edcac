package number

import (
	"errors"
	"testing"

	"github.com/danmuck/indictl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForms(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		in   string
		want float64
	}{
		{"12.5", 12.5},
		{" -3e2 ", -300},
		{"12:30:00", 12.5},
		{"12 30 00", 12.5},
		{"12;30;00", 12.5},
		{"-12:30:00", -12.5},
		{"-0:30", -0.5},
		{"45:00:00", 45},
		{"1:00:36", 1.01},
		{"5", 5},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, tc.in)
	}
}

func TestParseRejects(t *testing.T) {
	testlog.Start(t)
	_, err := Parse("   ")
	assert.True(t, errors.Is(err, ErrEmpty))
	for _, in := range []string{"abc", "1:2:3:4", "12:-30", "NaN", "inf", "1:x"} {
		_, err := Parse(in)
		assert.Truef(t, errors.Is(err, ErrInvalid), "input %q err=%v", in, err)
	}
	assert.False(t, Valid("nope"))
	assert.True(t, Valid("10:00"))
}

func TestFormatRoundTrip(t *testing.T) {
	testlog.Start(t)
	values := []float64{12.5, -12.5, 0.25, 23.999, -0.75, 45}
	formats := []string{"%010.6m", "%9.6m", "%.8m", "%12.9m"}
	for _, f := range formats {
		for _, v := range values {
			s, err := Format(v, f)
			require.NoError(t, err)
			got, err := Parse(s)
			require.NoError(t, err, s)
			assert.InDeltaf(t, v, got, 1.0/3600+1e-9, "format=%s value=%v rendered=%q", f, v, s)
		}
	}
	for _, sep := range []string{":", " ", ";"} {
		raw := "-7" + sep + "15" + sep + "30"
		v, err := Parse(raw)
		require.NoError(t, err)
		s, err := Format(v, "%.6m")
		require.NoError(t, err)
		assert.Equal(t, "-7:15:30", s)
	}
}

func TestFormatSexagesimalPrecision(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		format string
		value  float64
		want   string
	}{
		{"%.3m", 12.5, "12:30"},
		{"%.5m", 12.51, "12:30.6"},
		{"%.6m", 12.5, "12:30:00"},
		{"%.8m", 12.5 + 1.5/3600, "12:30:01.5"},
		{"%.9m", 12.5 + 1.25/3600, "12:30:01.25"},
		{"%10.6m", 1.5, "   1:30:00"},
	}
	for _, tc := range cases {
		got, err := Format(tc.value, tc.format)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.format)
	}
}

func TestFormatPrintf(t *testing.T) {
	testlog.Start(t)
	got, err := Format(3.14159, "%.2f")
	require.NoError(t, err)
	assert.Equal(t, "3.14", got)

	got, err = Format(41.6, "%d")
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	got, err = Format(1500, "%.1e")
	require.NoError(t, err)
	assert.Equal(t, "1.5e+03", got)

	got, err = FormatString("12:30", "%.3f")
	require.NoError(t, err)
	assert.Equal(t, "12.500", got)

	_, err = Format(1, "%s")
	assert.True(t, errors.Is(err, ErrBadFormat))
}
