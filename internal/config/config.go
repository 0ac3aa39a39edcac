package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("config: invalid")

// File mirrors the indictl TOML file. Durations are Go duration strings.
type File struct {
	Host             string `toml:"host"`
	Port             int    `toml:"port"`
	TimeoutEnable    *bool  `toml:"timeout_enable"`
	VectorTimeoutMin string `toml:"vector_timeout_min"`
	VectorTimeoutMax string `toml:"vector_timeout_max"`
	IdleTimeout      string `toml:"idle_timeout"`
	RespondTimeout   string `toml:"respond_timeout"`
	ConnectTimeout   string `toml:"connect_timeout"`
	ReconnectDelay   string `toml:"reconnect_delay"`
	MaxElementBytes  int    `toml:"max_element_bytes"`
	BLOBMode         string `toml:"blob_mode"`
	LogLevel         string `toml:"log_level"`
	MetricsAddr      string `toml:"metrics_addr"`
}

// Load strictly decodes path: unknown keys are errors.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	var cfg File
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return File{}, fmt.Errorf("%w (%s): %s", ErrInvalidConfig, path, strict.String())
		}
		return File{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

// Validate loads path and checks every value that can be checked offline.
func Validate(path string) (File, error) {
	cfg, err := Load(path)
	if err != nil {
		return File{}, err
	}
	if err := cfg.Validate(); err != nil {
		return File{}, fmt.Errorf("%w (%s): %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

func (f File) Validate() error {
	if f.Port < 0 || f.Port > 65535 {
		return fmt.Errorf("port %d out of range", f.Port)
	}
	durations := []struct {
		key   string
		value string
	}{
		{"vector_timeout_min", f.VectorTimeoutMin},
		{"vector_timeout_max", f.VectorTimeoutMax},
		{"idle_timeout", f.IdleTimeout},
		{"respond_timeout", f.RespondTimeout},
		{"connect_timeout", f.ConnectTimeout},
		{"reconnect_delay", f.ReconnectDelay},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.value) == "" {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.value))
		if err != nil {
			return fmt.Errorf("%s: %v", d.key, err)
		}
		if v < 0 {
			return fmt.Errorf("%s must not be negative", d.key)
		}
	}
	if f.MaxElementBytes < 0 {
		return fmt.Errorf("max_element_bytes must not be negative")
	}
	switch strings.TrimSpace(f.BLOBMode) {
	case "", "Never", "Also", "Only":
	default:
		return fmt.Errorf("blob_mode %q must be Never, Also or Only", f.BLOBMode)
	}
	return nil
}
