package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/indictl/internal/client"
	"github.com/danmuck/indictl/internal/indi"
	"github.com/danmuck/indictl/internal/logging"
	"github.com/rs/zerolog"
)

type fileConfig struct {
	Host             string `toml:"host"`
	Port             int    `toml:"port"`
	TimeoutEnable    bool   `toml:"timeout_enable"`
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

type appConfig struct {
	Client      client.Config
	BLOBMode    indi.BLOBMode
	LogLevel    zerolog.Level
	LogLevelSet bool
	MetricsAddr string
}

func defaultAppConfig() appConfig {
	return appConfig{
		Client:   client.DefaultConfig(),
		LogLevel: zerolog.InfoLevel,
	}
}

func loadAppConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return appConfig{}, fmt.Errorf("load indictl config: %w", err)
	}

	if meta.IsDefined("host") {
		if host := strings.TrimSpace(raw.Host); host != "" {
			cfg.Client.Host = host
		}
	}
	if meta.IsDefined("port") {
		cfg.Client.Port = raw.Port
	}
	if meta.IsDefined("timeout_enable") {
		cfg.Client.TimeoutEnable = raw.TimeoutEnable
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"vector_timeout_min", raw.VectorTimeoutMin, &cfg.Client.VectorTimeoutMin},
		{"vector_timeout_max", raw.VectorTimeoutMax, &cfg.Client.VectorTimeoutMax},
		{"idle_timeout", raw.IdleTimeout, &cfg.Client.IdleTimeout},
		{"respond_timeout", raw.RespondTimeout, &cfg.Client.RespondTimeout},
		{"connect_timeout", raw.ConnectTimeout, &cfg.Client.Session.ConnectTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) || strings.TrimSpace(d.raw) == "" {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return appConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("reconnect_delay") && strings.TrimSpace(raw.ReconnectDelay) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReconnectDelay))
		if err != nil {
			return appConfig{}, fmt.Errorf("parse reconnect_delay: %w", err)
		}
		cfg.Client.Session.Backoff.InitialDelay = d
		cfg.Client.Session.Backoff.MaxDelay = d
	}

	if meta.IsDefined("max_element_bytes") {
		cfg.Client.Session.MaxElementBytes = raw.MaxElementBytes
	}

	if meta.IsDefined("blob_mode") {
		if mode := strings.TrimSpace(raw.BLOBMode); mode != "" {
			parsed, err := indi.ParseBLOBMode(mode)
			if err != nil {
				return appConfig{}, fmt.Errorf("parse blob_mode: %w", err)
			}
			cfg.BLOBMode = parsed
		}
	}

	if meta.IsDefined("log_level") && strings.TrimSpace(raw.LogLevel) != "" {
		lvl, ok := logging.ParseLevel(raw.LogLevel)
		if !ok {
			return appConfig{}, fmt.Errorf("parse log_level: unknown level %q", raw.LogLevel)
		}
		cfg.LogLevel = lvl
		cfg.LogLevelSet = true
	}

	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	cfg.Client = cfg.Client.WithDefaults()
	return cfg, nil
}
