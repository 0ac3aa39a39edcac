package session

import (
	"time"

	"github.com/danmuck/indictl/internal/protocol/frame"
)

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines transport/session timing.
type Config struct {
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	// PollInterval bounds how long any sub-loop blocks before re-checking
	// the stop and connected flags.
	PollInterval time.Duration
	// ReconnectPoll is the step used while waiting out Backoff between sessions.
	ReconnectPoll time.Duration
	// ProbeInterval paces getProperties probes while no device is known.
	ProbeInterval   time.Duration
	InboxSize       int
	MaxElementBytes int
	Backoff         BackoffConfig
}

// DefaultConfig returns the reconnect-every-5s session defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:  5 * time.Second,
		WriteTimeout:    15 * time.Second,
		PollInterval:    50 * time.Millisecond,
		ReconnectPoll:   500 * time.Millisecond,
		ProbeInterval:   5 * time.Second,
		InboxSize:       4,
		MaxElementBytes: frame.DefaultMaxElementBytes,
		Backoff: BackoffConfig{
			InitialDelay: 5 * time.Second,
			Multiplier:   1.0,
			MaxDelay:     5 * time.Second,
			Jitter:       false,
		},
	}
}

// WithDefaults fills zero-valued fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.ReconnectPoll <= 0 {
		c.ReconnectPoll = def.ReconnectPoll
	}
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = def.ProbeInterval
	}
	if c.InboxSize <= 0 {
		c.InboxSize = def.InboxSize
	}
	if c.MaxElementBytes <= 0 {
		c.MaxElementBytes = def.MaxElementBytes
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = def.Backoff
	}
	return c
}
