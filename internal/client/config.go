package client

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/indictl/internal/protocol/session"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 7624
)

// Config is the caller-facing client configuration.
type Config struct {
	Host string
	Port int
	// TimeoutEnable gates every supervisor action: probes, liveness closes
	// and per-vector timeouts.
	TimeoutEnable    bool
	VectorTimeoutMin time.Duration
	VectorTimeoutMax time.Duration
	// IdleTimeout defaults to 2x VectorTimeoutMax.
	IdleTimeout time.Duration
	// RespondTimeout defaults to 4x VectorTimeoutMax.
	RespondTimeout time.Duration
	Session        session.Config
}

func DefaultConfig() Config {
	return Config{
		Host:             DefaultHost,
		Port:             DefaultPort,
		TimeoutEnable:    true,
		VectorTimeoutMin: 2 * time.Second,
		VectorTimeoutMax: 10 * time.Second,
		Session:          session.DefaultConfig(),
	}
}

// WithDefaults fills unset fields. TimeoutEnable is taken as given.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	c.Host = strings.TrimSpace(c.Host)
	if c.Host == "" {
		c.Host = def.Host
	}
	if c.Port <= 0 {
		c.Port = def.Port
	}
	if c.VectorTimeoutMin <= 0 {
		c.VectorTimeoutMin = def.VectorTimeoutMin
	}
	if c.VectorTimeoutMax <= 0 {
		c.VectorTimeoutMax = def.VectorTimeoutMax
	}
	if c.VectorTimeoutMax < c.VectorTimeoutMin {
		c.VectorTimeoutMax = c.VectorTimeoutMin
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 2 * c.VectorTimeoutMax
	}
	if c.RespondTimeout <= 0 {
		c.RespondTimeout = 4 * c.VectorTimeoutMax
	}
	c.Session = c.Session.WithDefaults()
	return c
}

// Addr returns host:port for dialing.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
