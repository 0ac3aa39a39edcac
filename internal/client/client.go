// Package client is the caller-facing INDI client: it owns the device store,
// the session loop and the outbound queue, and delivers every event to a
// single handler.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/indictl/internal/indi"
	"github.com/danmuck/indictl/internal/protocol"
	"github.com/danmuck/indictl/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotConnected   = errors.New("client: not connected")
	ErrStopped        = errors.New("client: stopped")
	ErrAlreadyRunning = errors.New("client: already running")
)

// Handler receives every decoded and locally generated event. It is never
// invoked concurrently with itself.
type Handler func(indi.Event)

type Client struct {
	cfg     Config
	handler Handler

	store   *indi.Store
	decoder *indi.Decoder
	outbox  *session.Outbox
	local   chan indi.Event

	activity  session.Activity
	state     atomic.Int32
	connected atomic.Bool
	stopping  atomic.Bool
	running   atomic.Bool

	mu        sync.Mutex
	conn      net.Conn
	sessionID string
}

func New(cfg Config, handler Handler) *Client {
	store := indi.NewStore()
	return &Client{
		cfg:     cfg.WithDefaults(),
		handler: handler,
		store:   store,
		decoder: indi.NewDecoder(store),
		outbox:  session.NewOutbox(),
		local:   make(chan indi.Event, 64),
	}
}

func (c *Client) Config() Config {
	return c.cfg
}

// Connected reports whether a session is currently up.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

func (c *Client) State() session.State {
	return session.State(c.state.Load())
}

// SessionID identifies the current connection in logs; empty when disconnected.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Snapshot copies every enabled device at one instant.
func (c *Client) Snapshot() map[string]indi.Device {
	return c.store.Snapshot()
}

func (c *Client) Device(name string) (indi.Device, bool) {
	return c.store.Device(name)
}

func (c *Client) Vector(device, vector string) (indi.Vector, bool) {
	return c.store.Vector(device, vector)
}

// Messages returns the client-level message log, newest first.
func (c *Client) Messages() []indi.Message {
	return c.store.Messages()
}

// Shutdown requests a stop. It does not wait; Run returns once every loop
// has observed the flag.
func (c *Client) Shutdown() {
	if !c.stopping.CompareAndSwap(false, true) {
		return
	}
	log.Info().Str("addr", c.cfg.Addr()).Msg("client.Client.Shutdown requested")
	c.closeConn()
}

// SendNewVector submits new values for a Switch, Text or Number vector.
// A zero ts means now. Submissions to a disabled device or vector are
// dropped without error.
func (c *Client) SendNewVector(device, vector string, ts time.Time, members map[string]string) error {
	if err := c.sendable(); err != nil {
		return err
	}
	el, ok, err := c.store.BuildNewVector(device, vector, ts, members)
	return c.enqueueBuilt(device, vector, el, ok, err)
}

// SendNewBLOBVector submits the given BLOB members only.
func (c *Client) SendNewBLOBVector(device, vector string, ts time.Time, blobs map[string]indi.BLOBUpload) error {
	if err := c.sendable(); err != nil {
		return err
	}
	el, ok, err := c.store.BuildNewBLOBVector(device, vector, ts, blobs)
	return c.enqueueBuilt(device, vector, el, ok, err)
}

// SendGetProperties asks the server to (re)announce vectors. Both names
// may be empty; a vector requires a device.
func (c *Client) SendGetProperties(device, vector string) error {
	if err := c.sendable(); err != nil {
		return err
	}
	el, err := indi.BuildGetProperties(device, vector)
	if err != nil {
		return err
	}
	c.outbox.Push(el)
	return nil
}

// SendEnableBLOB sets the BLOB delivery mode for a device or one vector.
func (c *Client) SendEnableBLOB(mode indi.BLOBMode, device, vector string) error {
	if err := c.sendable(); err != nil {
		return err
	}
	el, err := indi.BuildEnableBLOB(mode, device, vector)
	if err != nil {
		return err
	}
	c.outbox.Push(el)
	return nil
}

func (c *Client) sendable() error {
	if c.stopping.Load() {
		return ErrStopped
	}
	if !c.connected.Load() {
		return ErrNotConnected
	}
	return nil
}

func (c *Client) enqueueBuilt(device, vector string, el protocol.Element, ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		log.Debug().
			Str("device", device).
			Str("vector", vector).
			Msg("client.Client.send skipped disabled target")
		return nil
	}
	c.outbox.Push(el)
	return nil
}

func (c *Client) setState(s session.State) {
	c.state.Store(int32(s))
}

func (c *Client) setConn(conn net.Conn, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	c.sessionID = sessionID
}

func (c *Client) clearConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = nil
	c.sessionID = ""
}

func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// localMessage records text in the client log and wraps it as an event.
func (c *Client) localMessage(format string, args ...any) indi.MessageEvent {
	m := c.store.AddMessage(fmt.Sprintf(format, args...))
	return indi.MessageEvent{
		EventInfo: indi.EventInfo{Timestamp: m.Timestamp},
		Text:      m.Text,
		Local:     true,
	}
}

// alive is the cooperative exit check shared by every session sub-loop.
func (c *Client) alive(ctx context.Context) bool {
	return c.connected.Load() && !c.stopping.Load() && ctx.Err() == nil
}
