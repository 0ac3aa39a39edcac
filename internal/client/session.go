package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/danmuck/indictl/internal/indi"
	"github.com/danmuck/indictl/internal/observability"
	"github.com/danmuck/indictl/internal/protocol"
	"github.com/danmuck/indictl/internal/protocol/frame"
	"github.com/danmuck/indictl/internal/protocol/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Run drives the connect/serve/reconnect loop until Shutdown is called or
// ctx is canceled. Connection failures are never returned; they only show
// up as local Message events and Connected() == false.
func (c *Client) Run(ctx context.Context) error {
	if c.stopping.Load() {
		return ErrStopped
	}
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	addr := c.cfg.Addr()
	attempt := 0
	for !c.stopRequested(ctx) {
		attempt++
		c.setState(session.StateConnecting)
		observability.RecordSession(observability.SessionConnectAttempt)
		c.deliver(c.localMessage("connecting to %s", addr))

		conn, err := c.dial(ctx)
		if err != nil {
			observability.RecordSession(observability.SessionConnectFailed)
			c.setState(session.StateDisconnected)
			if c.stopRequested(ctx) {
				break
			}
			log.Warn().Err(err).Str("addr", addr).Int("attempt", attempt).Msg("client.Client.Run connect failed")
			c.deliver(c.localMessage("connect to %s failed: %v", addr, err))
			c.waitReconnect(ctx, attempt)
			continue
		}
		attempt = 0

		err = c.serve(ctx, conn)
		c.setState(session.StateDisconnected)
		if c.stopRequested(ctx) {
			break
		}
		observability.RecordSession(observability.SessionLost)
		log.Warn().Err(err).Str("addr", addr).Msg("client.Client.Run session lost")
		if err != nil {
			c.deliver(c.localMessage("disconnected from %s: %v", addr, err))
		} else {
			c.deliver(c.localMessage("disconnected from %s", addr))
		}
		c.waitReconnect(ctx, 1)
	}

	c.stopping.Store(true)
	c.setState(session.StateStopped)
	log.Info().Str("addr", addr).Msg("client.Client.Run stopped")
	return nil
}

func (c *Client) stopRequested(ctx context.Context) bool {
	return c.stopping.Load() || ctx.Err() != nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.cfg.Session.ConnectTimeout}
	return dialer.DialContext(ctx, "tcp", c.cfg.Addr())
}

func (c *Client) waitReconnect(ctx context.Context, attempt int) {
	delay := session.NextBackoffDelay(c.cfg.Session.Backoff, attempt, nil)
	session.Pause(ctx, delay, c.cfg.Session.ReconnectPoll, c.stopping.Load)
}

// serve runs one connected session: it relearns the world from scratch,
// runs the four sub-loops until any of them exits, then tears down.
func (c *Client) serve(ctx context.Context, conn net.Conn) (err error) {
	sessionID := uuid.NewString()
	logger := log.With().Str("session_id", sessionID).Str("addr", c.cfg.Addr()).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("client.Client.serve recovered")
			err = fmt.Errorf("client: session panic: %v", r)
		}
		c.connected.Store(false)
		_ = conn.Close()
		c.clearConn()
		observability.SetConnected(false)
		if dropped := c.outbox.Clear(); dropped > 0 {
			logger.Debug().Int("dropped", dropped).Msg("client.Client.serve discarded unsent elements")
		}
		c.drainLocal()
	}()

	c.store.Clear()
	c.outbox.Clear()
	c.activity.Reset(time.Now())
	c.setConn(conn, sessionID)
	c.connected.Store(true)
	c.setState(session.StateConnected)
	observability.RecordSession(observability.SessionConnected)
	observability.SetConnected(true)
	logger.Info().Msg("client.Client.serve connected")
	c.deliver(c.localMessage("connected to %s", c.cfg.Addr()))

	if c.stopping.Load() {
		return nil
	}
	if hello, herr := indi.BuildGetProperties("", ""); herr == nil {
		c.outbox.Push(hello)
	}

	inbox := make(chan protocol.Element, c.cfg.Session.InboxSize)
	framer := frame.NewFramer(frame.Limits{MaxElementBytes: c.cfg.Session.MaxElementBytes})

	loops := []struct {
		name string
		run  func(context.Context) error
	}{
		{"reader", func(ctx context.Context) error { return c.readLoop(ctx, conn, framer, inbox) }},
		{"dispatch", func(ctx context.Context) error { return c.dispatchLoop(ctx, inbox) }},
		{"writer", func(ctx context.Context) error { return c.writeLoop(ctx, conn) }},
		{"supervisor", c.superviseLoop},
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for _, loop := range loops {
		loop := loop
		wg.Add(1)
		go func() {
			defer wg.Done()
			loopErr := guard(loop.name, func() error { return loop.run(ctx) })
			if loopErr != nil {
				logger.Debug().Err(loopErr).Str("loop", loop.name).Msg("client.Client.serve loop exited")
			}
			errOnce.Do(func() { firstErr = loopErr })
			c.connected.Store(false)
		}()
	}
	wg.Wait()

	if errors.Is(firstErr, net.ErrClosed) && c.stopping.Load() {
		firstErr = nil
	}
	return firstErr
}

// guard turns a panicking sub-loop into a session error so the reconnect
// path still runs.
func guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("loop", name).Msg("client.Client.serve loop panicked")
			err = fmt.Errorf("client: %s loop panic: %v", name, r)
		}
	}()
	return fn()
}

// deliver hands ev to the handler. Callers guarantee exclusivity: the
// session goroutine outside a session, the dispatch loop inside one.
func (c *Client) deliver(ev indi.Event) {
	observability.RecordEvent(string(ev.Type()))
	if c.handler != nil {
		c.handler(ev)
	}
}

func (c *Client) drainLocal() {
	for {
		select {
		case ev := <-c.local:
			c.deliver(ev)
		default:
			return
		}
	}
}
