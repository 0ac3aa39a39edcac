package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/danmuck/indictl/internal/indi"
	"github.com/danmuck/indictl/internal/observability"
	"github.com/danmuck/indictl/internal/protocol"
	"github.com/danmuck/indictl/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

const readChunkSize = 64 * 1024

var ErrPeerClosed = errors.New("client: peer closed connection")

// readLoop pulls bytes, drives the framer and feeds the bounded inbox.
func (c *Client) readLoop(ctx context.Context, conn net.Conn, framer *frame.Framer, inbox chan<- protocol.Element) error {
	poll := c.cfg.Session.PollInterval
	buf := make([]byte, readChunkSize)
	for c.alive(ctx) {
		_ = conn.SetReadDeadline(time.Now().Add(poll))
		n, err := conn.Read(buf)
		if n > 0 {
			c.activity.Received(time.Now())
			observability.RecordBytesRead(n)
			_, _ = framer.Write(buf[:n])
			if ferr := c.drainFramer(ctx, framer, inbox); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, io.EOF) {
				return ErrPeerClosed
			}
			return err
		}
	}
	return nil
}

func (c *Client) drainFramer(ctx context.Context, framer *frame.Framer, inbox chan<- protocol.Element) error {
	for {
		el, ok, err := framer.Next()
		if err != nil {
			if errors.Is(err, frame.ErrElementTooLarge) {
				log.Error().Err(err).Msg("client.Client.readLoop framing failure")
				return err
			}
			observability.RecordFramerResync()
			continue
		}
		if !ok {
			return nil
		}
		observability.RecordFrame()
		if !offer(c, ctx, inbox, el) {
			return nil
		}
	}
}

// offer blocks until ch accepts v, re-checking liveness every poll interval.
func offer[T any](c *Client, ctx context.Context, ch chan<- T, v T) bool {
	timer := time.NewTimer(c.cfg.Session.PollInterval)
	defer timer.Stop()
	for {
		select {
		case ch <- v:
			return true
		case <-timer.C:
			if !c.alive(ctx) {
				return false
			}
			timer.Reset(c.cfg.Session.PollInterval)
		}
	}
}

// dispatchLoop is the only mutator of the store on the receive path and the
// only caller of the handler while a session is up.
func (c *Client) dispatchLoop(ctx context.Context, inbox <-chan protocol.Element) error {
	ticker := time.NewTicker(c.cfg.Session.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case el := <-inbox:
			c.dispatch(el)
		case ev := <-c.local:
			c.deliver(ev)
		case <-ticker.C:
			if !c.alive(ctx) {
				return nil
			}
		}
	}
}

func (c *Client) dispatch(el protocol.Element) {
	ev, err := c.decoder.Decode(el)
	if err != nil {
		observability.RecordDecodeError(el.Tag)
		log.Warn().Err(err).Str("tag", el.Tag).Msg("client.Client.dispatch decode failed")
		c.deliver(c.localMessage("%v", err))
		return
	}
	c.deliver(ev)
}

// writeLoop drains the outbound queue in FIFO order.
func (c *Client) writeLoop(ctx context.Context, conn net.Conn) error {
	ticker := time.NewTicker(c.cfg.Session.PollInterval)
	defer ticker.Stop()
	for c.alive(ctx) {
		el, ok := c.outbox.Pop()
		if !ok {
			select {
			case <-c.outbox.Ready():
			case <-ticker.C:
			}
			continue
		}
		wire, err := protocol.Marshal(el)
		if err != nil {
			log.Error().Err(err).Str("tag", el.Tag).Msg("client.Client.writeLoop encode failed")
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.Session.WriteTimeout))
		n, err := conn.Write(wire)
		if n > 0 {
			observability.RecordBytesWritten(n)
			c.activity.Sent(time.Now())
		}
		if err != nil {
			return fmt.Errorf("client: write <%s>: %w", el.Tag, err)
		}
	}
	return nil
}

// emit queues an event raised outside the dispatch loop.
func (c *Client) emit(ctx context.Context, ev indi.Event) bool {
	return offer(c, ctx, c.local, ev)
}
