package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/indictl/internal/indi"
	"github.com/danmuck/indictl/internal/observability"
	"github.com/rs/zerolog/log"
)

var ErrResponseTimeout = errors.New("client: no response from server")

// superviseLoop watches the idle, response and per-vector clocks. With
// TimeoutEnable off it only waits for the session to end.
func (c *Client) superviseLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.Session.PollInterval)
	defer ticker.Stop()

	lastProbe := time.Now()
	for c.alive(ctx) {
		<-ticker.C
		if !c.cfg.TimeoutEnable {
			continue
		}
		now := time.Now()

		if wait, ok := c.activity.AwaitingResponse(now); ok && wait >= c.cfg.RespondTimeout {
			observability.RecordSession(observability.SessionLivenessClose)
			log.Warn().Dur("waited", wait).Str("session_id", c.SessionID()).Msg("client.Client.superviseLoop respond timeout")
			c.emit(ctx, c.localMessage("no response in %s, closing connection", wait.Round(time.Millisecond)))
			c.closeConn()
			return fmt.Errorf("%w after %s", ErrResponseTimeout, wait.Round(time.Millisecond))
		}

		if c.store.EnabledCount() == 0 {
			if now.Sub(lastProbe) >= c.cfg.Session.ProbeInterval {
				c.probe("bootstrap")
				lastProbe = now
			}
		} else if c.activity.Idle(now) >= c.cfg.IdleTimeout && now.Sub(lastProbe) >= c.cfg.IdleTimeout {
			c.probe("idle")
			lastProbe = now
		}

		for _, ev := range c.store.ExpiredSubmissions(now, c.cfg.VectorTimeoutMin, c.cfg.VectorTimeoutMax) {
			observability.RecordSession(observability.SessionVectorTimeout)
			log.Debug().
				Str("device", ev.Device).
				Str("vector", ev.Vector).
				Dur("elapsed", ev.Elapsed).
				Msg("client.Client.superviseLoop vector timeout")
			if !c.emit(ctx, ev) {
				return nil
			}
		}
	}
	return nil
}

func (c *Client) probe(reason string) {
	el, err := indi.BuildGetProperties("", "")
	if err != nil {
		return
	}
	log.Debug().Str("reason", reason).Msg("client.Client.superviseLoop getProperties probe")
	c.outbox.Push(el)
}
