package session

import (
	"sync/atomic"
	"time"
)

// Activity holds the idle and response clocks touched by the reader,
// writer and supervisor loops. All methods are safe for concurrent use.
type Activity struct {
	lastIO       atomic.Int64
	awaitingFrom atomic.Int64
}

// Reset restarts the idle clock at now and disarms the response clock.
func (a *Activity) Reset(now time.Time) {
	a.lastIO.Store(now.UnixNano())
	a.awaitingFrom.Store(0)
}

// Sent records outbound traffic. The response clock arms on the first send
// after the last receive and keeps that start time until data arrives.
func (a *Activity) Sent(now time.Time) {
	a.lastIO.Store(now.UnixNano())
	a.awaitingFrom.CompareAndSwap(0, now.UnixNano())
}

// Received records inbound traffic and disarms the response clock.
func (a *Activity) Received(now time.Time) {
	a.lastIO.Store(now.UnixNano())
	a.awaitingFrom.Store(0)
}

// Idle returns time since the last byte in either direction.
func (a *Activity) Idle(now time.Time) time.Duration {
	last := a.lastIO.Load()
	if last == 0 {
		return 0
	}
	return now.Sub(time.Unix(0, last))
}

// AwaitingResponse returns how long sent data has gone unanswered.
func (a *Activity) AwaitingResponse(now time.Time) (time.Duration, bool) {
	since := a.awaitingFrom.Load()
	if since == 0 {
		return 0, false
	}
	return now.Sub(time.Unix(0, since)), true
}
