package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danmuck/indictl/internal/protocol"
	"github.com/danmuck/indictl/internal/testutil/testlog"
)

func TestNextBackoffDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       false,
	}
	if got := NextBackoffDelay(cfg, 1, nil); got != 250*time.Millisecond {
		t.Fatalf("attempt1 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 2, nil); got != 500*time.Millisecond {
		t.Fatalf("attempt2 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 3, nil); got != time.Second {
		t.Fatalf("attempt3 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 6, nil); got != 5*time.Second {
		t.Fatalf("attempt6 got=%v", got)
	}
}

func TestDefaultReconnectDelayIsFlat(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	for attempt := 1; attempt <= 4; attempt++ {
		if got := NextBackoffDelay(cfg.Backoff, attempt, nil); got != 5*time.Second {
			t.Fatalf("attempt%d got=%v", attempt, got)
		}
	}
}

func TestConfigWithDefaults(t *testing.T) {
	testlog.Start(t)
	cfg := Config{PollInterval: 10 * time.Millisecond}.WithDefaults()
	def := DefaultConfig()
	if cfg.PollInterval != 10*time.Millisecond {
		t.Fatalf("poll overwritten: %v", cfg.PollInterval)
	}
	if cfg.ConnectTimeout != def.ConnectTimeout || cfg.InboxSize != 4 || cfg.Backoff != def.Backoff {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.MaxElementBytes != def.MaxElementBytes {
		t.Fatalf("max element bytes=%d", cfg.MaxElementBytes)
	}
}

func TestPauseHonorsStopPromptly(t *testing.T) {
	testlog.Start(t)
	var stop atomic.Bool
	go func() {
		time.Sleep(20 * time.Millisecond)
		stop.Store(true)
	}()
	start := time.Now()
	if Pause(context.Background(), 5*time.Second, 10*time.Millisecond, stop.Load) {
		t.Fatalf("pause should have been interrupted")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("pause took too long: %v", elapsed)
	}
}

func TestPauseCompletesAndRespectsContext(t *testing.T) {
	testlog.Start(t)
	if !Pause(context.Background(), 30*time.Millisecond, 10*time.Millisecond, nil) {
		t.Fatalf("expected full pause")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if Pause(ctx, time.Second, 10*time.Millisecond, nil) {
		t.Fatalf("canceled context should interrupt")
	}
}

func TestOutboxFIFOAndClear(t *testing.T) {
	testlog.Start(t)
	o := NewOutbox()
	for _, tag := range []string{"a", "b", "c"} {
		o.Push(protocol.NewElement(tag))
	}
	select {
	case <-o.Ready():
	default:
		t.Fatalf("expected ready signal")
	}
	if got := o.Len(); got != 3 {
		t.Fatalf("len=%d", got)
	}
	el, ok := o.Pop()
	if !ok || el.Tag != "a" {
		t.Fatalf("pop got=%q ok=%v", el.Tag, ok)
	}
	if dropped := o.Clear(); dropped != 2 {
		t.Fatalf("dropped=%d", dropped)
	}
	if _, ok := o.Pop(); ok {
		t.Fatalf("queue should be empty")
	}
	select {
	case <-o.Ready():
		t.Fatalf("clear should drain ready signal")
	default:
	}
}

func TestActivityClocks(t *testing.T) {
	testlog.Start(t)
	var a Activity
	t0 := time.Unix(1700000000, 0)
	a.Reset(t0)
	if _, ok := a.AwaitingResponse(t0); ok {
		t.Fatalf("response clock armed after reset")
	}

	a.Sent(t0.Add(time.Second))
	a.Sent(t0.Add(3 * time.Second))
	wait, ok := a.AwaitingResponse(t0.Add(5 * time.Second))
	if !ok || wait != 4*time.Second {
		t.Fatalf("awaiting=%v ok=%v", wait, ok)
	}
	if idle := a.Idle(t0.Add(5 * time.Second)); idle != 2*time.Second {
		t.Fatalf("idle=%v", idle)
	}

	a.Received(t0.Add(6 * time.Second))
	if _, ok := a.AwaitingResponse(t0.Add(7 * time.Second)); ok {
		t.Fatalf("receive should disarm response clock")
	}
	if idle := a.Idle(t0.Add(7 * time.Second)); idle != time.Second {
		t.Fatalf("idle=%v", idle)
	}
}

func TestStateString(t *testing.T) {
	if StateConnected.String() != "connected" || State(99).String() != "unknown" {
		t.Fatalf("unexpected state strings")
	}
}
