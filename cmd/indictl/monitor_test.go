package main

import (
	"testing"
	"time"

	"github.com/danmuck/indictl/internal/indi"
	"github.com/danmuck/indictl/internal/testutil/testlog"
)

type fakeEnabler struct {
	session string
	calls   []string
}

func (f *fakeEnabler) SendEnableBLOB(mode indi.BLOBMode, device, vector string) error {
	f.calls = append(f.calls, string(mode)+":"+device)
	return nil
}

func (f *fakeEnabler) SessionID() string { return f.session }

func defineFor(device string) indi.DefineEvent {
	return indi.DefineEvent{
		EventInfo: indi.EventInfo{Device: device, Timestamp: time.Now()},
		Vector:    indi.Vector{Device: device, Name: "V", Kind: indi.KindBLOB},
		Created:   true,
	}
}

func TestMonitorEnablesBLOBOncePerDevicePerSession(t *testing.T) {
	testlog.Start(t)
	fake := &fakeEnabler{session: "s1"}
	m := newMonitor(indi.BLOBAlso)
	m.client = fake

	m.handle(defineFor("Camera"))
	m.handle(defineFor("Camera"))
	m.handle(defineFor("Focuser"))
	if len(fake.calls) != 2 {
		t.Fatalf("calls=%v", fake.calls)
	}

	fake.session = "s2"
	m.handle(defineFor("Camera"))
	if len(fake.calls) != 3 || fake.calls[2] != "Also:Camera" {
		t.Fatalf("calls=%v", fake.calls)
	}

	m.handle(indi.VectorTimeoutEvent{EventInfo: indi.EventInfo{Device: "Camera"}, Vector: "V"})
	m.handle(indi.MessageEvent{Text: "hello", Local: true})
	if len(fake.calls) != 3 {
		t.Fatalf("non-define events should not enable BLOBs: %v", fake.calls)
	}
}

func TestMonitorWithoutModeSendsNothing(t *testing.T) {
	testlog.Start(t)
	fake := &fakeEnabler{session: "s1"}
	m := newMonitor("")
	m.client = fake
	m.handle(defineFor("Camera"))
	if len(fake.calls) != 0 {
		t.Fatalf("calls=%v", fake.calls)
	}
}
