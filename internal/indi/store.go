package indi

import (
	"sort"
	"sync"
	"time"
)

// Store holds every device learned from the wire. Mutation happens only
// through Decoder and the vector builder; readers get deep copies.
type Store struct {
	mu       sync.RWMutex
	devices  map[string]*device
	messages *messageLog
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		devices:  make(map[string]*device),
		messages: newMessageLog(MessageLogCapacity),
		now:      time.Now,
	}
}

// Snapshot copies every enabled device in one critical section.
func (s *Store) Snapshot() map[string]Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Device, len(s.devices))
	for name, d := range s.devices {
		if !d.enabled() {
			continue
		}
		out[name] = d.snapshot()
	}
	return out
}

// Device returns a copy of the named device, enabled or not.
func (s *Store) Device(name string) (Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[name]
	if !ok {
		return Device{}, false
	}
	return d.snapshot(), true
}

// Vector returns a copy of one vector, enabled or not.
func (s *Store) Vector(deviceName, vectorName string) (Vector, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[deviceName]
	if !ok {
		return Vector{}, false
	}
	v, ok := d.vectors[vectorName]
	if !ok {
		return Vector{}, false
	}
	return v.Clone(), true
}

// DeviceNames lists enabled device names in order.
func (s *Store) DeviceNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.devices))
	for name, d := range s.devices {
		if d.enabled() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// EnabledCount returns the number of devices with at least one enabled vector.
func (s *Store) EnabledCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, d := range s.devices {
		if d.enabled() {
			n++
		}
	}
	return n
}

// Messages returns the client-level message log, newest first.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messages.list()
}

// AddMessage records a locally generated message in the client-level log.
func (s *Store) AddMessage(text string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := Message{Timestamp: s.now().UTC(), Text: text}
	s.messages.add(m)
	return m
}

// Clear forgets every device. Used when a new session starts.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = make(map[string]*device)
}

// ExpiredSubmissions returns one VectorTimeoutEvent for each Busy vector whose
// submission window elapsed without a set event. Each submission reports once.
func (s *Store) ExpiredSubmissions(now time.Time, min, max time.Duration) []VectorTimeoutEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []VectorTimeoutEvent
	for _, d := range s.devices {
		for _, v := range d.vectors {
			if !v.Enabled || v.sentAt.IsZero() || v.timedOut || v.State != StateBusy {
				continue
			}
			window := TimeoutWindow(v.Timeout, min, max)
			elapsed := now.Sub(v.sentAt)
			if elapsed < window {
				continue
			}
			v.timedOut = true
			out = append(out, VectorTimeoutEvent{
				EventInfo: EventInfo{Device: d.name, Timestamp: now.UTC()},
				Vector:    v.Name,
				Kind:      v.Kind,
				Elapsed:   elapsed,
				Window:    window,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Device != out[j].Device {
			return out[i].Device < out[j].Device
		}
		return out[i].Vector < out[j].Vector
	})
	return out
}
