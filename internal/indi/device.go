package indi

import (
	"sort"
	"time"
)

// MessageLogCapacity bounds client and device message logs.
const MessageLogCapacity = 8

// Message is one logged text message, newest first in logs.
type Message struct {
	Timestamp time.Time
	Device    string
	Text      string
}

// messageLog is a bounded newest-first log.
type messageLog struct {
	items    []Message
	capacity int
}

func newMessageLog(capacity int) *messageLog {
	return &messageLog{
		items:    make([]Message, 0, capacity),
		capacity: capacity,
	}
}

func (l *messageLog) add(m Message) {
	if len(l.items) < l.capacity {
		l.items = append(l.items, Message{})
	}
	copy(l.items[1:], l.items[:len(l.items)-1])
	l.items[0] = m
}

func (l *messageLog) list() []Message {
	out := make([]Message, len(l.items))
	copy(out, l.items)
	return out
}

// Device is a snapshot of one device's vectors and message log.
type Device struct {
	Name     string
	Vectors  map[string]Vector
	Messages []Message
}

// Enabled is true iff any vector is enabled.
func (d Device) Enabled() bool {
	for _, v := range d.Vectors {
		if v.Enabled {
			return true
		}
	}
	return false
}

// VectorNames returns vector names in display order.
func (d Device) VectorNames() []string {
	names := make([]string, 0, len(d.Vectors))
	for name := range d.Vectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// device is the live, store-owned form of Device.
type device struct {
	name     string
	vectors  map[string]*Vector
	messages *messageLog
}

func newDevice(name string) *device {
	return &device{
		name:     name,
		vectors:  make(map[string]*Vector),
		messages: newMessageLog(MessageLogCapacity),
	}
}

func (d *device) enabled() bool {
	for _, v := range d.vectors {
		if v.Enabled {
			return true
		}
	}
	return false
}

func (d *device) snapshot() Device {
	out := Device{
		Name:     d.name,
		Vectors:  make(map[string]Vector, len(d.vectors)),
		Messages: d.messages.list(),
	}
	for name, v := range d.vectors {
		out.Vectors[name] = v.Clone()
	}
	return out
}
