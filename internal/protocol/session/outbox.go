package session

import (
	"sync"

	"github.com/danmuck/indictl/internal/protocol"
)

// Outbox is the unbounded FIFO of elements waiting for the writer loop.
// Push never blocks; Ready signals when the queue transitions to non-empty.
type Outbox struct {
	mu    sync.Mutex
	items []protocol.Element
	ready chan struct{}
}

func NewOutbox() *Outbox {
	return &Outbox{
		ready: make(chan struct{}, 1),
	}
}

// Push appends el to the tail of the queue.
func (o *Outbox) Push(el protocol.Element) {
	o.mu.Lock()
	o.items = append(o.items, el)
	o.mu.Unlock()
	select {
	case o.ready <- struct{}{}:
	default:
	}
}

// Pop removes the head of the queue.
func (o *Outbox) Pop() (protocol.Element, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.items) == 0 {
		return protocol.Element{}, false
	}
	el := o.items[0]
	o.items[0] = protocol.Element{}
	o.items = o.items[1:]
	return el, true
}

// Ready is signalled after Push. A receive does not guarantee Pop succeeds.
func (o *Outbox) Ready() <-chan struct{} {
	return o.ready
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}

// Clear discards every queued element and returns how many were dropped.
func (o *Outbox) Clear() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.items)
	o.items = nil
	select {
	case <-o.ready:
	default:
	}
	return n
}
