package core

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gammazero/deque"
)

// OverflowPolicy decides what an Outbox does when a slow consumer fills it.
type OverflowPolicy string

const (
	// DropOldest evicts the oldest queued event to make room for the new one.
	DropOldest OverflowPolicy = "drop_oldest"
	// Disconnect closes the outbox with ErrSlowConsumer.
	Disconnect OverflowPolicy = "disconnect"
)

// ParseOverflowPolicy maps a config string to a policy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch OverflowPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DropOldest:
		return DropOldest, nil
	case Disconnect:
		return Disconnect, nil
	default:
		return "", fmt.Errorf("unknown overflow policy %q", s)
	}
}

// DefaultOutboxSize is used when a non-positive size is requested.
const DefaultOutboxSize = 256

// Outbox is a bounded FIFO of events waiting to be written to one connection.
// Push never blocks, so the hub is isolated from slow consumers.
type Outbox struct {
	mu      sync.Mutex
	queue   deque.Deque[*Event]
	limit   int
	policy  OverflowPolicy
	dropped int
	closed  bool
	err     error

	ready chan struct{}
	done  chan struct{}
}

// NewOutbox creates an outbox holding at most limit events.
func NewOutbox(limit int, policy OverflowPolicy) *Outbox {
	if limit <= 0 {
		limit = DefaultOutboxSize
	}
	if policy == "" {
		policy = DropOldest
	}
	return &Outbox{
		limit:  limit,
		policy: policy,
		ready:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push enqueues an event. It returns false if the outbox is closed or was
// closed by this push because of overflow.
func (o *Outbox) Push(ev *Event) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	if o.queue.Len() >= o.limit {
		if o.policy == Disconnect {
			o.closeLocked(ErrSlowConsumer)
			o.mu.Unlock()
			return false
		}
		o.queue.PopFront()
		o.dropped++
	}
	o.queue.PushBack(ev)
	o.mu.Unlock()

	select {
	case o.ready <- struct{}{}:
	default:
	}
	return true
}

// Drain removes and returns every queued event in order.
func (o *Outbox) Drain() []*Event {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := o.queue.Len()
	if n == 0 {
		return nil
	}
	out := make([]*Event, 0, n)
	for o.queue.Len() > 0 {
		out = append(out, o.queue.PopFront())
	}
	return out
}

// Ready is signalled whenever new events may be available.
func (o *Outbox) Ready() <-chan struct{} { return o.ready }

// Done is closed once the outbox is closed.
func (o *Outbox) Done() <-chan struct{} { return o.done }

// Close discards pending events and marks the outbox closed with reason.
// Only the first call has an effect.
func (o *Outbox) Close(reason error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeLocked(reason)
}

func (o *Outbox) closeLocked(reason error) {
	if o.closed {
		return
	}
	o.closed = true
	o.err = reason
	o.queue.Clear()
	close(o.done)
}

// Closed reports whether Close has been called.
func (o *Outbox) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Err returns the reason passed to Close.
func (o *Outbox) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Len returns the number of queued events.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queue.Len()
}

// Dropped returns how many events were evicted by the drop-oldest policy.
func (o *Outbox) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}
