package bus

import "sync"

const eventBufferSize = 16

// Subscription delivers broadcast events to one observer.
type Subscription struct {
	Events <-chan Event
	Done   <-chan struct{}

	ch     chan Event
	doneCh chan struct{}
}

// send delivers an event without blocking; a slow observer drops events
// rather than stalling the sender.
func (s *Subscription) send(e Event) {
	select {
	case s.ch <- e:
	default:
	}
}

func (s *Subscription) close() {
	close(s.doneCh)
}

// Broadcaster fans events out to all current subscriptions.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   []*Subscription
	closed bool
}

// New creates an empty broadcaster.
func New() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers a new observer.
func (b *Broadcaster) Subscribe() *Subscription {
	sub := &Subscription{
		ch:     make(chan Event, eventBufferSize),
		doneCh: make(chan struct{}),
	}
	sub.Events = sub.ch
	sub.Done = sub.doneCh

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.close()
		return sub
	}
	b.subs = append(b.subs, sub)
	return sub
}

// Unsubscribe removes an observer. Safe to call for a subscription that
// was already removed.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			s.close()
			return
		}
	}
}

// Broadcast delivers an event to every subscription. It never fails and
// never blocks, whether there are zero observers or a stalled one.
func (b *Broadcaster) Broadcast(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		s.send(e)
	}
}

// Close signals all observers to stop.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		s.close()
	}
	b.subs = nil
}
