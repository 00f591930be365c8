package events

import (
	"sync"
)

// Broker provides type-safe pub/sub fan-out to both callback and channel
// subscribers. T is the type of the published value.
type Broker[T any] struct {
	mu        sync.RWMutex
	callbacks map[uint64]func(T)
	channels  map[uint64]chan<- T
	nextID    uint64
	sticky    bool
	last      *T
	published bool
}

// NewBroker creates a new Broker.
// sticky: if true, the Broker remembers the last published value and replays
// it to new subscribers immediately, provided Publish has been called at
// least once.
func NewBroker[T any](sticky bool) *Broker[T] {
	return &Broker[T]{
		callbacks: make(map[uint64]func(T)),
		channels:  make(map[uint64]chan<- T),
		sticky:    sticky,
	}
}

// Subscribe registers a callback to be invoked on every Publish.
// Returns an unsubscribe function.
func (b *Broker[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		panic("events: callback cannot be nil")
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.callbacks[id] = fn
	replay, value := b.stickyValueLocked()
	b.mu.Unlock()

	// Replay outside the lock to avoid deadlock if fn publishes.
	if replay {
		fn(value)
	}

	return func() {
		b.mu.Lock()
		delete(b.callbacks, id)
		b.mu.Unlock()
	}
}

// SubscribeChan registers a channel to receive every published value.
// Sends are non-blocking: a full channel misses that value.
// Returns an unsubscribe function.
func (b *Broker[T]) SubscribeChan(ch chan<- T) func() {
	if ch == nil {
		panic("events: channel cannot be nil")
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.channels[id] = ch
	replay, value := b.stickyValueLocked()
	b.mu.Unlock()

	if replay {
		select {
		case ch <- value:
		default:
		}
	}

	return func() {
		b.mu.Lock()
		delete(b.channels, id)
		b.mu.Unlock()
	}
}

// Publish delivers value to all subscribers. Callbacks run on the caller's
// goroutine, outside the Broker's lock; channel sends never block.
func (b *Broker[T]) Publish(value T) {
	b.mu.Lock()
	if b.sticky {
		if b.last == nil {
			b.last = new(T)
		}
		*b.last = value
		b.published = true
	}
	cbs := make([]func(T), 0, len(b.callbacks))
	for _, fn := range b.callbacks {
		cbs = append(cbs, fn)
	}
	chs := make([]chan<- T, 0, len(b.channels))
	for _, ch := range b.channels {
		chs = append(chs, ch)
	}
	b.mu.Unlock()

	for _, fn := range cbs {
		fn(value)
	}
	for _, ch := range chs {
		select {
		case ch <- value:
		default:
		}
	}
}

// SubscriberCount returns the number of registered subscribers of both kinds.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.callbacks) + len(b.channels)
}

// stickyValueLocked reports whether a sticky replay is due and copies the
// value. Must be called with mu held.
func (b *Broker[T]) stickyValueLocked() (bool, T) {
	var zero T
	if !b.sticky || !b.published || b.last == nil {
		return false, zero
	}
	return true, *b.last
}
