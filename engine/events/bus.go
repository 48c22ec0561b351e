// Package events provides typed observer registration for cross-component
// signals. Payloads are plain structs delivered synchronously to subscribers,
// which gives compile-time guarantees on payload shape instead of the
// string-keyed ad hoc events the viewer's UI layer uses.
package events

import "sync"

// Bus delivers values of a single payload type to registered subscribers.
// Subscribers are invoked synchronously on the publishing goroutine, in
// registration order. Subscribing and publishing are safe for concurrent use.
type Bus[T any] struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(T)
}

// NewBus creates an empty Bus for payload type T.
//
// Returns:
//   - *Bus[T]: the newly created bus
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{subs: make(map[int]func(T))}
}

// Subscribe registers fn to receive every published payload.
//
// Parameters:
//   - fn: the subscriber callback
//
// Returns:
//   - func(): an unsubscribe function, safe to call more than once
func (b *Bus[T]) Subscribe(fn func(T)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers payload to every current subscriber.
//
// Parameters:
//   - payload: the value to deliver
func (b *Bus[T]) Publish(payload T) {
	b.mu.RLock()
	// Copy out so a subscriber unsubscribing mid-delivery cannot deadlock.
	fns := make([]func(T), 0, len(b.subs))
	for i := 0; i < b.next; i++ {
		if fn, ok := b.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(payload)
	}
}

// Len reports the current subscriber count.
//
// Returns:
//   - int: the number of active subscribers
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
