// Package dynamic provides Resource, an observable value with a single writer and any number of
// readers and listeners.
package dynamic

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Change is what a listener receives. HasOld is false only for the replay of the current value
// done by OnChangeAndCurrent.
type Change[T any] struct {
	Old    T
	New    T
	HasOld bool
}

type Listener[T any] func(Change[T])

type subscription[T any] struct {
	listener Listener[T]
	// mu orders deliveries to this listener: the replay of OnChangeAndCurrent always comes
	// before any update it did not already see.
	mu        sync.Mutex
	cancelled atomic.Bool
}

func (s *subscription[T]) deliver(c Change[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled.Load() {
		return
	}
	s.listener(c)
}

// Resource holds a current value and notifies listeners of every update, in registration order.
// The zero Resource holds the zero T.
//
// Set must only be called by the resource's single producer. Listeners run on the producer's
// goroutine, outside the value lock, so they may call Get, OnChange, OnChangeAndCurrent or a
// cancel function; they must not call Set on the same resource.
type Resource[T any] struct {
	mu        sync.Mutex
	current   atomic.Pointer[T]
	listeners []*subscription[T]
}

func New[T any](initial T) *Resource[T] {
	r := &Resource[T]{}
	r.current.Store(&initial)
	return r
}

func (r *Resource[T]) load() T {
	if p := r.current.Load(); p != nil {
		return *p
	}
	var zero T
	return zero
}

// Get returns the current value without blocking.
func (r *Resource[T]) Get() T {
	return r.load()
}

// Set swaps in v and then notifies the listeners registered at the time of the swap.
func (r *Resource[T]) Set(v T) {
	r.mu.Lock()
	old := r.load()
	r.current.Store(&v)
	subs := r.listeners
	r.mu.Unlock()

	c := Change[T]{Old: old, New: v, HasOld: true}
	for _, s := range subs {
		s.deliver(c)
	}
}

// OnChange registers l for every later update. The returned function unregisters it.
func (r *Resource[T]) OnChange(l Listener[T]) (cancel func()) {
	if l == nil {
		return func() {}
	}
	s := &subscription[T]{listener: l}
	r.mu.Lock()
	r.add(s)
	r.mu.Unlock()
	return r.cancelFunc(s)
}

// OnChangeAndCurrent calls l once with the current value (HasOld false) and then for every
// update after that value, with none missed or repeated.
func (r *Resource[T]) OnChangeAndCurrent(l Listener[T]) (cancel func()) {
	if l == nil {
		return func() {}
	}
	s := &subscription[T]{listener: l}
	s.mu.Lock()
	defer s.mu.Unlock()

	r.mu.Lock()
	snapshot := r.load()
	r.add(s)
	r.mu.Unlock()

	l(Change[T]{New: snapshot})
	return r.cancelFunc(s)
}

// Listeners returns the number of registered listeners.
func (r *Resource[T]) Listeners() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// add appends with copy-on-write so a snapshot taken by Set is never modified. Caller holds mu.
func (r *Resource[T]) add(s *subscription[T]) {
	n := len(r.listeners)
	r.listeners = append(r.listeners[:n:n], s)
}

func (r *Resource[T]) cancelFunc(s *subscription[T]) func() {
	return func() {
		if s.cancelled.Swap(true) {
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if i := slices.Index(r.listeners, s); i >= 0 {
			r.listeners = slices.Delete(slices.Clone(r.listeners), i, i+1)
		}
	}
}
