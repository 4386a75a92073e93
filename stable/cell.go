// Package stable provides the at-most-once memoization cell generated containers use for every
// singleton bean.
//
// A Cell is created empty, populated by the first successful Get and never cleared. Concurrent
// first callers block on the cell's mutex; exactly one runs the supplier and all observe the
// same value. Failed or absent results leave the cell empty so a later call may retry.
//
// Go has no goroutine-local storage, so a cell marks itself as "initializing" on the
// context.Context it hands to its supplier. A supplier that asks the same cell again, with that
// context or one derived from it, gets a ReentrantInitializationError instead of a deadlock.
package stable

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
)

type Cell[T any] struct {
	name  string
	mu    sync.Mutex
	value atomic.Pointer[T]
}

// NewCell returns an empty cell. The name only appears in errors.
func NewCell[T any](name string) *Cell[T] {
	return &Cell[T]{name: name}
}

func (c *Cell[T]) Name() string {
	return c.name
}

// Peek returns the stored value without initializing.
func (c *Cell[T]) Peek() (T, bool) {
	if p := c.value.Load(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}

// Get returns the stored value, running supplier first if the cell is still empty.
func (c *Cell[T]) Get(ctx context.Context, supplier func(context.Context) (T, error)) (T, error) {
	var zero T
	// Fast path; the atomic load pairs with the Store below.
	if p := c.value.Load(); p != nil {
		return *p, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if initializing(ctx, c) {
		return zero, &ReentrantInitializationError{Cell: c.name}
	}
	if supplier == nil {
		return zero, ErrNilSupplier
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p := c.value.Load(); p != nil {
		return *p, nil
	}

	v, err := supplier(markInitializing(ctx, c))
	if err != nil {
		return zero, err
	}
	if Absent(v) {
		return zero, &NullFactoryResultError{Cell: c.name}
	}
	c.value.Store(&v)
	return v, nil
}

type initializingKey struct{}

// initChain is the set of cells being initialized along one call chain.
type initChain struct {
	cell   any
	parent *initChain
}

func initializing(ctx context.Context, cell any) bool {
	chain, _ := ctx.Value(initializingKey{}).(*initChain)
	for ; chain != nil; chain = chain.parent {
		if chain.cell == cell {
			return true
		}
	}
	return false
}

func markInitializing(ctx context.Context, cell any) context.Context {
	parent, _ := ctx.Value(initializingKey{}).(*initChain)
	return context.WithValue(ctx, initializingKey{}, &initChain{cell: cell, parent: parent})
}

// Absent reports whether v is a nil interface, pointer, map, slice, func or channel.
func Absent(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
