package stable

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// InitHook observes every supplier run in an arena: which slot, how long it took and how it
// ended. It runs with the slot's lock held.
type InitHook func(slot int, name string, elapsed time.Duration, err error)

// Arena owns one cell per bean slot of a single container instance.
type Arena struct {
	cells []Cell[any]
	hook  InitHook
}

// NewArena allocates one empty cell per name; names[i] labels slot i.
func NewArena(names []string, hook InitHook) *Arena {
	a := &Arena{
		cells: make([]Cell[any], len(names)),
		hook:  hook,
	}
	for i, name := range names {
		a.cells[i].name = name
	}
	return a
}

func (a *Arena) Len() int {
	return len(a.cells)
}

// Initialized reports how many slots hold a value.
func (a *Arena) Initialized() int {
	n := 0
	for i := range a.cells {
		if a.cells[i].value.Load() != nil {
			n++
		}
	}
	return n
}

// Cell returns the cell for slot, or nil when out of range.
func (a *Arena) Cell(slot int) *Cell[any] {
	if slot < 0 || slot >= len(a.cells) {
		return nil
	}
	return &a.cells[slot]
}

// Get returns the value of slot, initializing it with supplier on first use.
func (a *Arena) Get(ctx context.Context, slot int, supplier func(context.Context) (any, error)) (any, error) {
	cell := a.Cell(slot)
	if cell == nil {
		return nil, fmt.Errorf("%w: %d of %d", ErrSlotOutOfRange, slot, len(a.cells))
	}
	if a.hook == nil || supplier == nil {
		return cell.Get(ctx, supplier)
	}
	return cell.Get(ctx, func(ctx context.Context) (any, error) {
		start := time.Now()
		v, err := supplier(ctx)
		if err == nil && Absent(v) {
			err = &NullFactoryResultError{Cell: cell.name}
		}
		a.hook(slot, cell.name, time.Since(start), err)
		return v, err
	})
}

// Get is the typed form of Arena.Get for generated accessors.
func Get[T any](ctx context.Context, a *Arena, slot int, supplier func(context.Context) (T, error)) (T, error) {
	var zero T
	if supplier == nil {
		return zero, ErrNilSupplier
	}
	v, err := a.Get(ctx, slot, func(ctx context.Context) (any, error) {
		return supplier(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("stable: slot %d holds %T, not %s", slot, v, reflect.TypeFor[T]())
	}
	return t, nil
}
