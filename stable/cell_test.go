package stable

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type widget struct{ id int64 }

func TestCell_ConcurrentFirstAccess(t *testing.T) {
	const callers = 50
	cell := NewCell[*widget]("widget")

	var (
		counter atomic.Int64
		start   = make(chan struct{})
		got     [callers]*widget
	)
	supplier := func(context.Context) (*widget, error) {
		n := counter.Add(1)
		time.Sleep(10 * time.Millisecond)
		return &widget{id: n}, nil
	}

	var g errgroup.Group
	for i := range callers {
		g.Go(func() error {
			<-start
			w, err := cell.Get(context.Background(), supplier)
			got[i] = w
			return err
		})
	}
	close(start)
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, counter.Load())
	for _, w := range got {
		assert.Same(t, got[0], w)
	}
}

func TestCell_Peek(t *testing.T) {
	cell := NewCell[string]("name")
	_, ok := cell.Peek()
	assert.False(t, ok)

	v, err := cell.Get(context.Background(), func(context.Context) (string, error) { return "wireplan", nil })
	require.NoError(t, err)
	assert.Equal(t, "wireplan", v)

	v, ok = cell.Peek()
	assert.True(t, ok)
	assert.Equal(t, "wireplan", v)
}

func TestCell_ZeroValueIsPresent(t *testing.T) {
	cell := NewCell[int]("count")
	v, err := cell.Get(context.Background(), func(context.Context) (int, error) { return 0, nil })
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	_, ok := cell.Peek()
	assert.True(t, ok)
}

func TestCell_NullResult(t *testing.T) {
	tests := []struct {
		name     string
		supplier func(context.Context) (any, error)
	}{
		{"nil interface", func(context.Context) (any, error) { return nil, nil }},
		{"nil pointer", func(context.Context) (any, error) { return (*widget)(nil), nil }},
		{"nil map", func(context.Context) (any, error) { return map[string]int(nil), nil }},
		{"nil func", func(context.Context) (any, error) { return (func())(nil), nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell := NewCell[any]("bean")
			_, err := cell.Get(context.Background(), tt.supplier)

			var nullErr *NullFactoryResultError
			require.ErrorAs(t, err, &nullErr)
			assert.Equal(t, "bean", nullErr.Cell)
			_, ok := cell.Peek()
			assert.False(t, ok)
		})
	}
}

func TestCell_ErrorLeavesCellEmpty(t *testing.T) {
	cell := NewCell[*widget]("widget")
	boom := errors.New("boom")
	calls := 0
	supplier := func(context.Context) (*widget, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return &widget{id: 7}, nil
	}

	_, err := cell.Get(context.Background(), supplier)
	require.ErrorIs(t, err, boom)

	w, err := cell.Get(context.Background(), supplier)
	require.NoError(t, err)
	assert.EqualValues(t, 7, w.id)
	assert.Equal(t, 2, calls)
}

func TestCell_Reentrant(t *testing.T) {
	cell := NewCell[*widget]("widget")

	var inner error
	supplier := func(ctx context.Context) (*widget, error) {
		_, inner = cell.Get(ctx, func(context.Context) (*widget, error) {
			return &widget{}, nil
		})
		return &widget{id: 1}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cell.Get(context.Background(), supplier)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reentrant Get deadlocked")
	}

	var reentrant *ReentrantInitializationError
	require.ErrorAs(t, inner, &reentrant)
	assert.Equal(t, "widget", reentrant.Cell)
}

func TestCell_ReentrantThroughAnotherCell(t *testing.T) {
	a := NewCell[string]("a")
	b := NewCell[string]("b")

	var getA func(ctx context.Context) (string, error)
	getB := func(ctx context.Context) (string, error) {
		return b.Get(ctx, func(ctx context.Context) (string, error) {
			return getA(ctx)
		})
	}
	getA = func(ctx context.Context) (string, error) {
		return a.Get(ctx, getB)
	}

	_, err := getA(context.Background())
	var reentrant *ReentrantInitializationError
	require.ErrorAs(t, err, &reentrant)
	assert.Equal(t, "a", reentrant.Cell)
}

func TestCell_IndependentCallersAreNotReentrant(t *testing.T) {
	// Another goroutine blocked on the lock is waiting, not re-entering.
	cell := NewCell[int]("slow")
	release := make(chan struct{})
	started := make(chan struct{})

	var g errgroup.Group
	g.Go(func() error {
		_, err := cell.Get(context.Background(), func(context.Context) (int, error) {
			close(started)
			<-release
			return 42, nil
		})
		return err
	})
	<-started
	g.Go(func() error {
		v, err := cell.Get(context.Background(), func(context.Context) (int, error) {
			return 0, errors.New("second supplier ran")
		})
		if err == nil && v != 42 {
			return errors.New("second caller saw a different value")
		}
		return err
	})
	close(release)
	require.NoError(t, g.Wait())
}

func TestCell_NilSupplier(t *testing.T) {
	cell := NewCell[int]("n")
	_, err := cell.Get(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilSupplier)
}

func TestAbsent(t *testing.T) {
	var (
		nilWidget *widget
		nilErr    error
		nilMap    map[string]int
	)
	assert.True(t, Absent(nil))
	assert.True(t, Absent(nilWidget))
	assert.True(t, Absent(nilErr))
	assert.True(t, Absent(nilMap))
	assert.False(t, Absent(0))
	assert.False(t, Absent(""))
	assert.False(t, Absent(&widget{}))
}
