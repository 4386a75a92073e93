package dynamic

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type recorder[T any] struct {
	mu      sync.Mutex
	changes []Change[T]
}

func (r *recorder[T]) listen(c Change[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder[T]) all() []Change[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Change[T](nil), r.changes...)
}

func TestResource_Get(t *testing.T) {
	r := New("v1")
	assert.Equal(t, "v1", r.Get())
	r.Set("v2")
	assert.Equal(t, "v2", r.Get())
}

func TestResource_ZeroValue(t *testing.T) {
	var r Resource[int]
	assert.Zero(t, r.Get())

	rec := &recorder[int]{}
	r.OnChangeAndCurrent(rec.listen)
	r.Set(7)
	assert.Equal(t, 7, r.Get())
	assert.Equal(t, []Change[int]{
		{New: 0},
		{Old: 0, New: 7, HasOld: true},
	}, rec.all())
}

func TestResource_OnChangeAndCurrent(t *testing.T) {
	r := New("V")
	rec := &recorder[string]{}

	r.OnChangeAndCurrent(rec.listen)
	require.Equal(t, []Change[string]{{New: "V"}}, rec.all())

	r.Set("W")
	assert.Equal(t, []Change[string]{
		{New: "V"},
		{Old: "V", New: "W", HasOld: true},
	}, rec.all())
}

func TestResource_OnChangeSkipsCurrent(t *testing.T) {
	r := New(1)
	rec := &recorder[int]{}
	r.OnChange(rec.listen)
	assert.Empty(t, rec.all())

	r.Set(2)
	r.Set(3)
	assert.Equal(t, []Change[int]{
		{Old: 1, New: 2, HasOld: true},
		{Old: 2, New: 3, HasOld: true},
	}, rec.all())
}

func TestResource_RegistrationOrder(t *testing.T) {
	r := New(0)
	var order []string
	r.OnChange(func(Change[int]) { order = append(order, "first") })
	r.OnChangeAndCurrent(func(c Change[int]) {
		if c.HasOld {
			order = append(order, "second")
		}
	})
	r.OnChange(func(Change[int]) { order = append(order, "third") })

	r.Set(1)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestResource_Cancel(t *testing.T) {
	r := New(0)
	rec := &recorder[int]{}
	cancel := r.OnChange(rec.listen)
	require.Equal(t, 1, r.Listeners())

	r.Set(1)
	cancel()
	cancel()
	r.Set(2)

	assert.Len(t, rec.all(), 1)
	assert.Equal(t, 0, r.Listeners())
}

func TestResource_NilListener(t *testing.T) {
	r := New(0)
	cancel := r.OnChange(nil)
	cancel()
	r.OnChangeAndCurrent(nil)()
	assert.Equal(t, 0, r.Listeners())
}

func TestResource_ListenerMayReenter(t *testing.T) {
	r := New(0)
	late := &recorder[int]{}
	var seen []int
	var cancelSelf func()

	cancelSelf = r.OnChange(func(c Change[int]) {
		seen = append(seen, r.Get())
		r.OnChangeAndCurrent(late.listen)
		cancelSelf()
	})

	r.Set(1)
	r.Set(2)

	assert.Equal(t, []int{1}, seen, "listener saw the new value and then unregistered itself")
	assert.Equal(t, []Change[int]{
		{New: 1},
		{Old: 1, New: 2, HasOld: true},
	}, late.all(), "a listener added during dispatch only sees later updates")
}

func TestResource_ConcurrentSubscribeMissesNothing(t *testing.T) {
	// A single producer publishes 1..n while subscribers join at random points. Every subscriber
	// must see a gapless, duplicate-free run starting at its snapshot.
	const (
		n           = 500
		subscribers = 20
	)
	r := New(0)
	recs := make([]*recorder[int], subscribers)
	for i := range recs {
		recs[i] = &recorder[int]{}
	}

	var g errgroup.Group
	g.Go(func() error {
		for v := 1; v <= n; v++ {
			r.Set(v)
		}
		return nil
	})
	for i := range subscribers {
		g.Go(func() error {
			r.OnChangeAndCurrent(recs[i].listen)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, rec := range recs {
		changes := rec.all()
		require.NotEmpty(t, changes)
		assert.False(t, changes[0].HasOld)
		want := changes[0].New
		for _, c := range changes[1:] {
			require.True(t, c.HasOld)
			require.Equal(t, want, c.Old)
			require.Equal(t, want+1, c.New)
			want = c.New
		}
		assert.Equal(t, n, want)
	}
}
