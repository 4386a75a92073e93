package wireplan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Station-Manager/wireplan/dynamic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clockIface interface{ Now() time.Time }

type settings struct {
	Timeout time.Duration
}

type initBean struct {
	initialized int
	failFirst   bool
}

func (b *initBean) Initialize() error {
	b.initialized++
	if b.failFirst && b.initialized == 1 {
		return errors.New("not yet")
	}
	return nil
}

const (
	typeSettings TypeRef = "example.com/app.Settings"
	typeInit     TypeRef = "*example.com/app.initBean"
)

func TestInterfaceBean(t *testing.T) {
	plan, err := Resolve([]ContextDescriptor{{
		Name:         ctxMain,
		Dependencies: []TypeRef{typeLocation},
		Beans:        []BeanDescriptor{{Type: typeClock, Requires: []TypeRef{typeLocation}}},
	}})
	require.NoError(t, err)

	c, err := NewContainer(plan, map[string]Provider{
		"example.com/app.CtxMain#buildClock": func(_ context.Context, deps []any) (any, error) {
			return &fakeClock{loc: deps[0].(*time.Location)}, nil
		},
	}, WithExternals(map[TypeRef]any{typeLocation: time.UTC}))
	require.NoError(t, err)

	clock, err := ResolveAs[clockIface](context.Background(), c, key(ctxMain, typeClock))
	require.NoError(t, err)
	assert.Equal(t, 2024, clock.Now().Year())

	_, err = ResolveAs[interface{ Close() error }](context.Background(), c, key(ctxMain, typeClock))
	assert.ErrorIs(t, err, ErrWrongBeanType)
}

func TestInitializer_CalledBeforeStore(t *testing.T) {
	plan, err := Resolve([]ContextDescriptor{{
		Name:  ctxMain,
		Beans: []BeanDescriptor{{Type: typeInit}},
	}})
	require.NoError(t, err)

	bean := &initBean{failFirst: true}
	c, err := NewContainer(plan, map[string]Provider{
		"example.com/app.CtxMain#buildinitBean": func(context.Context, []any) (any, error) {
			return bean, nil
		},
	})
	require.NoError(t, err)

	_, err = c.ResolveSafe(context.Background(), key(ctxMain, typeInit))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initializer for bean")
	assert.Equal(t, 0, c.Initialized())

	v, err := ResolveAs[*initBean](context.Background(), c, key(ctxMain, typeInit))
	require.NoError(t, err)
	assert.Equal(t, 2, v.initialized)

	_, err = c.ResolveSafe(context.Background(), key(ctxMain, typeInit))
	require.NoError(t, err)
	assert.Equal(t, 2, v.initialized, "initialized once the bean is stored")
}

func TestDynamicAs(t *testing.T) {
	plan, err := Resolve([]ContextDescriptor{{
		Name: ctxMain,
		Beans: []BeanDescriptor{
			{Type: typeSettings, Dynamic: true},
			{Type: typeClock},
		},
	}})
	require.NoError(t, err)

	res := dynamic.New(settings{Timeout: time.Second})
	c, err := NewContainer(plan, map[string]Provider{
		"example.com/app.CtxMain#buildSettings": func(context.Context, []any) (any, error) {
			return res, nil
		},
		"example.com/app.CtxMain#buildClock": func(context.Context, []any) (any, error) {
			return &fakeClock{loc: time.UTC}, nil
		},
	})
	require.NoError(t, err)

	got, err := DynamicAs[settings](context.Background(), c, key(ctxMain, typeSettings))
	require.NoError(t, err)
	assert.Same(t, res, got)
	res.Set(settings{Timeout: time.Minute})
	assert.Equal(t, time.Minute, got.Get().Timeout)

	_, err = DynamicAs[settings](context.Background(), c, key(ctxMain, typeClock))
	assert.ErrorIs(t, err, ErrWrongBeanType)

	_, err = DynamicAs[settings](context.Background(), c, key(ctxMain, "example.com/app.Nope"))
	assert.ErrorIs(t, err, ErrUnknownBean)
}
