package wireplan

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const (
	ctxMain   TypeRef = "example.com/app.CtxMain"
	ctxModule TypeRef = "example.com/app.CtxModule"
	ctxExtra  TypeRef = "example.com/app.CtxExtra"

	typeClock    TypeRef = "example.com/app.Clock"
	typeLogger   TypeRef = "example.com/app.Logger"
	typeMapper   TypeRef = "*example.com/app.Mapper"
	typeService  TypeRef = "example.com/app.Service"
	typeLocation TypeRef = "time.Location"
)

// appDeclarations is a small, fully resolvable set: a generated context pulling a Logger from an
// expandOnly module and a *time.Location from its caller.
func appDeclarations() []ContextDescriptor {
	return []ContextDescriptor{
		{
			Name:         ctxMain,
			Dependencies: []TypeRef{ctxModule, typeLocation},
			Beans: []BeanDescriptor{
				{Type: typeClock, Requires: []TypeRef{typeLocation}},
				{Type: typeMapper, Requires: []TypeRef{typeClock, typeLogger}},
				{Type: typeService, Requires: []TypeRef{typeMapper, typeClock}},
			},
		},
		{
			Name:       ctxModule,
			ExpandOnly: true,
			Beans: []BeanDescriptor{
				{Type: typeLogger, Method: "logger"},
			},
		},
	}
}

func key(ctx, t TypeRef) BeanKey {
	return BeanKey{Context: ctx, Type: t}
}

func externalKey(ctx, t TypeRef) BeanKey {
	return BeanKey{Context: ctx, Type: t, External: true}
}

// requireTopological fails unless every entry's dependencies sit in earlier slots.
func requireTopological(t *testing.T, plan *WiringPlan) {
	t.Helper()
	seen := make(map[BeanKey]bool, plan.Len())
	for _, e := range plan.Entries() {
		for _, dep := range e.Dependencies {
			require.Truef(t, seen[dep], "%s needs %s, which comes later", e.Key, dep)
		}
		seen[e.Key] = true
	}
}

// errorsOf splits a combined error and asserts each part is a *E.
func errorsOf[E error](t *testing.T, err error) []E {
	t.Helper()
	require.Error(t, err)
	var out []E
	for _, e := range multierr.Errors(err) {
		typed, ok := e.(E)
		require.Truef(t, ok, "unexpected error %T: %v", e, e)
		out = append(out, typed)
	}
	return out
}
