package wireplan

import (
	"context"
	"fmt"

	"github.com/Station-Manager/wireplan/dynamic"
	"github.com/Station-Manager/wireplan/stable"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Provider builds one bean. deps holds the resolved dependencies in the order of the plan
// entry's Dependencies.
//
// A provider that resolves other beans from the container must pass on the ctx it was given.
// Re-entry into a bean under construction is only detected through that ctx; a call made with a
// fresh context such as context.Background() blocks forever instead of returning a
// stable.ReentrantInitializationError.
type Provider func(ctx context.Context, deps []any) (any, error)

type ContainerOption func(*Container)

func WithContainerLogger(logger *zap.Logger) ContainerOption {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithInitHook observes every bean construction, e.g. for metrics.
func WithInitHook(hook stable.InitHook) ContainerOption {
	return func(c *Container) {
		c.hook = hook
	}
}

// Container interprets a WiringPlan directly: every bean is built lazily, once, on first
// resolution, by the Provider registered under its ProviderRef.ID(). It is what generated code
// does, without the generation step.
type Container struct {
	id               string
	plan             *WiringPlan
	providers        []Provider
	arena            *stable.Arena
	logger           *zap.Logger
	hook             stable.InitHook
	externals        map[TypeRef]any
	externalProvider ExternalProvider
}

// NewContainer checks that every non-external entry of plan has a provider and returns an
// empty container. All missing providers are reported together.
func NewContainer(plan *WiringPlan, providers map[string]Provider, opts ...ContainerOption) (*Container, error) {
	if plan == nil {
		return nil, ErrNilPlan
	}
	c := &Container{
		id:        uuid.NewString(),
		plan:      plan,
		providers: make([]Provider, plan.Len()),
		logger:    zap.NewNop(),
		externals: make(map[TypeRef]any),
	}
	for _, opt := range opts {
		opt(c)
	}

	var errs error
	names := make([]string, plan.Len())
	for _, e := range plan.entries {
		names[e.Slot] = fmt.Sprintf("%s[%d] %s", c.id, e.Slot, e.Key)
		if p, ok := providers[e.Provider.ID()]; ok && p != nil {
			c.providers[e.Slot] = p
			continue
		}
		if e.Key.External {
			continue // WithExternals or the ExternalProvider hook, looked up on first use
		}
		errs = multierr.Append(errs, fmt.Errorf("%w: '%s' for bean '%s'", ErrProviderMissing, e.Provider.ID(), e.Key))
	}
	if errs != nil {
		return nil, errs
	}
	c.arena = stable.NewArena(names, c.hook)
	c.logger = c.logger.With(zap.String("container", c.id))
	return c, nil
}

func (c *Container) ID() string {
	return c.id
}

func (c *Container) Plan() *WiringPlan {
	return c.plan
}

// Initialized reports how many beans have been constructed so far.
func (c *Container) Initialized() int {
	return c.arena.Initialized()
}

// Build constructs every bean in plan order. Beans already constructed are skipped.
func (c *Container) Build(ctx context.Context) error {
	for _, e := range c.plan.entries {
		if _, err := c.ResolveSafe(ctx, e.Key); err != nil {
			return err
		}
	}
	c.logger.Debug("container built", zap.Int("beans", c.plan.Len()))
	return nil
}

// Resolve returns a bean or panics if it cannot be resolved.
// Prefer ResolveSafe in production code to handle errors gracefully.
func (c *Container) Resolve(ctx context.Context, key BeanKey) any {
	v, err := c.ResolveSafe(ctx, key)
	if err != nil {
		panic(err)
	}
	return v
}

// ResolveSafe returns a bean, constructing it and its dependencies on first use.
// The ctx passed to providers carries the chain of beans being constructed; providers that
// resolve other beans must pass it on.
func (c *Container) ResolveSafe(ctx context.Context, key BeanKey) (any, error) {
	slot, ok := c.plan.index[key]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownBean, key)
	}
	return c.arena.Get(ctx, slot, func(ctx context.Context) (any, error) {
		return c.construct(ctx, c.plan.entries[slot])
	})
}

// Lookup resolves the bean of type t exposed by context ctxName.
func (c *Container) Lookup(ctx context.Context, ctxName, t TypeRef) (any, error) {
	return c.ResolveSafe(ctx, BeanKey{Context: ctxName, Type: t})
}

func (c *Container) construct(ctx context.Context, e PlanEntry) (any, error) {
	deps := make([]any, len(e.Dependencies))
	for i, dep := range e.Dependencies {
		v, err := c.ResolveSafe(ctx, dep)
		if err != nil {
			return nil, fmt.Errorf("bean '%s': dependency '%s': %w", e.Key, dep, err)
		}
		deps[i] = v
	}

	var (
		v   any
		err error
	)
	if p := c.providers[e.Slot]; p != nil {
		v, err = p(ctx, deps)
	} else {
		v, err = c.external(e.Key)
	}
	if err != nil {
		return nil, fmt.Errorf("bean '%s': %w", e.Key, err)
	}
	if stable.Absent(v) {
		return nil, &stable.NullFactoryResultError{Cell: c.arena.Cell(e.Slot).Name()}
	}

	if initr, ok := v.(Initializer); ok {
		if ierr := initr.Initialize(); ierr != nil {
			return nil, fmt.Errorf("initializer for bean '%s' failed: %w", e.Key, ierr)
		}
	}
	c.logger.Debug("bean constructed",
		zap.Stringer("bean", e.Key),
		zap.String("provider", e.Provider.ID()),
	)
	return v, nil
}

func (c *Container) external(key BeanKey) (any, error) {
	if v, ok := c.externals[key.Type]; ok {
		return v, nil
	}
	if c.externalProvider != nil {
		v, found, err := c.externalProvider(key)
		if err != nil {
			return nil, fmt.Errorf("external provider error: %w", err)
		}
		if found {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: external type '%s' was not supplied", ErrProviderMissing, key.Type)
}

// ResolveAs resolves a bean and casts it to T.
func ResolveAs[T any](ctx context.Context, c *Container, key BeanKey) (T, error) {
	v, err := c.ResolveSafe(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	x, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: '%s' is %T", ErrWrongBeanType, key, v)
	}
	return x, nil
}

// DynamicAs resolves a reactive binding as the dynamic resource its provider returned.
func DynamicAs[T any](ctx context.Context, c *Container, key BeanKey) (*dynamic.Resource[T], error) {
	e, ok := c.plan.Entry(key)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownBean, key)
	}
	if !e.Dynamic {
		return nil, fmt.Errorf("%w: '%s' is not a dynamic binding", ErrWrongBeanType, key)
	}
	return ResolveAs[*dynamic.Resource[T]](ctx, c, key)
}
