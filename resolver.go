package wireplan

import (
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Observer is told the outcome of every resolution pass.
type Observer interface {
	ResolutionSucceeded(plan *WiringPlan, elapsed time.Duration)
	ResolutionFailed(err error, elapsed time.Duration)
}

type Option func(*Resolver)

// WithLogger sets the logger used for stage diagnostics. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver reports each pass to o, typically a metrics collector.
func WithObserver(o Observer) Option {
	return func(r *Resolver) {
		r.observer = o
	}
}

// Resolver turns declarations into a WiringPlan: validate, build the provider graph, check
// for cycles, order. A Resolver is safe for concurrent use.
type Resolver struct {
	logger   *zap.Logger
	observer Observer
	validate *validator.Validate
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		logger:   zap.NewNop(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs one resolution pass. Each stage reports every problem it can detect; any error
// aborts the pass and no plan is returned. Use multierr.Errors to split the returned error.
func (r *Resolver) Resolve(decls []ContextDescriptor) (plan *WiringPlan, err error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		if r.observer == nil {
			return
		}
		if err != nil {
			r.observer.ResolutionFailed(err, elapsed)
			return
		}
		r.observer.ResolutionSucceeded(plan, elapsed)
	}()

	if len(decls) == 0 {
		return nil, ErrNoDeclarations
	}
	decls = cloneDeclarations(decls)

	r.logger.Debug("validating declarations", zap.Int("contexts", len(decls)))
	err = multierr.Combine(
		validateDeclarations(r.validate, decls),
		checkStrict(decls),
	)
	if err != nil {
		return nil, r.fail("validate", err)
	}

	r.logger.Debug("building provider graph")
	graph, err := buildGraph(decls)
	if err != nil {
		return nil, r.fail("build", err)
	}

	r.logger.Debug("ordering provider graph", zap.Int("nodes", len(graph.Nodes)), zap.Int("edges", len(graph.Edges)))
	order, err := orderGraph(graph)
	if err != nil {
		return nil, r.fail("order", err)
	}

	plan = newPlan(decls, graph, order)
	r.logger.Info("wiring plan resolved",
		zap.Int("contexts", len(plan.contexts)),
		zap.Int("beans", plan.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return plan, nil
}

func (r *Resolver) fail(stage string, err error) error {
	errs := multierr.Errors(err)
	r.logger.Warn("resolution failed",
		zap.String("stage", stage),
		zap.Int("errors", len(errs)),
		zap.String("kind", ErrorKind(errs[0])),
		zap.Error(err),
	)
	return err
}

// Resolve runs a pass with a default Resolver.
func Resolve(decls []ContextDescriptor) (*WiringPlan, error) {
	return NewResolver().Resolve(decls)
}

// cloneDeclarations deep-copies the input so the plan never aliases the caller's slices.
func cloneDeclarations(decls []ContextDescriptor) []ContextDescriptor {
	out := make([]ContextDescriptor, len(decls))
	for i, ctx := range decls {
		ctx.Dependencies = slices.Clone(ctx.Dependencies)
		beans := make([]BeanDescriptor, len(ctx.Beans))
		for j, bn := range ctx.Beans {
			bn.Requires = slices.Clone(bn.Requires)
			beans[j] = bn
		}
		ctx.Beans = beans
		out[i] = ctx
	}
	return out
}
