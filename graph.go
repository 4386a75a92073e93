package wireplan

import (
	"slices"

	"go.uber.org/multierr"
)

// graphNode is a resolved provider in the graph.
type graphNode struct {
	Key      BeanKey
	Provider ProviderRef
	// Bean is nil for external nodes.
	Bean *BeanDescriptor
	// Dependencies are the resolved providers of Bean.Requires, in the same order.
	Dependencies []BeanKey
}

// providerGraph maps every reachable bean to its resolved provider.
type providerGraph struct {
	Nodes map[BeanKey]*graphNode
	Edges []dependencyEdge

	// roots holds the beans of generated contexts in declaration order.
	roots []BeanKey
}

// exposure is what a context offers for one type after resolving its own overrides.
type exposure struct {
	node      *graphNode
	override  bool
	ambiguous bool
}

type graphBuilder struct {
	contexts map[TypeRef]*ContextDescriptor
	exposed  map[TypeRef]map[TypeRef]*exposure
	graph    *providerGraph
	errs     error
}

// buildGraph resolves every requirement of every generated context to exactly one provider.
// All missing and ambiguous providers are reported together.
func buildGraph(decls []ContextDescriptor) (*providerGraph, error) {
	b := &graphBuilder{
		contexts: make(map[TypeRef]*ContextDescriptor, len(decls)),
		exposed:  make(map[TypeRef]map[TypeRef]*exposure, len(decls)),
		graph:    &providerGraph{Nodes: make(map[BeanKey]*graphNode)},
	}
	for i := range decls {
		b.contexts[decls[i].Name] = &decls[i]
	}
	for i := range decls {
		b.collectExposed(&decls[i])
	}
	for i := range decls {
		ctx := &decls[i]
		if !ctx.Generated() {
			continue
		}
		for j := range ctx.Beans {
			e := b.exposed[ctx.Name][ctx.Beans[j].Type]
			if e.ambiguous || e.node.Bean != &ctx.Beans[j] {
				continue
			}
			b.graph.Nodes[e.node.Key] = e.node
			b.graph.roots = append(b.graph.roots, e.node.Key)
		}
	}
	for _, key := range b.graph.roots {
		b.resolveNode(b.graph.Nodes[key])
	}
	if b.errs != nil {
		return nil, b.errs
	}
	return b.graph, nil
}

// collectExposed picks, per type, the bean a context offers: an override beats a plain bean,
// and two beans on the same level are ambiguous.
func (b *graphBuilder) collectExposed(ctx *ContextDescriptor) {
	byType := make(map[TypeRef]*exposure)
	candidates := make(map[TypeRef][]*graphNode)
	overridden := make(map[TypeRef]bool)
	var order []TypeRef

	for j := range ctx.Beans {
		bn := &ctx.Beans[j]
		if _, ok := candidates[bn.Type]; !ok {
			order = append(order, bn.Type)
		}
		// Accessors of non-generated contexts all sit on one level.
		if ctx.Generated() && bn.Overridden() && !overridden[bn.Type] {
			overridden[bn.Type] = true
			candidates[bn.Type] = nil
		}
		if ctx.Generated() && overridden[bn.Type] && !bn.Overridden() {
			continue
		}
		candidates[bn.Type] = append(candidates[bn.Type], beanNode(ctx, bn))
	}

	for _, t := range order {
		nodes := candidates[t]
		e := &exposure{node: nodes[0], override: overridden[t]}
		if len(nodes) > 1 {
			e.ambiguous = true
			level := tierSameContext
			if e.override {
				level = tierOverride
			}
			refs := make([]ProviderRef, len(nodes))
			for i, n := range nodes {
				refs[i] = n.Provider
			}
			b.errs = multierr.Append(b.errs, &AmbiguousProviderError{
				Context:   ctx.Name,
				Type:      t,
				Level:     level.String(),
				Providers: refs,
			})
		}
		byType[t] = e
	}
	b.exposed[ctx.Name] = byType
}

func (b *graphBuilder) resolveNode(n *graphNode) {
	ctx := b.contexts[n.Key.Context]
	for _, req := range n.Bean.Requires {
		target, ok := b.resolveRequirement(ctx, n.Key, req)
		if !ok {
			continue
		}
		n.Dependencies = append(n.Dependencies, target.Key)
		b.graph.Edges = append(b.graph.Edges, dependencyEdge{From: n.Key, To: target.Key, Type: req})
	}
}

// resolveRequirement walks the priority levels for one required type. It reports false when
// the requirement failed, after recording the error, or when the target was already reported
// as ambiguous.
func (b *graphBuilder) resolveRequirement(ctx *ContextDescriptor, consumer BeanKey, req TypeRef) (*graphNode, bool) {
	own := b.exposed[ctx.Name][req]

	// Level 1: external types declared by the context and overriding beans of the context.
	var level []*graphNode
	if _, isContext := b.contexts[req]; !isContext && slices.Contains(ctx.Dependencies, req) {
		level = append(level, b.externalNode(ctx.Name, req))
	}
	if own != nil && own.override {
		if own.ambiguous {
			return nil, false
		}
		level = append(level, own.node)
	}
	if len(level) > 0 {
		return b.pick(ctx, consumer, req, tierOverride, level)
	}

	// Level 2: a plain bean of the same context.
	if own != nil {
		if own.ambiguous {
			return nil, false
		}
		return own.node, true
	}

	// Level 3: beans exposed by the contexts this one depends on.
	for _, dep := range ctx.Dependencies {
		depCtx, ok := b.contexts[dep]
		if !ok || dep == ctx.Name {
			continue
		}
		e := b.exposed[depCtx.Name][req]
		if e == nil {
			continue
		}
		if e.ambiguous {
			return nil, false
		}
		level = append(level, e.node)
	}
	if len(level) > 0 {
		return b.pick(ctx, consumer, req, tierDependency, level)
	}

	b.errs = multierr.Append(b.errs, &MissingProviderError{Consumer: consumer, Type: req})
	return nil, false
}

func (b *graphBuilder) pick(ctx *ContextDescriptor, consumer BeanKey, req TypeRef, t tier, level []*graphNode) (*graphNode, bool) {
	if len(level) > 1 {
		refs := make([]ProviderRef, len(level))
		for i, n := range level {
			refs[i] = n.Provider
		}
		c := consumer
		b.errs = multierr.Append(b.errs, &AmbiguousProviderError{
			Context:   ctx.Name,
			Type:      req,
			Consumer:  &c,
			Level:     t.String(),
			Providers: refs,
		})
		return nil, false
	}
	n := level[0]
	if _, ok := b.graph.Nodes[n.Key]; !ok {
		b.graph.Nodes[n.Key] = n
	}
	return b.graph.Nodes[n.Key], true
}

func (b *graphBuilder) externalNode(ctxName, t TypeRef) *graphNode {
	key := BeanKey{Context: ctxName, Type: t, External: true}
	if n, ok := b.graph.Nodes[key]; ok {
		return n
	}
	return &graphNode{
		Key:      key,
		Provider: ProviderRef{Context: ctxName, Kind: ProviderExternal, Name: string(t)},
	}
}

// beanNode builds the node for a declared bean with its default provider naming.
func beanNode(ctx *ContextDescriptor, bn *BeanDescriptor) *graphNode {
	ref := ProviderRef{Context: ctx.Name}
	switch {
	case !ctx.Generated():
		ref.Kind = ProviderAccessor
		ref.Name = bn.Method
		if ref.Name == emptyString {
			ref.Name = lowerFirst(bn.Type.Short())
		}
	case bn.Impl != emptyString:
		ref.Kind = ProviderImpl
		ref.Name = bn.Impl
	case bn.Factory != emptyString:
		ref.Kind = ProviderFactory
		ref.Name = bn.Factory
	default:
		ref.Kind = ProviderMethod
		ref.Name = bn.Method
		if ref.Name == emptyString {
			ref.Name = "build" + bn.Type.Short()
		}
	}
	return &graphNode{
		Key:      BeanKey{Context: ctx.Name, Type: bn.Type},
		Provider: ref,
		Bean:     bn,
	}
}
