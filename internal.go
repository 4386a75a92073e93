package wireplan

import (
	"slices"

	"go.uber.org/multierr"
)

// checkStrict rejects strict contexts that depend on a type they expose themselves, directly or
// through one hop of their declared dependency contexts. It runs on declarations, before the
// graph exists, so the diagnostic names the offending declaration rather than a cycle.
func checkStrict(decls []ContextDescriptor) error {
	contexts := make(map[TypeRef]*ContextDescriptor, len(decls))
	for i := range decls {
		contexts[decls[i].Name] = &decls[i]
	}

	var errs error
	for i := range decls {
		ctx := &decls[i]
		if !ctx.Strict {
			continue
		}
		reported := make(map[SelfDependencyError]bool)
		report := func(e SelfDependencyError) {
			if reported[e] {
				return
			}
			reported[e] = true
			errs = multierr.Append(errs, &e)
		}

		for _, dep := range ctx.Dependencies {
			if dep == ctx.Name || ctx.Exposes(dep) {
				report(SelfDependencyError{Context: ctx.Name, Type: dep})
			}
		}
		for j := range ctx.Beans {
			bn := &ctx.Beans[j]
			if slices.Contains(bn.Requires, bn.Type) {
				report(SelfDependencyError{Context: ctx.Name, Type: bn.Type})
			}
		}
		for _, dep := range ctx.Dependencies {
			other, ok := contexts[dep]
			if !ok || other == ctx {
				continue
			}
			for _, t := range other.Dependencies {
				if t == ctx.Name || ctx.Exposes(t) {
					report(SelfDependencyError{Context: ctx.Name, Type: t, Via: other.Name})
				}
			}
		}
	}
	return errs
}

type color uint8

const (
	unvisited color = iota
	inProgress
	done
)

// orderGraph runs a three-colour DFS over the graph. Roots are visited in declaration order and
// dependencies in their declared order, so the post-order it returns is stable for unchanged
// input. Every distinct cycle found is reported; no order is returned when there is one.
func orderGraph(g *providerGraph) ([]BeanKey, error) {
	colors := make(map[BeanKey]color, len(g.Nodes))
	path := make([]BeanKey, 0, 16)
	order := make([]BeanKey, 0, len(g.Nodes))
	seen := make(map[string]bool)
	var errs error

	var visit func(key BeanKey)
	visit = func(key BeanKey) {
		switch colors[key] {
		case done:
			return
		case inProgress:
			start := slices.Index(path, key)
			cycle := slices.Clone(path[start:])
			if id := cycleID(cycle); !seen[id] {
				seen[id] = true
				errs = multierr.Append(errs, &CycleDetectedError{Path: cycle})
			}
			return
		}

		colors[key] = inProgress
		path = append(path, key)
		if n, ok := g.Nodes[key]; ok {
			for _, dep := range n.Dependencies {
				visit(dep)
			}
		}
		path = path[:len(path)-1]
		colors[key] = done
		order = append(order, key)
	}

	for _, key := range g.roots {
		visit(key)
	}
	if errs != nil {
		return nil, errs
	}
	return order, nil
}

// cycleID is the same for every rotation of a cycle, so a cycle entered from a different
// member is reported once.
func cycleID(cycle []BeanKey) string {
	lowest := 0
	for i := range cycle {
		if cycle[i].String() < cycle[lowest].String() {
			lowest = i
		}
	}
	rotated := append(slices.Clone(cycle[lowest:]), cycle[:lowest]...)
	return joinPath(rotated)
}
