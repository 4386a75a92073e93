package wireplan

const (
	emptyString = ""
	pathSep     = " -> "
	keySep      = "/"
	providerSep = "#"
)

// Scope is the lifetime of a bean. Only singletons exist in this engine.
type Scope string

const (
	ScopeSingleton Scope = "singleton"
)

// ProviderKind tells the emitter (or the reference container) how a bean is obtained.
type ProviderKind string

const (
	// ProviderMethod is a bean built by the context's own generating method.
	ProviderMethod ProviderKind = "method"
	// ProviderFactory is a bean built by an explicit factory override.
	ProviderFactory ProviderKind = "factory"
	// ProviderImpl is a bean taken from a pre-existing implementation.
	ProviderImpl ProviderKind = "impl"
	// ProviderAccessor is a zero-argument accessor on a context that is not generated
	// (expandOnly, or one with its own factory/impl).
	ProviderAccessor ProviderKind = "accessor"
	// ProviderExternal is a type the caller hands to the container.
	ProviderExternal ProviderKind = "external"
)

// tier is the priority level a provider candidate was found at. Lower wins.
type tier int

const (
	tierOverride tier = iota + 1
	tierSameContext
	tierDependency
)

func (t tier) String() string {
	switch t {
	case tierOverride:
		return "override"
	case tierSameContext:
		return "same-context"
	case tierDependency:
		return "dependency-context"
	}
	return "unknown"
}
