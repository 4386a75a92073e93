package wireplan

// TypeRef is a qualified Go type name such as "example.com/app/clock.Clock" or
// "*example.com/app.Mapper". Predeclared and unqualified names ("string", "Logger")
// have an empty family.
type TypeRef string

// ContextDescriptor is one declared context, as produced by the declaration extractor.
// Descriptors are treated as immutable once handed to a Resolver.
type ContextDescriptor struct {
	// Name is the context's own type.
	Name TypeRef `yaml:"name" json:"name" validate:"required,typeref"`
	// Dependencies lists other contexts whose beans may be used, and external types the
	// container receives from its caller.
	Dependencies []TypeRef `yaml:"dependencies,omitempty" json:"dependencies,omitempty" validate:"unique,dive,required,typeref"`
	// Factory names a factory that builds the whole context. Disables generation.
	Factory string `yaml:"factory,omitempty" json:"factory,omitempty"`
	// Impl names an existing implementation of the context. Disables generation.
	Impl string `yaml:"impl,omitempty" json:"impl,omitempty"`
	// Strict rejects dependencies on the context's own exposed types.
	Strict bool `yaml:"strict,omitempty" json:"strict,omitempty"`
	// ExpandOnly marks a context that only contributes providers to others.
	ExpandOnly bool `yaml:"expandOnly,omitempty" json:"expandOnly,omitempty"`

	Beans []BeanDescriptor `yaml:"beans,omitempty" json:"beans,omitempty" validate:"dive"`
}

// Generated reports whether a container is generated for this context.
func (c *ContextDescriptor) Generated() bool {
	return !c.ExpandOnly && c.Factory == emptyString && c.Impl == emptyString
}

// Exposes reports whether the context declares a bean producing t.
func (c *ContextDescriptor) Exposes(t TypeRef) bool {
	for i := range c.Beans {
		if c.Beans[i].Type == t {
			return true
		}
	}
	return false
}

// BeanDescriptor is a single bean declared by a context.
type BeanDescriptor struct {
	Type TypeRef `yaml:"type" json:"type" validate:"required,typeref"`
	// Method is the generating method or, on non-generated contexts, the accessor name.
	Method string `yaml:"method,omitempty" json:"method,omitempty"`
	// Factory overrides the provider with an explicit factory.
	Factory string `yaml:"factory,omitempty" json:"factory,omitempty" validate:"excluded_with=Impl"`
	// Impl overrides the provider with a pre-existing instance.
	Impl     string    `yaml:"impl,omitempty" json:"impl,omitempty"`
	Requires []TypeRef `yaml:"requires,omitempty" json:"requires,omitempty" validate:"dive,required,typeref"`
	Scope    Scope     `yaml:"scope,omitempty" json:"scope,omitempty" validate:"omitempty,oneof=singleton"`
	// Dynamic marks a reactive binding whose provider yields a dynamic.Resource.
	Dynamic bool `yaml:"dynamic,omitempty" json:"dynamic,omitempty"`
}

// Overridden reports whether an explicit factory or impl replaces generation for this bean.
func (b *BeanDescriptor) Overridden() bool {
	return b.Factory != emptyString || b.Impl != emptyString
}

// BeanKey identifies a bean node: the type it produces within the context that provides it.
// External keys stand for a type the context's caller supplies.
type BeanKey struct {
	Context  TypeRef `json:"context"`
	Type     TypeRef `json:"type"`
	External bool    `json:"external,omitempty"`
}

func (k BeanKey) String() string {
	s := string(k.Context) + keySep + string(k.Type)
	if k.External {
		s += " (external)"
	}
	return s
}

// ProviderRef names the provider behind a bean node.
type ProviderRef struct {
	Context TypeRef      `json:"context"`
	Kind    ProviderKind `json:"kind"`
	Name    string       `json:"name"`
}

// ID is the lookup key a Container uses to find the Go function implementing this provider.
func (p ProviderRef) ID() string {
	if p.Kind == ProviderExternal {
		return string(p.Context) + providerSep + "external:" + p.Name
	}
	return string(p.Context) + providerSep + p.Name
}

func (p ProviderRef) String() string {
	return p.ID() + " (" + string(p.Kind) + ")"
}

// dependencyEdge links a consumer bean to the provider resolved for one of its required types.
type dependencyEdge struct {
	From BeanKey
	To   BeanKey
	Type TypeRef
}
