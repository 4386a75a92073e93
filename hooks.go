package wireplan

// ExternalProvider is consulted for an external entry when neither a provider function nor
// WithExternals supplies it.
//   - key: the external bean, i.e. the consuming context and the type it expects
//
// Returns:
//   - value: the instance to hand to the context
//   - found: whether a value is available
//   - err: any error while sourcing the value (parsing, I/O, ...)
type ExternalProvider func(key BeanKey) (value any, found bool, err error)

// WithExternalProvider installs the fallback for external entries. Each container has its own
// hook; there is no global one.
func WithExternalProvider(p ExternalProvider) ContainerOption {
	return func(c *Container) {
		c.externalProvider = p
	}
}

// WithExternals supplies external values by type, for every context that declares the type.
func WithExternals(values map[TypeRef]any) ContainerOption {
	return func(c *Container) {
		for t, v := range values {
			c.externals[t] = v
		}
	}
}
