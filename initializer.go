package wireplan

// Initializer is an optional interface a bean may implement to finish its own setup once it
// has been constructed from its dependencies.
//
// The container calls Initialize() inside the bean's first resolution, before the value is
// stored. If Initialize returns an error the bean is not stored and the resolution fails; a
// later resolution constructs and initializes it again.
type Initializer interface {
	Initialize() error
}
