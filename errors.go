package wireplan

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrNilPlan         = errors.New("wiring plan is nil")
	ErrUnknownBean     = errors.New("bean is not part of the wiring plan")
	ErrProviderMissing = errors.New("no provider registered for plan entry")
	ErrWrongBeanType   = errors.New("bean is not of requested type")
	ErrNoDeclarations  = errors.New("no context declarations given")
)

// MalformedDeclarationError reports a structurally invalid descriptor.
type MalformedDeclarationError struct {
	Context TypeRef
	Field   string
	Reason  string
}

func (e *MalformedDeclarationError) Error() string {
	var b strings.Builder
	b.WriteString("malformed declaration")
	if e.Context != emptyString {
		b.WriteString(" in context " + strconv.Quote(string(e.Context)))
	}
	if e.Field != emptyString {
		b.WriteString(" at " + e.Field)
	}
	b.WriteString(": " + e.Reason)
	return b.String()
}

// MissingProviderError reports a required type with no candidate provider.
type MissingProviderError struct {
	Consumer BeanKey
	Type     TypeRef
}

func (e *MissingProviderError) Error() string {
	return "no provider for " + strconv.Quote(string(e.Type)) + " required by '" + e.Consumer.String() + "'"
}

// AmbiguousProviderError reports a type with several candidates at the same priority, either
// among the beans a context exposes or among the candidates for a consumer's requirement.
type AmbiguousProviderError struct {
	Context TypeRef
	Type    TypeRef
	// Consumer is the requiring bean; nil when the conflict is in what Context itself exposes.
	Consumer  *BeanKey
	Level     string
	Providers []ProviderRef
}

func (e *AmbiguousProviderError) Error() string {
	names := make([]string, len(e.Providers))
	for i, p := range e.Providers {
		names[i] = "'" + p.String() + "'"
	}
	msg := "ambiguous providers for " + strconv.Quote(string(e.Type))
	if e.Consumer != nil {
		msg += " required by '" + e.Consumer.String() + "'"
	} else {
		msg += " in context " + strconv.Quote(string(e.Context))
	}
	return msg + " at " + e.Level + " level: " + strings.Join(names, ", ")
}

// SelfDependencyError reports a strict context depending on a type it exposes itself.
type SelfDependencyError struct {
	Context TypeRef
	Type    TypeRef
	// Via is the dependency context through which the self reference was found, if any.
	Via TypeRef
}

func (e *SelfDependencyError) Error() string {
	msg := "strict context " + strconv.Quote(string(e.Context)) + " depends on its own type " + strconv.Quote(string(e.Type))
	if e.Via != emptyString {
		msg += " via " + strconv.Quote(string(e.Via))
	}
	return msg
}

// CycleDetectedError carries the members of a dependency cycle in traversal order,
// starting from the back-edge target.
type CycleDetectedError struct {
	Path []BeanKey
}

// Types returns the produced types of the cycle members, in path order.
func (e *CycleDetectedError) Types() []TypeRef {
	types := make([]TypeRef, len(e.Path))
	for i, k := range e.Path {
		types[i] = k.Type
	}
	return types
}

func (e *CycleDetectedError) Error() string {
	if len(e.Path) == 0 {
		return "dependency cycle detected"
	}
	return "dependency cycle detected: " + joinPath(append(e.Path[:len(e.Path):len(e.Path)], e.Path[0]))
}

// ErrorKind classifies a resolution error for metrics and logs.
func ErrorKind(err error) string {
	var (
		malformed *MalformedDeclarationError
		missing   *MissingProviderError
		ambiguous *AmbiguousProviderError
		self      *SelfDependencyError
		cycle     *CycleDetectedError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &malformed):
		return "malformed"
	case errors.As(err, &missing):
		return "missing"
	case errors.As(err, &ambiguous):
		return "ambiguous"
	case errors.As(err, &self):
		return "self_dependency"
	case errors.As(err, &cycle):
		return "cycle"
	}
	return "other"
}
