package wireplan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("typeref", func(fl validator.FieldLevel) bool {
		return validTypeRef(fl.Field().String())
	})
	return v
}

// validateDeclarations checks every descriptor for well-formedness and returns all problems found.
func validateDeclarations(v *validator.Validate, decls []ContextDescriptor) error {
	var errs error
	seen := make(map[TypeRef]bool, len(decls))
	families := knownFamilies(decls)

	for i := range decls {
		ctx := &decls[i]
		if err := v.Struct(ctx); err != nil {
			errs = multierr.Append(errs, translateValidation(ctx.Name, err))
		}

		if ctx.Name != emptyString {
			if seen[ctx.Name] {
				errs = multierr.Append(errs, &MalformedDeclarationError{Context: ctx.Name, Field: "Name", Reason: "context declared more than once"})
			}
			seen[ctx.Name] = true
		}

		for j := range ctx.Beans {
			bn := &ctx.Beans[j]
			if !ctx.Generated() && len(bn.Requires) > 0 {
				errs = multierr.Append(errs, &MalformedDeclarationError{
					Context: ctx.Name,
					Field:   fmt.Sprintf("Beans[%d].Requires", j),
					Reason:  "beans of a context that is not generated are zero-argument accessors and cannot require types",
				})
			}
			for k, req := range bn.Requires {
				if !validTypeRef(string(req)) {
					continue // already reported by the struct validator
				}
				if !families[req.Family()] {
					errs = multierr.Append(errs, &MalformedDeclarationError{
						Context: ctx.Name,
						Field:   fmt.Sprintf("Beans[%d].Requires[%d]", j, k),
						Reason:  fmt.Sprintf("%q references undefined type family %q", req, req.Family()),
					})
				}
			}
		}
	}
	return errs
}

// knownFamilies collects every import path the declaration set mentions as a provider,
// context or external type. The predeclared family ("") is always known.
func knownFamilies(decls []ContextDescriptor) map[string]bool {
	families := map[string]bool{emptyString: true}
	for i := range decls {
		ctx := &decls[i]
		families[ctx.Name.Family()] = true
		for _, d := range ctx.Dependencies {
			families[d.Family()] = true
		}
		for j := range ctx.Beans {
			families[ctx.Beans[j].Type.Family()] = true
		}
	}
	return families
}

func translateValidation(ctxName TypeRef, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &MalformedDeclarationError{Context: ctxName, Reason: err.Error()}
	}
	var errs error
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "ContextDescriptor.")
		var reason string
		switch fe.Tag() {
		case "required":
			reason = "is required"
		case "typeref":
			reason = fmt.Sprintf("%q is not a valid type reference", fe.Value())
		case "excluded_with":
			reason = "factory and impl overrides are mutually exclusive"
		case "unique":
			reason = "contains duplicate entries"
		case "oneof":
			reason = fmt.Sprintf("unsupported scope %q", fe.Value())
		default:
			reason = "failed " + fe.Tag() + " validation"
		}
		errs = multierr.Append(errs, &MalformedDeclarationError{Context: ctxName, Field: field, Reason: reason})
	}
	return errs
}
