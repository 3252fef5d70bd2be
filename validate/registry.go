package validate

import (
	"fmt"

	"github.com/jlevy/markform/form"
	"github.com/jlevy/markform/scoperef"
)

// Context is what a custom validator sees: the id of the field or group that
// declared it and the whole form (schema plus the live response map).
type Context struct {
	NodeID string
	Scope  form.NodeKind
	Form   *form.Form
}

// Validator is a caller-supplied check. Returned issues are appended to the
// engine's output verbatim.
type Validator func(ctx Context) []Issue

// Registry maps validator names to implementations. It is always passed
// explicitly, never held as process-wide state, so concurrent validations of
// different forms can use different registries.
type Registry map[string]Validator

// run looks up and executes one named validator. A missing name yields a
// single advisory issue; a panicking validator is caught and converted into
// an issue citing the panic value, so validator defects never crash the
// engine.
func (r Registry) run(name string, ctx Context) (issues []Issue) {
	v, ok := r[name]
	if !ok {
		return []Issue{{
			Ref:      scoperef.FieldRef(ctx.NodeID),
			Scope:    ctx.Scope,
			Reason:   ReasonValidatorMissing,
			Message:  fmt.Sprintf("validator %q is not registered", name),
			Severity: SeverityRecommended,
		}}
	}
	defer func() {
		if p := recover(); p != nil {
			issues = []Issue{{
				Ref:      scoperef.FieldRef(ctx.NodeID),
				Scope:    ctx.Scope,
				Reason:   ReasonValidatorFailed,
				Message:  fmt.Sprintf("validator %q failed: %v", name, p),
				Severity: SeverityError,
			}}
		}
	}()
	return v(ctx)
}
