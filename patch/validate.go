package patch

import (
	"fmt"

	"github.com/jlevy/markform/form"
)

// ValidateRoles rejects a batch whose field ops touch fields outside the
// allowed role set. Hosts dispatching role-scoped agents use this before
// Apply; an empty set or the literal role "*" allows everything. Note ops
// are never role-restricted.
func ValidateRoles(f *form.Form, patches []Patch, roles []string) error {
	if len(roles) == 0 {
		return nil
	}
	allowed := map[string]bool{}
	for _, role := range roles {
		if role == "*" {
			return nil
		}
		allowed[role] = true
	}
	for i, p := range patches {
		if p.Field == "" {
			continue
		}
		fld, ok := f.Field(p.Field)
		if !ok {
			return fmt.Errorf("patch %d: unknown field %q", i, p.Field)
		}
		if !allowed[fld.Role] {
			return fmt.Errorf("patch %d: field %q belongs to role %q, not in the allowed set", i, fld.ID, fld.Role)
		}
	}
	return nil
}
