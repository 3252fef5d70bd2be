// Package scoperef implements the path-like references that notes and issues
// use to point into a form: a bare field id, a qualified option
// ("field.option"), or a table cell ("field[row].column").
package scoperef

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const identPattern = `[A-Za-z_][A-Za-z0-9_-]*`

var (
	fieldRe = regexp.MustCompile(`^(` + identPattern + `)$`)
	qualRe  = regexp.MustCompile(`^(` + identPattern + `)\.(` + identPattern + `)$`)
	cellRe  = regexp.MustCompile(`^(` + identPattern + `)\[([0-9]+)\]\.(` + identPattern + `)$`)
)

// Ref addresses a field, an option of a field, or a single table cell.
// Exactly one of the three shapes holds:
//
//	field            Qualifier == "" and Row < 0
//	field.option     Qualifier != ""
//	field[row].col   Row >= 0 and Column != ""
type Ref struct {
	Field     string `json:"field"`
	Qualifier string `json:"qualifier,omitempty"`
	Row       int    `json:"row,omitempty"`
	Column    string `json:"column,omitempty"`
}

// FieldRef returns a reference to a whole field.
func FieldRef(fieldID string) Ref {
	return Ref{Field: fieldID, Row: -1}
}

// OptionRef returns a reference to one option of a field.
func OptionRef(fieldID, option string) Ref {
	return Ref{Field: fieldID, Qualifier: option, Row: -1}
}

// CellRef returns a reference to one table cell.
func CellRef(fieldID string, row int, column string) Ref {
	return Ref{Field: fieldID, Row: row, Column: column}
}

// Parse decodes a reference string. Whitespace is trimmed; empty input,
// leading digits, negative row indices and extra dots are rejected.
func Parse(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, fmt.Errorf("scoperef: empty reference")
	}
	if m := cellRe.FindStringSubmatch(s); m != nil {
		row, err := strconv.Atoi(m[2])
		if err != nil {
			return Ref{}, fmt.Errorf("scoperef: row index in %q: %w", s, err)
		}
		return CellRef(m[1], row, m[3]), nil
	}
	if m := qualRe.FindStringSubmatch(s); m != nil {
		return OptionRef(m[1], m[2]), nil
	}
	if m := fieldRe.FindStringSubmatch(s); m != nil {
		return FieldRef(m[1]), nil
	}
	return Ref{}, fmt.Errorf("scoperef: malformed reference %q", s)
}

// MustParse is Parse for statically known references.
func MustParse(s string) Ref {
	ref, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// String renders the reference in the exact syntax Parse accepts.
func (r Ref) String() string {
	switch {
	case r.IsCell():
		return fmt.Sprintf("%s[%d].%s", r.Field, r.Row, r.Column)
	case r.IsOption():
		return r.Field + "." + r.Qualifier
	default:
		return r.Field
	}
}

// IsField reports whether the reference addresses a whole field.
func (r Ref) IsField() bool { return r.Qualifier == "" && !r.IsCell() }

// IsOption reports whether the reference addresses a field option.
func (r Ref) IsOption() bool { return r.Qualifier != "" }

// IsCell reports whether the reference addresses a table cell.
func (r Ref) IsCell() bool { return r.Row >= 0 && r.Column != "" }

// FieldID returns the field component regardless of shape.
func (r Ref) FieldID() string { return r.Field }
