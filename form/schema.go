package form

import (
	"fmt"
	"regexp"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// ValidIdent reports whether s satisfies the identifier grammar shared by
// form, group, field, option and column ids.
func ValidIdent(s string) bool { return identRe.MatchString(s) }

// Option is one selectable choice of a select or checkboxes field.
type Option struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
}

// Column declares one table column and the kind its cells are validated as.
type Column struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
	Type  Kind   `yaml:"type,omitempty" json:"type,omitempty"`
}

// FieldSchema is one typed, addressable input. Kind-specific constraints are
// optional pointers so "unset" and "zero" stay distinct.
type FieldSchema struct {
	ID       string   `yaml:"id" json:"id"`
	Label    string   `yaml:"label,omitempty" json:"label,omitempty"`
	Kind     Kind     `yaml:"kind" json:"kind"`
	Required bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Role     string   `yaml:"role,omitempty" json:"role,omitempty"`
	Priority Priority `yaml:"priority,omitempty" json:"priority,omitempty"`

	// Top-level scheduling attributes; meaningful only on ungrouped fields.
	Order    int    `yaml:"order,omitempty" json:"order,omitempty"`
	Parallel string `yaml:"parallel,omitempty" json:"parallel,omitempty"`

	// Names of custom validators to run against this field.
	Validators []string `yaml:"validate,omitempty" json:"validate,omitempty"`

	MinLength *int   `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength *int   `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	Pattern   string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	Min     *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Integer bool     `yaml:"integer,omitempty" json:"integer,omitempty"`

	MinItems    *int `yaml:"min_items,omitempty" json:"min_items,omitempty"`
	MaxItems    *int `yaml:"max_items,omitempty" json:"max_items,omitempty"`
	UniqueItems bool `yaml:"unique_items,omitempty" json:"unique_items,omitempty"`

	MinDate string `yaml:"min_date,omitempty" json:"min_date,omitempty"`
	MaxDate string `yaml:"max_date,omitempty" json:"max_date,omitempty"`

	Options       []Option `yaml:"options,omitempty" json:"options,omitempty"`
	MinSelections *int     `yaml:"min_selections,omitempty" json:"min_selections,omitempty"`
	MaxSelections *int     `yaml:"max_selections,omitempty" json:"max_selections,omitempty"`

	CheckboxMode CheckboxMode `yaml:"checkbox_mode,omitempty" json:"checkbox_mode,omitempty"`
	MinDone      *int         `yaml:"min_done,omitempty" json:"min_done,omitempty"`
	ApprovalMode ApprovalMode `yaml:"approval_mode,omitempty" json:"approval_mode,omitempty"`

	Columns []Column `yaml:"columns,omitempty" json:"columns,omitempty"`
	MinRows *int     `yaml:"min_rows,omitempty" json:"min_rows,omitempty"`
	MaxRows *int     `yaml:"max_rows,omitempty" json:"max_rows,omitempty"`
}

// HasOptions reports whether the kind carries an option list.
func (f *FieldSchema) HasOptions() bool {
	switch f.Kind {
	case KindSingleSelect, KindMultiSelect, KindCheckboxes:
		return true
	default:
		return false
	}
}

// Option returns the declared option with the given id.
func (f *FieldSchema) Option(id string) (Option, bool) {
	for _, opt := range f.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// Column returns the declared column with the given id.
func (f *FieldSchema) Column(id string) (Column, bool) {
	for _, col := range f.Columns {
		if col.ID == id {
			return col, true
		}
	}
	return Column{}, false
}

// Group is a named sequence of fields sharing a role and scheduling slot.
type Group struct {
	ID         string         `yaml:"id" json:"id"`
	Label      string         `yaml:"label,omitempty" json:"label,omitempty"`
	Role       string         `yaml:"role,omitempty" json:"role,omitempty"`
	Order      int            `yaml:"order,omitempty" json:"order,omitempty"`
	Parallel   string         `yaml:"parallel,omitempty" json:"parallel,omitempty"`
	Validators []string       `yaml:"validate,omitempty" json:"validate,omitempty"`
	Fields     []*FieldSchema `yaml:"fields" json:"fields"`
}

// Item is one top-level schema entry: a group or an ungrouped field.
type Item struct {
	Group *Group       `yaml:"group,omitempty" json:"group,omitempty"`
	Field *FieldSchema `yaml:"field,omitempty" json:"field,omitempty"`
}

// ID returns the item's identifier.
func (it Item) ID() string {
	if it.Group != nil {
		return it.Group.ID
	}
	return it.Field.ID
}

// Order returns the item's scheduling level.
func (it Item) Order() int {
	if it.Group != nil {
		return it.Group.Order
	}
	return it.Field.Order
}

// Parallel returns the item's parallel batch id, if any.
func (it Item) Parallel() string {
	if it.Group != nil {
		return it.Group.Parallel
	}
	return it.Field.Parallel
}

// Role returns the item's effective role.
func (it Item) Role() string {
	if it.Group != nil {
		return it.Group.Role
	}
	return it.Field.Role
}

// Kind returns the node kind of the item.
func (it Item) Kind() NodeKind {
	if it.Group != nil {
		return NodeGroup
	}
	return NodeField
}

// Schema is the immutable structure of a form.
type Schema struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
	Items []Item `yaml:"items" json:"items"`
}

// Fields returns every field in document order.
func (s *Schema) Fields() []*FieldSchema {
	var fields []*FieldSchema
	for _, it := range s.Items {
		if it.Group != nil {
			fields = append(fields, it.Group.Fields...)
			continue
		}
		fields = append(fields, it.Field)
	}
	return fields
}

// Field returns the field with the given id.
func (s *Schema) Field(id string) (*FieldSchema, bool) {
	for _, f := range s.Fields() {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// Validate checks the schema's structural invariants: identifier grammar,
// unique ids, kind-specific constraint consistency, and the cross-item
// guarantees the planner relies on (all members of one parallel batch share
// one order level and one effective role).
func (s *Schema) Validate() error {
	if !ValidIdent(s.ID) {
		return fmt.Errorf("form: invalid form id %q", s.ID)
	}
	if len(s.Items) == 0 {
		return fmt.Errorf("form %s: no items", s.ID)
	}
	seen := map[string]NodeKind{s.ID: NodeForm}
	declare := func(id string, kind NodeKind) error {
		if !ValidIdent(id) {
			return fmt.Errorf("form %s: invalid %s id %q", s.ID, kind, id)
		}
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("form %s: id %q declared as both %s and %s", s.ID, id, prev, kind)
		}
		seen[id] = kind
		return nil
	}

	for _, it := range s.Items {
		switch {
		case it.Group != nil && it.Field != nil:
			return fmt.Errorf("form %s: item %q is both group and field", s.ID, it.Group.ID)
		case it.Group != nil:
			if err := declare(it.Group.ID, NodeGroup); err != nil {
				return err
			}
			if len(it.Group.Fields) == 0 {
				return fmt.Errorf("form %s: group %q has no fields", s.ID, it.Group.ID)
			}
			for _, f := range it.Group.Fields {
				if err := declare(f.ID, NodeField); err != nil {
					return err
				}
				if err := f.check(); err != nil {
					return fmt.Errorf("form %s: %w", s.ID, err)
				}
				if f.Parallel != "" || f.Order != 0 {
					return fmt.Errorf("form %s: field %q: order/parallel belong on the enclosing group", s.ID, f.ID)
				}
			}
		case it.Field != nil:
			if err := declare(it.Field.ID, NodeField); err != nil {
				return err
			}
			if err := it.Field.check(); err != nil {
				return fmt.Errorf("form %s: %w", s.ID, err)
			}
		default:
			return fmt.Errorf("form %s: empty item", s.ID)
		}
	}

	return s.checkParallelBatches()
}

// checkParallelBatches guarantees the planner's cross-item invariants at
// construction time so the planner itself never re-checks them.
func (s *Schema) checkParallelBatches() error {
	type batchShape struct {
		order int
		role  string
		first string
	}
	batches := map[string]batchShape{}
	for _, it := range s.Items {
		id := it.Parallel()
		if id == "" {
			continue
		}
		shape, ok := batches[id]
		if !ok {
			batches[id] = batchShape{order: it.Order(), role: it.Role(), first: it.ID()}
			continue
		}
		if shape.order != it.Order() {
			return fmt.Errorf("form %s: parallel batch %q: %q and %q disagree on order", s.ID, id, shape.first, it.ID())
		}
		if shape.role != it.Role() {
			return fmt.Errorf("form %s: parallel batch %q: %q and %q disagree on role", s.ID, id, shape.first, it.ID())
		}
	}
	return nil
}

func (f *FieldSchema) check() error {
	switch f.Kind {
	case KindString, KindNumber, KindStringList, KindURL, KindURLList,
		KindDate, KindYear, KindSingleSelect, KindMultiSelect, KindTable:
	case KindCheckboxes:
		if f.CheckboxMode == CheckboxExplicit && !f.Required {
			return fmt.Errorf("field %q: explicit checkboxes are inherently required", f.ID)
		}
	default:
		return fmt.Errorf("field %q: unknown kind %q", f.ID, f.Kind)
	}

	switch f.Priority {
	case "", PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return fmt.Errorf("field %q: unknown priority %q", f.ID, f.Priority)
	}

	if f.Pattern != "" {
		if _, err := regexp.Compile(f.Pattern); err != nil {
			return fmt.Errorf("field %q: pattern: %w", f.ID, err)
		}
	}
	if f.HasOptions() {
		if len(f.Options) == 0 {
			return fmt.Errorf("field %q: %s field declares no options", f.ID, f.Kind)
		}
		optSeen := map[string]bool{}
		for _, opt := range f.Options {
			if !ValidIdent(opt.ID) {
				return fmt.Errorf("field %q: invalid option id %q", f.ID, opt.ID)
			}
			if optSeen[opt.ID] {
				return fmt.Errorf("field %q: duplicate option %q", f.ID, opt.ID)
			}
			optSeen[opt.ID] = true
		}
	}
	if f.Kind == KindCheckboxes {
		switch f.CheckboxMode {
		case "", CheckboxSimple, CheckboxExplicit, CheckboxMulti:
		default:
			return fmt.Errorf("field %q: unknown checkbox mode %q", f.ID, f.CheckboxMode)
		}
		switch f.ApprovalMode {
		case ApprovalNone, ApprovalBlocking:
		default:
			return fmt.Errorf("field %q: unknown approval mode %q", f.ID, f.ApprovalMode)
		}
	} else if f.ApprovalMode != ApprovalNone {
		return fmt.Errorf("field %q: approval mode requires a checkboxes field", f.ID)
	}
	if f.Kind == KindTable {
		if len(f.Columns) == 0 {
			return fmt.Errorf("field %q: table declares no columns", f.ID)
		}
		colSeen := map[string]bool{}
		for _, col := range f.Columns {
			if !ValidIdent(col.ID) {
				return fmt.Errorf("field %q: invalid column id %q", f.ID, col.ID)
			}
			if colSeen[col.ID] {
				return fmt.Errorf("field %q: duplicate column %q", f.ID, col.ID)
			}
			colSeen[col.ID] = true
			switch col.Type {
			case "", KindString, KindNumber, KindURL, KindDate, KindYear:
			default:
				return fmt.Errorf("field %q: column %q: unsupported type %q", f.ID, col.ID, col.Type)
			}
		}
	}
	if f.MinLength != nil && f.MaxLength != nil && *f.MinLength > *f.MaxLength {
		return fmt.Errorf("field %q: min_length exceeds max_length", f.ID)
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return fmt.Errorf("field %q: min exceeds max", f.ID)
	}
	if f.MinItems != nil && f.MaxItems != nil && *f.MinItems > *f.MaxItems {
		return fmt.Errorf("field %q: min_items exceeds max_items", f.ID)
	}
	return nil
}

// Normalized returns a copy with defaults filled in: role "agent", medium
// priority, simple checkbox mode, string columns.
func (s *Schema) Normalized() *Schema {
	out := *s
	out.Items = make([]Item, len(s.Items))
	for i, it := range s.Items {
		if it.Group != nil {
			g := *it.Group
			if g.Role == "" {
				g.Role = DefaultRole
			}
			g.Fields = make([]*FieldSchema, len(it.Group.Fields))
			for j, f := range it.Group.Fields {
				g.Fields[j] = f.normalized(g.Role)
			}
			out.Items[i] = Item{Group: &g}
			continue
		}
		out.Items[i] = Item{Field: it.Field.normalized(DefaultRole)}
	}
	return &out
}

// DefaultRole is assumed when a schema declares none.
const DefaultRole = "agent"

func (f *FieldSchema) normalized(inheritRole string) *FieldSchema {
	out := *f
	if out.Role == "" {
		out.Role = inheritRole
	}
	if out.Priority == "" {
		out.Priority = PriorityMedium
	}
	if out.Kind == KindCheckboxes && out.CheckboxMode == "" {
		out.CheckboxMode = CheckboxSimple
	}
	if out.Kind == KindTable {
		out.Columns = append([]Column(nil), out.Columns...)
		for i := range out.Columns {
			if out.Columns[i].Type == "" {
				out.Columns[i].Type = KindString
			}
		}
	}
	return &out
}
