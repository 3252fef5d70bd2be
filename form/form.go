// Package form holds the data model of a markform document: the immutable
// schema, the live responses, and the append-only notes. The aggregate is
// exclusively owned by the caller; the patch engine is its only writer.
package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jlevy/markform/scoperef"
)

// Response is the answer state of one field. Value is non-nil iff State is
// Answered; Reason may be set only for Skipped and Aborted.
type Response struct {
	State  ResponseState `json:"state"`
	Value  Value         `json:"value,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

// NewAnswered builds an answered response.
func NewAnswered(v Value) *Response {
	return &Response{State: Answered, Value: v}
}

// NewSkipped builds a skipped response.
func NewSkipped(reason string) *Response {
	return &Response{State: Skipped, Reason: reason}
}

// NewAborted builds an aborted response.
func NewAborted(reason string) *Response {
	return &Response{State: Aborted, Reason: reason}
}

// NewUnanswered builds the initial response.
func NewUnanswered() *Response {
	return &Response{State: Unanswered}
}

// Addressed reports whether the field was explicitly dealt with.
func (r *Response) Addressed() bool {
	return r.State == Answered || r.State == Skipped
}

// HasContent reports whether the response carries a non-empty value.
func (r *Response) HasContent() bool {
	return r.State == Answered && r.Value != nil && !r.Value.IsEmpty()
}

// Clone returns a deep copy.
func (r *Response) Clone() *Response {
	out := &Response{State: r.State, Reason: r.Reason}
	if r.Value != nil {
		out.Value = r.Value.Clone()
	}
	return out
}

// Note is a free-form annotation attached to a scope reference. Ids are
// assigned in add order (n1, n2, ...) and never reused after removal.
type Note struct {
	ID   string       `json:"id"`
	Ref  scoperef.Ref `json:"ref"`
	Role string       `json:"role,omitempty"`
	Text string       `json:"text"`
}

// Form is the root aggregate: schema plus live responses plus notes.
type Form struct {
	Schema    *Schema
	Responses map[string]*Response
	Notes     []Note

	idIndex    map[string]NodeKind
	orderIndex map[string]int
	noteSeq    int
}

// New validates and normalizes the schema, then builds a form with every
// field unanswered.
func New(schema *Schema) (*Form, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	schema = schema.Normalized()

	f := &Form{
		Schema:     schema,
		Responses:  map[string]*Response{},
		idIndex:    map[string]NodeKind{schema.ID: NodeForm},
		orderIndex: map[string]int{},
	}
	pos := 0
	for _, it := range schema.Items {
		if it.Group != nil {
			f.idIndex[it.Group.ID] = NodeGroup
			for _, fld := range it.Group.Fields {
				f.indexField(fld, &pos)
			}
			continue
		}
		f.indexField(it.Field, &pos)
	}
	return f, nil
}

// MustNew is New for statically known schemas.
func MustNew(schema *Schema) *Form {
	f, err := New(schema)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Form) indexField(fld *FieldSchema, pos *int) {
	f.idIndex[fld.ID] = NodeField
	f.orderIndex[fld.ID] = *pos
	*pos++
	for _, opt := range fld.Options {
		f.idIndex[opt.ID] = NodeOption
	}
	for _, col := range fld.Columns {
		f.idIndex[col.ID] = NodeColumn
	}
	f.Responses[fld.ID] = NewUnanswered()
}

// Field returns the schema of the field with the given id.
func (f *Form) Field(id string) (*FieldSchema, bool) {
	return f.Schema.Field(id)
}

// Fields returns every field schema in document order.
func (f *Form) Fields() []*FieldSchema {
	return f.Schema.Fields()
}

// Response returns the live response for a field id, or nil for unknown ids.
func (f *Form) Response(id string) *Response {
	return f.Responses[id]
}

// NodeKind looks up a declared identifier in the id index.
func (f *Form) NodeKind(id string) (NodeKind, bool) {
	kind, ok := f.idIndex[id]
	return kind, ok
}

// DocOrder returns the document-order position of a field, or -1.
func (f *Form) DocOrder(fieldID string) int {
	if pos, ok := f.orderIndex[fieldID]; ok {
		return pos
	}
	return -1
}

// ResolveRef checks that a scope reference points at declared structure:
// the field exists, a qualifier names one of its options, and a cell names
// one of its columns.
func (f *Form) ResolveRef(ref scoperef.Ref) error {
	fld, ok := f.Field(ref.FieldID())
	if !ok {
		return fmt.Errorf("form: unknown field %q in ref %s", ref.FieldID(), ref)
	}
	switch {
	case ref.IsCell():
		if _, ok := fld.Column(ref.Column); !ok {
			return fmt.Errorf("form: field %q has no column %q", fld.ID, ref.Column)
		}
	case ref.IsOption():
		if _, ok := fld.Option(ref.Qualifier); !ok {
			return fmt.Errorf("form: field %q has no option %q", fld.ID, ref.Qualifier)
		}
	}
	return nil
}

// NextNoteID allocates the next sequential note id.
func (f *Form) NextNoteID() string {
	f.noteSeq++
	return "n" + strconv.Itoa(f.noteSeq)
}

// NoteByID returns the index of a note, or -1.
func (f *Form) NoteByID(id string) int {
	for i, n := range f.Notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// SeedNotes installs pre-existing notes (from a parsed document) and advances
// the id sequence past the highest seen id so fresh ids are never reused.
func (f *Form) SeedNotes(notes []Note) error {
	for _, n := range notes {
		if err := f.ResolveRef(n.Ref); err != nil {
			return err
		}
		if seq, ok := parseNoteID(n.ID); ok && seq > f.noteSeq {
			f.noteSeq = seq
		}
		f.Notes = append(f.Notes, n)
	}
	return nil
}

func parseNoteID(id string) (int, bool) {
	if !strings.HasPrefix(id, "n") {
		return 0, false
	}
	seq, err := strconv.Atoi(id[1:])
	if err != nil || seq <= 0 {
		return 0, false
	}
	return seq, true
}

// Clone returns a form with deep-copied responses and notes. The schema and
// indexes are shared: they are immutable after New.
func (f *Form) Clone() *Form {
	out := &Form{
		Schema:     f.Schema,
		Responses:  make(map[string]*Response, len(f.Responses)),
		Notes:      append([]Note(nil), f.Notes...),
		idIndex:    f.idIndex,
		orderIndex: f.orderIndex,
		noteSeq:    f.noteSeq,
	}
	for id, r := range f.Responses {
		out.Responses[id] = r.Clone()
	}
	return out
}

// AdoptState replaces the live responses and notes with those of other,
// which must have been produced by Clone on the same form.
func (f *Form) AdoptState(other *Form) {
	f.Responses = other.Responses
	f.Notes = other.Notes
	f.noteSeq = other.noteSeq
}
