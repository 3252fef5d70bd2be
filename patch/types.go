// Package patch defines the atomic mutations a caller (usually an agent)
// requests against a form, and the transactional engine that applies them.
package patch

import "github.com/jlevy/markform/form"

// Op discriminates the patch union. One variant exists per mutation.
type Op string

const (
	OpSetString       Op = "set_string"
	OpSetNumber       Op = "set_number"
	OpSetStringList   Op = "set_string_list"
	OpSetSingleSelect Op = "set_single_select"
	OpSetMultiSelect  Op = "set_multi_select"
	OpSetCheckboxes   Op = "set_checkboxes"
	OpSetTable        Op = "set_table"
	OpClearField      Op = "clear_field"
	OpSkipField       Op = "skip_field"
	OpAbortField      Op = "abort_field"
	OpAddNote         Op = "add_note"
	OpRemoveNote      Op = "remove_note"
)

// Patch is one requested mutation. Which payload fields are meaningful
// follows from Op; the JSON shape is what the LLM tool surface emits.
type Patch struct {
	Op    Op     `json:"op" jsonschema:"description=The mutation to perform"`
	Field string `json:"field,omitempty" jsonschema:"description=Target field id for field ops"`

	Value  string   `json:"value,omitempty"`
	Number float64  `json:"number,omitempty"`
	Items  []string `json:"items,omitempty"`

	// Checkboxes and Rows carry raw strings; they are decoded through the
	// lenient sentinel grammar during application.
	Checkboxes map[string]string   `json:"checkboxes,omitempty"`
	Rows       []map[string]string `json:"rows,omitempty"`

	Reason string `json:"reason,omitempty"`

	NoteRef  string `json:"note_ref,omitempty"`
	NoteRole string `json:"note_role,omitempty"`
	NoteText string `json:"note_text,omitempty"`
	NoteID   string `json:"note_id,omitempty"`
}

func SetString(field, value string) Patch {
	return Patch{Op: OpSetString, Field: field, Value: value}
}

func SetNumber(field string, number float64) Patch {
	return Patch{Op: OpSetNumber, Field: field, Number: number}
}

func SetStringList(field string, items ...string) Patch {
	return Patch{Op: OpSetStringList, Field: field, Items: items}
}

func SetSingleSelect(field, option string) Patch {
	return Patch{Op: OpSetSingleSelect, Field: field, Value: option}
}

func SetMultiSelect(field string, selected ...string) Patch {
	return Patch{Op: OpSetMultiSelect, Field: field, Items: selected}
}

func SetCheckboxes(field string, states map[string]string) Patch {
	return Patch{Op: OpSetCheckboxes, Field: field, Checkboxes: states}
}

func SetTable(field string, rows ...map[string]string) Patch {
	return Patch{Op: OpSetTable, Field: field, Rows: rows}
}

func ClearField(field string) Patch {
	return Patch{Op: OpClearField, Field: field}
}

func SkipField(field, reason string) Patch {
	return Patch{Op: OpSkipField, Field: field, Reason: reason}
}

func AbortField(field, reason string) Patch {
	return Patch{Op: OpAbortField, Field: field, Reason: reason}
}

func AddNote(ref, role, text string) Patch {
	return Patch{Op: OpAddNote, NoteRef: ref, NoteRole: role, NoteText: text}
}

func RemoveNote(noteID string) Patch {
	return Patch{Op: OpRemoveNote, NoteID: noteID}
}

// kindsForOp maps each set op to the schema kinds it may target.
var kindsForOp = map[Op][]form.Kind{
	OpSetString:       {form.KindString, form.KindURL, form.KindDate},
	OpSetNumber:       {form.KindNumber, form.KindYear},
	OpSetStringList:   {form.KindStringList, form.KindURLList},
	OpSetSingleSelect: {form.KindSingleSelect},
	OpSetMultiSelect:  {form.KindMultiSelect},
	OpSetCheckboxes:   {form.KindCheckboxes},
	OpSetTable:        {form.KindTable},
}

func opMatchesKind(op Op, kind form.Kind) bool {
	for _, k := range kindsForOp[op] {
		if k == kind {
			return true
		}
	}
	return false
}
