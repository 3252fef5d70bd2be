package patch

import (
	"fmt"

	"github.com/jlevy/markform/form"
	"github.com/jlevy/markform/inspect"
	"github.com/jlevy/markform/scoperef"
	"github.com/jlevy/markform/sentinel"
	"github.com/jlevy/markform/validate"
)

// Status reports whether a batch committed.
type Status string

const (
	StatusApplied  Status = "applied"
	StatusRejected Status = "rejected"
)

// Options configures the inspection pass that follows a commit.
type Options struct {
	Registry           validate.Registry
	SkipCodeValidators bool
}

// Result is the outcome of one Apply call. The summaries are recomputed
// after the commit; callers must not reuse summaries from before the call.
type Result struct {
	Status           Status                   `json:"apply_status"`
	Structure        inspect.StructureSummary `json:"structure"`
	Progress         inspect.ProgressSummary  `json:"progress"`
	FormState        inspect.FormState        `json:"form_state"`
	IsComplete       bool                     `json:"is_complete"`
	RejectionReasons []string                 `json:"rejection_reasons,omitempty"`
}

// Apply applies an ordered batch of patches transactionally. The whole batch
// is first played against a deep copy of the form's mutable state; if any
// patch is invalid there, the batch is rejected with per-patch reasons and
// the form is left byte-for-byte unmodified. On success the simulated state
// is committed and fresh summaries are returned.
//
// Constraint violations (lengths, ranges, patterns, required content) do not
// reject a batch; they surface as issues on the next inspection. Rejection
// is reserved for schema-reference and invariant errors: unknown fields or
// notes, op/kind mismatches, and skipping a required field.
func Apply(f *form.Form, patches []Patch, opts Options) Result {
	shadow := f.Clone()
	var reasons []string
	for i, p := range patches {
		if err := applyOne(shadow, p); err != nil {
			reasons = append(reasons, fmt.Sprintf("patch %d (%s): %v", i, p.Op, err))
		}
	}

	status := StatusApplied
	if len(reasons) > 0 {
		status = StatusRejected
	} else {
		f.AdoptState(shadow)
	}

	ires := inspect.Inspect(f, inspect.Options{
		Registry:           opts.Registry,
		SkipCodeValidators: opts.SkipCodeValidators,
	})
	return Result{
		Status:           status,
		Structure:        ires.Structure,
		Progress:         ires.Progress,
		FormState:        ires.FormState,
		IsComplete:       ires.IsComplete,
		RejectionReasons: reasons,
	}
}

func applyOne(f *form.Form, p Patch) error {
	switch p.Op {
	case OpSetString, OpSetNumber, OpSetStringList, OpSetSingleSelect,
		OpSetMultiSelect, OpSetCheckboxes, OpSetTable:
		return applySet(f, p)
	case OpClearField:
		fld, err := targetField(f, p)
		if err != nil {
			return err
		}
		f.Responses[fld.ID] = form.NewUnanswered()
		return nil
	case OpSkipField:
		fld, err := targetField(f, p)
		if err != nil {
			return err
		}
		if fld.Required {
			return fmt.Errorf("required field %q cannot be skipped", fld.ID)
		}
		f.Responses[fld.ID] = form.NewSkipped(p.Reason)
		return nil
	case OpAbortField:
		fld, err := targetField(f, p)
		if err != nil {
			return err
		}
		f.Responses[fld.ID] = form.NewAborted(p.Reason)
		return nil
	case OpAddNote:
		ref, err := scoperef.Parse(p.NoteRef)
		if err != nil {
			return err
		}
		if err := f.ResolveRef(ref); err != nil {
			return err
		}
		f.Notes = append(f.Notes, form.Note{
			ID:   f.NextNoteID(),
			Ref:  ref,
			Role: p.NoteRole,
			Text: p.NoteText,
		})
		return nil
	case OpRemoveNote:
		idx := f.NoteByID(p.NoteID)
		if idx < 0 {
			return fmt.Errorf("unknown note %q", p.NoteID)
		}
		f.Notes = append(f.Notes[:idx], f.Notes[idx+1:]...)
		return nil
	default:
		return fmt.Errorf("unknown op %q", p.Op)
	}
}

func targetField(f *form.Form, p Patch) (*form.FieldSchema, error) {
	fld, ok := f.Field(p.Field)
	if !ok {
		return nil, fmt.Errorf("unknown field %q", p.Field)
	}
	return fld, nil
}

// applySet handles every set_* op. Setting a value always transitions the
// field to answered, overwriting a previous skip or abort and clearing its
// reason. Checkboxes and tables merge onto the existing value; the other
// kinds replace it.
func applySet(f *form.Form, p Patch) error {
	fld, err := targetField(f, p)
	if err != nil {
		return err
	}
	if !opMatchesKind(p.Op, fld.Kind) {
		return fmt.Errorf("op %s does not apply to %s field %q", p.Op, fld.Kind, fld.ID)
	}

	switch p.Op {
	case OpSetString:
		// A sentinel supplied as a scalar value is a skip/abort request,
		// subject to the same invariants as the explicit ops.
		if tok := sentinel.Detect(p.Value); tok != nil {
			if tok.Type == sentinel.Abort {
				f.Responses[fld.ID] = form.NewAborted(tok.Reason)
				return nil
			}
			if fld.Required {
				return fmt.Errorf("required field %q cannot be skipped", fld.ID)
			}
			f.Responses[fld.ID] = form.NewSkipped(tok.Reason)
			return nil
		}
		f.Responses[fld.ID] = form.NewAnswered(form.StringValue(p.Value))
	case OpSetSingleSelect:
		f.Responses[fld.ID] = form.NewAnswered(form.StringValue(p.Value))
	case OpSetNumber:
		f.Responses[fld.ID] = form.NewAnswered(form.NumberValue(p.Number))
	case OpSetStringList, OpSetMultiSelect:
		f.Responses[fld.ID] = form.NewAnswered(form.ListValue(append([]string(nil), p.Items...)))
	case OpSetCheckboxes:
		merged, err := mergeCheckboxes(f, fld, p.Checkboxes)
		if err != nil {
			return err
		}
		f.Responses[fld.ID] = form.NewAnswered(merged)
	case OpSetTable:
		f.Responses[fld.ID] = form.NewAnswered(mergeTable(f, fld, p.Rows))
	}
	return nil
}

// mergeCheckboxes overlays the supplied option states onto the existing
// value map; unspecified options keep their previous token. Raw strings run
// through the lenient sentinel grammar first: in multi mode a skip maps to
// the na token, in the other modes a per-option sentinel has no
// representation and rejects the patch.
func mergeCheckboxes(f *form.Form, fld *form.FieldSchema, raw map[string]string) (form.CheckboxesValue, error) {
	merged := form.CheckboxesValue{}
	if resp := f.Responses[fld.ID]; resp != nil {
		if prev, ok := resp.Value.(form.CheckboxesValue); ok {
			for k, s := range prev {
				merged[k] = s
			}
		}
	}
	for opt, rawState := range raw {
		if tok := sentinel.Detect(rawState); tok != nil {
			if fld.CheckboxMode != form.CheckboxMulti {
				return nil, fmt.Errorf("option %q of %s-mode field %q cannot hold a sentinel",
					opt, fld.CheckboxMode, fld.ID)
			}
			merged[opt] = form.CheckNA
			continue
		}
		merged[opt] = form.CheckState(rawState)
	}
	return merged, nil
}

// mergeTable overlays supplied rows by index: cells present in a supplied
// row replace the matching cells of the existing row, rows past the end are
// appended. Raw cell strings decode sentinels into cell-level skip/abort
// states.
func mergeTable(f *form.Form, fld *form.FieldSchema, raw []map[string]string) form.TableValue {
	var merged form.TableValue
	if resp := f.Responses[fld.ID]; resp != nil {
		if prev, ok := resp.Value.(form.TableValue); ok {
			merged = prev.Clone().(form.TableValue)
		}
	}
	for i, rawRow := range raw {
		var row form.Row
		if i < len(merged) {
			row = merged[i]
		} else {
			row = form.Row{}
			merged = append(merged, row)
		}
		for col, rawCell := range rawRow {
			row[col] = decodeCell(rawCell)
		}
	}
	return merged
}

func decodeCell(raw string) form.Cell {
	if tok := sentinel.Detect(raw); tok != nil {
		state := form.Skipped
		if tok.Type == sentinel.Abort {
			state = form.Aborted
		}
		return form.Cell{State: state, Reason: tok.Reason}
	}
	return form.Cell{State: form.Answered, Value: raw}
}
