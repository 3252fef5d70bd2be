package patch

import (
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/jlevy/markform/form"
)

// Prefill diffs a caller-supplied seed document (field id -> plain JSON
// value) against the form's current answers and returns the typed patches
// needed to bring the form up to the seed. Fields the seed leaves out, or
// that already hold the seeded value, produce no patch; null seed entries
// are ignored rather than clearing anything.
func Prefill(f *form.Form, seed map[string]any) ([]Patch, error) {
	currentJSON, err := sonic.Marshal(currentAnswers(f))
	if err != nil {
		return nil, fmt.Errorf("marshal current answers: %w", err)
	}
	seedJSON, err := sonic.Marshal(seed)
	if err != nil {
		return nil, fmt.Errorf("marshal seed: %w", err)
	}

	mergeJSON, err := jsonpatch.CreateMergePatch(currentJSON, seedJSON)
	if err != nil {
		return nil, fmt.Errorf("diff seed against answers: %w", err)
	}
	var merge map[string]any
	if err := sonic.Unmarshal(mergeJSON, &merge); err != nil {
		return nil, fmt.Errorf("decode merge patch: %w", err)
	}

	var patches []Patch
	// Walk fields in document order so the emitted batch is deterministic.
	for _, fld := range f.Fields() {
		value, ok := merge[fld.ID]
		if !ok || value == nil {
			continue
		}
		p, err := patchForValue(fld, value)
		if err != nil {
			return nil, err
		}
		patches = append(patches, p)
	}
	for id := range merge {
		if _, ok := f.Field(id); !ok {
			return nil, fmt.Errorf("seed refers to unknown field %q", id)
		}
	}
	return patches, nil
}

// currentAnswers projects answered responses into plain JSON values, the
// same shape Prefill accepts as a seed.
func currentAnswers(f *form.Form) map[string]any {
	out := map[string]any{}
	for id, resp := range f.Responses {
		if resp.State != form.Answered || resp.Value == nil {
			continue
		}
		switch v := resp.Value.(type) {
		case form.StringValue:
			out[id] = string(v)
		case form.NumberValue:
			out[id] = float64(v)
		case form.ListValue:
			out[id] = []string(v)
		case form.CheckboxesValue:
			m := map[string]string{}
			for opt, state := range v {
				m[opt] = string(state)
			}
			out[id] = m
		case form.TableValue:
			rows := make([]map[string]string, len(v))
			for i, row := range v {
				cells := map[string]string{}
				for col, cell := range row {
					if cell.State == form.Answered {
						cells[col] = cell.Value
					}
				}
				rows[i] = cells
			}
			out[id] = rows
		}
	}
	return out
}

func patchForValue(fld *form.FieldSchema, value any) (Patch, error) {
	switch fld.Kind {
	case form.KindString, form.KindURL, form.KindDate, form.KindSingleSelect:
		s, ok := value.(string)
		if !ok {
			return Patch{}, seedTypeError(fld, value, "string")
		}
		if fld.Kind == form.KindSingleSelect {
			return SetSingleSelect(fld.ID, s), nil
		}
		return SetString(fld.ID, s), nil
	case form.KindNumber, form.KindYear:
		n, ok := value.(float64)
		if !ok {
			return Patch{}, seedTypeError(fld, value, "number")
		}
		return SetNumber(fld.ID, n), nil
	case form.KindStringList, form.KindURLList, form.KindMultiSelect:
		items, err := stringSlice(value)
		if err != nil {
			return Patch{}, seedTypeError(fld, value, "list of strings")
		}
		if fld.Kind == form.KindMultiSelect {
			return SetMultiSelect(fld.ID, items...), nil
		}
		return SetStringList(fld.ID, items...), nil
	case form.KindCheckboxes:
		states, err := stringMap(value)
		if err != nil {
			return Patch{}, seedTypeError(fld, value, "map of option states")
		}
		return SetCheckboxes(fld.ID, states), nil
	case form.KindTable:
		rawRows, ok := value.([]any)
		if !ok {
			return Patch{}, seedTypeError(fld, value, "list of rows")
		}
		rows := make([]map[string]string, 0, len(rawRows))
		for _, rawRow := range rawRows {
			row, err := stringMap(rawRow)
			if err != nil {
				return Patch{}, seedTypeError(fld, rawRow, "row of cells")
			}
			rows = append(rows, row)
		}
		return SetTable(fld.ID, rows...), nil
	default:
		return Patch{}, fmt.Errorf("field %q: unsupported kind %q", fld.ID, fld.Kind)
	}
}

func seedTypeError(fld *form.FieldSchema, value any, want string) error {
	return fmt.Errorf("seed for %s field %q must be a %s, got %T", fld.Kind, fld.ID, want, value)
}

func stringSlice(value any) ([]string, error) {
	raw, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("not a list")
	}
	out := make([]string, len(raw))
	for i, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("item %d is %T", i, item)
		}
		out[i] = s
	}
	return out, nil
}

func stringMap(value any) (map[string]string, error) {
	raw, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("not a map")
	}
	out := make(map[string]string, len(raw))
	for k, item := range raw {
		switch v := item.(type) {
		case string:
			out[k] = v
		case float64:
			out[k] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return nil, fmt.Errorf("key %q is %T", k, item)
		}
	}
	return out, nil
}
