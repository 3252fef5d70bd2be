package form

// Value is the sealed union of field value payloads. Which variant a field
// holds follows from its kind:
//
//	string, url, date, single_select  -> StringValue
//	number, year                      -> NumberValue
//	string_list, url_list, multi_select -> ListValue
//	checkboxes                        -> CheckboxesValue
//	table                             -> TableValue
type Value interface {
	isValue()

	// IsEmpty reports the value-emptiness axis: an answered field may hold
	// an empty collection, which counts as addressed but not as content.
	IsEmpty() bool

	// Clone returns a deep copy that shares no mutable state.
	Clone() Value
}

type StringValue string

func (StringValue) isValue()        {}
func (v StringValue) IsEmpty() bool { return v == "" }
func (v StringValue) Clone() Value  { return v }

type NumberValue float64

func (NumberValue) isValue()      {}
func (NumberValue) IsEmpty() bool { return false }
func (v NumberValue) Clone() Value {
	return v
}

type ListValue []string

func (ListValue) isValue()        {}
func (v ListValue) IsEmpty() bool { return len(v) == 0 }
func (v ListValue) Clone() Value {
	if v == nil {
		return ListValue(nil)
	}
	return ListValue(append([]string(nil), v...))
}

// CheckboxesValue maps option id to its current token.
type CheckboxesValue map[string]CheckState

func (CheckboxesValue) isValue()        {}
func (v CheckboxesValue) IsEmpty() bool { return len(v) == 0 }
func (v CheckboxesValue) Clone() Value {
	out := make(CheckboxesValue, len(v))
	for k, s := range v {
		out[k] = s
	}
	return out
}

// Cell is one table cell response. The raw string may have decoded to a
// sentinel, in which case State is skipped or aborted and Value is empty.
type Cell struct {
	State  ResponseState `json:"state"`
	Value  string        `json:"value,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

// Row maps column id to a cell response.
type Row map[string]Cell

// TableValue is an ordered sequence of rows.
type TableValue []Row

func (TableValue) isValue()        {}
func (v TableValue) IsEmpty() bool { return len(v) == 0 }
func (v TableValue) Clone() Value {
	if v == nil {
		return TableValue(nil)
	}
	out := make(TableValue, len(v))
	for i, row := range v {
		cloned := make(Row, len(row))
		for col, cell := range row {
			cloned[col] = cell
		}
		out[i] = cloned
	}
	return out
}

// ValueKindMatches reports whether v is the variant a field of the given kind
// must hold.
func ValueKindMatches(kind Kind, v Value) bool {
	switch kind {
	case KindString, KindURL, KindDate, KindSingleSelect:
		_, ok := v.(StringValue)
		return ok
	case KindNumber, KindYear:
		_, ok := v.(NumberValue)
		return ok
	case KindStringList, KindURLList, KindMultiSelect:
		_, ok := v.(ListValue)
		return ok
	case KindCheckboxes:
		_, ok := v.(CheckboxesValue)
		return ok
	case KindTable:
		_, ok := v.(TableValue)
		return ok
	default:
		return false
	}
}
