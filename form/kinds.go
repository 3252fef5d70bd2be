package form

// Kind discriminates the typed field kinds. The set is closed; every switch
// over Kind in this module carries a default case that rejects unknown kinds.
type Kind string

const (
	KindString       Kind = "string"
	KindNumber       Kind = "number"
	KindStringList   Kind = "string_list"
	KindURL          Kind = "url"
	KindURLList      Kind = "url_list"
	KindDate         Kind = "date"
	KindYear         Kind = "year"
	KindSingleSelect Kind = "single_select"
	KindMultiSelect  Kind = "multi_select"
	KindCheckboxes   Kind = "checkboxes"
	KindTable        Kind = "table"
)

// Kinds lists every field kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindString, KindNumber, KindStringList, KindURL, KindURLList,
		KindDate, KindYear, KindSingleSelect, KindMultiSelect,
		KindCheckboxes, KindTable,
	}
}

// ColumnKinds lists the kinds a table column may declare.
func ColumnKinds() []Kind {
	return []Kind{KindString, KindNumber, KindURL, KindDate, KindYear}
}

// Priority is the author-declared urgency of a field.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// CheckboxMode selects the token vocabulary of a checkboxes field.
type CheckboxMode string

const (
	CheckboxSimple   CheckboxMode = "simple"
	CheckboxExplicit CheckboxMode = "explicit"
	CheckboxMulti    CheckboxMode = "multi"
)

// ApprovalMode marks a checkboxes field as a blocking checkpoint.
type ApprovalMode string

const (
	ApprovalNone     ApprovalMode = ""
	ApprovalBlocking ApprovalMode = "blocking"
)

// CheckState is one per-option token of a checkboxes value.
type CheckState string

const (
	CheckTodo       CheckState = "todo"
	CheckDone       CheckState = "done"
	CheckUnfilled   CheckState = "unfilled"
	CheckYes        CheckState = "yes"
	CheckNo         CheckState = "no"
	CheckIncomplete CheckState = "incomplete"
	CheckActive     CheckState = "active"
	CheckNA         CheckState = "na"
)

// States returns the token vocabulary of the mode.
func (m CheckboxMode) States() []CheckState {
	switch m {
	case CheckboxExplicit:
		return []CheckState{CheckUnfilled, CheckYes, CheckNo}
	case CheckboxMulti:
		return []CheckState{CheckTodo, CheckDone, CheckIncomplete, CheckActive, CheckNA}
	default:
		return []CheckState{CheckTodo, CheckDone}
	}
}

// ValidState reports whether s belongs to the mode's vocabulary.
func (m CheckboxMode) ValidState(s CheckState) bool {
	for _, valid := range m.States() {
		if s == valid {
			return true
		}
	}
	return false
}

// InitialState is the token an option starts in before anyone touches it.
func (m CheckboxMode) InitialState() CheckState {
	if m == CheckboxExplicit {
		return CheckUnfilled
	}
	return CheckTodo
}

// Settled reports whether the token counts toward the mode's completion rule.
func (m CheckboxMode) Settled(s CheckState) bool {
	switch m {
	case CheckboxExplicit:
		return s == CheckYes || s == CheckNo
	default:
		return s == CheckDone || s == CheckNA
	}
}

// ResponseState is one axis of a response: whether the field was addressed
// and how. Value emptiness is the orthogonal axis (see Value.IsEmpty).
type ResponseState string

const (
	Unanswered ResponseState = "unanswered"
	Answered   ResponseState = "answered"
	Skipped    ResponseState = "skipped"
	Aborted    ResponseState = "aborted"
)

// NodeKind classifies a declared identifier in the id index.
type NodeKind string

const (
	NodeForm   NodeKind = "form"
	NodeGroup  NodeKind = "group"
	NodeField  NodeKind = "field"
	NodeOption NodeKind = "option"
	NodeColumn NodeKind = "column"
)
