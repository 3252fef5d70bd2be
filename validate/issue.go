package validate

import (
	"github.com/jlevy/markform/form"
	"github.com/jlevy/markform/scoperef"
)

// Severity separates blocking problems from advisory ones. A form is valid
// iff it has no error-severity issues.
type Severity string

const (
	SeverityError       Severity = "error"
	SeverityRecommended Severity = "recommended"
)

// Reason is a stable machine-readable issue code.
type Reason string

const (
	ReasonRequiredMissing    Reason = "required_missing"
	ReasonFieldAborted       Reason = "field_aborted"
	ReasonInvalidValue       Reason = "invalid_value"
	ReasonIncompleteChecks   Reason = "incomplete_checkboxes"
	ReasonOptionalUnanswered Reason = "optional_unanswered"
	ReasonValidatorMissing   Reason = "validator_missing"
	ReasonValidatorFailed    Reason = "validator_failed"
)

// Issue is one reported problem, addressed by a scope reference. Issues are
// produced fresh on every call and never stored on the form.
type Issue struct {
	Ref      scoperef.Ref  `json:"ref"`
	Scope    form.NodeKind `json:"scope"`
	Reason   Reason        `json:"reason"`
	Message  string        `json:"message"`
	Severity Severity      `json:"severity"`
}

func fieldIssue(fieldID string, reason Reason, severity Severity, message string) Issue {
	return Issue{
		Ref:      scoperef.FieldRef(fieldID),
		Scope:    form.NodeField,
		Reason:   reason,
		Message:  message,
		Severity: severity,
	}
}

func cellIssue(fieldID string, row int, column, message string) Issue {
	return Issue{
		Ref:      scoperef.CellRef(fieldID, row, column),
		Scope:    form.NodeColumn,
		Reason:   ReasonInvalidValue,
		Message:  message,
		Severity: SeverityError,
	}
}
