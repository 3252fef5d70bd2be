// Package inspect turns validation output and progress accounting into an
// actionable worklist: priority-tiered, document-ordered, checkpoint-aware
// and role-filtered.
package inspect

import (
	"fmt"
	"sort"

	"github.com/jlevy/markform/form"
	"github.com/jlevy/markform/scoperef"
	"github.com/jlevy/markform/validate"
)

// FormState is the coarse verdict over the whole document.
type FormState string

const (
	// StateEmpty is a degenerate complete: no required fields and nothing
	// answered. Reported distinctly for UX; carries no blocking semantics.
	StateEmpty      FormState = "empty"
	StateIncomplete FormState = "incomplete"
	StateInvalid    FormState = "invalid"
	StateComplete   FormState = "complete"
)

// Issue is a validation or completeness problem with its urgency attached.
// Priority tiers run 1 (most urgent) to 5; every required-class tier scores
// strictly below every recommended-class tier.
type Issue struct {
	validate.Issue

	Priority  int    `json:"priority"`
	BlockedBy string `json:"blocked_by,omitempty"`
}

// StructureSummary describes the schema, independent of any responses.
type StructureSummary struct {
	TotalFields    int               `json:"total_fields"`
	RequiredFields int               `json:"required_fields"`
	Groups         int               `json:"groups"`
	FieldsByKind   map[form.Kind]int `json:"fields_by_kind"`
	Checkpoints    []string          `json:"checkpoints,omitempty"`
}

// ProgressSummary counts responses along both axes: how fields were
// addressed, and how many answered fields actually carry content.
type ProgressSummary struct {
	Answered          int `json:"answered"`
	Skipped           int `json:"skipped"`
	Aborted           int `json:"aborted"`
	Unanswered        int `json:"unanswered"`
	WithContent       int `json:"with_content"`
	RequiredRemaining int `json:"required_remaining"`
}

// Options configures one inspection pass.
type Options struct {
	Registry           validate.Registry
	SkipCodeValidators bool

	// Roles filters the issue list to fields whose role is in the set.
	// Empty means no filtering; the literal role "*" passes everything.
	Roles []string
}

// Result is one inspection snapshot. It is computed fresh on every call and
// never stored on the form.
type Result struct {
	Structure  StructureSummary `json:"structure"`
	Progress   ProgressSummary  `json:"progress"`
	Issues     []Issue          `json:"issues"`
	FormState  FormState        `json:"form_state"`
	IsComplete bool             `json:"is_complete"`
}

// Inspect runs the validation engine, classifies unaddressed fields,
// assigns priority tiers, annotates fields behind an unmet blocking
// checkpoint, and applies the role filter.
func Inspect(f *form.Form, opts Options) Result {
	vres := validate.Validate(f, validate.Options{
		Registry:           opts.Registry,
		SkipCodeValidators: opts.SkipCodeValidators,
	})

	covered := map[string]bool{}
	for _, issue := range vres.Issues {
		if issue.Severity == validate.SeverityError {
			covered[issue.Ref.FieldID()] = true
		}
	}

	issues := make([]Issue, 0, len(vres.Issues))
	for _, vi := range vres.Issues {
		issues = append(issues, Issue{Issue: vi, Priority: tier(f, vi)})
	}

	// A field that was answered with an empty collection was addressed; an
	// agent who explicitly answered "none" owes nothing further. Only truly
	// unanswered optional fields become worklist entries.
	for _, fld := range f.Fields() {
		resp := f.Response(fld.ID)
		if covered[fld.ID] || fld.Required || resp == nil || resp.State != form.Unanswered {
			continue
		}
		vi := validate.Issue{
			Ref:      scoperef.FieldRef(fld.ID),
			Scope:    form.NodeField,
			Reason:   validate.ReasonOptionalUnanswered,
			Message:  fmt.Sprintf("optional field %q has no response", fld.ID),
			Severity: validate.SeverityRecommended,
		}
		issues = append(issues, Issue{Issue: vi, Priority: tier(f, vi)})
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Priority != issues[j].Priority {
			return issues[i].Priority < issues[j].Priority
		}
		return docOrder(f, issues[i]) < docOrder(f, issues[j])
	})

	annotateBlocked(f, issues)
	issues = filterRoles(f, issues, opts.Roles)

	structure, progress := Summarize(f)
	state := formState(f, vres.Issues)
	return Result{
		Structure:  structure,
		Progress:   progress,
		Issues:     issues,
		FormState:  state,
		IsComplete: isComplete(f, state),
	}
}

// Summarize computes fresh structure and progress summaries.
func Summarize(f *form.Form) (StructureSummary, ProgressSummary) {
	structure := StructureSummary{FieldsByKind: map[form.Kind]int{}}
	for _, it := range f.Schema.Items {
		if it.Group != nil {
			structure.Groups++
		}
	}
	progress := ProgressSummary{}
	for _, fld := range f.Fields() {
		structure.TotalFields++
		structure.FieldsByKind[fld.Kind]++
		if fld.Required {
			structure.RequiredFields++
		}
		if fld.Kind == form.KindCheckboxes && fld.ApprovalMode == form.ApprovalBlocking {
			structure.Checkpoints = append(structure.Checkpoints, fld.ID)
		}

		resp := f.Response(fld.ID)
		if resp == nil {
			resp = form.NewUnanswered()
		}
		switch resp.State {
		case form.Answered:
			progress.Answered++
		case form.Skipped:
			progress.Skipped++
		case form.Aborted:
			progress.Aborted++
		default:
			progress.Unanswered++
			if fld.Required {
				progress.RequiredRemaining++
			}
		}
		if resp.HasContent() {
			progress.WithContent++
		}
	}
	return structure, progress
}

// tier maps (severity class, declared field priority) to a 1..5 score. The
// two classes never interleave: required issues occupy 1..3, recommended
// issues 4..5.
func tier(f *form.Form, issue validate.Issue) int {
	priority := form.PriorityMedium
	if fld, ok := f.Field(issue.Ref.FieldID()); ok {
		priority = fld.Priority
	}
	if issue.Severity == validate.SeverityError {
		switch priority {
		case form.PriorityHigh:
			return 1
		case form.PriorityLow:
			return 3
		default:
			return 2
		}
	}
	switch priority {
	case form.PriorityLow:
		return 5
	default:
		return 4
	}
}

func docOrder(f *form.Form, issue Issue) int {
	if pos := f.DocOrder(issue.Ref.FieldID()); pos >= 0 {
		return pos
	}
	// Group-scoped issues sort with the group's first field.
	for _, it := range f.Schema.Items {
		if it.Group != nil && it.Group.ID == issue.Ref.FieldID() && len(it.Group.Fields) > 0 {
			return f.DocOrder(it.Group.Fields[0].ID)
		}
	}
	return int(^uint(0) >> 1)
}

// annotateBlocked finds the first blocking checkpoint in document order that
// is not yet complete and marks every issue on a field after it.
func annotateBlocked(f *form.Form, issues []Issue) {
	checkpointID := ""
	checkpointPos := -1
	for _, fld := range f.Fields() {
		if fld.Kind != form.KindCheckboxes || fld.ApprovalMode != form.ApprovalBlocking {
			continue
		}
		if !validate.CheckboxesComplete(fld, f.Response(fld.ID)) {
			checkpointID = fld.ID
			checkpointPos = f.DocOrder(fld.ID)
			break
		}
	}
	if checkpointID == "" {
		return
	}
	for i := range issues {
		pos := f.DocOrder(issues[i].Ref.FieldID())
		if pos > checkpointPos {
			issues[i].BlockedBy = checkpointID
		}
	}
}

func filterRoles(f *form.Form, issues []Issue, roles []string) []Issue {
	if len(roles) == 0 {
		return issues
	}
	allowed := map[string]bool{}
	for _, role := range roles {
		if role == "*" {
			return issues
		}
		allowed[role] = true
	}
	out := issues[:0]
	for _, issue := range issues {
		if allowed[roleOf(f, issue.Ref.FieldID())] {
			out = append(out, issue)
		}
	}
	return out
}

func roleOf(f *form.Form, id string) string {
	if fld, ok := f.Field(id); ok {
		return fld.Role
	}
	for _, it := range f.Schema.Items {
		if it.Group != nil && it.Group.ID == id {
			return it.Group.Role
		}
	}
	return form.DefaultRole
}

// formState derives the coarse verdict. Content errors and aborted fields
// make the form invalid; outstanding required fields make it incomplete; a
// form with nothing required and nothing answered is empty.
func formState(f *form.Form, vissues []validate.Issue) FormState {
	requiredMissing := false
	for _, issue := range vissues {
		if issue.Severity != validate.SeverityError {
			continue
		}
		if issue.Reason == validate.ReasonRequiredMissing {
			requiredMissing = true
			continue
		}
		return StateInvalid
	}
	for _, resp := range f.Responses {
		if resp.State == form.Aborted {
			return StateInvalid
		}
	}
	if requiredMissing {
		return StateIncomplete
	}

	structure, progress := Summarize(f)
	if structure.RequiredFields == 0 && progress.Answered == 0 {
		return StateEmpty
	}
	return StateComplete
}

// isComplete is stricter than StateComplete: every field, required or not,
// must have been explicitly addressed (answered or skipped).
func isComplete(f *form.Form, state FormState) bool {
	if state != StateComplete && state != StateEmpty {
		return false
	}
	for _, fld := range f.Fields() {
		resp := f.Response(fld.ID)
		if resp == nil || !resp.Addressed() {
			return false
		}
	}
	return true
}
