// Package validate is the structural validation engine. Validate is a pure
// read-only pass over a form; all failures are returned as issue values,
// never as errors or panics.
package validate

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jlevy/markform/form"
)

// Options configures one validation pass.
type Options struct {
	// Registry supplies custom validators for fields and groups declaring a
	// validate attribute. May be nil.
	Registry Registry

	// SkipCodeValidators bypasses registry lookups entirely; structural
	// checks still run.
	SkipCodeValidators bool
}

// Result is the outcome of one pass. IsValid is false iff at least one issue
// has error severity.
type Result struct {
	IsValid bool    `json:"is_valid"`
	Issues  []Issue `json:"issues"`
}

// Validate runs every kind-specific structural rule and then the custom
// validators. It never mutates the form.
func Validate(f *form.Form, opts Options) Result {
	var issues []Issue
	for _, fld := range f.Fields() {
		issues = append(issues, checkField(fld, f.Response(fld.ID))...)
	}
	if !opts.SkipCodeValidators {
		issues = append(issues, runCodeValidators(f, opts.Registry)...)
	}

	valid := true
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			valid = false
			break
		}
	}
	return Result{IsValid: valid, Issues: issues}
}

func runCodeValidators(f *form.Form, registry Registry) []Issue {
	if registry == nil {
		registry = Registry{}
	}
	var issues []Issue
	for _, it := range f.Schema.Items {
		if it.Group != nil {
			for _, name := range it.Group.Validators {
				issues = append(issues, registry.run(name, Context{NodeID: it.Group.ID, Scope: form.NodeGroup, Form: f})...)
			}
			for _, fld := range it.Group.Fields {
				issues = append(issues, runFieldValidators(f, registry, fld)...)
			}
			continue
		}
		issues = append(issues, runFieldValidators(f, registry, it.Field)...)
	}
	return issues
}

func runFieldValidators(f *form.Form, registry Registry, fld *form.FieldSchema) []Issue {
	var issues []Issue
	for _, name := range fld.Validators {
		issues = append(issues, registry.run(name, Context{NodeID: fld.ID, Scope: form.NodeField, Form: f})...)
	}
	return issues
}

func checkField(fld *form.FieldSchema, resp *form.Response) []Issue {
	if resp == nil {
		resp = form.NewUnanswered()
	}
	switch resp.State {
	case form.Aborted:
		return []Issue{fieldIssue(fld.ID, ReasonFieldAborted, SeverityError,
			abortMessage(fld, resp.Reason))}
	case form.Skipped:
		return nil
	case form.Unanswered:
		if fld.Required {
			return []Issue{fieldIssue(fld.ID, ReasonRequiredMissing, SeverityError,
				fmt.Sprintf("required field %q has no response", fld.ID))}
		}
		return nil
	}

	if resp.Value == nil || !form.ValueKindMatches(fld.Kind, resp.Value) {
		return []Issue{fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q holds a value of the wrong kind for %s", fld.ID, fld.Kind))}
	}

	switch fld.Kind {
	case form.KindString:
		return checkString(fld, string(resp.Value.(form.StringValue)))
	case form.KindNumber:
		return checkNumber(fld, float64(resp.Value.(form.NumberValue)))
	case form.KindYear:
		return checkYear(fld, float64(resp.Value.(form.NumberValue)))
	case form.KindURL:
		return checkURLField(fld, string(resp.Value.(form.StringValue)))
	case form.KindDate:
		return checkDate(fld, string(resp.Value.(form.StringValue)))
	case form.KindSingleSelect:
		return checkSingleSelect(fld, string(resp.Value.(form.StringValue)))
	case form.KindStringList:
		return checkList(fld, resp.Value.(form.ListValue), false)
	case form.KindURLList:
		return checkList(fld, resp.Value.(form.ListValue), true)
	case form.KindMultiSelect:
		return checkMultiSelect(fld, resp.Value.(form.ListValue))
	case form.KindCheckboxes:
		return checkCheckboxes(fld, resp.Value.(form.CheckboxesValue))
	case form.KindTable:
		return checkTable(fld, resp.Value.(form.TableValue))
	default:
		return []Issue{fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q has unknown kind %q", fld.ID, fld.Kind))}
	}
}

func abortMessage(fld *form.FieldSchema, reason string) string {
	if reason == "" {
		return fmt.Sprintf("field %q was aborted", fld.ID)
	}
	return fmt.Sprintf("field %q was aborted: %s", fld.ID, reason)
}

func checkString(fld *form.FieldSchema, s string) []Issue {
	var issues []Issue
	n := len([]rune(s))
	if fld.MinLength != nil && n < *fld.MinLength {
		issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q is %d characters, minimum is %d", fld.ID, n, *fld.MinLength)))
	}
	if fld.MaxLength != nil && n > *fld.MaxLength {
		issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q is %d characters, maximum is %d", fld.ID, n, *fld.MaxLength)))
	}
	if fld.Pattern != "" {
		re, err := regexp.Compile(fld.Pattern)
		if err != nil {
			issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
				fmt.Sprintf("field %q declares an invalid pattern: %v", fld.ID, err)))
		} else if !re.MatchString(s) {
			issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
				fmt.Sprintf("field %q does not match pattern %q", fld.ID, fld.Pattern)))
		}
	}
	return issues
}

func checkNumber(fld *form.FieldSchema, v float64) []Issue {
	var issues []Issue
	if fld.Integer && v != math.Trunc(v) {
		issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q must be an integer, got %v", fld.ID, v)))
	}
	if fld.Min != nil && v < *fld.Min {
		issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q is %v, minimum is %v", fld.ID, v, *fld.Min)))
	}
	if fld.Max != nil && v > *fld.Max {
		issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q is %v, maximum is %v", fld.ID, v, *fld.Max)))
	}
	return issues
}

func checkYear(fld *form.FieldSchema, v float64) []Issue {
	if v != math.Trunc(v) {
		return []Issue{fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q must be a whole year, got %v", fld.ID, v))}
	}
	return checkNumber(fld, v)
}

func checkURLField(fld *form.FieldSchema, s string) []Issue {
	if msg := urlProblem(s); msg != "" {
		return []Issue{fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q: %s", fld.ID, msg))}
	}
	return nil
}

func checkDate(fld *form.FieldSchema, s string) []Issue {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return []Issue{fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q is not a valid ISO date: %q", fld.ID, s))}
	}
	var issues []Issue
	if fld.MinDate != "" && s < fld.MinDate {
		issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q is %s, earliest allowed is %s", fld.ID, s, fld.MinDate)))
	}
	if fld.MaxDate != "" && s > fld.MaxDate {
		issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q is %s, latest allowed is %s", fld.ID, s, fld.MaxDate)))
	}
	return issues
}

func checkSingleSelect(fld *form.FieldSchema, s string) []Issue {
	if _, ok := fld.Option(s); !ok {
		return []Issue{fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q: %q is not a declared option", fld.ID, s))}
	}
	return nil
}

func checkList(fld *form.FieldSchema, items form.ListValue, urls bool) []Issue {
	var issues []Issue
	issues = append(issues, checkItemBounds(fld, len(items))...)
	if fld.UniqueItems {
		seen := map[string]bool{}
		for _, item := range items {
			if seen[item] {
				issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
					fmt.Sprintf("field %q contains duplicate item %q", fld.ID, item)))
				break
			}
			seen[item] = true
		}
	}
	if urls {
		for i, item := range items {
			if msg := urlProblem(item); msg != "" {
				issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
					fmt.Sprintf("field %q item %d: %s", fld.ID, i, msg)))
			}
		}
	}
	return issues
}

func checkItemBounds(fld *form.FieldSchema, n int) []Issue {
	var issues []Issue
	if fld.MinItems != nil && n < *fld.MinItems {
		issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q has %d items, minimum is %d", fld.ID, n, *fld.MinItems)))
	}
	if fld.MaxItems != nil && n > *fld.MaxItems {
		issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q has %d items, maximum is %d", fld.ID, n, *fld.MaxItems)))
	}
	return issues
}

func checkMultiSelect(fld *form.FieldSchema, selected form.ListValue) []Issue {
	var issues []Issue
	seen := map[string]bool{}
	for _, id := range selected {
		if _, ok := fld.Option(id); !ok {
			issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
				fmt.Sprintf("field %q: %q is not a declared option", fld.ID, id)))
		}
		if seen[id] {
			issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
				fmt.Sprintf("field %q selects %q more than once", fld.ID, id)))
		}
		seen[id] = true
	}
	n := len(selected)
	if fld.MinSelections != nil && n < *fld.MinSelections {
		issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q has %d selections, minimum is %d", fld.ID, n, *fld.MinSelections)))
	}
	if fld.MaxSelections != nil && n > *fld.MaxSelections {
		issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("field %q has %d selections, maximum is %d", fld.ID, n, *fld.MaxSelections)))
	}
	return issues
}

// checkCheckboxes applies the mode-specific completeness rules: explicit
// requires zero unfilled options, simple and multi require minDone options
// settled (all of them when minDone is unset), and multi forbids any
// incomplete option on a required field.
func checkCheckboxes(fld *form.FieldSchema, val form.CheckboxesValue) []Issue {
	var issues []Issue
	mode := fld.CheckboxMode
	for id, state := range val {
		if _, ok := fld.Option(id); !ok {
			issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
				fmt.Sprintf("field %q: %q is not a declared option", fld.ID, id)))
			continue
		}
		if !mode.ValidState(state) {
			issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
				fmt.Sprintf("field %q option %q: %q is not a valid %s-mode state", fld.ID, id, state, mode)))
		}
	}

	if mode == form.CheckboxExplicit {
		unfilled := 0
		for _, opt := range fld.Options {
			if state, ok := val[opt.ID]; !ok || state == form.CheckUnfilled {
				unfilled++
			}
		}
		if unfilled > 0 {
			issues = append(issues, fieldIssue(fld.ID, ReasonIncompleteChecks, SeverityError,
				fmt.Sprintf("field %q has %d option(s) still unfilled", fld.ID, unfilled)))
		}
		return issues
	}

	if fld.Required || fld.MinDone != nil {
		settled := 0
		for _, state := range val {
			if mode.Settled(state) {
				settled++
			}
		}
		need := len(fld.Options)
		if fld.MinDone != nil {
			need = *fld.MinDone
		}
		if settled < need {
			issues = append(issues, fieldIssue(fld.ID, ReasonIncompleteChecks, SeverityError,
				fmt.Sprintf("field %q has %d of %d option(s) done", fld.ID, settled, need)))
		}
	}
	if mode == form.CheckboxMulti && fld.Required {
		for id, state := range val {
			if state == form.CheckIncomplete {
				issues = append(issues, fieldIssue(fld.ID, ReasonIncompleteChecks, SeverityError,
					fmt.Sprintf("field %q option %q is marked incomplete", fld.ID, id)))
			}
		}
	}
	return issues
}

// CheckboxesComplete reports whether a checkboxes response satisfies its
// mode's completion rule. The inspection engine uses this for blocking
// checkpoints.
func CheckboxesComplete(fld *form.FieldSchema, resp *form.Response) bool {
	if resp == nil || resp.State != form.Answered {
		return false
	}
	val, ok := resp.Value.(form.CheckboxesValue)
	if !ok {
		return false
	}
	mode := fld.CheckboxMode
	if mode == form.CheckboxExplicit {
		for _, opt := range fld.Options {
			if state, found := val[opt.ID]; !found || state == form.CheckUnfilled {
				return false
			}
		}
		return true
	}
	settled := 0
	for _, state := range val {
		if mode.Settled(state) {
			settled++
		}
	}
	need := len(fld.Options)
	if fld.MinDone != nil {
		need = *fld.MinDone
	}
	return settled >= need
}

func checkTable(fld *form.FieldSchema, rows form.TableValue) []Issue {
	var issues []Issue
	if fld.Required && len(rows) == 0 {
		issues = append(issues, fieldIssue(fld.ID, ReasonRequiredMissing, SeverityError,
			fmt.Sprintf("required table %q has no rows", fld.ID)))
	}
	if fld.MinRows != nil && len(rows) < *fld.MinRows {
		issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("table %q has %d rows, minimum is %d", fld.ID, len(rows), *fld.MinRows)))
	}
	if fld.MaxRows != nil && len(rows) > *fld.MaxRows {
		issues = append(issues, fieldIssue(fld.ID, ReasonInvalidValue, SeverityError,
			fmt.Sprintf("table %q has %d rows, maximum is %d", fld.ID, len(rows), *fld.MaxRows)))
	}
	for i, row := range rows {
		for colID, cell := range row {
			col, ok := fld.Column(colID)
			if !ok {
				issues = append(issues, cellIssue(fld.ID, i, colID,
					fmt.Sprintf("table %q has no column %q", fld.ID, colID)))
				continue
			}
			if cell.State != form.Answered {
				continue
			}
			issues = append(issues, checkCell(fld.ID, i, col, cell.Value)...)
		}
	}
	return issues
}

func checkCell(fieldID string, row int, col form.Column, raw string) []Issue {
	switch col.Type {
	case form.KindNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err != nil {
			return []Issue{cellIssue(fieldID, row, col.ID,
				fmt.Sprintf("cell %q is not a number", raw))}
		}
	case form.KindYear:
		if _, err := strconv.Atoi(strings.TrimSpace(raw)); err != nil {
			return []Issue{cellIssue(fieldID, row, col.ID,
				fmt.Sprintf("cell %q is not a year", raw))}
		}
	case form.KindURL:
		// Table cells may wrap the URL in a markdown link.
		if msg := urlProblem(extractMarkdownLink(raw)); msg != "" {
			return []Issue{cellIssue(fieldID, row, col.ID, msg)}
		}
	case form.KindDate:
		if _, err := time.Parse("2006-01-02", strings.TrimSpace(raw)); err != nil {
			return []Issue{cellIssue(fieldID, row, col.ID,
				fmt.Sprintf("cell %q is not a valid ISO date", raw))}
		}
	}
	return nil
}

var markdownLinkRe = regexp.MustCompile(`^\[[^\]]*\]\(([^)\s]+)\)$`)

// extractMarkdownLink returns the URL inside a [text](url) wrapper, or the
// input unchanged when it is not one.
func extractMarkdownLink(s string) string {
	if m := markdownLinkRe.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
		return m[1]
	}
	return s
}

func urlProblem(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "empty URL"
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Sprintf("malformed URL %q", s)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Sprintf("URL %q is not absolute", s)
	}
	return ""
}
