package flow

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"

	"github.com/jlevy/markform/form"
	"github.com/jlevy/markform/inspect"
)

// formatSchemaOutline renders the field list for the patch prompt.
func formatSchemaOutline(f *form.Form) string {
	var sb strings.Builder
	for _, fld := range f.Fields() {
		sb.WriteString(fmt.Sprintf("- %s (%s", fld.ID, fld.Kind))
		if fld.Required {
			sb.WriteString(", required")
		}
		sb.WriteString(fmt.Sprintf(", role=%s, priority=%s)", fld.Role, fld.Priority))
		if fld.Label != "" {
			sb.WriteString(": " + fld.Label)
		}
		if len(fld.Options) > 0 {
			ids := make([]string, len(fld.Options))
			for i, opt := range fld.Options {
				ids[i] = opt.ID
			}
			sb.WriteString(" [options: " + strings.Join(ids, ", ") + "]")
		}
		if len(fld.Columns) > 0 {
			ids := make([]string, len(fld.Columns))
			for i, col := range fld.Columns {
				ids[i] = fmt.Sprintf("%s:%s", col.ID, col.Type)
			}
			sb.WriteString(" [columns: " + strings.Join(ids, ", ") + "]")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatAnswersJSON renders the current responses as JSON for the prompt.
func formatAnswersJSON(f *form.Form) (string, error) {
	out, err := sonic.MarshalString(f.Responses)
	if err != nil {
		return "", fmt.Errorf("marshal responses: %w", err)
	}
	return out, nil
}

// formatWorklist renders the issue list, most urgent first.
func formatWorklist(issues []inspect.Issue) string {
	if len(issues) == 0 {
		return "none"
	}
	var sb strings.Builder
	for _, issue := range issues {
		sb.WriteString(fmt.Sprintf("- [p%d] %s: %s", issue.Priority, issue.Ref, issue.Message))
		if issue.BlockedBy != "" {
			sb.WriteString(fmt.Sprintf(" (blocked by %s)", issue.BlockedBy))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatHistory(history []*schema.Message) string {
	var sb strings.Builder
	for _, msg := range history {
		if msg == nil || msg.Content == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatProgress(p inspect.ProgressSummary) string {
	return fmt.Sprintf("%d answered, %d skipped, %d unanswered (%d required remaining), %d aborted",
		p.Answered, p.Skipped, p.Unanswered, p.RequiredRemaining, p.Aborted)
}

// turnMessage builds the deterministic status message returned after a turn.
func turnMessage(res inspect.Result, applied int) string {
	var sb strings.Builder
	if applied > 0 {
		sb.WriteString(fmt.Sprintf("Applied %d patch(es). ", applied))
	}
	sb.WriteString(fmt.Sprintf("Form is %s: %s.", res.FormState, formatProgress(res.Progress)))
	if len(res.Issues) > 0 {
		next := res.Issues[0]
		sb.WriteString(fmt.Sprintf(" Next up: %s (%s).", next.Ref, next.Message))
	} else if res.IsComplete {
		sb.WriteString(" Everything is addressed; say confirm to submit.")
	}
	return sb.String()
}
