package inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlevy/markform/form"
	"github.com/jlevy/markform/validate"
)

func intp(v int) *int { return &v }

func briefSchema() *form.Schema {
	return &form.Schema{
		ID: "brief",
		Items: []form.Item{
			{Field: &form.FieldSchema{ID: "headline", Kind: form.KindString, Required: true, Priority: form.PriorityHigh}},
			{Field: &form.FieldSchema{ID: "body", Kind: form.KindString, Required: true}},
			{Field: &form.FieldSchema{ID: "footnote", Kind: form.KindString, Required: true, Priority: form.PriorityLow}},
			{Field: &form.FieldSchema{ID: "byline", Kind: form.KindString, Priority: form.PriorityHigh}},
			{Field: &form.FieldSchema{ID: "slug", Kind: form.KindString}},
			{Field: &form.FieldSchema{ID: "archive_tag", Kind: form.KindString, Priority: form.PriorityLow}},
		},
	}
}

func TestPriorityTiers(t *testing.T) {
	t.Parallel()

	f := form.MustNew(briefSchema())
	res := Inspect(f, Options{})

	require.Len(t, res.Issues, 6)
	tiers := map[string]int{}
	for _, issue := range res.Issues {
		tiers[issue.Ref.FieldID()] = issue.Priority
	}
	assert.Equal(t, 1, tiers["headline"], "required high")
	assert.Equal(t, 2, tiers["body"], "required medium")
	assert.Equal(t, 3, tiers["footnote"], "required low")
	assert.Equal(t, 4, tiers["byline"], "recommended high")
	assert.Equal(t, 4, tiers["slug"], "recommended medium")
	assert.Equal(t, 5, tiers["archive_tag"], "recommended low")

	// Every required-class issue sorts strictly before every recommended one,
	// and ties break by document order.
	for i := 1; i < len(res.Issues); i++ {
		assert.LessOrEqual(t, res.Issues[i-1].Priority, res.Issues[i].Priority)
	}
	assert.Equal(t, "byline", res.Issues[3].Ref.FieldID())
	assert.Equal(t, "slug", res.Issues[4].Ref.FieldID())
}

func TestOrthogonalAxes(t *testing.T) {
	t.Parallel()

	f := form.MustNew(&form.Schema{ID: "f", Items: []form.Item{
		{Field: &form.FieldSchema{ID: "refs", Kind: form.KindStringList}},
		{Field: &form.FieldSchema{ID: "links", Kind: form.KindStringList}},
	}})
	f.Responses["refs"] = form.NewAnswered(form.ListValue{})

	res := Inspect(f, Options{})
	assert.Equal(t, 1, res.Progress.Answered)
	assert.Equal(t, 0, res.Progress.WithContent, "explicit empty answer carries no content")

	// The empty-but-answered field owes nothing; only the untouched one does.
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "links", res.Issues[0].Ref.FieldID())
	assert.Equal(t, validate.ReasonOptionalUnanswered, res.Issues[0].Reason)
}

func TestFormStates(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		f := form.MustNew(&form.Schema{ID: "f", Items: []form.Item{
			{Field: &form.FieldSchema{ID: "a", Kind: form.KindString}},
		}})
		res := Inspect(f, Options{})
		assert.Equal(t, StateEmpty, res.FormState)
		assert.False(t, res.IsComplete, "empty is not complete until fields are addressed")
	})

	t.Run("incomplete then complete", func(t *testing.T) {
		t.Parallel()
		f := form.MustNew(briefSchema())
		res := Inspect(f, Options{})
		assert.Equal(t, StateIncomplete, res.FormState)

		f.Responses["headline"] = form.NewAnswered(form.StringValue("Hello"))
		f.Responses["body"] = form.NewAnswered(form.StringValue("World"))
		f.Responses["footnote"] = form.NewAnswered(form.StringValue("fn"))
		res = Inspect(f, Options{})
		assert.Equal(t, StateComplete, res.FormState)
		assert.False(t, res.IsComplete, "optional fields are still unaddressed")

		f.Responses["byline"] = form.NewSkipped("anonymous")
		f.Responses["slug"] = form.NewAnswered(form.StringValue("hello-world"))
		f.Responses["archive_tag"] = form.NewSkipped("")
		res = Inspect(f, Options{})
		assert.Equal(t, StateComplete, res.FormState)
		assert.True(t, res.IsComplete)
	})

	t.Run("invalid beats incomplete", func(t *testing.T) {
		t.Parallel()
		f := form.MustNew(briefSchema())
		f.Responses["byline"] = form.NewAborted("unknown author")
		res := Inspect(f, Options{})
		assert.Equal(t, StateInvalid, res.FormState)
	})

	t.Run("constraint violation is invalid", func(t *testing.T) {
		t.Parallel()
		f := form.MustNew(&form.Schema{ID: "f", Items: []form.Item{
			{Field: &form.FieldSchema{ID: "a", Kind: form.KindString, MinLength: intp(5)}},
		}})
		f.Responses["a"] = form.NewAnswered(form.StringValue("hi"))
		res := Inspect(f, Options{})
		assert.Equal(t, StateInvalid, res.FormState)
	})
}

func TestBlockingCheckpoint(t *testing.T) {
	t.Parallel()

	f := form.MustNew(&form.Schema{ID: "launch", Items: []form.Item{
		{Field: &form.FieldSchema{ID: "plan", Kind: form.KindString, Required: true}},
		{Field: &form.FieldSchema{ID: "signoff", Kind: form.KindCheckboxes, Required: true,
			CheckboxMode: form.CheckboxExplicit, ApprovalMode: form.ApprovalBlocking,
			Options: []form.Option{{ID: "legal"}, {ID: "security"}}}},
		{Field: &form.FieldSchema{ID: "announcement", Kind: form.KindString, Required: true}},
	}})

	res := Inspect(f, Options{})
	assert.Equal(t, []string{"signoff"}, res.Structure.Checkpoints)

	blocked := map[string]string{}
	for _, issue := range res.Issues {
		blocked[issue.Ref.FieldID()] = issue.BlockedBy
	}
	assert.Empty(t, blocked["plan"], "fields before the checkpoint are not blocked")
	assert.Empty(t, blocked["signoff"], "the checkpoint itself is not blocked")
	assert.Equal(t, "signoff", blocked["announcement"])

	// Completing the checkpoint unblocks everything after it.
	f.Responses["signoff"] = form.NewAnswered(form.CheckboxesValue{
		"legal": form.CheckYes, "security": form.CheckNo,
	})
	res = Inspect(f, Options{})
	for _, issue := range res.Issues {
		assert.Empty(t, issue.BlockedBy)
	}
}

func TestRoleFilter(t *testing.T) {
	t.Parallel()

	f := form.MustNew(&form.Schema{ID: "f", Items: []form.Item{
		{Field: &form.FieldSchema{ID: "a", Kind: form.KindString, Required: true, Role: "agent"}},
		{Field: &form.FieldSchema{ID: "b", Kind: form.KindString, Required: true, Role: "reviewer"}},
	}})

	res := Inspect(f, Options{Roles: []string{"reviewer"}})
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "b", res.Issues[0].Ref.FieldID())

	res = Inspect(f, Options{Roles: []string{"*"}})
	assert.Len(t, res.Issues, 2)

	res = Inspect(f, Options{})
	assert.Len(t, res.Issues, 2)

	// Filtering shapes the worklist, never the verdict.
	res = Inspect(f, Options{Roles: []string{"reviewer"}})
	assert.Equal(t, StateIncomplete, res.FormState)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	f := form.MustNew(briefSchema())
	f.Responses["headline"] = form.NewAnswered(form.StringValue("Hello"))
	f.Responses["byline"] = form.NewSkipped("")
	f.Responses["slug"] = form.NewAborted("")

	structure, progress := Summarize(f)
	assert.Equal(t, 6, structure.TotalFields)
	assert.Equal(t, 3, structure.RequiredFields)
	assert.Equal(t, 6, structure.FieldsByKind[form.KindString])

	assert.Equal(t, 1, progress.Answered)
	assert.Equal(t, 1, progress.Skipped)
	assert.Equal(t, 1, progress.Aborted)
	assert.Equal(t, 3, progress.Unanswered)
	assert.Equal(t, 2, progress.RequiredRemaining)
	assert.Equal(t, 1, progress.WithContent)
}
