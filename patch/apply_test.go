package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlevy/markform/form"
	"github.com/jlevy/markform/inspect"
)

func intakeForm(t *testing.T) *form.Form {
	t.Helper()
	f, err := form.New(&form.Schema{
		ID: "intake",
		Items: []form.Item{
			{Field: &form.FieldSchema{ID: "name", Kind: form.KindString, Required: true}},
			{Field: &form.FieldSchema{ID: "website", Kind: form.KindURL}},
			{Field: &form.FieldSchema{ID: "founded", Kind: form.KindYear}},
			{Field: &form.FieldSchema{ID: "tags", Kind: form.KindStringList}},
			{Field: &form.FieldSchema{ID: "stage", Kind: form.KindSingleSelect,
				Options: []form.Option{{ID: "seed"}, {ID: "growth"}}}},
			{Field: &form.FieldSchema{ID: "markets", Kind: form.KindMultiSelect,
				Options: []form.Option{{ID: "us"}, {ID: "eu"}, {ID: "apac"}}}},
			{Field: &form.FieldSchema{ID: "steps", Kind: form.KindCheckboxes,
				Options: []form.Option{{ID: "call"}, {ID: "deck"}, {ID: "ref_check"}}}},
			{Field: &form.FieldSchema{ID: "team", Kind: form.KindCheckboxes,
				CheckboxMode: form.CheckboxMulti,
				Options:      []form.Option{{ID: "cto_hired"}, {ID: "sales_hired"}}}},
			{Field: &form.FieldSchema{ID: "rounds", Kind: form.KindTable,
				Columns: []form.Column{
					{ID: "round"},
					{ID: "amount", Type: form.KindNumber},
				}}},
		},
	})
	require.NoError(t, err)
	return f
}

func TestApplyCommitsBatch(t *testing.T) {
	t.Parallel()

	f := intakeForm(t)
	res := Apply(f, []Patch{
		SetString("name", "Acme"),
		SetString("website", "https://acme.example"),
		SetNumber("founded", 2019),
		SetStringList("tags", "b2b", "infra"),
		SetSingleSelect("stage", "seed"),
		SetMultiSelect("markets", "us", "eu"),
	}, Options{})

	assert.Equal(t, StatusApplied, res.Status)
	assert.Empty(t, res.RejectionReasons)
	assert.Equal(t, 6, res.Progress.Answered)
	assert.Equal(t, form.StringValue("Acme"), f.Response("name").Value)
	assert.Equal(t, form.NumberValue(2019), f.Response("founded").Value)
	assert.Equal(t, form.ListValue{"us", "eu"}, f.Response("markets").Value)
}

func TestApplyIsTransactional(t *testing.T) {
	t.Parallel()

	f := intakeForm(t)
	res := Apply(f, []Patch{
		SetString("name", "Acme"),
		SetString("no_such_field", "x"),
		SetNumber("name", 7),
	}, Options{})

	assert.Equal(t, StatusRejected, res.Status)
	require.Len(t, res.RejectionReasons, 2, "every bad patch gets its own reason")
	assert.Contains(t, res.RejectionReasons[0], "no_such_field")
	assert.Contains(t, res.RejectionReasons[1], "set_number")

	// Nothing committed, including the patches that were individually fine.
	assert.Equal(t, form.Unanswered, f.Response("name").State)
	assert.Equal(t, 0, res.Progress.Answered)
}

func TestSetOverwritesSkip(t *testing.T) {
	t.Parallel()

	f := intakeForm(t)
	res := Apply(f, []Patch{SkipField("website", "not public yet")}, Options{})
	require.Equal(t, StatusApplied, res.Status)
	assert.Equal(t, form.Skipped, f.Response("website").State)
	assert.Equal(t, "not public yet", f.Response("website").Reason)

	res = Apply(f, []Patch{SetString("website", "https://acme.example")}, Options{})
	require.Equal(t, StatusApplied, res.Status)
	resp := f.Response("website")
	assert.Equal(t, form.Answered, resp.State)
	assert.Empty(t, resp.Reason, "the skip reason does not linger")
}

func TestSkipRequiredRejected(t *testing.T) {
	t.Parallel()

	f := intakeForm(t)
	res := Apply(f, []Patch{SkipField("name", "tedious")}, Options{})
	assert.Equal(t, StatusRejected, res.Status)
	assert.Equal(t, form.Unanswered, f.Response("name").State)

	// The same invariant holds for a sentinel smuggled in as a value.
	res = Apply(f, []Patch{SetString("name", "%SKIP% (tedious)")}, Options{})
	assert.Equal(t, StatusRejected, res.Status)

	// Aborting a required field is allowed; it reports as invalid instead.
	res = Apply(f, []Patch{AbortField("name", "company dissolved")}, Options{})
	assert.Equal(t, StatusApplied, res.Status)
	assert.Equal(t, form.Aborted, f.Response("name").State)
	assert.Equal(t, inspect.StateInvalid, res.FormState)
}

func TestSentinelValueSkipsOptionalField(t *testing.T) {
	t.Parallel()

	f := intakeForm(t)
	res := Apply(f, []Patch{SetString("website", "%skip: company has no site%")}, Options{})
	require.Equal(t, StatusApplied, res.Status)
	resp := f.Response("website")
	assert.Equal(t, form.Skipped, resp.State)
	assert.Equal(t, "company has no site", resp.Reason)
}

func TestCheckboxesMergeNotReplace(t *testing.T) {
	t.Parallel()

	f := intakeForm(t)
	res := Apply(f, []Patch{SetCheckboxes("steps", map[string]string{"call": "done"})}, Options{})
	require.Equal(t, StatusApplied, res.Status)

	res = Apply(f, []Patch{SetCheckboxes("steps", map[string]string{"deck": "done"})}, Options{})
	require.Equal(t, StatusApplied, res.Status)

	val := f.Response("steps").Value.(form.CheckboxesValue)
	assert.Equal(t, form.CheckDone, val["call"], "earlier state survives the second patch")
	assert.Equal(t, form.CheckDone, val["deck"])
	_, touched := val["ref_check"]
	assert.False(t, touched, "untouched options stay absent")
}

func TestCheckboxSentinel(t *testing.T) {
	t.Parallel()

	f := intakeForm(t)

	// Multi mode maps an option-level skip to the na token.
	res := Apply(f, []Patch{SetCheckboxes("team", map[string]string{
		"cto_hired":   "done",
		"sales_hired": "%SKIP% (no sales team planned)",
	})}, Options{})
	require.Equal(t, StatusApplied, res.Status)
	val := f.Response("team").Value.(form.CheckboxesValue)
	assert.Equal(t, form.CheckNA, val["sales_hired"])

	// Simple mode has no na token; the batch is rejected.
	res = Apply(f, []Patch{SetCheckboxes("steps", map[string]string{
		"call": "%SKIP%",
	})}, Options{})
	assert.Equal(t, StatusRejected, res.Status)
}

func TestTableMergeByRowIndex(t *testing.T) {
	t.Parallel()

	f := intakeForm(t)
	res := Apply(f, []Patch{SetTable("rounds",
		map[string]string{"round": "seed", "amount": "1000000"},
	)}, Options{})
	require.Equal(t, StatusApplied, res.Status)

	// Second patch patches one cell of row 0 and appends row 1.
	res = Apply(f, []Patch{SetTable("rounds",
		map[string]string{"amount": "1500000"},
		map[string]string{"round": "series_a", "amount": "%SKIP% (not closed)"},
	)}, Options{})
	require.Equal(t, StatusApplied, res.Status)

	rows := f.Response("rounds").Value.(form.TableValue)
	require.Len(t, rows, 2)
	assert.Equal(t, "seed", rows[0]["round"].Value, "unpatched cell survives")
	assert.Equal(t, "1500000", rows[0]["amount"].Value)
	assert.Equal(t, form.Skipped, rows[1]["amount"].State)
	assert.Equal(t, "not closed", rows[1]["amount"].Reason)
}

func TestClearField(t *testing.T) {
	t.Parallel()

	f := intakeForm(t)
	require.Equal(t, StatusApplied, Apply(f, []Patch{SetString("name", "Acme")}, Options{}).Status)
	require.Equal(t, StatusApplied, Apply(f, []Patch{ClearField("name")}, Options{}).Status)
	resp := f.Response("name")
	assert.Equal(t, form.Unanswered, resp.State)
	assert.Nil(t, resp.Value)
}

func TestNotes(t *testing.T) {
	t.Parallel()

	f := intakeForm(t)
	res := Apply(f, []Patch{
		AddNote("name", "reviewer", "verify spelling against the registry"),
		AddNote("rounds[0].amount", "", "currency unclear"),
	}, Options{})
	require.Equal(t, StatusApplied, res.Status)
	require.Len(t, f.Notes, 2)
	assert.Equal(t, "n1", f.Notes[0].ID)
	assert.Equal(t, "n2", f.Notes[1].ID)

	res = Apply(f, []Patch{RemoveNote("n1")}, Options{})
	require.Equal(t, StatusApplied, res.Status)
	require.Len(t, f.Notes, 1)
	assert.Equal(t, "n2", f.Notes[0].ID)

	// Removed ids are gone for good and fresh ids keep counting up.
	res = Apply(f, []Patch{RemoveNote("n1")}, Options{})
	assert.Equal(t, StatusRejected, res.Status)
	res = Apply(f, []Patch{AddNote("stage.growth", "", "confirm with founder")}, Options{})
	require.Equal(t, StatusApplied, res.Status)
	assert.Equal(t, "n3", f.Notes[1].ID)

	// A note against undeclared structure rejects.
	res = Apply(f, []Patch{AddNote("stage.ipo", "", "x")}, Options{})
	assert.Equal(t, StatusRejected, res.Status)
}

func TestConstraintViolationsDoNotReject(t *testing.T) {
	t.Parallel()

	f := form.MustNew(&form.Schema{ID: "f", Items: []form.Item{
		{Field: &form.FieldSchema{ID: "site", Kind: form.KindURL}},
	}})
	res := Apply(f, []Patch{SetString("site", "not a url")}, Options{})
	assert.Equal(t, StatusApplied, res.Status, "bad content lands and surfaces as an issue")
	assert.Equal(t, inspect.StateInvalid, res.FormState)
}

func TestValidateRoles(t *testing.T) {
	t.Parallel()

	f := form.MustNew(&form.Schema{ID: "f", Items: []form.Item{
		{Field: &form.FieldSchema{ID: "a", Kind: form.KindString, Role: "agent"}},
		{Field: &form.FieldSchema{ID: "b", Kind: form.KindString, Role: "reviewer"}},
	}})

	batch := []Patch{SetString("a", "x"), SetString("b", "y")}
	assert.NoError(t, ValidateRoles(f, batch, nil), "empty set allows everything")
	assert.NoError(t, ValidateRoles(f, batch, []string{"*"}))
	assert.NoError(t, ValidateRoles(f, batch, []string{"agent", "reviewer"}))

	err := ValidateRoles(f, batch, []string{"agent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"b"`)

	notes := []Patch{AddNote("b", "agent", "out of my lane but noting it")}
	assert.NoError(t, ValidateRoles(f, notes, []string{"agent"}), "note ops are exempt")
}
