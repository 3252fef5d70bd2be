package form

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSchemaYAML = `
id: project_intake
title: Project Intake
items:
  - field:
      id: project_name
      kind: string
      required: true
      priority: high
      min_length: 3
  - group:
      id: logistics
      role: reviewer
      fields:
        - id: start_date
          kind: date
        - id: budget
          kind: number
          min: 0
          integer: true
  - field:
      id: launch_checks
      kind: checkboxes
      required: true
      checkbox_mode: explicit
      approval_mode: blocking
      options:
        - id: legal_signoff
        - id: security_review
`

func TestParseSchemaYAML(t *testing.T) {
	t.Parallel()

	schema, err := ParseSchemaYAML([]byte(sampleSchemaYAML))
	require.NoError(t, err)

	assert.Equal(t, "project_intake", schema.ID)

	name, ok := schema.Field("project_name")
	require.True(t, ok)
	assert.Equal(t, DefaultRole, name.Role)
	require.NotNil(t, name.MinLength)
	assert.Equal(t, 3, *name.MinLength)

	budget, ok := schema.Field("budget")
	require.True(t, ok)
	assert.Equal(t, "reviewer", budget.Role)
	assert.True(t, budget.Integer)
	require.NotNil(t, budget.Min)
	assert.Equal(t, 0.0, *budget.Min)

	checks, ok := schema.Field("launch_checks")
	require.True(t, ok)
	assert.Equal(t, CheckboxExplicit, checks.CheckboxMode)
	assert.Equal(t, ApprovalBlocking, checks.ApprovalMode)
}

func TestParseSchemaYAMLErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseSchemaYAML([]byte("   \n"))
	assert.Error(t, err)

	_, err = ParseSchemaYAML([]byte("id: [not scalar\n"))
	assert.Error(t, err)

	_, err = ParseSchemaYAML([]byte("id: f\nitems:\n  - field:\n      id: a\n      kind: blob\n"))
	assert.Error(t, err)
}

func TestLoadFormFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSchemaYAML), 0o600))

	f, err := LoadFormFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Fields(), 4)
	assert.Equal(t, Unanswered, f.Response("budget").State)

	_, err = LoadFormFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
