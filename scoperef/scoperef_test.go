package scoperef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShapes(t *testing.T) {
	t.Parallel()

	ref, err := Parse("director")
	require.NoError(t, err)
	assert.True(t, ref.IsField())
	assert.Equal(t, "director", ref.FieldID())

	ref, err = Parse("genres.comedy")
	require.NoError(t, err)
	assert.True(t, ref.IsOption())
	assert.Equal(t, "genres", ref.FieldID())
	assert.Equal(t, "comedy", ref.Qualifier)

	ref, err = Parse("films[2].year")
	require.NoError(t, err)
	assert.True(t, ref.IsCell())
	assert.Equal(t, "films", ref.FieldID())
	assert.Equal(t, 2, ref.Row)
	assert.Equal(t, "year", ref.Column)

	ref, err = Parse("  spaced_ref  ")
	require.NoError(t, err)
	assert.Equal(t, "spaced_ref", ref.FieldID())
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	bad := []string{
		"",
		"   ",
		"1field",
		"field.",
		".option",
		"a.b.c",
		"films[-1].year",
		"films[].year",
		"films[2]",
		"films[2].",
		"field option",
	}
	for _, s := range bad {
		_, err := Parse(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestStringRoundTrip(t *testing.T) {
	t.Parallel()

	refs := []Ref{
		FieldRef("title"),
		OptionRef("genres", "drama"),
		CellRef("films", 0, "title"),
		CellRef("films", 17, "rating-avg"),
	}
	for _, ref := range refs {
		back, err := Parse(ref.String())
		require.NoError(t, err)
		assert.Equal(t, ref, back)
	}
}
