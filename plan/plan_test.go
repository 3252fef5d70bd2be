package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlevy/markform/form"
)

func TestCompute(t *testing.T) {
	t.Parallel()

	f := form.MustNew(&form.Schema{ID: "pipeline", Items: []form.Item{
		{Field: &form.FieldSchema{ID: "brief", Kind: form.KindString, Order: 0}},
		{Group: &form.Group{ID: "research_web", Role: "researcher", Order: 1, Parallel: "research",
			Fields: []*form.FieldSchema{{ID: "sources", Kind: form.KindURLList}}}},
		{Group: &form.Group{ID: "research_papers", Role: "researcher", Order: 1, Parallel: "research",
			Fields: []*form.FieldSchema{{ID: "citations", Kind: form.KindStringList}}}},
		{Field: &form.FieldSchema{ID: "summary", Kind: form.KindString, Order: 1}},
		{Field: &form.FieldSchema{ID: "verdict", Kind: form.KindSingleSelect, Order: 2,
			Options: []form.Option{{ID: "go"}, {ID: "no_go"}}}},
	}})

	p := Compute(f)

	assert.Equal(t, []int{0, 1, 2}, p.OrderLevels)

	require.Len(t, p.LooseSerial, 3)
	assert.Equal(t, "brief", p.LooseSerial[0].ID)
	assert.Equal(t, "summary", p.LooseSerial[1].ID)
	assert.Equal(t, 1, p.LooseSerial[1].Order)
	assert.Equal(t, "verdict", p.LooseSerial[2].ID)

	require.Len(t, p.ParallelBatches, 1)
	batch := p.ParallelBatches[0]
	assert.Equal(t, "research", batch.BatchID)
	assert.Equal(t, 1, batch.Order)
	assert.Equal(t, "researcher", batch.Role)
	require.Len(t, batch.Items, 2)
	assert.Equal(t, "research_web", batch.Items[0].ID)
	assert.Equal(t, form.NodeGroup, batch.Items[0].Kind)
	assert.Equal(t, "research_papers", batch.Items[1].ID)
}

func TestComputeAllSerial(t *testing.T) {
	t.Parallel()

	f := form.MustNew(&form.Schema{ID: "f", Items: []form.Item{
		{Field: &form.FieldSchema{ID: "a", Kind: form.KindString}},
		{Field: &form.FieldSchema{ID: "b", Kind: form.KindString}},
	}})

	p := Compute(f)
	assert.Equal(t, []int{0}, p.OrderLevels)
	assert.Len(t, p.LooseSerial, 2)
	assert.Empty(t, p.ParallelBatches)
}
