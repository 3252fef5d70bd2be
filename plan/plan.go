// Package plan partitions a form's top-level items into an execution plan:
// ordered levels, and within a level, parallel batches versus serial items.
//
// The planner only reads attributes the schema loader already validated
// (members of one parallel batch share one order and one role), so it does
// no cross-item consistency checking of its own. Executing the plan is the
// host's job; this core schedules nothing.
package plan

import (
	"sort"

	"github.com/jlevy/markform/form"
)

// Item is one top-level schema entry as the planner sees it.
type Item struct {
	ID    string        `json:"id"`
	Kind  form.NodeKind `json:"kind"`
	Order int           `json:"order"`
	Role  string        `json:"role"`
}

// Batch is a set of items that may run concurrently. Items keep document
// order within the batch.
type Batch struct {
	BatchID string `json:"batch_id"`
	Order   int    `json:"order"`
	Role    string `json:"role"`
	Items   []Item `json:"items"`
}

// Plan models ordered execution: everything at a lower order level completes
// before anything at a higher level begins. Within one level, batch members
// may run concurrently while loose-serial items run one at a time; the
// relative order between same-level batches and loose items is unspecified.
type Plan struct {
	LooseSerial     []Item  `json:"loose_serial"`
	ParallelBatches []Batch `json:"parallel_batches"`
	OrderLevels     []int   `json:"order_levels"`
}

// Compute builds the plan from the form's schema.
func Compute(f *form.Form) Plan {
	var p Plan
	levels := map[int]bool{}
	batchIdx := map[string]int{}

	for _, it := range f.Schema.Items {
		item := Item{ID: it.ID(), Kind: it.Kind(), Order: it.Order(), Role: it.Role()}
		levels[item.Order] = true

		batchID := it.Parallel()
		if batchID == "" {
			p.LooseSerial = append(p.LooseSerial, item)
			continue
		}
		idx, ok := batchIdx[batchID]
		if !ok {
			idx = len(p.ParallelBatches)
			batchIdx[batchID] = idx
			p.ParallelBatches = append(p.ParallelBatches, Batch{
				BatchID: batchID,
				Order:   item.Order,
				Role:    item.Role,
			})
		}
		p.ParallelBatches[idx].Items = append(p.ParallelBatches[idx].Items, item)
	}

	p.OrderLevels = make([]int, 0, len(levels))
	for level := range levels {
		p.OrderLevels = append(p.OrderLevels, level)
	}
	sort.Ints(p.OrderLevels)
	return p
}
