package services

import (
	"container/heap"
	"slices"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/logger"
)

// Sorter orders canonical records so no reply precedes its parent.
//
// It is a Kahn topological sort over reply edges. Ready records are taken
// from a min-heap keyed on identifier order, so when every reply has a larger
// identifier than its parent the output is simply ascending by identifier.
type Sorter struct {
	orphans domain.OrphanPolicy
}

// NewSorter creates a sorter with the given orphan policy.
func NewSorter(orphans domain.OrphanPolicy) *Sorter {
	if orphans == "" {
		orphans = domain.OrphanKeep
	}
	return &Sorter{orphans: orphans}
}

// node is one record in the reply graph.
type node struct {
	record   domain.CanonicalAnnotation
	children []int
	pending  int
	orphan   bool
	emitted  bool
}

// Order returns the records in import order.
//
// A reply whose parent is not in the batch is either emitted at its own
// position (OrphanKeep) or moved, together with its own replies, to Orphans
// (OrphanSeparate). Records caught in reply cycles are emitted after
// everything else in identifier order and listed in Cycles.
func (s *Sorter) Order(records []domain.CanonicalAnnotation) domain.OrderResult {
	nodes := make([]node, len(records))
	index := make(map[string]int, len(records))
	for i := range records {
		nodes[i].record = records[i]
		index[records[i].ID.Key()] = i
	}

	ready := &idHeap{nodes: nodes}
	for i := range nodes {
		parent, ok := nodes[i].record.ReplyTo()
		if !ok {
			heap.Push(ready, i)
			continue
		}
		p, inBatch := index[parent.Key()]
		if !inBatch {
			nodes[i].orphan = s.orphans == domain.OrphanSeparate
			logger.Debug("reply %s has no parent %s in batch", nodes[i].record.ID, parent)
			heap.Push(ready, i)
			continue
		}
		nodes[p].children = append(nodes[p].children, i)
		nodes[i].pending++
	}

	result := domain.OrderResult{
		Ordered: make([]domain.CanonicalAnnotation, 0, len(records)),
	}
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		n := &nodes[i]
		n.emitted = true
		if n.orphan {
			result.Orphans = append(result.Orphans, n.record)
		} else {
			result.Ordered = append(result.Ordered, n.record)
		}
		for _, c := range n.children {
			nodes[c].orphan = nodes[c].orphan || n.orphan
			nodes[c].pending--
			if nodes[c].pending == 0 {
				heap.Push(ready, c)
			}
		}
	}

	var stuck []int
	for i := range nodes {
		if !nodes[i].emitted {
			stuck = append(stuck, i)
		}
	}
	if len(stuck) == 0 {
		return result
	}

	slices.SortFunc(stuck, func(a, b int) int {
		return nodes[a].record.ID.Compare(nodes[b].record.ID)
	})
	for _, i := range stuck {
		result.Ordered = append(result.Ordered, nodes[i].record)
		result.Cycles = append(result.Cycles, nodes[i].record.ID)
	}
	logger.Warn("%d records are in reply cycles", len(stuck))
	return result
}

// idHeap is a min-heap of node indexes ordered by identifier.
type idHeap struct {
	nodes []node
	items []int
}

func (h *idHeap) Len() int { return len(h.items) }

func (h *idHeap) Less(i, j int) bool {
	return h.nodes[h.items[i]].record.ID.Less(h.nodes[h.items[j]].record.ID)
}

func (h *idHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *idHeap) Push(x any) { h.items = append(h.items, x.(int)) }

func (h *idHeap) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[:n-1]
	return x
}
