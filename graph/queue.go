package graph

import (
	"container/heap"

	"github.com/hupe1980/hnswgo/core"
)

// compile-time check that candidateQueue satisfies heap.Interface.
var _ heap.Interface = (*candidateQueue)(nil)

// candidateItem is one entry in a candidateQueue: a node and its distance
// to whatever the search is currently centered on.
type candidateItem struct {
	node     core.LocalID
	distance float32
	index    int // maintained by heap.Interface, needed by container/heap
}

// candidateQueue is a binary heap of candidateItems. descending selects
// max-heap order (used for the "furthest of the current top-k" queue
// during beam search and pruning); ascending (the zero value) is a
// min-heap (used for the work queue of candidates still to expand).
type candidateQueue struct {
	descending bool
	items      []*candidateItem
}

func newCandidateQueue(descending bool) *candidateQueue {
	q := &candidateQueue{descending: descending}
	heap.Init(q)
	return q
}

func (q *candidateQueue) Len() int { return len(q.items) }

func (q *candidateQueue) Less(i, j int) bool {
	if q.descending {
		return q.items[i].distance > q.items[j].distance
	}
	return q.items[i].distance < q.items[j].distance
}

func (q *candidateQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index, q.items[j].index = i, j
}

func (q *candidateQueue) Push(x any) {
	item := x.(*candidateItem)
	item.index = len(q.items)
	q.items = append(q.items, item)
}

func (q *candidateQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	q.items = old[:n-1]
	return item
}

// top returns the root element without removing it.
func (q *candidateQueue) top() *candidateItem {
	return q.items[0]
}

// pushItem is a typed convenience wrapper over heap.Push.
func (q *candidateQueue) pushItem(item *candidateItem) {
	heap.Push(q, item)
}

// popItem is a typed convenience wrapper over heap.Pop.
func (q *candidateQueue) popItem() *candidateItem {
	return heap.Pop(q).(*candidateItem)
}
