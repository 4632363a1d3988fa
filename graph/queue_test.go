package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/hnswgo/core"
)

func TestCandidateQueueMinHeapOrder(t *testing.T) {
	q := newCandidateQueue(false)
	q.pushItem(&candidateItem{node: core.LocalID(1), distance: 5})
	q.pushItem(&candidateItem{node: core.LocalID(2), distance: 1})
	q.pushItem(&candidateItem{node: core.LocalID(3), distance: 3})

	var order []float32
	for q.Len() > 0 {
		order = append(order, q.popItem().distance)
	}
	assert.Equal(t, []float32{1, 3, 5}, order)
}

func TestCandidateQueueMaxHeapOrder(t *testing.T) {
	q := newCandidateQueue(true)
	q.pushItem(&candidateItem{node: core.LocalID(1), distance: 5})
	q.pushItem(&candidateItem{node: core.LocalID(2), distance: 1})
	q.pushItem(&candidateItem{node: core.LocalID(3), distance: 3})

	assert.Equal(t, float32(5), q.top().distance)

	var order []float32
	for q.Len() > 0 {
		order = append(order, q.popItem().distance)
	}
	assert.Equal(t, []float32{5, 3, 1}, order)
}
