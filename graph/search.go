package graph

import (
	"sync"

	"github.com/hupe1980/hnswgo/core"
	"github.com/hupe1980/hnswgo/internal/visited"
)

// visitedPool recycles per-query visited sets so concurrent Search/Insert
// calls don't allocate a fresh bitset on every call ( step 2's
// "filtering out visited" runs on every beam-search expansion).
var visitedPool = sync.Pool{
	New: func() any { return visited.New(1024) },
}

func acquireVisited(capacity int) *visited.VisitedSet {
	v := visitedPool.Get().(*visited.VisitedSet)
	v.EnsureCapacity(capacity)
	return v
}

func releaseVisited(v *visited.VisitedSet) {
	v.Reset()
	visitedPool.Put(v)
}

// distanceFunc evaluates the distance from a graph node to whatever the
// current traversal is centered on: another node's stored vector during
// insertion, or a transient query vector during search.
type distanceFunc func(core.LocalID) float32

// greedyDescend repeatedly moves to the neighbor of current minimizing
// distFn until no neighbor at level is closer.
// It returns the local optimum found and its distance.
func (g *Graph) greedyDescend(distFn distanceFunc, current core.LocalID, level int) (core.LocalID, float32) {
	currDist := distFn(current)

	improved := true
	for improved {
		improved = false
		for _, neighbor := range g.connectionsAt(current, level) {
			d := distFn(neighbor)
			if d < currDist {
				current = neighbor
				currDist = d
				improved = true
			}
		}
	}

	return current, currDist
}

// searchLayer runs the bounded best-first beam search described in 
// step 3 (construction) and k-NN step 2 (query): a min-heap of candidates
// still to expand, and a max-heap of the best ef candidates seen,
// expanding each candidate's neighbor list at level until the nearest
// remaining candidate can no longer beat the current worst accepted
// result.
//
// entryPoints seeds both heaps. The returned queue is a max-heap (worst
// on top) holding at most ef items, ordered so the caller can repeatedly
// pop the current worst to shrink it, or drain it to get all candidates.
func (g *Graph) searchLayer(distFn distanceFunc, entryPoints []*candidateItem, ef int, level int) *candidateQueue {
	v := acquireVisited(len(g.nodes))
	defer releaseVisited(v)

	candidates := newCandidateQueue(false) // min-heap: nearest to expand next
	best := newCandidateQueue(true)        // max-heap: worst of the current top-ef on top

	for _, ep := range entryPoints {
		v.Visit(uint64(ep.node))
		candidates.pushItem(&candidateItem{node: ep.node, distance: ep.distance})
		best.pushItem(&candidateItem{node: ep.node, distance: ep.distance})
	}

	for candidates.Len() > 0 {
		nearest := candidates.popItem()

		if best.Len() >= ef && nearest.distance > best.top().distance {
			break
		}

		for _, neighbor := range g.connectionsAt(nearest.node, level) {
			if v.Visited(uint64(neighbor)) {
				continue
			}
			v.Visit(uint64(neighbor))

			d := distFn(neighbor)

			if best.Len() < ef {
				candidates.pushItem(&candidateItem{node: neighbor, distance: d})
				best.pushItem(&candidateItem{node: neighbor, distance: d})
			} else if d < best.top().distance {
				candidates.pushItem(&candidateItem{node: neighbor, distance: d})
				best.popItem()
				best.pushItem(&candidateItem{node: neighbor, distance: d})
			}
		}
	}

	return best
}

// Result is one hit from Search: a live internal id and its dissimilarity
// to the query.
type Result struct {
	Node     core.LocalID
	Distance float32
}

// Search performs a k-nearest-neighbor query. ef must
// be >= k; the caller (Index) is responsible for that and for normalizing
// query first under Cosine spaces. Deleted nodes are filtered out of the
// returned results, and the result is not padded if fewer than k live
// candidates are found.
func (g *Graph) Search(query []float32, k int, ef int) []Result {
	g.entryMu.Lock()
	hasEntry, entry, topLevel := g.hasEntry, g.entry, g.topLevel
	g.entryMu.Unlock()

	if !hasEntry {
		return nil
	}

	distFn := func(id core.LocalID) float32 { return g.distanceToQuery(id, query) }

	g.locks.structural.RLock()
	defer g.locks.structural.RUnlock()

	current := entry
	currDist := distFn(current)
	for level := topLevel; level >= 1; level-- {
		current, currDist = g.greedyDescend(distFn, current, level)
	}

	candidates := g.searchLayer(distFn, []*candidateItem{{node: current, distance: currDist}}, ef, 0)

	items := append([]*candidateItem(nil), candidates.items...)
	sortCandidatesAscending(items)

	results := make([]Result, 0, k)
	for _, item := range items {
		if g.labels.IsDeleted(item.node) {
			continue
		}
		results = append(results, Result{Node: item.node, Distance: item.distance})
		if len(results) == k {
			break
		}
	}

	return results
}
