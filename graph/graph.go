// Package graph implements the HNSW (Hierarchical Navigable Small World)
// graph: level-sampled insertion, greedy descent, bounded best-first beam
// search, and RNG-style neighbor pruning. Its algorithms work on
// core.LocalID over the vectorstore/metric layers beneath it; caller
// labels and the deleted set are kept in a label.Table that the graph
// updates on insert and delete.
package graph

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/hnswgo/core"
	"github.com/hupe1980/hnswgo/label"
	"github.com/hupe1980/hnswgo/vectorstore"
)

// Config fixes the graph's construction-time parameters.
type Config struct {
	// M is the target degree: the number of neighbors written at each
	// level above 0. Typical range 16-48.
	M int
	// EfConstruction is the beam width used while inserting. Typical
	// range 100-400.
	EfConstruction int
	// Seed is the random seed the deterministic level-sampling PRNG
	// derives from, combined with each insertion's sequence counter.
	Seed uint64
}

// node holds the per-node state the graph maintains beyond the vector
// itself (which lives in the vector store): its assigned level and its
// neighbor list at each level from 0 up to that level, inclusive.
type node struct {
	level       int
	connections [][]core.LocalID // connections[level] for level in [0, node.level]
}

// Graph is an HNSW index over a vectorstore.Store. Its label-facing
// methods (Insert, Lookup, MarkDeleted and the like) resolve labels and
// the deleted set through the label.Table it holds; everything below
// them works on core.LocalID.
type Graph struct {
	cfg   Config
	mMax  int // M_max, cap on levels >= 1
	mMax0 int // M_max0 = 2*M, cap on level 0
	mL    float64

	store  *vectorstore.Store
	labels *label.Table
	locks  *lockPool

	// growMu serializes label-table mutation and node/store growth: the
	// brief structural step of handing out a new internal id. It is
	// distinct from locks.structural, which guards per-node neighbor-list
	// resizing and is held shared for the rest of an insertion so
	// unrelated inserts and queries can proceed concurrently.
	growMu sync.Mutex
	nodes  []*node

	// entryMu guards entry/topLevel/hasEntry, updated at the end of any
	// insertion whose level exceeds the current entry point's.
	entryMu  sync.Mutex
	hasEntry bool
	entry    core.LocalID
	topLevel int // M_L: the level of the current entry point

	insertCounter atomic.Uint64
}

// New builds an empty graph over store, using labels as the label/deleted
// set layer.
func New(cfg Config, store *vectorstore.Store, labels *label.Table) *Graph {
	m := cfg.M
	if m < 2 {
		m = 2 // m=1 would make mL = 1/ln(1) = +Inf.
	}
	return &Graph{
		cfg:    cfg,
		mMax:   m,
		mMax0:  2 * m,
		mL:     1 / math.Log(float64(m)),
		store:  store,
		labels: labels,
		locks:  newLockPool(),
	}
}

// Len reports the number of live nodes.
func (g *Graph) Len() int {
	return g.labels.Len()
}

// Cap reports the number of internal ids ever assigned.
func (g *Graph) Cap() int {
	return len(g.nodes)
}

// connectionsAt returns node id's neighbor list at level, or nil if id has
// no presence at that level.
func (g *Graph) connectionsAt(id core.LocalID, level int) []core.LocalID {
	n := g.nodes[id]
	if level > n.level {
		return nil
	}
	return n.connections[level]
}

func (g *Graph) setConnectionsAt(id core.LocalID, level int, conns []core.LocalID) {
	g.nodes[id].connections[level] = conns
}

func (g *Graph) levelOf(id core.LocalID) int {
	return g.nodes[id].level
}

func (g *Graph) distance(a, b core.LocalID) float32 {
	return g.store.Distance(a, b)
}

func (g *Graph) distanceToQuery(id core.LocalID, query []float32) float32 {
	return g.store.DistanceToQuery(id, query)
}
