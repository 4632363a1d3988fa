package graph

import (
	"github.com/hupe1980/hnswgo/core"
	"github.com/hupe1980/hnswgo/label"
	"github.com/hupe1980/hnswgo/vectorstore"
)

// Config reports the graph's construction-time parameters, for callers
// that need to persist them (the serializer).
func (g *Graph) Config() Config { return g.cfg }

// MMax and MMax0 report the derived per-level degree caps (MMax0 =
// 2*MMax when not configured independently).
func (g *Graph) MMax() int  { return g.mMax }
func (g *Graph) MMax0() int { return g.mMax0 }

// Mult reports m_L, the level-multiplier the insertion-time PRNG draws
// against (1/ln(M)).
func (g *Graph) Mult() float64 { return g.mL }

// InsertCounter reports the number of non-replace inserts this graph has
// ever performed, the monotonic counter level sampling is keyed on.
func (g *Graph) InsertCounter() uint64 { return g.insertCounter.Load() }

// EntryPoint reports the current entry point and its level. ok is false
// for an empty graph.
func (g *Graph) EntryPoint() (id core.LocalID, level int, ok bool) {
	g.entryMu.Lock()
	defer g.entryMu.Unlock()
	return g.entry, g.topLevel, g.hasEntry
}

// NodeLevel reports the level a node was assigned at insertion.
func (g *Graph) NodeLevel(id core.LocalID) int { return g.levelOf(id) }

// Connections returns node id's neighbor list at level (nil if id has no
// presence there). The returned slice aliases internal state and must
// not be mutated by the caller.
func (g *Graph) Connections(id core.LocalID, level int) []core.LocalID {
	return g.connectionsAt(id, level)
}

// RestoredNode carries one node's level and per-level adjacency, as read
// back from a serialized stream.
type RestoredNode struct {
	Level       int
	Connections [][]core.LocalID
}

// Restore rebuilds a graph directly from previously serialized state,
// bypassing insertion: no level is resampled and no edge is recomputed,
// so the loaded graph is byte-for-byte equivalent (modulo the deleted
// set, which the stream does not carry) to the one that was saved.
func Restore(cfg Config, store *vectorstore.Store, labels *label.Table, nodes []RestoredNode, entry core.LocalID, topLevel int, hasEntry bool, insertCounter uint64) *Graph {
	g := New(cfg, store, labels)
	g.nodes = make([]*node, len(nodes))
	for i, rn := range nodes {
		g.nodes[i] = &node{level: rn.Level, connections: rn.Connections}
	}
	g.hasEntry = hasEntry
	g.entry = entry
	g.topLevel = topLevel
	g.insertCounter.Store(insertCounter)
	return g
}
