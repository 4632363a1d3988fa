package graph

import "github.com/hupe1980/hnswgo/core"

// Lookup resolves a label to its live internal id (passthrough to the
// label table, guarded against concurrent insert/delete mutation).
func (g *Graph) Lookup(lbl core.Label) (core.LocalID, bool) {
	g.growMu.Lock()
	defer g.growMu.Unlock()
	return g.labels.Lookup(lbl)
}

// LabelOf returns the label currently assigned to id.
func (g *Graph) LabelOf(id core.LocalID) core.Label {
	g.growMu.Lock()
	defer g.growMu.Unlock()
	return g.labels.LabelOf(id)
}

// MarkDeleted marks lbl deleted: the label becomes
// unresolvable and its internal id is skipped by search, but its graph
// edges and stored vector are left untouched.
func (g *Graph) MarkDeleted(lbl core.Label) (core.LocalID, error) {
	g.growMu.Lock()
	defer g.growMu.Unlock()
	return g.labels.Delete(lbl)
}

// UnmarkDeleted reverses a prior MarkDeleted.
func (g *Graph) UnmarkDeleted(lbl core.Label) (core.LocalID, error) {
	g.growMu.Lock()
	defer g.growMu.Unlock()
	return g.labels.Undelete(lbl)
}

// GetVector decodes the vector stored at lbl into dst (len(dst) must
// equal the graph's dimension). ok is false if lbl is not live.
func (g *Graph) GetVector(lbl core.Label, dst []float32) bool {
	g.growMu.Lock()
	id, ok := g.labels.Lookup(lbl)
	g.growMu.Unlock()
	if !ok {
		return false
	}
	g.store.GetDecoded(id, dst)
	return true
}

// Dimension reports the configured vector length.
func (g *Graph) Dimension() int {
	return g.store.Dimension()
}
