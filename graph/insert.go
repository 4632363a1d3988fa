package graph

import (
	"fmt"

	"github.com/hupe1980/hnswgo/core"
	"github.com/hupe1980/hnswgo/vectorstore"
)

// Insert adds vector under lbl.
// If lbl was previously deleted, this is a replace: the old internal id
// is reused, its stored vector overwritten, and the graph is left
// untouched (no re-linking) — a deliberate throughput/locality trade-off.
// If lbl is currently live, it returns a *label.ErrLabelExists.
func (g *Graph) Insert(vector []float32, lbl core.Label) (core.LocalID, error) {
	if len(vector) != g.store.Dimension() {
		return 0, fmt.Errorf("%w: expected %d, got %d", vectorstore.ErrWrongDimension, g.store.Dimension(), len(vector))
	}

	g.growMu.Lock()
	id, isReplace, err := g.labels.BeginInsert(lbl)
	if err != nil {
		g.growMu.Unlock()
		return 0, err
	}

	if isReplace {
		err := g.store.Set(id, vector)
		g.growMu.Unlock()
		return id, err
	}

	if _, err := g.store.Append(vector); err != nil {
		g.growMu.Unlock()
		return 0, err
	}

	counter := g.insertCounter.Add(1) - 1
	level := levelForInsertion(g.cfg.Seed, counter, g.mL)

	n := &node{level: level, connections: make([][]core.LocalID, level+1)}
	g.nodes = append(g.nodes, n)
	g.growMu.Unlock()

	g.locks.structural.RLock()
	defer g.locks.structural.RUnlock()

	g.entryMu.Lock()
	hadEntry := g.hasEntry
	currEntry, currTopLevel := g.entry, g.topLevel
	if !hadEntry {
		g.hasEntry = true
		g.entry = id
		g.topLevel = level
	}
	g.entryMu.Unlock()

	if !hadEntry {
		// Step 1: first live node. Empty neighbor lists are already in
		// place from make([][]core.LocalID, level+1) above.
		return id, nil
	}

	g.linkNewNode(id, level, currEntry, currTopLevel)

	if level > currTopLevel {
		g.entryMu.Lock()
		if level > g.topLevel {
			g.entry = id
			g.topLevel = level
		}
		g.entryMu.Unlock()
	}

	return id, nil
}

// linkNewNode links a freshly allocated node id into every level from
// min(level, topLevel) down to 0, starting the search from the graph's
// entry point as of the moment id was allocated.
func (g *Graph) linkNewNode(id core.LocalID, level int, entry core.LocalID, topLevel int) {
	distFn := func(other core.LocalID) float32 { return g.distance(id, other) }

	// Step 2: greedy descent through levels above both id's own level and
	// the search floor, to find a single entry point per level.
	current := entry
	currDist := distFn(current)
	for lvl := topLevel; lvl > level; lvl-- {
		current, currDist = g.greedyDescend(distFn, current, lvl)
	}

	startLevel := level
	if topLevel < startLevel {
		startLevel = topLevel
	}

	entryPoints := []*candidateItem{{node: current, distance: currDist}}

	for lvl := startLevel; lvl >= 0; lvl-- {
		candidates := g.searchLayer(distFn, entryPoints, g.cfg.EfConstruction, lvl)

		// Step 4: select up to M neighbors from the candidate set and
		// write them into id's own neighbor list at this level.
		selected := g.selectNeighbors(candidates.items, g.cfg.M)
		conns := make([]core.LocalID, len(selected))
		for i, c := range selected {
			conns[i] = c.node
		}
		g.setConnectionsAt(id, lvl, conns)

		// Step 5: back-link each selected neighbor, repruning its list
		// under its own cap if the new edge overflows it.
		cap := g.mMax
		if lvl == 0 {
			cap = g.mMax0
		}
		for _, c := range selected {
			g.linkBack(id, c.node, lvl, cap)
		}

		entryPoints = candidates.items
	}
}

// linkBack inserts newID into neighbor's adjacency list at level (
// step 5), repruning under the heuristic if the list now exceeds cap.
// Lock acquisition is sorted by ascending lock-shard index across both
// participating nodes (see lockNodesAscending) to prevent deadlock against a concurrent insertion
// needing the same pair of locks in the opposite order.
func (g *Graph) linkBack(newID, neighbor core.LocalID, level int, cap int) {
	unlock := g.locks.lockNodesAscending(newID, neighbor)
	defer unlock()

	existing := g.connectionsAt(neighbor, level)
	conns := make([]core.LocalID, len(existing), len(existing)+1)
	copy(conns, existing)
	conns = append(conns, newID)

	if len(conns) > cap {
		items := make([]*candidateItem, len(conns))
		for i, nid := range conns {
			items[i] = &candidateItem{node: nid, distance: g.distance(neighbor, nid)}
		}
		selected := g.selectNeighbors(items, cap)
		conns = make([]core.LocalID, len(selected))
		for i, c := range selected {
			conns[i] = c.node
		}
	}

	g.setConnectionsAt(neighbor, level, conns)
}
