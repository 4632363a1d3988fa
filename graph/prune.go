package graph

import "sort"

// selectNeighbors implements the RNG-style pruning heuristic: given
// a candidate set, each already sorted or not, pick up to m whose
// direction from q is distinct from every neighbor accepted so far.
//
// Candidates are considered in ascending distance to q (ties broken by
// ascending internal index for determinism). A candidate c is accepted
// iff, for every already-accepted neighbor a, d(c, q) < d(c, a) — i.e. c
// is closer to q than it is to any neighbor already chosen, so the
// accepted set never clusters multiple near-duplicate directions. The
// heuristic runs even when len(candidates) <= m: it can still reject a
// candidate whose direction duplicates an already-accepted one, so the
// result may hold fewer than m entries.
func (g *Graph) selectNeighbors(candidates []*candidateItem, m int) []*candidateItem {
	sorted := append([]*candidateItem(nil), candidates...)
	sortCandidatesAscending(sorted)

	accepted := make([]*candidateItem, 0, m)
	for _, c := range sorted {
		if len(accepted) >= m {
			break
		}

		keep := true
		for _, a := range accepted {
			if g.distance(c.node, a.node) <= c.distance {
				keep = false
				break
			}
		}

		if keep {
			accepted = append(accepted, c)
		}
	}

	return accepted
}

func sortCandidatesAscending(items []*candidateItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].distance != items[j].distance {
			return items[i].distance < items[j].distance
		}
		return items[i].node < items[j].node
	})
}
