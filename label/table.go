// Package label implements the bidirectional mapping between caller-facing
// labels and the dense internal node indices the graph engine operates on,
// plus the deleted-node set.
package label

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/hnswgo/core"
)

// ErrNotFound is returned by operations on a label that has never been
// assigned, or has been assigned but is not currently live where liveness
// is required.
var ErrNotFound = errors.New("label: not found")

// ErrLabelExists is returned by BeginInsert when l already resolves to a
// live id.
type ErrLabelExists struct {
	Label core.Label
}

func (e *ErrLabelExists) Error() string {
	return fmt.Sprintf("label: %d already exists", e.Label)
}

// Table is a bijection between core.Label and core.LocalID over the set of
// live nodes, plus a bitset of node indices currently marked deleted.
// Label mappings are never removed on delete, only marked in the deleted
// bitset: this is what lets a subsequent insert of the same label reuse
// its old internal index.
//
// Table is not safe for concurrent use on its own; the graph engine guards
// it with its structural lock, since label lookups happen on both the
// insert and query paths.
type Table struct {
	labelToID map[core.Label]core.LocalID
	idToLabel []core.Label
	deleted   *bitset.BitSet
	live      int
}

// New builds an empty label table.
func New() *Table {
	return &Table{
		labelToID: make(map[core.Label]core.LocalID),
		deleted:   bitset.New(0),
	}
}

// Lookup resolves a label to its live internal id. ok is false if the
// label has never been inserted, or was inserted and then deleted.
func (t *Table) Lookup(l core.Label) (core.LocalID, bool) {
	id, ok := t.labelToID[l]
	if !ok || t.deleted.Test(uint(id)) {
		return 0, false
	}
	return id, true
}

// LabelOf returns the label currently assigned to id. Panics if id has
// never been assigned a label; callers must only pass ids obtained from
// BeginInsert or Lookup.
func (t *Table) LabelOf(id core.LocalID) core.Label {
	return t.idToLabel[id]
}

// IsDeleted reports whether id is in the deleted set.
func (t *Table) IsDeleted(id core.LocalID) bool {
	return t.deleted.Test(uint(id))
}

// Len reports the number of live (non-deleted) labels.
func (t *Table) Len() int {
	return t.live
}

// Cap reports the number of internal ids ever assigned, live or deleted.
func (t *Table) Cap() int {
	return len(t.idToLabel)
}

// BeginInsert resolves the internal id a new insertion of l should use.
//
// If l currently resolves to a live id, it returns ErrLabelExists: adding
// an already-live label is an error. If l was previously inserted and
// then deleted, its old id is reused and unmarked deleted — isReplace is
// true, and the caller must overwrite that id's stored vector but must
// NOT re-run graph linking (reuse the id, overwrite storage, do not
// re-link the graph). Otherwise l is new: a fresh id
// equal to the table's current Cap() is assigned, isReplace is false, and
// the caller runs the full insertion algorithm.
func (t *Table) BeginInsert(l core.Label) (id core.LocalID, isReplace bool, err error) {
	if existing, ok := t.labelToID[l]; ok {
		if !t.deleted.Test(uint(existing)) {
			return 0, false, &ErrLabelExists{Label: l}
		}
		t.deleted.Clear(uint(existing))
		t.live++
		return existing, true, nil
	}

	id = core.LocalID(len(t.idToLabel))
	t.idToLabel = append(t.idToLabel, l)
	t.labelToID[l] = id
	// Set then Clear: bitset.Set grows the backing words to cover id,
	// Clear leaves that now-allocated bit at its live-node zero value.
	t.deleted.Set(uint(id))
	t.deleted.Clear(uint(id))
	t.live++
	return id, false, nil
}

// Delete marks l's internal id as deleted (mark_deleted, ): search
// filters it out and Len no longer counts it. The label→id mapping is
// kept (not removed) so a future insert of the same label can detect and
// reuse it via BeginInsert. The node's neighbor lists, vector bytes, and
// any other references to id are left untouched.
func (t *Table) Delete(l core.Label) (core.LocalID, error) {
	id, ok := t.labelToID[l]
	if !ok || t.deleted.Test(uint(id)) {
		return 0, fmt.Errorf("%w: label %d", ErrNotFound, l)
	}
	t.deleted.Set(uint(id))
	t.live--
	return id, nil
}

// Undelete reverses a prior Delete (unmark_deleted, ), making the
// label live again at its existing id without touching graph or storage.
func (t *Table) Undelete(l core.Label) (core.LocalID, error) {
	id, ok := t.labelToID[l]
	if !ok || !t.deleted.Test(uint(id)) {
		return 0, fmt.Errorf("%w: label %d", ErrNotFound, l)
	}
	t.deleted.Clear(uint(id))
	t.live++
	return id, nil
}

// FromLabels rebuilds a table from a dense, insertion-ordered label list,
// one entry per internal id 0..len(labels)-1, with every id live. Used by
// the serialization loader: the on-disk format does not carry a deleted
// set (see DESIGN.md's "deleted-node bitset is not part of the V1
// stream"), so every node a stream declares comes back live.
func FromLabels(labels []core.Label) *Table {
	t := &Table{
		labelToID: make(map[core.Label]core.LocalID, len(labels)),
		idToLabel: append([]core.Label(nil), labels...),
		deleted:   bitset.New(uint(len(labels))),
		live:      len(labels),
	}
	for id, l := range labels {
		t.labelToID[l] = core.LocalID(id)
	}
	return t
}
