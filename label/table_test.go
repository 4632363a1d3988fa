package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hnswgo/core"
)

func TestBeginInsertFreshLabels(t *testing.T) {
	tbl := New()

	id0, replace0, err := tbl.BeginInsert(core.Label(100))
	require.NoError(t, err)
	assert.False(t, replace0)
	assert.EqualValues(t, 0, id0)

	id1, replace1, err := tbl.BeginInsert(core.Label(200))
	require.NoError(t, err)
	assert.False(t, replace1)
	assert.EqualValues(t, 1, id1)

	got, ok := tbl.Lookup(core.Label(100))
	require.True(t, ok)
	assert.Equal(t, id0, got)
	assert.Equal(t, core.Label(200), tbl.LabelOf(id1))
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, 2, tbl.Cap())
}

func TestBeginInsertDuplicateLiveLabelFails(t *testing.T) {
	tbl := New()
	_, _, err := tbl.BeginInsert(core.Label(1))
	require.NoError(t, err)

	_, _, err = tbl.BeginInsert(core.Label(1))
	require.Error(t, err)
	var exists *ErrLabelExists
	assert.ErrorAs(t, err, &exists)
}

func TestDeleteThenLookupFails(t *testing.T) {
	tbl := New()
	id, _, err := tbl.BeginInsert(core.Label(7))
	require.NoError(t, err)

	deletedID, err := tbl.Delete(core.Label(7))
	require.NoError(t, err)
	assert.Equal(t, id, deletedID)

	_, ok := tbl.Lookup(core.Label(7))
	assert.False(t, ok)
	assert.True(t, tbl.IsDeleted(id))
	assert.Equal(t, 0, tbl.Len())
}

func TestDeleteUnknownLabelFails(t *testing.T) {
	tbl := New()
	_, err := tbl.Delete(core.Label(999))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAlreadyDeletedFails(t *testing.T) {
	tbl := New()
	_, _, err := tbl.BeginInsert(core.Label(1))
	require.NoError(t, err)
	_, err = tbl.Delete(core.Label(1))
	require.NoError(t, err)

	_, err = tbl.Delete(core.Label(1))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReinsertSameLabelReusesID(t *testing.T) {
	tbl := New()
	id, _, err := tbl.BeginInsert(core.Label(5))
	require.NoError(t, err)
	_, err = tbl.Delete(core.Label(5))
	require.NoError(t, err)

	reusedID, replace, err := tbl.BeginInsert(core.Label(5))
	require.NoError(t, err)
	assert.True(t, replace)
	assert.Equal(t, id, reusedID)
	assert.False(t, tbl.IsDeleted(reusedID))
	assert.Equal(t, 1, tbl.Cap(), "reinsert of the same label must not grow Cap")
}

func TestReinsertDifferentLabelAfterDeleteGetsNewID(t *testing.T) {
	tbl := New()
	id0, _, err := tbl.BeginInsert(core.Label(1))
	require.NoError(t, err)
	_, err = tbl.Delete(core.Label(1))
	require.NoError(t, err)

	id1, replace, err := tbl.BeginInsert(core.Label(2))
	require.NoError(t, err)
	assert.False(t, replace)
	assert.NotEqual(t, id0, id1)
	assert.Equal(t, 2, tbl.Cap())
}

func TestUndelete(t *testing.T) {
	tbl := New()
	id, _, err := tbl.BeginInsert(core.Label(1))
	require.NoError(t, err)
	_, err = tbl.Delete(core.Label(1))
	require.NoError(t, err)

	gotID, err := tbl.Undelete(core.Label(1))
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.False(t, tbl.IsDeleted(id))

	got, ok := tbl.Lookup(core.Label(1))
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestUndeleteNotDeletedFails(t *testing.T) {
	tbl := New()
	_, _, err := tbl.BeginInsert(core.Label(1))
	require.NoError(t, err)

	_, err = tbl.Undelete(core.Label(1))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCapReflectsHighestAssignedID(t *testing.T) {
	tbl := New()
	for i := 0; i < 5; i++ {
		_, _, err := tbl.BeginInsert(core.Label(i))
		require.NoError(t, err)
	}
	assert.Equal(t, 5, tbl.Cap())
}
