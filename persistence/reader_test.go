package persistence_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hnswgo/core"
	"github.com/hupe1980/hnswgo/metric"
	"github.com/hupe1980/hnswgo/persistence"
	"github.com/hupe1980/hnswgo/scalar"
)

func TestLoadRejectsBadMagic(t *testing.T) {
	_, err := persistence.Load(bytes.NewReader([]byte("NOPE12345678")))
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrFormat)
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	store, labels, g := buildGraph(t, 3, scalar.KindFloat32, metric.Euclidean, [][]float32{{1, 2, 3}})
	var buf bytes.Buffer
	require.NoError(t, persistence.Save(&buf, store, labels, g))

	stream := buf.Bytes()
	// Version is the u32 immediately after the 4-byte magic.
	corrupted := append([]byte(nil), stream...)
	corrupted[4] = 0xFF

	_, err := persistence.Load(bytes.NewReader(corrupted))
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrFormat)
}

func TestLoadRejectsTruncatedStream(t *testing.T) {
	rows := make([][]float32, 20)
	for i := range rows {
		rows[i] = []float32{float32(i), float32(i)}
	}
	store, labels, g := buildGraph(t, 2, scalar.KindFloat32, metric.Euclidean, rows)
	var buf bytes.Buffer
	require.NoError(t, persistence.Save(&buf, store, labels, g))

	stream := buf.Bytes()
	for _, cut := range []int{0, 1, 4, 8, 20, len(stream) / 2, len(stream) - 1} {
		_, err := persistence.Load(bytes.NewReader(stream[:cut]))
		assert.Error(t, err, "truncation at byte %d must fail, not panic", cut)
	}
}

func TestLoadRejectsOversizedAdjacencyCount(t *testing.T) {
	store, labels, g := buildGraph(t, 2, scalar.KindFloat32, metric.Euclidean, [][]float32{{0, 0}, {1, 1}})
	var buf bytes.Buffer
	require.NoError(t, persistence.Save(&buf, store, labels, g))

	stream := buf.Bytes()
	// The level0 slab begins at fixedHeaderSize; its first field is the
	// node-0 adjacency count (u32). Corrupting it to a huge value must be
	// rejected against maxM0, not trigger a giant allocation.
	offset := 115 // fixedHeaderSize, computed the same way format.go does
	corrupted := append([]byte(nil), stream...)
	corrupted[offset] = 0xFF
	corrupted[offset+1] = 0xFF
	corrupted[offset+2] = 0xFF
	corrupted[offset+3] = 0xFF

	_, err := persistence.Load(bytes.NewReader(corrupted))
	assert.Error(t, err)
}

func TestLoadRejectsMismatchedExpectedDimension(t *testing.T) {
	store, labels, g := buildGraph(t, 10, scalar.KindFloat32, metric.Euclidean, [][]float32{
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	})
	var buf bytes.Buffer
	require.NoError(t, persistence.Save(&buf, store, labels, g))

	_, err := persistence.Load(bytes.NewReader(buf.Bytes()), persistence.WithExpectedDimension(11))
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrFormat)
	assert.Contains(t, err.Error(), "10")
	assert.Contains(t, err.Error(), "11")
}

func TestLoadAcceptsMatchingExpectedDimension(t *testing.T) {
	store, labels, g := buildGraph(t, 10, scalar.KindFloat32, metric.Euclidean, [][]float32{
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	})
	var buf bytes.Buffer
	require.NoError(t, persistence.Save(&buf, store, labels, g))

	loaded, err := persistence.Load(bytes.NewReader(buf.Bytes()), persistence.WithExpectedDimension(10))
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Graph.Cap())
}

func TestLoadLegacyMismatchedDimensionFails(t *testing.T) {
	store, labels, g := buildGraph(t, 3, scalar.KindFloat32, metric.Euclidean, [][]float32{{1, 2, 3}})
	var buf bytes.Buffer
	require.NoError(t, persistence.Save(&buf, store, labels, g))

	// Strip the leading VOYA block (everything Save's Header carries
	// before offset_level0) to simulate a genuine V0 stream, then load it
	// back with the wrong out-of-band dimension.
	body := buf.Bytes()[19:]
	_, err := persistence.LoadLegacy(bytes.NewReader(body), metric.Euclidean, 4, scalar.KindFloat32)
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrFormat)
}

func TestLoadLegacyMatchingParamsRoundTrips(t *testing.T) {
	store, labels, g := buildGraph(t, 3, scalar.KindFloat32, metric.Euclidean, [][]float32{{1, 2, 3}, {4, 5, 6}})
	var buf bytes.Buffer
	require.NoError(t, persistence.Save(&buf, store, labels, g))

	body := buf.Bytes()[19:]
	loaded, err := persistence.LoadLegacy(bytes.NewReader(body), metric.Euclidean, 3, scalar.KindFloat32)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Graph.Cap())

	dst := make([]float32, 3)
	require.True(t, loaded.Graph.GetVector(core.Label(1), dst))
	assert.Equal(t, []float32{4, 5, 6}, dst)
}
