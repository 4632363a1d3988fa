package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hnswgo/metric"
	"github.com/hupe1980/hnswgo/scalar"
)

func TestAppendAndGetDecodedFloat32(t *testing.T) {
	s, err := New(3, scalar.KindFloat32, metric.Euclidean)
	require.NoError(t, err)

	id, err := s.Append([]float32{1, 2, 3})
	require.NoError(t, err)
	assert.EqualValues(t, 0, id)

	dst := make([]float32, 3)
	s.GetDecoded(id, dst)
	assert.Equal(t, []float32{1, 2, 3}, dst)
	assert.Equal(t, 1, s.Len())
}

func TestAppendWrongDimension(t *testing.T) {
	s, err := New(3, scalar.KindFloat32, metric.Euclidean)
	require.NoError(t, err)

	_, err = s.Append([]float32{1, 2})
	require.ErrorIs(t, err, ErrWrongDimension)
}

func TestCosineNormalizesOnAppend(t *testing.T) {
	s, err := New(3, scalar.KindFloat32, metric.Cosine)
	require.NoError(t, err)

	id, err := s.Append([]float32{3, 0, 4})
	require.NoError(t, err)

	assert.InDelta(t, 5, s.Norm(id), 1e-5)

	dst := make([]float32, 3)
	s.GetDecoded(id, dst)
	assert.InDelta(t, 3, dst[0], 1e-5)
	assert.InDelta(t, 0, dst[1], 1e-5)
	assert.InDelta(t, 4, dst[2], 1e-5)
}

func TestCosineDoesNotMutateCallerSlice(t *testing.T) {
	s, err := New(2, scalar.KindFloat32, metric.Cosine)
	require.NoError(t, err)

	v := []float32{3, 4}
	_, err = s.Append(v)
	require.NoError(t, err)

	assert.Equal(t, []float32{3, 4}, v)
}

func TestDistanceBetweenStoredVectors(t *testing.T) {
	s, err := New(2, scalar.KindFloat32, metric.Euclidean)
	require.NoError(t, err)

	a, err := s.Append([]float32{0, 0})
	require.NoError(t, err)
	b, err := s.Append([]float32{3, 4})
	require.NoError(t, err)

	assert.InDelta(t, 25, s.Distance(a, b), 1e-5)
}

func TestDistanceToQuery(t *testing.T) {
	s, err := New(2, scalar.KindFloat32, metric.Euclidean)
	require.NoError(t, err)

	a, err := s.Append([]float32{1, 1})
	require.NoError(t, err)

	assert.InDelta(t, 2, s.DistanceToQuery(a, []float32{0, 0}), 1e-5)
}

func TestRequiresCosineNorm(t *testing.T) {
	s, err := New(2, scalar.KindFloat32, metric.Euclidean)
	require.NoError(t, err)
	assert.False(t, s.RequiresCosineNorm())

	s2, err := New(2, scalar.KindFloat32, metric.Cosine)
	require.NoError(t, err)
	assert.True(t, s2.RequiresCosineNorm())
}

func TestSetOverwritesInPlaceWithoutGrowingLen(t *testing.T) {
	s, err := New(2, scalar.KindFloat32, metric.Cosine)
	require.NoError(t, err)

	id, err := s.Append([]float32{1, 0})
	require.NoError(t, err)
	require.NoError(t, s.Set(id, []float32{0, 2}))

	assert.Equal(t, 1, s.Len())
	dst := make([]float32, 2)
	s.GetDecoded(id, dst)
	assert.InDelta(t, 0, dst[0], 1e-5)
	assert.InDelta(t, 2, dst[1], 1e-5)
}

func TestNewRejectsNonPositiveDimension(t *testing.T) {
	_, err := New(0, scalar.KindFloat32, metric.Euclidean)
	require.Error(t, err)
}
