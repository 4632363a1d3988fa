package scalar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat32RoundTrip(t *testing.T) {
	c := Float32Codec{}
	src := []float32{1.5, -2.25, 0, 1e10, -1e-10}
	dst := make([]byte, len(src)*c.Width())
	require.NoError(t, c.Encode(dst, src))

	got := make([]float32, len(src))
	c.Decode(got, dst)
	assert.Equal(t, src, got)

	for i, v := range src {
		assert.Equal(t, v, c.DecodeAt(dst, i))
	}
}

func TestFloat8RoundTripWithinTolerance(t *testing.T) {
	c := Float8Codec{}
	for _, v := range []float32{0, 0.5, -0.5, 1, -1, 0.999, -0.999} {
		dst := make([]byte, 1)
		require.NoError(t, c.Encode(dst, []float32{v}))
		got := c.DecodeAt(dst, 0)
		assert.InDelta(t, v, got, 0.03)
	}
}

func TestFloat8Clamps(t *testing.T) {
	c := Float8Codec{}
	dst := make([]byte, 1)
	require.NoError(t, c.Encode(dst, []float32{100}))
	assert.Equal(t, float32(1), c.DecodeAt(dst, 0))

	require.NoError(t, c.Encode(dst, []float32{-100}))
	assert.Equal(t, float32(-1), c.DecodeAt(dst, 0))
}

func TestFloat8EncodeDecodeIdempotent(t *testing.T) {
	for i := -127; i <= 127; i++ {
		b := byte(int8(i))
		v := decodeFloat8Scalar(b)
		got := encodeFloat8Scalar(v)
		assert.Equal(t, b, got, "int8 code %d", i)
	}
}

func TestFloat8Monotonic(t *testing.T) {
	c := Float8Codec{}
	vals := []float32{-2, -1, -0.5, -0.1, 0, 0.1, 0.5, 1, 2}
	var prev float32 = -math.MaxFloat32
	for _, v := range vals {
		dst := make([]byte, 1)
		require.NoError(t, c.Encode(dst, []float32{v}))
		got := c.DecodeAt(dst, 0)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestE4M3DecodeEncodeIdempotent(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		v := DecodeScalar(b)
		if math.IsNaN(float64(v)) {
			continue
		}
		got, err := EncodeScalar(v)
		require.NoError(t, err)
		assert.Equal(t, b, got, "byte code %d (value %g)", i, v)
	}
}

func TestE4M3NaN(t *testing.T) {
	b, err := EncodeScalar(float32(math.NaN()))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(float64(DecodeScalar(b))))
}

func TestE4M3OutOfRange(t *testing.T) {
	_, err := EncodeScalar(449)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = EncodeScalar(-449)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = EncodeScalar(float32(math.Inf(1)))
	require.Error(t, err)
}

func TestE4M3Monotonic(t *testing.T) {
	vals := []float32{-448, -100, -10, -1, -0.1, 0, 0.1, 1, 10, 100, 448}
	var prev float32 = float32(math.Inf(-1))
	for _, v := range vals {
		b, err := EncodeScalar(v)
		require.NoError(t, err)
		got := DecodeScalar(b)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

// TestE4M3RoundToEven exercises round-to-nearest-ties-to-even: encoding
// 0.048828125 lies exactly halfway between 0.046875 (mantissa 100) and
// 0.05078125 (mantissa 101), so it lands on the even mantissa.
func TestE4M3RoundToEven(t *testing.T) {
	b, err := EncodeScalar(0.048828125)
	require.NoError(t, err)

	mantissa := b & 0x7
	assert.Zero(t, mantissa&1, "expected even mantissa, got code 0x%02x (mantissa=%03b)", b, mantissa)
}

func TestE4M3ZeroSign(t *testing.T) {
	pos, err := EncodeScalar(0)
	require.NoError(t, err)
	assert.Equal(t, byte(0), pos)

	neg, err := EncodeScalar(float32(math.Copysign(0, -1)))
	require.NoError(t, err)
	assert.Equal(t, byte(0x80), neg)
	assert.Equal(t, float32(0), DecodeScalar(neg))
}

func TestForKind(t *testing.T) {
	for _, k := range []Kind{KindFloat32, KindFloat8, KindE4M3} {
		c, err := ForKind(k)
		require.NoError(t, err)
		assert.Equal(t, k, c.Kind())
	}

	_, err := ForKind(Kind(99))
	require.Error(t, err)
}
