// Package metric implements the distance kernels the graph engine ranks
// candidates with: squared Euclidean, inner-product dissimilarity, and
// cosine dissimilarity. Every kernel reads directly from the two
// encoded byte blocks being compared and never materializes an
// intermediate []float32 — it decodes and accumulates scalar by scalar.
package metric

import (
	"fmt"
	"math"

	"github.com/hupe1980/hnswgo/scalar"
)

// Space identifies which dissimilarity function ranks candidates.
type Space uint8

const (
	// Euclidean ranks by squared L2 distance. Not a true distance (no
	// square root); the graph only needs consistent ordering.
	Euclidean Space = iota
	// InnerProduct ranks by 1 - dot(u, v). May be negative.
	InnerProduct
	// Cosine ranks by inner-product dissimilarity after both operands are
	// unit-normalized. Vectors stored under Cosine are normalized once at
	// encode time; see Kernel.DistanceQuery for the asymmetric case.
	Cosine
)

// String returns a human-readable name for the space.
func (s Space) String() string {
	switch s {
	case Euclidean:
		return "Euclidean"
	case InnerProduct:
		return "InnerProduct"
	case Cosine:
		return "Cosine"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// ErrUnknownSpace is returned by ForSpace for an unrecognized Space value.
type ErrUnknownSpace struct {
	Space Space
}

func (e *ErrUnknownSpace) Error() string {
	return fmt.Sprintf("metric: unknown space %d", uint8(e.Space))
}

// Kernel computes dissimilarity between two encoded vectors of dimension D,
// given a storage codec. It holds no per-call state and is safe for
// concurrent use.
type Kernel struct {
	space Space
	codec scalar.Codec
	dim   int
}

// New builds a Kernel for the given space, storage codec, and dimension.
func New(space Space, codec scalar.Codec, dim int) (*Kernel, error) {
	switch space {
	case Euclidean, InnerProduct, Cosine:
	default:
		return nil, &ErrUnknownSpace{Space: space}
	}
	return &Kernel{space: space, codec: codec, dim: dim}, nil
}

// Space reports the configured dissimilarity function.
func (k *Kernel) Space() Space { return k.space }

// Distance computes dissimilarity between two encoded blocks of the
// kernel's dimension. Both a and b must already be in the kernel's
// normalization convention (for Cosine, both pre-normalized at encode time).
func (k *Kernel) Distance(a, b []byte) float32 {
	switch k.space {
	case Euclidean:
		return squaredL2(k.codec, a, b, k.dim)
	case InnerProduct, Cosine:
		return 1 - dot(k.codec, a, b, k.dim)
	default:
		panic(fmt.Sprintf("metric: unreachable space %d", uint8(k.space)))
	}
}

// DistanceQuery computes dissimilarity between a stored encoded block and a
// transient float32 query, decoding the stored side on the fly. For Cosine,
// the caller is responsible for having normalized query beforehand
// (Index.Query does this once per query, not once per comparison).
func (k *Kernel) DistanceQuery(stored []byte, query []float32) float32 {
	switch k.space {
	case Euclidean:
		return squaredL2Query(k.codec, stored, query)
	case InnerProduct, Cosine:
		return 1 - dotQuery(k.codec, stored, query)
	default:
		panic(fmt.Sprintf("metric: unreachable space %d", uint8(k.space)))
	}
}

func squaredL2(codec scalar.Codec, a, b []byte, dim int) float32 {
	var sum float32
	for i := 0; i < dim; i++ {
		d := codec.DecodeAt(a, i) - codec.DecodeAt(b, i)
		sum += d * d
	}
	return sum
}

func squaredL2Query(codec scalar.Codec, stored []byte, query []float32) float32 {
	var sum float32
	for i, q := range query {
		d := codec.DecodeAt(stored, i) - q
		sum += d * d
	}
	return sum
}

func dot(codec scalar.Codec, a, b []byte, dim int) float32 {
	var sum float32
	for i := 0; i < dim; i++ {
		sum += codec.DecodeAt(a, i) * codec.DecodeAt(b, i)
	}
	return sum
}

func dotQuery(codec scalar.Codec, stored []byte, query []float32) float32 {
	var sum float32
	for i, q := range query {
		sum += codec.DecodeAt(stored, i) * q
	}
	return sum
}

// Norm returns the L2 norm of a float32 vector, used by the vector store to
// compute the companion norm field for Cosine storage and to normalize
// incoming queries.
func Norm(v []float32) float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	return sqrt(sum)
}

// Normalize scales v in place to unit length, returning its pre-scale norm.
// A zero vector is left unchanged and reports norm 0.
func Normalize(v []float32) float32 {
	n := Norm(v)
	if n == 0 {
		return 0
	}
	inv := 1 / n
	for i := range v {
		v[i] *= inv
	}
	return n
}

func sqrt(x float32) float32 {
	if x <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(x)))
}
