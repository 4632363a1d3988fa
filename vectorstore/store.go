// Package vectorstore is the canonical owner of encoded vector bytes.
//
// A Store appends vectors in insertion order and hands back a LocalID for
// each one. Encoding, decoding, and distance evaluation all go
// through the configured scalar.Codec and metric.Kernel, so the graph
// engine never touches a raw []float32 except at the public boundary.
package vectorstore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/hnswgo/core"
	"github.com/hupe1980/hnswgo/metric"
	"github.com/hupe1980/hnswgo/scalar"
)

// ErrWrongDimension is returned when a caller vector doesn't match the
// store's configured dimension.
var ErrWrongDimension = errors.New("vectorstore: wrong vector dimension")

// Store is the canonical storage for encoded vectors, backed by a single
// growable byte slab plus, for Cosine spaces, a parallel slab of
// pre-normalization norms.
//
// Store is not safe for concurrent use; callers (the graph engine) hold
// their own locks around structural mutation.
type Store struct {
	dim    int
	codec  scalar.Codec
	kernel *metric.Kernel

	// requiresNorm is true for metric.Cosine: vectors are normalized
	// before encoding, and their pre-normalization L2 norm is kept here so
	// Decode can return the original (non-unit) direction.
	requiresNorm bool

	data  []byte    // len(data) == width()*len(count), grown by append
	norms []float32 // only populated when requiresNorm
}

// New builds an empty Store for the given dimension, storage kind, and
// distance space.
func New(dim int, kind scalar.Kind, space metric.Space) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vectorstore: dimension must be positive, got %d", dim)
	}

	codec, err := scalar.ForKind(kind)
	if err != nil {
		return nil, err
	}

	kernel, err := metric.New(space, codec, dim)
	if err != nil {
		return nil, err
	}

	return &Store{
		dim:          dim,
		codec:        codec,
		kernel:       kernel,
		requiresNorm: space == metric.Cosine,
	}, nil
}

// Dimension reports the configured vector length.
func (s *Store) Dimension() int { return s.dim }

// Len reports how many vectors have been appended (including any later
// marked deleted at the label layer; the store itself never shrinks).
func (s *Store) Len() int {
	width := s.codec.Width() * s.dim
	if width == 0 {
		return 0
	}
	return len(s.data) / width
}

// Kernel returns the distance kernel this store was built with.
func (s *Store) Kernel() *metric.Kernel { return s.kernel }

// Kind reports the scalar storage kind vectors are encoded with.
func (s *Store) Kind() scalar.Kind { return s.codec.Kind() }

// Width reports the encoded byte length of a single stored vector
// (codec width * dimension), excluding the companion norm field.
func (s *Store) Width() int { return s.codec.Width() * s.dim }

// Append encodes v and appends it to the slab, returning its new LocalID.
// For Cosine spaces, v is normalized (a private copy, not the caller's
// slice) before encoding, and its pre-normalization norm is recorded.
func (s *Store) Append(v []float32) (core.LocalID, error) {
	if len(v) != s.dim {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimension, s.dim, len(v))
	}

	id := core.LocalID(s.Len())

	norm, encodeSrc := s.prepare(v)

	width := s.codec.Width() * s.dim
	offset := len(s.data)
	s.data = append(s.data, make([]byte, width)...)
	if err := s.codec.Encode(s.data[offset:offset+width], encodeSrc); err != nil {
		s.data = s.data[:offset]
		return 0, err
	}

	if s.requiresNorm {
		s.norms = append(s.norms, norm)
	}

	return id, nil
}

// Set overwrites the vector already stored at id, in place. Used to
// replace a deleted node's storage on reinsertion of the same label
// without
// growing the slab. id must already be within Len().
func (s *Store) Set(id core.LocalID, v []float32) error {
	if len(v) != s.dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrWrongDimension, s.dim, len(v))
	}

	norm, encodeSrc := s.prepare(v)

	width := s.codec.Width() * s.dim
	offset := int(id) * width
	if err := s.codec.Encode(s.data[offset:offset+width], encodeSrc); err != nil {
		return err
	}

	if s.requiresNorm {
		s.norms[id] = norm
	}

	return nil
}

// AppendEncoded appends a vector that is already in this store's encoded
// representation, bypassing scalar encoding entirely. Used by the
// serialization loader: stream bytes were already quantized by a prior
// save, so decoding and re-encoding them would risk a second, needless
// rounding pass. norm is ignored unless RequiresCosineNorm is true.
// encoded must have length Width().
func (s *Store) AppendEncoded(encoded []byte, norm float32) (core.LocalID, error) {
	if len(encoded) != s.Width() {
		return 0, fmt.Errorf("%w: expected %d encoded bytes, got %d", ErrWrongDimension, s.Width(), len(encoded))
	}

	id := core.LocalID(s.Len())
	s.data = append(s.data, encoded...)
	if s.requiresNorm {
		s.norms = append(s.norms, norm)
	}
	return id, nil
}

// prepare normalizes v for Cosine spaces (into a private copy, never
// mutating the caller's slice) and returns the pre-normalization norm
// (zero for non-Cosine spaces) alongside the slice to encode.
func (s *Store) prepare(v []float32) (norm float32, encodeSrc []float32) {
	if !s.requiresNorm {
		return 0, v
	}
	tmp := append([]float32(nil), v...)
	norm = metric.Normalize(tmp)
	return norm, tmp
}

// GetEncoded returns the raw encoded block for id, aliasing the slab.
// Reading an id beyond Len() is a programming error; callers must guard
// with the label table first.
func (s *Store) GetEncoded(id core.LocalID) []byte {
	width := s.codec.Width() * s.dim
	offset := int(id) * width
	return s.data[offset : offset+width]
}

// GetDecoded decodes vector id into dst (which must have length
// Dimension()). For Cosine spaces, the decoded unit vector is scaled back
// up by the stored pre-normalization norm, returning the original
// direction the caller inserted.
func (s *Store) GetDecoded(id core.LocalID, dst []float32) {
	s.codec.Decode(dst, s.GetEncoded(id))
	if s.requiresNorm {
		n := s.norms[id]
		for i := range dst {
			dst[i] *= n
		}
	}
}

// Distance returns the dissimilarity between two stored vectors.
func (s *Store) Distance(a, b core.LocalID) float32 {
	return s.kernel.Distance(s.GetEncoded(a), s.GetEncoded(b))
}

// DistanceToQuery returns the dissimilarity between a stored vector and a
// transient query. For Cosine spaces the caller must pass an already
// unit-normalized query (Index.Query normalizes once per query, not once
// per comparison); see metric.Normalize.
func (s *Store) DistanceToQuery(id core.LocalID, query []float32) float32 {
	return s.kernel.DistanceQuery(s.GetEncoded(id), query)
}

// RequiresCosineNorm reports whether this store's space normalizes vectors
// on encode and keeps a companion norm field.
func (s *Store) RequiresCosineNorm() bool { return s.requiresNorm }

// Norm returns the stored pre-normalization norm for id. Only meaningful
// when RequiresCosineNorm is true.
func (s *Store) Norm(id core.LocalID) float32 {
	if !s.requiresNorm {
		return 0
	}
	return s.norms[id]
}
