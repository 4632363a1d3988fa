package scalar

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Kind identifies a storage representation for a single scalar.
type Kind uint8

const (
	// KindFloat32 stores each scalar as a raw IEEE-754 32-bit float (4 bytes).
	KindFloat32 Kind = iota
	// KindFloat8 stores each scalar as a symmetric uniform int8 (1 byte).
	KindFloat8
	// KindE4M3 stores each scalar as an 8-bit float: 1 sign, 4 exponent
	// (bias 7), 3 mantissa bits (1 byte).
	KindE4M3
)

// String returns a human-readable name for the storage kind.
func (k Kind) String() string {
	switch k {
	case KindFloat32:
		return "Float32"
	case KindFloat8:
		return "Float8"
	case KindE4M3:
		return "E4M3"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// ErrOutOfRange is returned when a scalar cannot be represented by a kind
// without clamping, for kinds whose encoding policy is to fail rather than
// silently clamp (E4M3).
var ErrOutOfRange = errors.New("scalar value out of representable range")

// OutOfRangeError reports the offending value and the kind's valid range.
type OutOfRangeError struct {
	Kind  Kind
	Value float32
	Min   float32
	Max   float32
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%v cannot represent %g: must be in [%g, %g]", e.Kind, e.Value, e.Min, e.Max)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// Codec converts between float32 and a single storage kind's byte
// representation. Implementations must not allocate in DecodeAt, since it
// sits in the distance-evaluation hot path.
type Codec interface {
	// Kind reports which storage kind this codec implements.
	Kind() Kind

	// Width returns the number of bytes used to store one scalar.
	Width() int

	// Encode writes len(src) encoded scalars into dst, which must have
	// length len(src)*Width(). Returns an error if any value cannot be
	// represented (E4M3 only; Float32/Float8 never fail).
	Encode(dst []byte, src []float32) error

	// Decode reads len(dst) scalars from src, which must have length
	// len(dst)*Width().
	Decode(dst []float32, src []byte)

	// DecodeAt decodes the scalar at index i directly from the encoded
	// block, without decoding the rest of the block.
	DecodeAt(src []byte, i int) float32
}

// ForKind returns the Codec implementation for a storage kind.
func ForKind(k Kind) (Codec, error) {
	switch k {
	case KindFloat32:
		return Float32Codec{}, nil
	case KindFloat8:
		return Float8Codec{}, nil
	case KindE4M3:
		return E4M3Codec{}, nil
	default:
		return nil, fmt.Errorf("scalar: unknown storage kind %d", uint8(k))
	}
}

// Float32Codec is the identity codec: 4 bytes per scalar, no precision loss.
type Float32Codec struct{}

func (Float32Codec) Kind() Kind { return KindFloat32 }
func (Float32Codec) Width() int { return 4 }

func (Float32Codec) Encode(dst []byte, src []float32) error {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
	return nil
}

func (Float32Codec) Decode(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
}

func (Float32Codec) DecodeAt(src []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
}

// Float8Codec is a uniform, symmetric 8-bit quantizer with fixed scale
// 1/127: encode(f) = round(clamp(f*127, -127, 127)), decode(b) = b/127.
// Out-of-range inputs clamp silently (spec policy for this kind, unlike
// E4M3 which fails). NaN encodes to zero.
type Float8Codec struct{}

func (Float8Codec) Kind() Kind { return KindFloat8 }
func (Float8Codec) Width() int { return 1 }

const float8Scale = 127.0

func encodeFloat8Scalar(f float32) byte {
	if math.IsNaN(float64(f)) {
		return 0
	}

	scaled := f * float8Scale
	if scaled > 127 {
		scaled = 127
	} else if scaled < -127 {
		scaled = -127
	}

	return byte(int8(math.Round(float64(scaled))))
}

func decodeFloat8Scalar(b byte) float32 {
	return float32(int8(b)) / float8Scale
}

func (Float8Codec) Encode(dst []byte, src []float32) error {
	for i, v := range src {
		dst[i] = encodeFloat8Scalar(v)
	}
	return nil
}

func (Float8Codec) Decode(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = decodeFloat8Scalar(src[i])
	}
}

func (Float8Codec) DecodeAt(src []byte, i int) float32 {
	return decodeFloat8Scalar(src[i])
}
