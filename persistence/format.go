// Package persistence implements the versioned binary encoding of a saved
// index: the V1 "VOYA" stream and a V0 legacy reader for headerless
// streams produced by callers that supply parameters out-of-band.
package persistence

import (
	"errors"
	"fmt"

	"github.com/hupe1980/hnswgo/metric"
	"github.com/hupe1980/hnswgo/scalar"
)

// errFormat marks every error this package returns; callers classify
// with errors.Is(err, persistence.ErrFormat).
var errFormat = errors.New("persistence: format error")

// ErrFormat is the sentinel every malformed-stream error wraps.
var ErrFormat = errFormat

// Magic is the 4-byte stream marker identifying a V1 file.
var Magic = [4]byte{'V', 'O', 'Y', 'A'}

// Version is the only V1 format version this package writes or accepts.
const Version uint32 = 1

// Storage tags identify the on-disk scalar encoding. They are opaque tag
// values, not bit counts; the three must simply stay distinct.
const (
	tagFloat32 uint8 = 0x20
	tagFloat8  uint8 = 0x10
	tagE4M3    uint8 = 0x08
)

// Legacy storage tags as written by the original hnswlib/Voyager family
// (original_source/cpp/src/Enums.h), recognized on reads where a stream
// predates this module's own tag assignment.
const (
	legacyTagFloat8  uint8 = 0x10
	legacyTagFloat32 uint8 = 0x20
	legacyTagE4M3    uint8 = 0x30
)

func storageTag(k scalar.Kind) (uint8, error) {
	switch k {
	case scalar.KindFloat32:
		return tagFloat32, nil
	case scalar.KindFloat8:
		return tagFloat8, nil
	case scalar.KindE4M3:
		return tagE4M3, nil
	default:
		return 0, formatErrorf("unsupported storage kind %v", k)
	}
}

func kindFromTag(tag uint8) (scalar.Kind, error) {
	switch tag {
	case tagFloat32:
		return scalar.KindFloat32, nil
	case tagFloat8:
		return scalar.KindFloat8, nil
	case tagE4M3, legacyTagE4M3:
		return scalar.KindE4M3, nil
	default:
		return 0, formatErrorf("unrecognized storage tag 0x%02x", tag)
	}
}

func spaceTag(s metric.Space) (uint8, error) {
	switch s {
	case metric.Euclidean, metric.InnerProduct, metric.Cosine:
		return uint8(s), nil
	default:
		return 0, formatErrorf("unsupported space %v", s)
	}
}

func spaceFromTag(tag uint8) (metric.Space, error) {
	switch tag {
	case uint8(metric.Euclidean), uint8(metric.InnerProduct), uint8(metric.Cosine):
		return metric.Space(tag), nil
	default:
		return 0, formatErrorf("unrecognized space tag %d", tag)
	}
}

// Header is the fixed leading parameter block of a V1 stream: everything
// between the version word and the level0 slab.
type Header struct {
	NumDimensions               uint32
	Space                       metric.Space
	StorageKind                 scalar.Kind
	MaxNorm                     float32
	UseOrderPreservingTransform uint8
	OffsetLevel0                uint64
	MaxElements                 uint64
	CurElementCount             uint64
	SizeDataPerElement          uint64
	LabelOffset                 uint64
	OffsetData                  uint64
	MaxLevel                    uint32
	EnterpointNode              uint32
	MaxM                        uint64
	MaxM0                       uint64
	M                           uint64
	Mult                        float64
	EfConstruction              uint64
}

// fixedHeaderSize is the byte length of everything from "magic" through
// "ef_construction": OffsetLevel0 always equals this.
const fixedHeaderSize = 4 + 4 + // magic, version
	4 + 1 + 1 + 4 + 1 + // num_dimensions, space, storage_kind, max_norm, use_order_preserving_transform
	8 + 8 + 8 + 8 + 8 + 8 + // offset_level0, max_elements, cur_element_count, size_data_per_element, label_offset, offset_data
	4 + 4 + // maxlevel, enterpoint_node
	8 + 8 + 8 + 8 + 8 // maxM, maxM0, M, mult, ef_construction

func formatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errFormat}, args...)...)
}
