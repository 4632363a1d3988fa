package persistence

import (
	"io"

	"github.com/hupe1980/hnswgo/metric"
	"github.com/hupe1980/hnswgo/scalar"
)

// LoadLegacy reads a V0 stream: one with no "VOYA" magic, version, or
// leading parameter block. Callers must supply space, numDimensions, and
// storageKind out-of-band, matching what the index was originally
// configured with; a mismatch surfaces once the structural parameters are
// checked against the stream (e.g. size_data_per_element won't match what
// the supplied dimension/kind imply), naming both the declared and
// expected values.
func LoadLegacy(r io.Reader, space metric.Space, numDimensions int, storageKind scalar.Kind) (*Loaded, error) {
	if numDimensions <= 0 {
		return nil, formatErrorf("num_dimensions must be positive, got %d", numDimensions)
	}
	return loadBody(r, uint32(numDimensions), space, storageKind, 0, 0)
}
