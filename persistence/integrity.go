package persistence

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/hupe1980/hnswgo/graph"
	"github.com/hupe1980/hnswgo/label"
	"github.com/hupe1980/hnswgo/vectorstore"
)

// SaveWithChecksum writes a V1 stream followed by a trailing little-endian
// u32 CRC32 of everything that precedes it, for callers who want
// corruption detection on top of Load's own size-field validation (it
// catches bit flips that validation can't, since a flipped byte inside an
// otherwise-consistent stream passes every bounds check).
func SaveWithChecksum(w io.Writer, store *vectorstore.Store, labels *label.Table, g *graph.Graph) error {
	cw := NewChecksumWriter(w)
	if err := Save(cw, store, labels, g); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, cw.Sum())
}

// LoadVerified reads a stream written by SaveWithChecksum, verifying the
// trailing checksum before returning the decoded index state. The body is
// buffered in memory so the checksum can be computed over it and then
// re-read by Load, since r need not support seeking.
func LoadVerified(r io.Reader, opts ...LoadOption) (*Loaded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, formatErrorf("stream too short to contain a trailing checksum")
	}
	body, trailer := data[:len(data)-4], data[len(data)-4:]
	expected := binary.LittleEndian.Uint32(trailer)

	cr := NewChecksumReader(bytes.NewReader(body))
	if _, err := io.Copy(io.Discard, cr); err != nil {
		return nil, err
	}
	if err := cr.Verify(expected); err != nil {
		return nil, formatErrorf("%v", err)
	}

	return Load(bytes.NewReader(body), opts...)
}
