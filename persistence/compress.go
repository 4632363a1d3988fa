package persistence

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/hnswgo/graph"
	"github.com/hupe1980/hnswgo/label"
	"github.com/hupe1980/hnswgo/vectorstore"
)

// SaveCompressed writes the same V1 stream Save produces through a zstd
// encoder: a sidecar envelope, not a change to the canonical byte layout
// (a plain Load against the decompressed bytes still applies).
func SaveCompressed(w io.Writer, store *vectorstore.Store, labels *label.Table, g *graph.Graph) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := Save(enc, store, labels, g); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// LoadCompressed reverses SaveCompressed.
func LoadCompressed(r io.Reader, opts ...LoadOption) (*Loaded, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return Load(dec, opts...)
}
