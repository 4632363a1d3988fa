package persistence

import (
	"encoding/binary"
	"io"

	"github.com/hupe1980/hnswgo/core"
	"github.com/hupe1980/hnswgo/graph"
	"github.com/hupe1980/hnswgo/internal/conv"
	"github.com/hupe1980/hnswgo/label"
	"github.com/hupe1980/hnswgo/metric"
	"github.com/hupe1980/hnswgo/scalar"
	"github.com/hupe1980/hnswgo/vectorstore"
)

// Loaded is the reconstructed index state Load hands back, with Graph
// already rebuilt via graph.Restore over Store and Labels.
type Loaded struct {
	Header *Header
	Store  *vectorstore.Store
	Labels *label.Table
	Graph  *graph.Graph
}

// loadConstraints holds the optional out-of-band expectations a caller
// can assert against a V1 stream's self-described parameters.
type loadConstraints struct {
	checkDimension bool
	wantDimension  int
}

// LoadOption asserts an out-of-band expectation against the parameters a
// V1 stream declares about itself, so a caller loading into a
// known-dimension context gets a FormatError instead of silently
// accepting a mismatched stream.
type LoadOption func(*loadConstraints)

// WithExpectedDimension rejects the stream with a FormatError naming both
// values if its declared num_dimensions doesn't equal want.
func WithExpectedDimension(want int) LoadOption {
	return func(c *loadConstraints) {
		c.checkDimension = true
		c.wantDimension = want
	}
}

// Load reads a V1 stream written by Save, validating every size field
// against the bytes actually available before allocating anything sized
// off the stream. It never reads past the
// byte length implied by the header, and never allocates based on a
// declared count without first checking it against a remaining-bytes
// estimate derived from r, when r is a io.ReaderAt/Seeker — for a plain
// io.Reader, counts are still bounded against CurElementCount and
// MaxElements so a corrupt stream cannot request unbounded memory.
func Load(r io.Reader, opts ...LoadOption) (*Loaded, error) {
	var constraints loadConstraints
	for _, fn := range opts {
		fn(&constraints)
	}

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, formatErrorf("reading magic: %v", err)
	}
	if magic != Magic {
		return nil, formatErrorf("bad magic: got %q, want %q", magic[:], Magic[:])
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, formatErrorf("reading version: %v", err)
	}
	if version != Version {
		return nil, formatErrorf("unsupported version %d, want %d", version, Version)
	}

	var (
		numDimensions              uint32
		spaceTagV, storageKindTagV uint8
		maxNorm                    float32
		useOrderPreservingTransform uint8
	)
	leading := []any{&numDimensions, &spaceTagV, &storageKindTagV, &maxNorm, &useOrderPreservingTransform}
	for _, f := range leading {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, formatErrorf("reading header: %v", err)
		}
	}

	if numDimensions == 0 {
		return nil, formatErrorf("num_dimensions must be positive, got 0")
	}
	if constraints.checkDimension && int(numDimensions) != constraints.wantDimension {
		return nil, formatErrorf("stream num_dimensions %d does not match expected dimension %d", numDimensions, constraints.wantDimension)
	}

	space, err := spaceFromTag(spaceTagV)
	if err != nil {
		return nil, err
	}
	kind, err := kindFromTag(storageKindTagV)
	if err != nil {
		return nil, err
	}

	return loadBody(r, numDimensions, space, kind, maxNorm, useOrderPreservingTransform)
}

// loadBody reads everything from offset_level0 onward: the structural
// parameter block, the level0 slab, and the per-node upper-levels block.
// Both the V1 reader (which first parses the leading VOYA block above)
// and the V0 legacy reader (whose caller supplies the leading block's
// values out-of-band) converge here.
func loadBody(r io.Reader, numDimensions uint32, space metric.Space, kind scalar.Kind, maxNorm float32, useOrderPreservingTransform uint8) (*Loaded, error) {
	var (
		offsetLevel0       uint64
		maxElements        uint64
		curElementCount    uint64
		sizeDataPerElement uint64
		labelOffset        uint64
		offsetData         uint64
		maxLevel           uint32
		enterpointNode     uint32
		maxM               uint64
		maxM0              uint64
		m                  uint64
		mult               float64
		efConstruction     uint64
	)
	fields := []any{
		&offsetLevel0, &maxElements, &curElementCount, &sizeDataPerElement,
		&labelOffset, &offsetData, &maxLevel, &enterpointNode,
		&maxM, &maxM0, &m, &mult, &efConstruction,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, formatErrorf("reading header: %v", err)
		}
	}

	if offsetLevel0 != fixedHeaderSize {
		return nil, formatErrorf("offset_level0 %d does not match expected header size %d", offsetLevel0, fixedHeaderSize)
	}
	if curElementCount > maxElements {
		return nil, formatErrorf("cur_element_count %d exceeds max_elements %d", curElementCount, maxElements)
	}
	// A sanity ceiling unrelated to the stream's actual length would let a
	// crafted header request an arbitrarily large allocation; cap
	// cur_element_count so per-node work below stays bounded even before
	// the slab is read. 2^32-1 matches the on-disk adjacency width and the
	// core.LocalID domain.
	if curElementCount > uint64(core.MaxLocalID) {
		return nil, formatErrorf("cur_element_count %d exceeds the maximum representable internal id", curElementCount)
	}

	dim, err := conv.Uint32ToInt(numDimensions)
	if err != nil {
		return nil, formatErrorf("num_dimensions: %v", err)
	}
	store, err := vectorstore.New(dim, kind, space)
	if err != nil {
		return nil, err
	}

	maxM0Int, err := conv.Uint64ToInt(maxM0)
	if err != nil {
		return nil, formatErrorf("max_m0: %v", err)
	}

	width := store.Width()
	normSize := 0
	if store.RequiresCosineNorm() {
		normSize = normFieldSize
	}
	wantSize := uint64(4 + maxM0Int*4 + width + normSize + 8)
	if sizeDataPerElement != wantSize {
		return nil, formatErrorf("size_data_per_element %d does not match what the declared parameters imply (%d)", sizeDataPerElement, wantSize)
	}
	wantOffsetData := uint64(4 + maxM0Int*4)
	if offsetData != wantOffsetData {
		return nil, formatErrorf("offset_data %d does not match declared maxM0 (expected %d)", offsetData, wantOffsetData)
	}
	wantLabelOffset := wantOffsetData + uint64(width+normSize)
	if labelOffset != wantLabelOffset {
		return nil, formatErrorf("label_offset %d does not match declared layout (expected %d)", labelOffset, wantLabelOffset)
	}

	n, err := conv.Uint64ToInt(curElementCount)
	if err != nil {
		return nil, formatErrorf("cur_element_count: %v", err)
	}
	labels := make([]core.Label, n)
	nodes := make([]graph.RestoredNode, n)

	adjBuf := make([]uint32, maxM0)
	for id := 0; id < n; id++ {
		var count uint32
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, formatErrorf("node %d: reading level0 adjacency count: %v", id, err)
		}
		if uint64(count) > maxM0 {
			return nil, formatErrorf("node %d: level0 adjacency count %d exceeds maxM0 %d", id, count, maxM0)
		}
		for i := range adjBuf {
			if err := binary.Read(r, binary.LittleEndian, &adjBuf[i]); err != nil {
				return nil, formatErrorf("node %d: reading level0 adjacency: %v", id, err)
			}
		}
		conns := make([]core.LocalID, count)
		for i := range conns {
			conns[i] = core.LocalID(adjBuf[i])
		}

		encoded := make([]byte, width)
		if _, err := io.ReadFull(r, encoded); err != nil {
			return nil, formatErrorf("node %d: reading vector bytes: %v", id, err)
		}

		var norm float32
		if store.RequiresCosineNorm() {
			if err := binary.Read(r, binary.LittleEndian, &norm); err != nil {
				return nil, formatErrorf("node %d: reading norm: %v", id, err)
			}
		}

		var rawLabel uint64
		if err := binary.Read(r, binary.LittleEndian, &rawLabel); err != nil {
			return nil, formatErrorf("node %d: reading label: %v", id, err)
		}
		labels[id] = core.Label(rawLabel)

		if _, err := store.AppendEncoded(encoded, norm); err != nil {
			return nil, err
		}

		nodes[id] = graph.RestoredNode{Connections: [][]core.LocalID{conns}}
	}

	for id := 0; id < n; id++ {
		upper, err := readUpperLevels(r)
		if err != nil {
			return nil, formatErrorf("node %d: %v", id, err)
		}
		nodes[id].Level = len(upper)
		nodes[id].Connections = append(nodes[id].Connections, upper...)
	}

	if enterpointNode >= uint32(n) && n > 0 {
		return nil, formatErrorf("enterpoint_node %d is out of range for %d nodes", enterpointNode, n)
	}

	mInt, err := conv.Uint64ToInt(m)
	if err != nil {
		return nil, formatErrorf("m: %v", err)
	}
	efConstructionInt, err := conv.Uint64ToInt(efConstruction)
	if err != nil {
		return nil, formatErrorf("ef_construction: %v", err)
	}
	maxLevelInt, err := conv.Uint32ToInt(maxLevel)
	if err != nil {
		return nil, formatErrorf("max_level: %v", err)
	}

	labelTable := label.FromLabels(labels)
	cfg := graph.Config{M: mInt, EfConstruction: efConstructionInt}
	g := graph.Restore(cfg, store, labelTable, nodes, core.LocalID(enterpointNode), maxLevelInt, n > 0, uint64(n))

	header := &Header{
		NumDimensions:               numDimensions,
		Space:                       space,
		StorageKind:                 kind,
		MaxNorm:                     maxNorm,
		UseOrderPreservingTransform: useOrderPreservingTransform,
		OffsetLevel0:                offsetLevel0,
		MaxElements:                 maxElements,
		CurElementCount:             curElementCount,
		SizeDataPerElement:          sizeDataPerElement,
		LabelOffset:                 labelOffset,
		OffsetData:                  offsetData,
		MaxLevel:                    maxLevel,
		EnterpointNode:              enterpointNode,
		MaxM:                        maxM,
		MaxM0:                       maxM0,
		M:                           m,
		Mult:                        mult,
		EfConstruction:              efConstruction,
	}

	return &Loaded{Header: header, Store: store, Labels: labelTable, Graph: g}, nil
}
