package persistence

import (
	"encoding/binary"
	"io"

	"github.com/hupe1980/hnswgo/core"
	"github.com/hupe1980/hnswgo/graph"
	"github.com/hupe1980/hnswgo/label"
	"github.com/hupe1980/hnswgo/vectorstore"
)

// normFieldSize is the width of the per-node companion field storing the
// pre-normalization L2 norm (cosine mode only).
const normFieldSize = 4

// Save writes store, labels, and g as a V1 stream. The deleted set
// is not part of the stream (see DESIGN.md); every node g has ever
// assigned comes back live on Load.
func Save(w io.Writer, store *vectorstore.Store, labels *label.Table, g *graph.Graph) error {
	n := g.Cap()

	spaceTagV, err := spaceTag(store.Kernel().Space())
	if err != nil {
		return err
	}
	storageTagV, err := storageTag(store.Kind())
	if err != nil {
		return err
	}

	width := store.Width()
	normSize := 0
	if store.RequiresCosineNorm() {
		normSize = normFieldSize
	}
	maxM0 := g.MMax0()
	sizeDataPerElement := uint64(4 + maxM0*4 + width + normSize + 8)
	offsetData := uint64(4 + maxM0*4)
	labelOffset := offsetData + uint64(width+normSize)

	entry, topLevel, hasEntry := g.EntryPoint()
	var enterpointNode uint32
	var maxLevel uint32
	if hasEntry {
		enterpointNode = uint32(entry)
		maxLevel = uint32(topLevel)
	}

	var maxNorm float32
	if store.RequiresCosineNorm() {
		for id := 0; id < n; id++ {
			if nrm := store.Norm(core.LocalID(id)); nrm > maxNorm {
				maxNorm = nrm
			}
		}
	}

	cfg := g.Config()
	header := Header{
		NumDimensions:               uint32(store.Dimension()),
		Space:                       store.Kernel().Space(),
		StorageKind:                 store.Kind(),
		MaxNorm:                     maxNorm,
		UseOrderPreservingTransform: 0,
		OffsetLevel0:                fixedHeaderSize,
		MaxElements:                 uint64(n),
		CurElementCount:             uint64(n),
		SizeDataPerElement:          sizeDataPerElement,
		LabelOffset:                 labelOffset,
		OffsetData:                  offsetData,
		MaxLevel:                    maxLevel,
		EnterpointNode:              enterpointNode,
		MaxM:                        uint64(g.MMax()),
		MaxM0:                       uint64(maxM0),
		M:                           uint64(cfg.M),
		Mult:                        g.Mult(),
		EfConstruction:              uint64(cfg.EfConstruction),
	}

	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, Version); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.NumDimensions); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, spaceTagV); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, storageTagV); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.MaxNorm); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.UseOrderPreservingTransform); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.OffsetLevel0); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.MaxElements); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.CurElementCount); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.SizeDataPerElement); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.LabelOffset); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.OffsetData); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.MaxLevel); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.EnterpointNode); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.MaxM); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.MaxM0); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.M); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.Mult); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header.EfConstruction); err != nil {
		return err
	}

	// level0 slab: one fixed-size entry per node, in internal-id order.
	for id := 0; id < n; id++ {
		lid := core.LocalID(id)
		conns := g.Connections(lid, 0)
		if err := binary.Write(w, binary.LittleEndian, uint32(len(conns))); err != nil {
			return err
		}
		for i := 0; i < maxM0; i++ {
			var v uint32
			if i < len(conns) {
				v = uint32(conns[i])
			}
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return err
			}
		}
		if _, err := w.Write(store.GetEncoded(lid)); err != nil {
			return err
		}
		if store.RequiresCosineNorm() {
			if err := binary.Write(w, binary.LittleEndian, store.Norm(lid)); err != nil {
				return err
			}
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(labels.LabelOf(lid))); err != nil {
			return err
		}
	}

	// per-node upper-levels block, in internal-id order.
	for id := 0; id < n; id++ {
		lid := core.LocalID(id)
		level := g.NodeLevel(lid)
		var levels [][]core.LocalID
		for lvl := 1; lvl <= level; lvl++ {
			levels = append(levels, g.Connections(lid, lvl))
		}
		if err := writeUpperLevels(w, levels); err != nil {
			return err
		}
	}

	return nil
}
