package persistence

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/hupe1980/hnswgo/core"
)

// writeUpperLevels writes one node's per-node upper-levels block (:
// "u32 linklist-size-bytes, then that many bytes = interleaved
// u32-count,u32-indices blocks for levels 1..L_i"). levels holds
// connections[1..] for the node; levels[0] corresponds to graph level 1.
func writeUpperLevels(w io.Writer, levels [][]core.LocalID) error {
	var body bytes.Buffer
	for _, conns := range levels {
		if err := binary.Write(&body, binary.LittleEndian, uint32(len(conns))); err != nil {
			return err
		}
		for _, id := range conns {
			if err := binary.Write(&body, binary.LittleEndian, uint32(id)); err != nil {
				return err
			}
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(body.Len())); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

// readUpperLevels reads one node's upper-levels block back, returning one
// adjacency slice per level above 0 (levels[0] is graph level 1, ...,
// levels[n-1] is graph level n, where the node's own level is n).
func readUpperLevels(r io.Reader) ([][]core.LocalID, error) {
	var blockLen uint32
	if err := binary.Read(r, binary.LittleEndian, &blockLen); err != nil {
		return nil, err
	}
	if blockLen == 0 {
		return nil, nil
	}

	block := make([]byte, blockLen)
	if _, err := io.ReadFull(r, block); err != nil {
		return nil, err
	}
	br := bytes.NewReader(block)

	var levels [][]core.LocalID
	for br.Len() > 0 {
		if br.Len() < 4 {
			return nil, formatErrorf("upper-levels block truncated mid-count")
		}
		var count uint32
		if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
			return nil, err
		}
		if int64(count)*4 > int64(br.Len()) {
			return nil, formatErrorf("upper-levels block declares %d ids beyond its own length", count)
		}
		conns := make([]core.LocalID, count)
		for i := range conns {
			var id uint32
			if err := binary.Read(br, binary.LittleEndian, &id); err != nil {
				return nil, err
			}
			conns[i] = core.LocalID(id)
		}
		levels = append(levels, conns)
	}
	return levels, nil
}
