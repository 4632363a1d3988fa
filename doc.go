// Package hnswgo provides an in-memory approximate nearest-neighbor index
// built on Hierarchical Navigable Small World (HNSW) graphs.
//
// # Quick Start
//
//	idx, err := hnswgo.New(128, hnswgo.Euclidean, hnswgo.WithM(16), hnswgo.WithEfConstruction(200))
//	if err != nil {
//	    ...
//	}
//	err = idx.Add(vector, hnswgo.Label(1))
//	results, err := idx.Query(query, 10, hnswgo.WithQueryEf(64))
//
// # Storage kinds
//
// Vectors may be stored as raw float32, a symmetric uniform int8
// quantization (Float8), or an 8-bit float (E4M3). The storage kind trades
// memory footprint for reconstruction accuracy; distance kernels read the
// encoded bytes directly, decoding one scalar at a time, and never
// materialize a decoded float32 copy of a stored vector.
//
// # Distance metrics
//
// Euclidean (squared L2), InnerProduct (dissimilarity 1 - dot), and Cosine
// (inner-product dissimilarity after unit-normalization) are supported.
// Cosine vectors carry an extra per-node norm field so GetVector can return
// the pre-normalization vector.
//
// # Deletion
//
// Delete marks a label dead without touching graph edges or the stored
// vector (mark-and-replace); a later Add reusing the same label recycles
// the internal id. Undelete reverses a Delete before the id is recycled.
//
// # Persistence
//
// Save/Load round-trip the full index (vectors, graph topology, labels) as
// a versioned binary stream. SaveCompressed/LoadCompressed wrap the same
// stream in a zstd frame. LoadLegacy reads the headerless V0 format with
// out-of-band space/dimension/storage parameters. The on-disk format does
// not persist the deleted set: every node a stream declares comes back
// live on load.
package hnswgo
