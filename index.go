package hnswgo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/hnswgo/core"
	"github.com/hupe1980/hnswgo/engine"
	"github.com/hupe1980/hnswgo/graph"
	"github.com/hupe1980/hnswgo/label"
	"github.com/hupe1980/hnswgo/metric"
	"github.com/hupe1980/hnswgo/persistence"
	"github.com/hupe1980/hnswgo/scalar"
	"github.com/hupe1980/hnswgo/vectorstore"
)

// Label identifies a vector across the index's lifetime. Labels are
// caller-supplied; the index never generates them.
type Label = core.Label

// Space selects the distance metric vectors are ranked by.
type Space = metric.Space

// Storage kind re-exports, so callers configuring WithStorageKind don't
// need to import the scalar package directly.
const (
	Float32 = scalar.KindFloat32
	Float8  = scalar.KindFloat8
	E4M3    = scalar.KindE4M3
)

const (
	Euclidean    = metric.Euclidean
	InnerProduct = metric.InnerProduct
	Cosine       = metric.Cosine
)

// Result is a single k-NN match, ordered nearest first.
type Result struct {
	Label    Label
	Distance float32
}

// Index is an in-memory approximate nearest-neighbor index over vectors
// of a fixed dimension, built on an HNSW graph. An Index is safe for
// concurrent use: reads (Query, GetVector) may run concurrently with each
// other and with writes (Add, Delete); writes serialize internally.
type Index struct {
	opts options

	store  *vectorstore.Store
	labels *label.Table
	graph  *graph.Graph

	pool *engine.WorkerPool

	mu     sync.RWMutex
	closed bool
}

// New constructs an empty Index over vectors of the given dimension under
// space, configured by opts.
func New(dimension int, space Space, opts ...Option) (*Index, error) {
	o := applyOptions(opts)

	store, err := vectorstore.New(dimension, o.storageKind, space)
	if err != nil {
		return nil, translateErr(err)
	}
	labels := label.New()
	g := graph.New(graph.Config{M: o.m, EfConstruction: o.efConstruction, Seed: o.seed}, store, labels)

	return &Index{
		opts:   o,
		store:  store,
		labels: labels,
		graph:  g,
		pool:   engine.NewWorkerPool(o.numWorkers),
	}, nil
}

// Add inserts vector under lbl. If lbl was previously deleted, this
// reuses its old internal id and overwrites its stored vector without
// re-running graph linking. Adding an already-live label returns
// ErrLabelExists.
func (idx *Index) Add(vector []float32, lbl Label) (err error) {
	start := time.Now()
	defer func() {
		idx.opts.metrics.RecordInsert(time.Since(start), err)
		idx.opts.logger.LogInsert(context.Background(), lbl, err)
	}()

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return ErrClosed
	}

	if _, insertErr := idx.graph.Insert(vector, lbl); insertErr != nil {
		err = translateErr(insertErr)
		return err
	}
	return nil
}

// BatchItem is one entry of an AddBatch call.
type BatchItem struct {
	Vector []float32
	Label  Label
}

// AddBatch inserts items in parallel across the index's worker pool. It
// returns the first error any worker encountered, or the pool's error if
// an item could not be submitted. Once an item fails, items that have not
// started yet are skipped and their errs entries stay nil; errs aligns
// with items so a caller can identify which entries failed. AddBatch
// holds the index's read lock for its duration,
// so it may run concurrently with other reads but not with Close.
func (idx *Index) AddBatch(ctx context.Context, items []BatchItem) (errs []error, err error) {
	start := time.Now()
	defer func() {
		failed := 0
		for _, e := range errs {
			if e != nil {
				failed++
			}
		}
		idx.opts.metrics.RecordBatchInsert(len(items), failed, time.Since(start))
		idx.opts.logger.LogBatchInsert(context.Background(), len(items), failed)
	}()

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return nil, ErrClosed
	}

	errs = make([]error, len(items))
	var wg sync.WaitGroup
	var aborted atomic.Bool
	var firstOnce sync.Once
	var firstErr error

	for i := range items {
		i := i
		wg.Add(1)
		submitErr := idx.pool.Submit(ctx, func() {
			defer wg.Done()
			if aborted.Load() {
				return
			}
			if _, insertErr := idx.graph.Insert(items[i].Vector, items[i].Label); insertErr != nil {
				errs[i] = translateErr(insertErr)
				firstOnce.Do(func() { firstErr = errs[i] })
				aborted.Store(true)
			}
		})
		if submitErr != nil {
			wg.Done()
			err = translateErr(submitErr)
			break
		}
	}

	wg.Wait()
	if err != nil {
		return errs, err
	}
	return errs, firstErr
}

// Query returns up to k nearest neighbors of query, nearest first. ef
// (the beam width) defaults to the index's configured default and is
// raised to k automatically if smaller. k must be positive and no larger
// than the number of stored vectors (Cap), or ErrInvalidArgument is
// returned. Under Cosine space the query is unit-normalized (on a private
// copy) before the search.
func (idx *Index) Query(query []float32, k int, opts ...QueryOption) (results []Result, err error) {
	start := time.Now()
	defer func() {
		idx.opts.metrics.RecordSearch(k, time.Since(start), err)
		idx.opts.logger.LogSearch(context.Background(), k, len(results), err)
	}()

	if k <= 0 {
		err = fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, k)
		return nil, err
	}
	if len(query) != idx.store.Dimension() {
		err = &DimensionMismatchError{Expected: idx.store.Dimension(), Actual: len(query)}
		return nil, err
	}

	qo := queryOptions{ef: idx.opts.ef}
	for _, fn := range opts {
		if fn != nil {
			fn(&qo)
		}
	}
	if qo.ef < k {
		qo.ef = k
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		err = ErrClosed
		return nil, err
	}
	if n := idx.graph.Cap(); k > n {
		err = fmt.Errorf("%w: k %d exceeds the %d stored vectors", ErrInvalidArgument, k, n)
		return nil, err
	}
	if idx.store.RequiresCosineNorm() {
		query = append([]float32(nil), query...)
		metric.Normalize(query)
	}

	raw := idx.graph.Search(query, k, qo.ef)
	results = make([]Result, len(raw))
	for i, r := range raw {
		results[i] = Result{Label: idx.graph.LabelOf(r.Node), Distance: r.Distance}
	}
	return results, nil
}

// QueryBatch runs Query for each query vector in parallel across the
// index's worker pool, preserving input order in the returned slice.
func (idx *Index) QueryBatch(ctx context.Context, queries [][]float32, k int, opts ...QueryOption) ([][]Result, error) {
	idx.mu.RLock()
	closed := idx.closed
	idx.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	results := make([][]Result, len(queries))
	errs := make([]error, len(queries))
	var wg sync.WaitGroup

	for i := range queries {
		i := i
		wg.Add(1)
		submitErr := idx.pool.Submit(ctx, func() {
			defer wg.Done()
			results[i], errs[i] = idx.Query(queries[i], k, opts...)
		})
		if submitErr != nil {
			wg.Done()
			return nil, translateErr(submitErr)
		}
	}

	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return results, e
		}
	}
	return results, nil
}

// Delete marks lbl's internal id deleted: it becomes unresolvable and is
// skipped by Query, but its graph edges and stored vector are left
// untouched until a future Add under the same label recycles the id.
func (idx *Index) Delete(lbl Label) (err error) {
	start := time.Now()
	defer func() {
		idx.opts.metrics.RecordDelete(time.Since(start), err)
		idx.opts.logger.LogDelete(context.Background(), lbl, err)
	}()

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		err = ErrClosed
		return err
	}
	if _, e := idx.graph.MarkDeleted(lbl); e != nil {
		err = translateErr(e)
		return err
	}
	return nil
}

// Undelete reverses a prior Delete, making lbl resolvable again.
func (idx *Index) Undelete(lbl Label) (err error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return ErrClosed
	}
	if _, e := idx.graph.UnmarkDeleted(lbl); e != nil {
		return translateErr(e)
	}
	return nil
}

// GetVector decodes the vector stored under lbl into dst (len(dst) must
// equal the index's dimension). ok is false if lbl is not live. Under
// Cosine space, the returned vector is denormalized back to its original
// scale using the per-node stored norm.
func (idx *Index) GetVector(lbl Label, dst []float32) (ok bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return false
	}
	return idx.graph.GetVector(lbl, dst)
}

// Len reports the number of currently live (non-deleted) vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.graph.Len()
}

// Cap reports the total number of internal ids ever assigned, live or
// deleted.
func (idx *Index) Cap() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.graph.Cap()
}

// Dimension reports the configured vector length.
func (idx *Index) Dimension() int {
	return idx.store.Dimension()
}

// Save writes the full index (vectors, graph topology, labels) to w as a
// versioned binary stream. The deleted set is not persisted: every node
// the stream declares comes back live on Load.
func (idx *Index) Save(w io.Writer) (err error) {
	defer func() { idx.opts.logger.LogSnapshot(context.Background(), "save", err) }()
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return ErrClosed
	}
	return persistence.Save(w, idx.store, idx.labels, idx.graph)
}

// SaveCompressed is Save wrapped in a zstd frame.
func (idx *Index) SaveCompressed(w io.Writer) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return ErrClosed
	}
	return persistence.SaveCompressed(w, idx.store, idx.labels, idx.graph)
}

// SaveWithChecksum is Save followed by a trailing CRC32 of the stream,
// verified by LoadVerified.
func (idx *Index) SaveWithChecksum(w io.Writer) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return ErrClosed
	}
	return persistence.SaveWithChecksum(w, idx.store, idx.labels, idx.graph)
}

// Load reads a V1 stream written by Save and returns a ready-to-use
// Index. opts configures runtime behavior (workers, logger, metrics); it
// does not override the persisted M/ef_construction/storage kind/space.
// WithExpectedDimension rejects a stream whose declared dimension doesn't
// match.
func Load(r io.Reader, opts ...Option) (*Index, error) {
	loaded, err := persistence.Load(r, loadOptionsFrom(opts)...)
	if err != nil {
		return nil, translateErr(err)
	}
	return fromLoaded(loaded, opts)
}

// LoadCompressed reads a stream written by SaveCompressed.
func LoadCompressed(r io.Reader, opts ...Option) (*Index, error) {
	loaded, err := persistence.LoadCompressed(r, loadOptionsFrom(opts)...)
	if err != nil {
		return nil, translateErr(err)
	}
	return fromLoaded(loaded, opts)
}

// LoadVerified reads a stream written by SaveWithChecksum, rejecting it if
// the trailing checksum doesn't match.
func LoadVerified(r io.Reader, opts ...Option) (*Index, error) {
	loaded, err := persistence.LoadVerified(r, loadOptionsFrom(opts)...)
	if err != nil {
		return nil, translateErr(err)
	}
	return fromLoaded(loaded, opts)
}

// loadOptionsFrom extracts the persistence-level cross-checks implied by
// opts (currently just an expected dimension), so Load's family of
// functions can assert them against the stream before it is fully
// decoded.
func loadOptionsFrom(opts []Option) []persistence.LoadOption {
	o := applyOptions(opts)
	if o.expectedDimension == nil {
		return nil
	}
	return []persistence.LoadOption{persistence.WithExpectedDimension(*o.expectedDimension)}
}

// SaveToFile writes the index to filename via a temp-file-then-rename
// sequence, so a reader opening filename never observes a partially
// written snapshot even if the process crashes mid-save.
func (idx *Index) SaveToFile(filename string) (err error) {
	defer func() { idx.opts.logger.LogSnapshot(context.Background(), "save", err) }()

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return ErrClosed
	}

	return persistence.SaveToFile(filename, func(w io.Writer) error {
		return persistence.Save(w, idx.store, idx.labels, idx.graph)
	})
}

// LoadFromFile reads a V1 stream previously written by (*Index).SaveToFile.
func LoadFromFile(filename string, opts ...Option) (*Index, error) {
	var loaded *persistence.Loaded
	err := persistence.LoadFromFile(filename, func(r io.Reader) error {
		l, loadErr := persistence.Load(r, loadOptionsFrom(opts)...)
		if loadErr != nil {
			return loadErr
		}
		loaded = l
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return fromLoaded(loaded, opts)
}

// LoadLegacy reads the headerless V0 format, which carries no
// magic/version/space/dimension/storage-kind preamble; the caller must
// supply those out-of-band.
func LoadLegacy(r io.Reader, space Space, dimension int, storageKind scalar.Kind, opts ...Option) (*Index, error) {
	loaded, err := persistence.LoadLegacy(r, space, dimension, storageKind)
	if err != nil {
		return nil, translateErr(err)
	}
	return fromLoaded(loaded, opts)
}

func fromLoaded(loaded *persistence.Loaded, opts []Option) (*Index, error) {
	o := applyOptions(opts)
	o.m = int(loaded.Header.M)
	o.efConstruction = int(loaded.Header.EfConstruction)
	o.storageKind = loaded.Header.StorageKind

	return &Index{
		opts:   o,
		store:  loaded.Store,
		labels: loaded.Labels,
		graph:  loaded.Graph,
		pool:   engine.NewWorkerPool(o.numWorkers),
	}, nil
}

// Close releases the index's worker pool, waiting for in-flight batch
// work to finish. After Close, Add, AddBatch, Query, QueryBatch, Delete,
// Undelete and the Save family return ErrClosed and GetVector reports
// false; Len, Cap, Dimension, Stats and LevelHistogram still report the
// last state. A second Close is a no-op.
func (idx *Index) Close() error {
	idx.mu.Lock()
	if idx.closed {
		idx.mu.Unlock()
		return nil
	}
	idx.closed = true
	idx.mu.Unlock()

	idx.pool.Close()
	return nil
}

// Stats reports aggregate structural information useful for tuning M and
// ef_construction.
type Stats struct {
	Len            int
	Cap            int
	Dimension      int
	M              int
	EfConstruction int
	TopLevel       int
	HasEntryPoint  bool
}

// Stats returns a snapshot of the index's current structural state.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	_, topLevel, hasEntry := idx.graph.EntryPoint()
	cfg := idx.graph.Config()
	return Stats{
		Len:            idx.graph.Len(),
		Cap:            idx.graph.Cap(),
		Dimension:      idx.store.Dimension(),
		M:              cfg.M,
		EfConstruction: cfg.EfConstruction,
		TopLevel:       topLevel,
		HasEntryPoint:  hasEntry,
	}
}

// LevelHistogram reports the number of nodes assigned to each level, from
// 0 up to the graph's current top level.
func (idx *Index) LevelHistogram() []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hist := make([]int, 1)
	for id := 0; id < idx.graph.Cap(); id++ {
		lvl := idx.graph.NodeLevel(core.LocalID(id))
		for len(hist) <= lvl {
			hist = append(hist, 0)
		}
		hist[lvl]++
	}
	return hist
}

// translateErr maps an internal package error into the public taxonomy
// (ErrInvalidArgument, ErrNotFound, ErrFormat) where a direct mapping
// exists, leaving anything else unwrapped.
func translateErr(err error) error {
	if err == nil {
		return nil
	}

	var labelExists *label.ErrLabelExists
	if errors.As(err, &labelExists) {
		return fmt.Errorf("%w: %w: label %d", ErrInvalidArgument, ErrLabelExists, labelExists.Label)
	}

	var outOfRange *scalar.OutOfRangeError
	if errors.As(err, &outOfRange) {
		return &OutOfRangeError{Value: outOfRange.Value, Kind: outOfRange.Kind.String(), Min: outOfRange.Min, Max: outOfRange.Max}
	}

	if errors.Is(err, vectorstore.ErrWrongDimension) {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	if errors.Is(err, label.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	if errors.Is(err, persistence.ErrFormat) {
		return formatErrorf("%v", err)
	}

	return err
}
