package hnswgo

import (
	"github.com/hupe1980/hnswgo/scalar"
)

// Defaults mirror the typical ranges a production HNSW deployment uses:
// M in [16, 48], ef_construction in [100, 400].
const (
	DefaultM              = 16
	DefaultEfConstruction = 200
	DefaultEf             = 64
)

type options struct {
	m              int
	efConstruction int
	ef             int
	seed           uint64
	storageKind    scalar.Kind
	numWorkers     int
	logger         *Logger
	metrics        MetricsCollector

	// expectedDimension is consulted only by Load/LoadCompressed/
	// LoadVerified; New ignores it.
	expectedDimension *int
}

// Option configures an Index at construction time.
type Option func(*options)

// WithM sets the target per-node degree (neighbors written at each level
// above 0). Typical range 16-48; higher values trade memory and build time
// for recall.
func WithM(m int) Option {
	return func(o *options) { o.m = m }
}

// WithEfConstruction sets the beam width used while inserting. Typical
// range 100-400; higher values trade build time for recall.
func WithEfConstruction(ef int) Option {
	return func(o *options) { o.efConstruction = ef }
}

// WithEf sets the default beam width Query uses when the caller doesn't
// supply QueryOption WithQueryEf. Must be >= k at query time; Query raises
// it to k automatically if not.
func WithEf(ef int) Option {
	return func(o *options) { o.ef = ef }
}

// WithSeed sets the seed the deterministic level-sampling PRNG derives
// from. Two indexes built with the same seed, M, and insertion order
// produce structurally identical graphs.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithStorageKind selects the scalar encoding vectors are quantized to.
// Defaults to scalar.KindFloat32 (no quantization).
func WithStorageKind(kind scalar.Kind) Option {
	return func(o *options) { o.storageKind = kind }
}

// WithNumWorkers sets the fixed worker pool size AddBatch/QueryBatch use
// to parallelize across items. A value <= 0 defaults to
// runtime.GOMAXPROCS(0).
func WithNumWorkers(n int) Option {
	return func(o *options) { o.numWorkers = n }
}

// WithLogger attaches structured logging. Pass nil to disable (the
// default).
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithMetricsCollector attaches a metrics collector. Pass nil to disable
// (the default).
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithExpectedDimension asserts, for Load/LoadCompressed/LoadVerified,
// that the stream's declared dimension equals dim; a mismatch returns a
// FormatError naming both values instead of silently loading a stream
// built for a different vector size. New ignores this option.
func WithExpectedDimension(dim int) Option {
	return func(o *options) { o.expectedDimension = &dim }
}

func defaultOptions() options {
	return options{
		m:              DefaultM,
		efConstruction: DefaultEfConstruction,
		ef:             DefaultEf,
		seed:           0,
		storageKind:    scalar.KindFloat32,
		numWorkers:     0,
		logger:         NoopLogger(),
		metrics:        NoopMetricsCollector{},
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// queryOptions holds the settings a QueryOption adjusts for one Query call.
type queryOptions struct {
	ef int
}

// QueryOption configures a single Query call.
type QueryOption func(*queryOptions)

// WithQueryEf overrides the index's default ef for this call.
func WithQueryEf(ef int) QueryOption {
	return func(o *queryOptions) { o.ef = ef }
}
