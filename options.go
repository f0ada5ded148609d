package scriptmetric

import (
	"log/slog"

	"github.com/hupe1980/scriptmetric/codec"
	"github.com/hupe1980/scriptmetric/script"
	"github.com/hupe1980/scriptmetric/value"
)

// BucketCostEstimate is the default number of bytes charged per bucket.
//
// Script state is held in untracked dynamic structures, so its real size is
// unknown. Each bucket is charged this flat amount once, on creation.
const BucketCostEstimate int64 = 5 * 1024

// Breaker is the memory budget a bucket charge is reported to.
// Charge must fail without reserving anything when the budget is exhausted.
type Breaker interface {
	Charge(bytes int64) error
}

// Releaser is implemented by breakers that take back charged bytes.
// Close releases everything the aggregator charged.
type Releaser interface {
	Release(bytes int64)
}

// BreakerFunc adapts a function to Breaker.
type BreakerFunc func(bytes int64) error

// Charge implements Breaker.
func (f BreakerFunc) Charge(bytes int64) error { return f(bytes) }

// Copier produces a mutation-isolated copy of a parameter or state template.
// It is never called with nil.
type Copier func(m *value.Map) *value.Map

type options struct {
	initialState     *value.Map
	mapParams        *value.Map
	combine          script.CombineFactory
	combineParams    *value.Map
	reduce           script.ReduceScript
	lookup           script.Lookup
	breaker          Breaker
	bucketCost       int64
	copier           Copier
	codec            codec.Codec
	metadata         map[string]any
	metricsCollector MetricsCollector
	logger           *Logger
}

func defaultOptions() options {
	return options{
		bucketCost:       BucketCostEstimate,
		copier:           value.CopyMap,
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}

// Option configures an Aggregator.
type Option func(*options)

// WithInitialState sets the template every bucket's state starts from.
// Each bucket gets its own deep copy. Without it, buckets start empty.
func WithInitialState(state *value.Map) Option {
	return func(o *options) {
		o.initialState = state
	}
}

// WithMapParams sets the parameters passed to the map script.
// Each bucket gets its own deep copy, since the script may mutate them.
func WithMapParams(params *value.Map) Option {
	return func(o *options) {
		o.mapParams = params
	}
}

// WithCombine configures the combine phase. Every result extraction gets a
// fresh deep copy of params. Without a combine script, a bucket's result is
// its state.
func WithCombine(factory script.CombineFactory, params *value.Map) Option {
	return func(o *options) {
		o.combine = factory
		o.combineParams = params
	}
}

// WithReduce sets the reduce script carried on results for the layer that
// merges shard results.
func WithReduce(reduce script.ReduceScript) Option {
	return func(o *options) {
		o.reduce = reduce
	}
}

// WithLookup sets the document field lookup handed to map scripts.
func WithLookup(lookup script.Lookup) Option {
	return func(o *options) {
		o.lookup = lookup
	}
}

// WithBreaker sets the memory budget bucket charges are reported to.
// Pass nil to disable accounting.
//
// Example with a shared request budget:
//
//	budget := resource.NewController(resource.Config{MemoryLimitBytes: 64 << 20})
//	agg, _ := scriptmetric.New("profit", mapScript, scriptmetric.WithBreaker(budget))
func WithBreaker(b Breaker) Option {
	return func(o *options) {
		o.breaker = b
	}
}

// WithBucketCost overrides the per-bucket charge. Negative values are
// treated as zero. The breaker is still called once per new bucket when the
// cost is zero, so it can veto bucket creation on its own terms.
func WithBucketCost(bytes int64) Option {
	return func(o *options) {
		if bytes < 0 {
			bytes = 0
		}
		o.bucketCost = bytes
	}
}

// WithCopier overrides the deep-copy used for initial state and parameters.
// If nil is passed, value.CopyMap is used.
func WithCopier(c Copier) Option {
	return func(o *options) {
		if c == nil {
			c = value.CopyMap
		}
		o.copier = c
	}
}

// WithCodec sets the transport codec results must be representable in.
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetadata attaches opaque metadata to every result.
func WithMetadata(md map[string]any) Option {
	return func(o *options) {
		o.metadata = md
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &scriptmetric.BasicMetricsCollector{}
//	agg, _ := scriptmetric.New("profit", mapScript, scriptmetric.WithMetricsCollector(metrics))
//	// ... collect, build ...
//	stats := metrics.GetStats()
//	fmt.Printf("Buckets: %d, Charged: %d bytes\n", stats.BucketsCreated, stats.ChargedBytes)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := scriptmetric.NewJSONLogger(slog.LevelDebug)
//	agg, _ := scriptmetric.New("profit", mapScript, scriptmetric.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}
