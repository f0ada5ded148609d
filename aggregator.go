package scriptmetric

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/scriptmetric/codec"
	"github.com/hupe1980/scriptmetric/internal/container"
	"github.com/hupe1980/scriptmetric/script"
	"github.com/hupe1980/scriptmetric/value"
)

// Aggregator holds the per-bucket state of one scripted metric aggregation
// for one query execution.
//
// Aggregator is NOT thread-safe. The framework driving it must not call
// LeafCollector, Collect or BuildAggregation concurrently on one instance.
// Separate instances share nothing and may run in parallel.
type Aggregator struct {
	name       string
	mapFactory script.MapFactory
	opts       options
	logger     *Logger

	states *container.ObjectArray[*bucketState]

	buckets  int
	charged  int64
	segments int
	closed   bool
}

// bucketState is the accumulator of one bucket ordinal. It is created on the
// first document collected into the bucket and never replaced.
type bucketState struct {
	aggState   *value.Map
	mapFactory script.MapLeafFactory
	// leafMap is bound to the current segment. Cleared on segment entry,
	// rebuilt on the next document for this bucket.
	leafMap script.MapScript
}

// Stats describes an aggregator's storage.
type Stats struct {
	// Buckets is the number of bucket states created.
	Buckets int
	// ChargedBytes is the total charged to the breaker.
	ChargedBytes int64
	// Segments is the number of segments entered.
	Segments int
	// Capacity is the number of addressable bucket slots.
	Capacity int
}

// MaxOrdinal is the largest bucket ordinal an Aggregator can address.
const MaxOrdinal int64 = container.MaxSize - 1

// New creates an aggregator named name that runs mapFactory for every
// collected document.
func New(name string, mapFactory script.MapFactory, optFns ...Option) (*Aggregator, error) {
	if mapFactory == nil {
		return nil, ErrNoMapScript
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Aggregator{
		name:       name,
		mapFactory: mapFactory,
		opts:       opts,
		logger:     opts.logger.WithAggregation(name, uuid.NewString()),
		states:     container.NewObjectArray[*bucketState](1),
	}, nil
}

// Name returns the aggregation name.
func (a *Aggregator) Name() string { return a.name }

// NeedsScores reports whether documents must be collected with scores.
// The map script may read the score, and whether it does is unknown.
func (a *Aggregator) NeedsScores() bool { return true }

// Stats returns a snapshot of the aggregator's storage.
func (a *Aggregator) Stats() Stats {
	return Stats{
		Buckets:      a.buckets,
		ChargedBytes: a.charged,
		Segments:     a.segments,
		Capacity:     a.states.Size(),
	}
}

// LeafCollector prepares collection of seg and returns its collector.
//
// Every existing bucket drops its map script instance for the previous
// segment; buckets rebuild one lazily on their first document in seg.
func (a *Aggregator) LeafCollector(ctx context.Context, seg script.Segment) (*LeafCollector, error) {
	if a.closed {
		return nil, ErrClosed
	}
	if seg == nil {
		return nil, ErrNilSegment
	}

	a.states.Range(func(_ int, st *bucketState) bool {
		st.leafMap = nil
		return true
	})
	a.segments++
	a.logger.LogSegment(ctx, seg.Ord(), a.buckets)

	return &LeafCollector{ctx: ctx, agg: a, seg: seg}, nil
}

// stateFor returns the state of bucket ord, creating and charging it on
// first use. The state is built before the charge and stored only once the
// charge succeeds, so a failure at either step leaves nothing behind.
func (a *Aggregator) stateFor(ctx context.Context, ord int64) (*bucketState, error) {
	if err := checkOrdinal(ord); err != nil {
		return nil, err
	}
	idx := int(ord)
	if err := a.states.Grow(idx + 1); err != nil {
		return nil, &OrdinalError{Ordinal: ord, cause: err}
	}
	if st, ok := a.states.Get(idx); ok {
		return st, nil
	}

	st, err := a.newBucketState()
	if err != nil {
		return nil, err
	}
	if err := a.charge(ctx, ord); err != nil {
		return nil, err
	}
	a.states.Set(idx, st)
	a.buckets++
	a.logger.LogBucketCreated(ctx, ord, a.opts.bucketCost)
	return st, nil
}

func checkOrdinal(ord int64) error {
	if ord < 0 {
		return &OrdinalError{Ordinal: ord, cause: ErrNegativeOrdinal}
	}
	if ord > MaxOrdinal {
		return &OrdinalError{Ordinal: ord, cause: ErrOrdinalOutOfRange}
	}
	return nil
}

// charge reports one new bucket to the breaker. The breaker is consulted for
// every new bucket, even with a zero cost.
func (a *Aggregator) charge(ctx context.Context, ord int64) error {
	cost := a.opts.bucketCost
	if a.opts.breaker != nil {
		if err := a.opts.breaker.Charge(cost); err != nil {
			a.opts.metricsCollector.RecordBudgetExceeded()
			a.logger.LogBudgetExceeded(ctx, ord, err)
			return budgetError(ord, err)
		}
	}
	a.charged += cost
	a.opts.metricsCollector.RecordBucketCreated(cost)
	return nil
}

func (a *Aggregator) newBucketState() (*bucketState, error) {
	aggState := a.newInitialState()
	// Map scripts may mutate their params, so every bucket gets its own copy.
	leafFactory, err := a.mapFactory.NewFactory(a.copyParams(a.opts.mapParams), aggState, a.opts.lookup)
	if err != nil {
		return nil, err
	}
	return &bucketState{
		aggState:   aggState,
		mapFactory: leafFactory,
	}, nil
}

func (a *Aggregator) newInitialState() *value.Map {
	if a.opts.initialState == nil {
		return value.NewMap()
	}
	return a.opts.copier(a.opts.initialState)
}

func (a *Aggregator) copyParams(params *value.Map) *value.Map {
	if params == nil {
		return value.NewMap()
	}
	return a.opts.copier(params)
}

// BuildAggregation extracts the result of bucket ord.
//
// A bucket that never received a document yields the result of a fresh
// initial state. Must be called after collection of the whole query has
// finished.
func (a *Aggregator) BuildAggregation(ctx context.Context, ord int64) (*Result, error) {
	start := time.Now()
	res, err := a.buildAggregation(ord)
	a.opts.metricsCollector.RecordBuild(time.Since(start), err)
	a.logger.LogBuild(ctx, ord, err)
	return res, err
}

// BuildAggregations extracts the results of several buckets. There are no
// partial results: the first failure fails the whole call.
func (a *Aggregator) BuildAggregations(ctx context.Context, ords []int64) ([]*Result, error) {
	results := make([]*Result, 0, len(ords))
	for _, ord := range ords {
		res, err := a.BuildAggregation(ctx, ord)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (a *Aggregator) buildAggregation(ord int64) (*Result, error) {
	if a.closed {
		return nil, ErrClosed
	}
	if ord < 0 {
		return nil, &OrdinalError{Ordinal: ord, cause: ErrNegativeOrdinal}
	}

	aggState := a.aggStateFor(ord)
	// The last script that touched the state is the map script.
	if err := value.EnsureNoSelfReferences(value.FromMap(aggState), LabelMapScript); err != nil {
		return nil, &OrdinalError{Ordinal: ord, cause: err}
	}

	result, err := a.resultFor(aggState)
	if err != nil {
		return nil, &OrdinalError{Ordinal: ord, cause: err}
	}

	if err := codec.CheckWriteable(a.opts.codec, result); err != nil {
		return nil, &OrdinalError{Ordinal: ord, cause: err}
	}

	return a.newResult(result), nil
}

func (a *Aggregator) aggStateFor(ord int64) *value.Map {
	// An ordinal above MaxOrdinal was never created.
	if ord > MaxOrdinal {
		return a.newInitialState()
	}
	st, ok := a.states.Get(int(ord))
	if !ok {
		return a.newInitialState()
	}
	return st.aggState
}

func (a *Aggregator) resultFor(aggState *value.Map) (value.Value, error) {
	if a.opts.combine == nil {
		return value.FromMap(aggState), nil
	}

	// Combine scripts may mutate their params too.
	cs, err := a.opts.combine.NewInstance(a.copyParams(a.opts.combineParams), aggState)
	if err != nil {
		return value.Null(), err
	}
	result, err := cs.Execute()
	if err != nil {
		return value.Null(), err
	}
	if err := value.EnsureNoSelfReferences(result, LabelCombineScript); err != nil {
		return value.Null(), err
	}
	return result, nil
}

// BuildEmptyAggregation returns the result used when the enclosing
// aggregation produced no buckets at all. It carries no value (null, which
// is distinct from an empty map) and still carries the reduce script.
func (a *Aggregator) BuildEmptyAggregation() *Result {
	return a.newResult(value.Null())
}

func (a *Aggregator) newResult(v value.Value) *Result {
	return &Result{
		Name:     a.name,
		Value:    v,
		Reduce:   a.opts.reduce,
		Metadata: a.opts.metadata,
	}
}

func (a *Aggregator) String() string {
	return fmt.Sprintf("scripted_metric[%s]", a.name)
}
