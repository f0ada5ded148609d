package scriptmetric

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/scriptmetric/codec"
	"github.com/hupe1980/scriptmetric/resource"
	"github.com/hupe1980/scriptmetric/script"
	"github.com/hupe1980/scriptmetric/value"
)

type testSegment int

func (s testSegment) Ord() int { return int(s) }

func countInit() *value.Map {
	return value.MapOf(map[string]value.Value{"count": value.Int(0)})
}

// incCount increments state.count by one per document.
var incCount = script.MapFunc(func(c *script.MapContext) error {
	v, _ := c.State.Get("count")
	n, _ := v.AsInt()
	c.State.Set("count", value.Int(n+1))
	return nil
})

func collectN(t *testing.T, lc *LeafCollector, ord int64, n int) {
	t.Helper()
	for doc := range n {
		require.NoError(t, lc.Collect(doc, ord))
	}
}

func countOf(t *testing.T, res *Result) int64 {
	t.Helper()
	m, ok := res.Value.AsMap()
	require.True(t, ok, "result is %s", res.Value)
	v, ok := m.Get("count")
	require.True(t, ok)
	n, ok := v.AsInt()
	require.True(t, ok)
	return n
}

func TestNew_RequiresMapScript(t *testing.T) {
	_, err := New("x", nil)
	assert.ErrorIs(t, err, ErrNoMapScript)
}

func TestAggregator_CountPerBucket(t *testing.T) {
	agg, err := New("doc_count", incCount, WithInitialState(countInit()))
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	collectN(t, lc, 0, 5)
	collectN(t, lc, 1, 3)

	for ord, want := range []int64{5, 3, 0} {
		res, err := agg.BuildAggregation(t.Context(), int64(ord))
		require.NoError(t, err)
		assert.Equal(t, want, countOf(t, res), "ordinal %d", ord)
		assert.Equal(t, "doc_count", res.Name)
	}
}

func TestAggregator_Combine(t *testing.T) {
	double := script.CombineFunc(func(_ *value.Map, state *value.Map) (value.Value, error) {
		v, _ := state.Get("count")
		n, _ := v.AsInt()
		return value.Int(n * 2), nil
	})
	agg, err := New("doubled", incCount,
		WithInitialState(countInit()),
		WithCombine(double, nil),
	)
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	collectN(t, lc, 0, 4)

	res, err := agg.BuildAggregation(t.Context(), 0)
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Int(8), res.Value), "got %s", res.Value)

	res, err = agg.BuildAggregation(t.Context(), 7)
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Int(0), res.Value))
}

func TestAggregator_UntouchedMatchesFreshEngine(t *testing.T) {
	combine := script.CombineFunc(func(params *value.Map, state *value.Map) (value.Value, error) {
		out := value.CopyMap(state)
		out.Set("params", value.FromMap(params))
		return value.FromMap(out), nil
	})
	newAgg := func() *Aggregator {
		agg, err := New("x", incCount,
			WithInitialState(countInit()),
			WithCombine(combine, value.MapOf(map[string]value.Value{"factor": value.Int(3)})),
		)
		require.NoError(t, err)
		return agg
	}

	used := newAgg()
	defer used.Close()
	lc, err := used.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	for _, ord := range []int64{0, 2, 5, 2, 0} {
		require.NoError(t, lc.Collect(0, ord))
	}

	fresh := newAgg()
	defer fresh.Close()

	want, err := fresh.BuildAggregation(t.Context(), 0)
	require.NoError(t, err)
	for _, ord := range []int64{1, 3, 4, 6, 1000} {
		got, err := used.BuildAggregation(t.Context(), ord)
		require.NoError(t, err)
		assert.True(t, value.Equal(want.Value, got.Value), "ordinal %d", ord)
	}
}

func TestAggregator_ChargesOncePerBucket(t *testing.T) {
	var charges []int64
	breaker := BreakerFunc(func(bytes int64) error {
		charges = append(charges, bytes)
		return nil
	})
	metrics := &BasicMetricsCollector{}

	agg, err := New("x", incCount,
		WithBreaker(breaker),
		WithMetricsCollector(metrics),
	)
	require.NoError(t, err)
	defer agg.Close()

	for seg := range 3 {
		lc, err := agg.LeafCollector(t.Context(), testSegment(seg))
		require.NoError(t, err)
		for _, ord := range []int64{0, 1, 1, 4, 0, 4, 4} {
			require.NoError(t, lc.Collect(0, ord))
		}
	}

	assert.Equal(t, []int64{BucketCostEstimate, BucketCostEstimate, BucketCostEstimate}, charges)
	stats := agg.Stats()
	assert.Equal(t, 3, stats.Buckets)
	assert.Equal(t, 3*BucketCostEstimate, stats.ChargedBytes)
	assert.Equal(t, 3, stats.Segments)
	assert.GreaterOrEqual(t, stats.Capacity, 5)

	ms := metrics.GetStats()
	assert.Equal(t, int64(3), ms.BucketsCreated)
	assert.Equal(t, int64(21), ms.MapExecutions)
	assert.Equal(t, int64(0), ms.MapErrors)
}

func TestAggregator_CustomBucketCost(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	agg, err := New("x", incCount, WithBreaker(rc), WithBucketCost(100))
	require.NoError(t, err)

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	collectN(t, lc, 0, 10)
	collectN(t, lc, 9, 10)
	assert.Equal(t, int64(200), rc.MemoryUsage())

	require.NoError(t, agg.Close())
	assert.Equal(t, int64(0), rc.MemoryUsage(), "close releases charged bytes")
}

func TestAggregator_BudgetExceeded(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: BucketCostEstimate})
	metrics := &BasicMetricsCollector{}
	agg, err := New("x", incCount,
		WithInitialState(countInit()),
		WithBreaker(rc),
		WithMetricsCollector(metrics),
	)
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	collectN(t, lc, 0, 2)

	err = lc.Collect(2, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

	var oe *OrdinalError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, int64(1), oe.Ordinal)

	res, err := agg.BuildAggregation(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), countOf(t, res))
	assert.Equal(t, 1, agg.Stats().Buckets)
	assert.Equal(t, int64(1), metrics.GetStats().BudgetExceeded)
}

func TestAggregator_BudgetExceededOnSecondBucket(t *testing.T) {
	boom := errors.New("budget exhausted")
	calls := 0
	breaker := BreakerFunc(func(int64) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	agg, err := New("x", incCount, WithInitialState(countInit()), WithBreaker(breaker))
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	require.NoError(t, lc.Collect(0, 0))
	err = lc.Collect(1, 1)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrBudgetExceeded)

	res, err := agg.BuildAggregation(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), countOf(t, res))
}

func TestAggregator_Isolation(t *testing.T) {
	initial := value.NewMap()
	initial.Set("items", value.FromList(value.NewList()))
	mapParams := value.MapOf(map[string]value.Value{"seen": value.FromList(value.NewList())})
	combineParams := value.MapOf(map[string]value.Value{"calls": value.Int(0)})

	mapScript := script.MapFunc(func(c *script.MapContext) error {
		items, _ := c.State.Get("items")
		l, _ := items.AsList()
		l.Append(value.Int(int64(c.Doc)))

		seen, _ := c.Params.Get("seen")
		sl, _ := seen.AsList()
		sl.Append(value.Int(int64(c.Doc)))
		return nil
	})
	combine := script.CombineFunc(func(params *value.Map, state *value.Map) (value.Value, error) {
		v, _ := params.Get("calls")
		n, _ := v.AsInt()
		params.Set("calls", value.Int(n+1))
		seen, _ := state.Get("items")
		l, _ := seen.AsList()
		return value.FromAny(map[string]any{
			"items": value.FromList(l),
			"calls": n + 1,
		}), nil
	})

	agg, err := New("x", mapScript,
		WithInitialState(initial),
		WithMapParams(mapParams),
		WithCombine(combine, combineParams),
	)
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	require.NoError(t, lc.Collect(1, 0))
	require.NoError(t, lc.Collect(2, 0))
	require.NoError(t, lc.Collect(3, 1))

	r0, err := agg.BuildAggregation(t.Context(), 0)
	require.NoError(t, err)
	r1, err := agg.BuildAggregation(t.Context(), 1)
	require.NoError(t, err)
	r0again, err := agg.BuildAggregation(t.Context(), 0)
	require.NoError(t, err)

	assert.True(t, value.Equal(value.FromAny(map[string]any{"items": []any{1, 2}, "calls": 1}), r0.Value), "got %v", value.ToAny(r0.Value))
	assert.True(t, value.Equal(value.FromAny(map[string]any{"items": []any{3}, "calls": 1}), r1.Value), "got %v", value.ToAny(r1.Value))
	assert.True(t, value.Equal(r0.Value, r0again.Value), "combine params are fresh per build")

	// Templates are untouched.
	items, _ := initial.Get("items")
	l, _ := items.AsList()
	assert.Equal(t, 0, l.Len())
	seen, _ := mapParams.Get("seen")
	sl, _ := seen.AsList()
	assert.Equal(t, 0, sl.Len())
	calls, _ := combineParams.Get("calls")
	assert.True(t, value.Equal(value.Int(0), calls))
}

func TestAggregator_CustomCopier(t *testing.T) {
	copies := 0
	copier := Copier(func(m *value.Map) *value.Map {
		copies++
		return value.CopyMap(m)
	})
	agg, err := New("x", incCount,
		WithInitialState(countInit()),
		WithMapParams(value.NewMap()),
		WithCopier(copier),
	)
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	collectN(t, lc, 0, 3)
	collectN(t, lc, 1, 3)
	// state + params per bucket
	assert.Equal(t, 4, copies)
}

// segmentRecorder builds leaf scripts that record the segment they were
// bound to.
type segmentRecorder struct {
	instances []script.Segment
}

func (r *segmentRecorder) NewFactory(_ *value.Map, state *value.Map, _ script.Lookup) (script.MapLeafFactory, error) {
	return &recorderLeaf{r: r, state: state}, nil
}

type recorderLeaf struct {
	r     *segmentRecorder
	state *value.Map
}

func (l *recorderLeaf) NewInstance(seg script.Segment) (script.MapScript, error) {
	l.r.instances = append(l.r.instances, seg)
	return &recorderScript{seg: seg, state: l.state}, nil
}

type recorderScript struct {
	seg    script.Segment
	state  *value.Map
	doc    int
	scorer script.Scorer
}

func (s *recorderScript) SetScorer(scorer script.Scorer) { s.scorer = scorer }
func (s *recorderScript) SetDocument(doc int) error     { s.doc = doc; return nil }
func (s *recorderScript) Execute() error {
	score, err := s.scorer.Score()
	if err != nil {
		return err
	}
	s.state.Set("segment", value.Int(int64(s.seg.Ord())))
	s.state.Set("doc", value.Int(int64(s.doc)))
	s.state.Set("score", value.Float(float64(score)))
	return nil
}

func TestAggregator_SegmentInvalidation(t *testing.T) {
	rec := &segmentRecorder{}
	agg, err := New("x", rec)
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	lc.SetScorer(script.ConstantScorer(1))
	require.NoError(t, lc.Collect(0, 0))
	require.NoError(t, lc.Collect(1, 0))
	require.NoError(t, lc.Collect(2, 1))
	assert.Equal(t, []script.Segment{testSegment(0), testSegment(0)}, rec.instances, "one instance per bucket per segment")

	// Bucket 1 is not touched in segment 1, bucket 0 is.
	lc, err = agg.LeafCollector(t.Context(), testSegment(1))
	require.NoError(t, err)
	lc.SetScorer(script.ConstantScorer(2))
	require.NoError(t, lc.Collect(5, 0))
	assert.Equal(t, testSegment(1), rec.instances[2])
	assert.Len(t, rec.instances, 3)

	res, err := agg.BuildAggregation(t.Context(), 0)
	require.NoError(t, err)
	assert.True(t, value.Equal(value.FromAny(map[string]any{"segment": 1, "doc": 5, "score": 2.0}), res.Value))

	// Bucket 1 skipped segment 1; in segment 2 it must rebuild too.
	lc, err = agg.LeafCollector(t.Context(), testSegment(2))
	require.NoError(t, err)
	lc.SetScorer(script.ConstantScorer(3))
	require.NoError(t, lc.Collect(0, 1))
	assert.Equal(t, testSegment(2), rec.instances[3])

	res, err = agg.BuildAggregation(t.Context(), 1)
	require.NoError(t, err)
	assert.True(t, value.Equal(value.FromAny(map[string]any{"segment": 2, "doc": 0, "score": 3.0}), res.Value))
}

func TestAggregator_MapSelfReference(t *testing.T) {
	selfRef := script.MapFunc(func(c *script.MapContext) error {
		c.State.Set("me", value.FromMap(c.State))
		return nil
	})
	agg, err := New("x", selfRef)
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	require.NoError(t, lc.Collect(0, 0))

	_, err = agg.BuildAggregation(t.Context(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSelfReference)

	var sre *SelfReferenceError
	require.ErrorAs(t, err, &sre)
	assert.Equal(t, LabelMapScript, sre.Label)
}

func TestAggregator_CombineSelfReference(t *testing.T) {
	combine := script.CombineFunc(func(_ *value.Map, state *value.Map) (value.Value, error) {
		l := value.NewList()
		l.Append(value.FromList(l))
		return value.FromList(l), nil
	})
	agg, err := New("x", incCount, WithCombine(combine, nil))
	require.NoError(t, err)
	defer agg.Close()

	_, err = agg.BuildAggregation(t.Context(), 0)
	var sre *SelfReferenceError
	require.ErrorAs(t, err, &sre)
	assert.Equal(t, LabelCombineScript, sre.Label)
}

func TestAggregator_NotWriteable(t *testing.T) {
	combine := script.CombineFunc(func(*value.Map, *value.Map) (value.Value, error) {
		return value.Opaque(func() {}), nil
	})
	agg, err := New("x", incCount, WithCombine(combine, nil), WithCodec(codec.JSON{}))
	require.NoError(t, err)
	defer agg.Close()

	_, err = agg.BuildAggregation(t.Context(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotWriteable)

	var nwe *NotWriteableError
	require.ErrorAs(t, err, &nwe)
	assert.Equal(t, "func()", nwe.Description)
}

func TestAggregator_ScriptErrorsPropagate(t *testing.T) {
	boom := errors.New("script failed")
	failing := script.MapFunc(func(c *script.MapContext) error {
		if c.Doc == 2 {
			return boom
		}
		return nil
	})
	metrics := &BasicMetricsCollector{}
	agg, err := New("x", failing, WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	require.NoError(t, lc.Collect(1, 0))
	err = lc.Collect(2, 0)
	assert.Same(t, boom, err)
	assert.Equal(t, int64(1), metrics.GetStats().MapErrors)

	combineErr := errors.New("combine failed")
	agg2, err := New("y", incCount, WithCombine(script.CombineFunc(func(*value.Map, *value.Map) (value.Value, error) {
		return value.Null(), combineErr
	}), nil), WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer agg2.Close()

	_, err = agg2.BuildAggregation(t.Context(), 0)
	assert.ErrorIs(t, err, combineErr)
	assert.Equal(t, int64(1), metrics.GetStats().BuildErrors)
}

func TestAggregator_BuildAggregationsNoPartialResults(t *testing.T) {
	combine := script.CombineFunc(func(_ *value.Map, state *value.Map) (value.Value, error) {
		if _, ok := state.Get("bad"); ok {
			return value.Opaque(make(chan int)), nil
		}
		return value.FromMap(state), nil
	})
	mark := script.MapFunc(func(c *script.MapContext) error {
		if c.Doc == 99 {
			c.State.Set("bad", value.Bool(true))
		}
		return nil
	})
	agg, err := New("x", mark, WithCombine(combine, nil))
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	require.NoError(t, lc.Collect(1, 0))
	require.NoError(t, lc.Collect(99, 1))

	results, err := agg.BuildAggregations(t.Context(), []int64{0, 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = agg.BuildAggregations(t.Context(), []int64{0, 1, 2})
	assert.ErrorIs(t, err, ErrNotWriteable)
	assert.Nil(t, results)
}

func TestAggregator_BuildEmptyAggregation(t *testing.T) {
	reduce := script.ReduceFunc(func(states []value.Value) (value.Value, error) {
		return value.Int(int64(len(states))), nil
	})
	md := map[string]any{"owner": "test"}
	agg, err := New("x", incCount, WithReduce(reduce), WithMetadata(md))
	require.NoError(t, err)

	res := agg.BuildEmptyAggregation()
	assert.True(t, res.Value.IsNull())
	assert.NotNil(t, res.Reduce)
	assert.Equal(t, md, res.Metadata)

	full, err := agg.BuildAggregation(t.Context(), 0)
	require.NoError(t, err)
	m, ok := full.Value.AsMap()
	require.True(t, ok, "an untouched bucket yields an empty map, not null")
	assert.Equal(t, 0, m.Len())
}

func TestAggregator_NegativeOrdinal(t *testing.T) {
	agg, err := New("x", incCount)
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	assert.ErrorIs(t, lc.Collect(0, -1), ErrNegativeOrdinal)
	_, err = agg.BuildAggregation(t.Context(), -1)
	assert.ErrorIs(t, err, ErrNegativeOrdinal)
}

func TestAggregator_OrdinalOutOfRange(t *testing.T) {
	var charges int
	agg, err := New("x", incCount,
		WithInitialState(countInit()),
		WithBreaker(BreakerFunc(func(int64) error {
			charges++
			return nil
		})),
	)
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)

	for _, ord := range []int64{MaxOrdinal + 1, 1 << 40, math.MaxInt64 - 100, math.MaxInt64} {
		assert.NotPanics(t, func() {
			err := lc.Collect(0, ord)
			assert.ErrorIs(t, err, ErrOrdinalOutOfRange, "ordinal %d", ord)

			var oe *OrdinalError
			if assert.ErrorAs(t, err, &oe) {
				assert.Equal(t, ord, oe.Ordinal)
			}
		})

		res, err := agg.BuildAggregation(t.Context(), ord)
		require.NoError(t, err)
		assert.Equal(t, int64(0), countOf(t, res))
	}

	assert.Equal(t, 0, charges, "rejected ordinals are never charged")
	assert.Equal(t, 0, agg.Stats().Buckets)
	assert.Less(t, agg.Stats().Capacity, 1<<20)

	require.NoError(t, lc.Collect(0, 3))
	assert.Equal(t, 1, charges)
}

// flakyFactory fails NewFactory the first fail times.
type flakyFactory struct {
	fail  int
	calls int
}

func (f *flakyFactory) NewFactory(params *value.Map, state *value.Map, lookup script.Lookup) (script.MapLeafFactory, error) {
	f.calls++
	if f.calls <= f.fail {
		return nil, errors.New("factory unavailable")
	}
	return incCount.NewFactory(params, state, lookup)
}

func TestAggregator_FailedStateConstructionIsNotCharged(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	var charges int
	breaker := BreakerFunc(func(bytes int64) error {
		charges++
		return rc.Charge(bytes)
	})
	factory := &flakyFactory{fail: 1}

	agg, err := New("x", factory, WithInitialState(countInit()), WithBreaker(breaker))
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)

	require.Error(t, lc.Collect(0, 0))
	assert.Equal(t, 0, charges)
	assert.Equal(t, 0, agg.Stats().Buckets)

	require.NoError(t, lc.Collect(1, 0))
	require.NoError(t, lc.Collect(2, 0))
	assert.Equal(t, 1, charges, "one bucket is charged once")
	assert.Equal(t, BucketCostEstimate, agg.Stats().ChargedBytes)
	assert.Equal(t, BucketCostEstimate, rc.MemoryUsage())

	res, err := agg.BuildAggregation(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), countOf(t, res))
}

func TestAggregator_ZeroBucketCostStillConsultsBreaker(t *testing.T) {
	var charges []int64
	agg, err := New("x", incCount,
		WithBucketCost(0),
		WithBreaker(BreakerFunc(func(bytes int64) error {
			charges = append(charges, bytes)
			return nil
		})),
	)
	require.NoError(t, err)
	defer agg.Close()

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	for _, ord := range []int64{0, 2, 0, 2, 5} {
		require.NoError(t, lc.Collect(0, ord))
	}

	assert.Equal(t, []int64{0, 0, 0}, charges)
	assert.Equal(t, int64(0), agg.Stats().ChargedBytes)
}

func TestAggregator_Close(t *testing.T) {
	agg, err := New("x", incCount)
	require.NoError(t, err)

	lc, err := agg.LeafCollector(t.Context(), testSegment(0))
	require.NoError(t, err)
	require.NoError(t, lc.Collect(0, 0))

	require.NoError(t, agg.Close())
	require.NoError(t, agg.Close())

	assert.ErrorIs(t, lc.Collect(1, 0), ErrClosed)
	_, err = agg.LeafCollector(t.Context(), testSegment(1))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = agg.BuildAggregation(t.Context(), 0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, agg.Stats().Capacity)
}

func TestAggregator_NilSegment(t *testing.T) {
	agg, err := New("x", incCount)
	require.NoError(t, err)
	defer agg.Close()

	_, err = agg.LeafCollector(t.Context(), nil)
	assert.ErrorIs(t, err, ErrNilSegment)
}

func TestAggregator_NeedsScores(t *testing.T) {
	agg, err := New("x", incCount)
	require.NoError(t, err)
	assert.True(t, agg.NeedsScores())
	assert.Equal(t, "x", agg.Name())
}
