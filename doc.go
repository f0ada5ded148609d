// Package scriptmetric implements the per-bucket state engine of a scripted
// metric aggregation.
//
// A scripted metric computes an arbitrary value per bucket from user scripts.
// The aggregation framework assigns every matching document a bucket ordinal
// and streams it through a LeafCollector; the Aggregator keeps one
// accumulator per ordinal and runs the scripts through three phases:
//
//   - map: once per document, mutates the bucket's state in place
//   - combine: once per bucket at result time, turns the state into a result
//   - reduce: across shards, carried on the Result for the layer above
//
// # Quick Start
//
//	agg, _ := scriptmetric.New("doc_count",
//	    script.MapFunc(func(c *script.MapContext) error {
//	        n, _ := c.State.Get("count")
//	        i, _ := n.AsInt()
//	        c.State.Set("count", value.Int(i+1))
//	        return nil
//	    }),
//	    scriptmetric.WithInitialState(value.MapOf(map[string]value.Value{
//	        "count": value.Int(0),
//	    })),
//	)
//	defer agg.Close()
//
//	for _, seg := range segments {
//	    lc, _ := agg.LeafCollector(ctx, seg)
//	    lc.SetScorer(scorer)
//	    for doc, ord := range matches(seg) {
//	        if err := lc.Collect(doc, ord); err != nil {
//	            return err
//	        }
//	    }
//	}
//	res, _ := agg.BuildAggregation(ctx, 0) // {"count": N}
//
// # Bucket State
//
// Bucket states live in a sparse array indexed by ordinal that only grows.
// A state is created on the first document of its bucket: its accumulator
// starts as a deep copy of the initial-state template (or an empty map), and
// its map script gets a deep copy of the map params. Creation charges
// BucketCostEstimate bytes to the configured Breaker, once per bucket. A
// rejected charge fails the Collect call with ErrBudgetExceeded and leaves
// existing buckets untouched.
//
// Map script instances are bound to a segment. Entering a segment drops
// every bucket's instance; a bucket rebuilds it on its next document.
//
// # Results
//
// BuildAggregation rejects states and combine outputs that contain
// themselves (ErrSelfReference) and results the configured codec cannot
// encode (ErrNotWriteable). A bucket that never received a document yields
// the result of a fresh initial state.
//
// # Thread Safety
//
// An Aggregator belongs to one query execution on one goroutine. Separate
// aggregators share nothing and may run in parallel, including against a
// shared resource.Controller.
package scriptmetric
