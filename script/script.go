// Package script defines the executable capabilities a scripted metric
// aggregation consumes.
//
// The aggregation never compiles or interprets user code itself. It is handed
// factories for three phases:
//
//   - map: run once per collected document, mutates the bucket's state
//   - combine: run once per bucket after collection, returns the bucket result
//   - reduce: run by the layer above over the combine results of all shards
//
// plus a Lookup that resolves document fields for the map phase. The Func
// adapters in this package turn plain Go functions into these capabilities;
// package celscript provides CEL-backed implementations.
package script

import (
	"github.com/hupe1980/scriptmetric/value"
)

// Segment is a contiguous unit of documents sharing one field reader.
// Document ids are local to their segment.
type Segment interface {
	// Ord is the position of the segment within its index.
	Ord() int
}

// Scorer exposes the relevance score of the current document.
type Scorer interface {
	Score() (float32, error)
}

// ConstantScorer is a Scorer that always returns the same score.
type ConstantScorer float32

// Score implements Scorer.
func (s ConstantScorer) Score() (float32, error) { return float32(s), nil }

// Lookup resolves document fields. It is constant for an aggregation's
// lifetime; Leaf binds it to one segment.
type Lookup interface {
	Leaf(seg Segment) (LeafLookup, error)
}

// LeafLookup reads fields of documents within one segment.
type LeafLookup interface {
	// SetDocument positions the lookup on a segment-local document id.
	SetDocument(doc int) error
	// Field returns the value of the named field of the current document.
	// Returned values are owned by the lookup and must not be mutated.
	Field(name string) (value.Value, bool)
	// Fields returns the names of the fields present on the current document.
	Fields() []string
}

// MapFactory builds a per-bucket map script factory.
//
// params is a private copy for this bucket and may be mutated by the script.
// state is the bucket's accumulator; the script mutates it in place.
type MapFactory interface {
	NewFactory(params *value.Map, state *value.Map, lookup Lookup) (MapLeafFactory, error)
}

// MapLeafFactory binds a bucket's map script to a segment.
type MapLeafFactory interface {
	NewInstance(seg Segment) (MapScript, error)
}

// MapScript is a map script bound to one bucket and one segment.
type MapScript interface {
	SetScorer(scorer Scorer)
	SetDocument(doc int) error
	Execute() error
}

// CombineFactory builds the combine script for one bucket.
//
// params is a private copy and may be mutated by the script.
type CombineFactory interface {
	NewInstance(params *value.Map, state *value.Map) (CombineScript, error)
}

// CombineScript turns a bucket's accumulator into its result.
type CombineScript interface {
	Execute() (value.Value, error)
}

// ReduceScript merges combine results from every shard into the final value.
// It is carried on results and invoked outside the aggregation.
type ReduceScript interface {
	Execute(states []value.Value) (value.Value, error)
}
