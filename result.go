package scriptmetric

import (
	gojson "github.com/goccy/go-json"

	"github.com/hupe1980/scriptmetric/script"
	"github.com/hupe1980/scriptmetric/value"
)

// Result is the per-bucket output of a scripted metric aggregation.
type Result struct {
	// Name is the aggregation name.
	Name string
	// Value is the combine output, or the bucket state without a combine
	// script. Null for BuildEmptyAggregation.
	Value value.Value
	// Reduce merges results across shards. It may be nil.
	Reduce script.ReduceScript
	// Metadata is attached unchanged from WithMetadata.
	Metadata map[string]any
}

// MarshalJSON implements json.Marshaler. The reduce script is not encoded.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := struct {
		Name     string         `json:"name"`
		Value    any            `json:"value"`
		Metadata map[string]any `json:"meta,omitempty"`
	}{
		Name:     r.Name,
		Value:    value.ToAny(r.Value),
		Metadata: r.Metadata,
	}
	return gojson.Marshal(out)
}

// ReduceResults runs the reduce script carried by results[0] over the values
// of all results. It returns the values as a list when no reduce script is
// configured.
func ReduceResults(results []*Result) (value.Value, error) {
	states := make([]value.Value, len(results))
	for i, r := range results {
		states[i] = r.Value
	}
	if len(results) == 0 || results[0].Reduce == nil {
		return value.FromList(value.NewList(states...)), nil
	}
	out, err := results[0].Reduce.Execute(states)
	if err != nil {
		return value.Null(), err
	}
	if err := value.EnsureNoSelfReferences(out, LabelReduceScript); err != nil {
		return value.Null(), err
	}
	return out, nil
}
