package script

import (
	"errors"

	"github.com/hupe1980/scriptmetric/value"
)

// MapContext is what a MapFunc sees for one document.
type MapContext struct {
	Params  *value.Map
	State   *value.Map
	Segment Segment
	Leaf    LeafLookup
	Doc     int
	Scorer  Scorer
}

// Score returns the current document's score, or 0 when no scorer is set.
func (c *MapContext) Score() (float32, error) {
	if c.Scorer == nil {
		return 0, nil
	}
	return c.Scorer.Score()
}

// Field reads a field of the current document. It reports false when no
// lookup is bound or the field is missing.
func (c *MapContext) Field(name string) (value.Value, bool) {
	if c.Leaf == nil {
		return value.Null(), false
	}
	return c.Leaf.Field(name)
}

// MapFunc adapts a Go function to MapFactory.
type MapFunc func(ctx *MapContext) error

// NewFactory implements MapFactory.
func (f MapFunc) NewFactory(params *value.Map, state *value.Map, lookup Lookup) (MapLeafFactory, error) {
	if f == nil {
		return nil, errors.New("script: nil map func")
	}
	return &funcLeafFactory{fn: f, params: params, state: state, lookup: lookup}, nil
}

type funcLeafFactory struct {
	fn     MapFunc
	params *value.Map
	state  *value.Map
	lookup Lookup
}

func (lf *funcLeafFactory) NewInstance(seg Segment) (MapScript, error) {
	ctx := &MapContext{
		Params:  lf.params,
		State:   lf.state,
		Segment: seg,
	}
	if lf.lookup != nil {
		leaf, err := lf.lookup.Leaf(seg)
		if err != nil {
			return nil, err
		}
		ctx.Leaf = leaf
	}
	return &funcMapScript{fn: lf.fn, ctx: ctx}, nil
}

type funcMapScript struct {
	fn  MapFunc
	ctx *MapContext
}

func (s *funcMapScript) SetScorer(scorer Scorer) { s.ctx.Scorer = scorer }

func (s *funcMapScript) SetDocument(doc int) error {
	s.ctx.Doc = doc
	if s.ctx.Leaf != nil {
		return s.ctx.Leaf.SetDocument(doc)
	}
	return nil
}

func (s *funcMapScript) Execute() error { return s.fn(s.ctx) }

// CombineFunc adapts a Go function to CombineFactory.
type CombineFunc func(params *value.Map, state *value.Map) (value.Value, error)

// NewInstance implements CombineFactory.
func (f CombineFunc) NewInstance(params *value.Map, state *value.Map) (CombineScript, error) {
	if f == nil {
		return nil, errors.New("script: nil combine func")
	}
	return &funcCombineScript{fn: f, params: params, state: state}, nil
}

type funcCombineScript struct {
	fn     CombineFunc
	params *value.Map
	state  *value.Map
}

func (s *funcCombineScript) Execute() (value.Value, error) { return s.fn(s.params, s.state) }

// ReduceFunc adapts a Go function to ReduceScript.
type ReduceFunc func(states []value.Value) (value.Value, error)

// Execute implements ReduceScript.
func (f ReduceFunc) Execute(states []value.Value) (value.Value, error) { return f(states) }
