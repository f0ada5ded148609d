// Package celscript implements the map, combine and reduce capabilities with
// CEL (Common Expression Language) programs.
//
// CEL expressions are side-effect free, so a map script is written as an
// ordered list of assignments: each expression is evaluated against the
// current state and its result is stored under its key before the next one
// runs.
//
//	m, _ := celscript.NewMap(
//	    celscript.Assignment{Key: "count", Expr: "state.count + 1"},
//	    celscript.Assignment{Key: "total", Expr: "state.total + doc.price"},
//	)
//	c, _ := celscript.NewCombine("state.total / double(state.count)")
//	r, _ := celscript.NewReduce("states.size()")
//
// Variables visible to expressions:
//
//	map:     state, params, doc, score
//	combine: state, params
//	reduce:  states, params
package celscript

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"

	"github.com/hupe1980/scriptmetric/script"
	"github.com/hupe1980/scriptmetric/value"
)

// ErrEmptyExpression is returned for blank expressions.
var ErrEmptyExpression = errors.New("celscript: expression can't be empty")

// Assignment stores the result of Expr under Key in the bucket state.
type Assignment struct {
	Key  string `yaml:"key" json:"key"`
	Expr string `yaml:"expr" json:"expr"`
}

func newEnv(vars ...cel.EnvOption) (*cel.Env, error) {
	env, err := cel.NewEnv(vars...)
	if err != nil {
		return nil, fmt.Errorf("celscript: error creating CEL environment: %w", err)
	}
	return env, nil
}

func compile(env *cel.Env, expr string) (cel.Program, error) {
	if expr == "" {
		return nil, ErrEmptyExpression
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("celscript: error compiling %q: %w", expr, issues.Err())
	}
	p, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("celscript: error creating program for %q: %w", expr, err)
	}
	return p, nil
}

var (
	stringDynMap = cel.MapType(cel.StringType, cel.DynType)
)

type compiledAssignment struct {
	key  string
	expr string
	prg  cel.Program
}

// Map is a compiled map script. It implements script.MapFactory and may be
// shared by any number of buckets and aggregations.
type Map struct {
	assignments []compiledAssignment
}

var _ script.MapFactory = (*Map)(nil)

// NewMap compiles a map script.
func NewMap(assignments ...Assignment) (*Map, error) {
	if len(assignments) == 0 {
		return nil, errors.New("celscript: map script needs at least one assignment")
	}
	env, err := newEnv(
		cel.Variable("state", stringDynMap),
		cel.Variable("params", stringDynMap),
		cel.Variable("doc", stringDynMap),
		cel.Variable("score", cel.DoubleType),
	)
	if err != nil {
		return nil, err
	}

	m := &Map{assignments: make([]compiledAssignment, 0, len(assignments))}
	for _, a := range assignments {
		if a.Key == "" {
			return nil, fmt.Errorf("celscript: assignment %q has no key", a.Expr)
		}
		prg, err := compile(env, a.Expr)
		if err != nil {
			return nil, err
		}
		m.assignments = append(m.assignments, compiledAssignment{key: a.Key, expr: a.Expr, prg: prg})
	}
	return m, nil
}

// NewFactory implements script.MapFactory.
func (m *Map) NewFactory(params *value.Map, state *value.Map, lookup script.Lookup) (script.MapLeafFactory, error) {
	return &mapLeafFactory{m: m, params: params, state: state, lookup: lookup}, nil
}

type mapLeafFactory struct {
	m      *Map
	params *value.Map
	state  *value.Map
	lookup script.Lookup
}

func (f *mapLeafFactory) NewInstance(seg script.Segment) (script.MapScript, error) {
	s := &mapScript{f: f}
	if f.lookup != nil {
		leaf, err := f.lookup.Leaf(seg)
		if err != nil {
			return nil, err
		}
		s.leaf = leaf
	}
	return s, nil
}

type mapScript struct {
	f        *mapLeafFactory
	leaf     script.LeafLookup
	scorer   script.Scorer
	scoreErr error
}

func (s *mapScript) SetScorer(scorer script.Scorer) { s.scorer = scorer }

func (s *mapScript) SetDocument(doc int) error {
	if s.leaf == nil {
		return nil
	}
	return s.leaf.SetDocument(doc)
}

func (s *mapScript) Execute() error {
	s.scoreErr = nil
	var params map[string]any
	lazyParams := func() any {
		if params == nil {
			params = value.MapToAny(s.f.params)
		}
		return params
	}
	for _, a := range s.f.m.assignments {
		out, _, err := a.prg.Eval(map[string]any{
			"state":  func() any { return value.MapToAny(s.f.state) },
			"params": lazyParams,
			"doc":    func() any { return s.document() },
			"score":  func() any { return s.score() },
		})
		if s.scoreErr != nil {
			return s.scoreErr
		}
		if err != nil {
			return fmt.Errorf("celscript: map %s = %q: %w", a.key, a.expr, err)
		}
		v, err := fromCEL(out)
		if err != nil {
			return fmt.Errorf("celscript: map %s = %q: %w", a.key, a.expr, err)
		}
		s.f.state.Set(a.key, v)
	}
	return nil
}

func (s *mapScript) document() map[string]any {
	doc := make(map[string]any)
	if s.leaf == nil {
		return doc
	}
	for _, name := range s.leaf.Fields() {
		if v, ok := s.leaf.Field(name); ok {
			doc[name] = value.ToAny(v)
		}
	}
	return doc
}

func (s *mapScript) score() float64 {
	if s.scorer == nil {
		return 0
	}
	f, err := s.scorer.Score()
	if err != nil {
		s.scoreErr = err
		return 0
	}
	return float64(f)
}

// Combine is a compiled combine script. It implements script.CombineFactory.
type Combine struct {
	expr string
	prg  cel.Program
}

var _ script.CombineFactory = (*Combine)(nil)

// NewCombine compiles a combine expression.
func NewCombine(expr string) (*Combine, error) {
	env, err := newEnv(
		cel.Variable("state", stringDynMap),
		cel.Variable("params", stringDynMap),
	)
	if err != nil {
		return nil, err
	}
	prg, err := compile(env, expr)
	if err != nil {
		return nil, err
	}
	return &Combine{expr: expr, prg: prg}, nil
}

// NewInstance implements script.CombineFactory.
func (c *Combine) NewInstance(params *value.Map, state *value.Map) (script.CombineScript, error) {
	return &combineScript{c: c, params: params, state: state}, nil
}

type combineScript struct {
	c      *Combine
	params *value.Map
	state  *value.Map
}

func (s *combineScript) Execute() (value.Value, error) {
	out, _, err := s.c.prg.Eval(map[string]any{
		"state":  value.MapToAny(s.state),
		"params": value.MapToAny(s.params),
	})
	if err != nil {
		return value.Null(), fmt.Errorf("celscript: combine %q: %w", s.c.expr, err)
	}
	return fromCEL(out)
}

// Reduce is a compiled reduce script. It implements script.ReduceScript.
type Reduce struct {
	expr   string
	prg    cel.Program
	params *value.Map
}

var _ script.ReduceScript = (*Reduce)(nil)

// NewReduce compiles a reduce expression. params is copied.
func NewReduce(expr string, params *value.Map) (*Reduce, error) {
	env, err := newEnv(
		cel.Variable("states", cel.ListType(cel.DynType)),
		cel.Variable("params", stringDynMap),
	)
	if err != nil {
		return nil, err
	}
	prg, err := compile(env, expr)
	if err != nil {
		return nil, err
	}
	return &Reduce{expr: expr, prg: prg, params: value.CopyMap(params)}, nil
}

// Execute implements script.ReduceScript.
func (r *Reduce) Execute(states []value.Value) (value.Value, error) {
	in := make([]any, len(states))
	for i, s := range states {
		in[i] = value.ToAny(s)
	}
	out, _, err := r.prg.Eval(map[string]any{
		"states": in,
		"params": value.MapToAny(value.CopyMap(r.params)),
	})
	if err != nil {
		return value.Null(), fmt.Errorf("celscript: reduce %q: %w", r.expr, err)
	}
	return fromCEL(out)
}

// fromCEL converts a CEL result into a Value. Map keys must be strings.
func fromCEL(val ref.Val) (value.Value, error) {
	switch v := val.(type) {
	case *types.Err:
		return value.Null(), v
	case types.Null:
		return value.Null(), nil
	case types.Bool:
		return value.Bool(bool(v)), nil
	case types.Int:
		return value.Int(int64(v)), nil
	case types.Uint:
		if uint64(v) > math.MaxInt64 {
			return value.Null(), fmt.Errorf("celscript: uint %d overflows int64", uint64(v))
		}
		return value.Int(int64(v)), nil
	case types.Double:
		return value.Float(float64(v)), nil
	case types.String:
		return value.String(string(v)), nil
	case traits.Mapper:
		var keys []string
		it := v.Iterator()
		for it.HasNext() == types.True {
			k, ok := it.Next().(types.String)
			if !ok {
				return value.Null(), errors.New("celscript: map keys must be strings")
			}
			keys = append(keys, string(k))
		}
		slices.Sort(keys)
		m := value.NewMap()
		for _, k := range keys {
			item, err := fromCEL(v.Get(types.String(k)))
			if err != nil {
				return value.Null(), err
			}
			m.Set(k, item)
		}
		return value.FromMap(m), nil
	case traits.Lister:
		l := value.NewList()
		it := v.Iterator()
		for it.HasNext() == types.True {
			item, err := fromCEL(it.Next())
			if err != nil {
				return value.Null(), err
			}
			l.Append(item)
		}
		return value.FromList(l), nil
	default:
		return value.Opaque(val.Value()), nil
	}
}
