package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/scriptmetric"
	"github.com/hupe1980/scriptmetric/script/celscript"
	"github.com/hupe1980/scriptmetric/value"
)

// Definition is the YAML form of a scripted metric aggregation.
//
//	name: profit
//	init_state:
//	  count: 0
//	map:
//	  - key: count
//	    expr: state.count + 1
//	combine: state.count * 2
//	reduce: states.size()
type Definition struct {
	Name          string                 `yaml:"name"`
	InitState     map[string]any         `yaml:"init_state"`
	Map           []celscript.Assignment `yaml:"map"`
	Params        map[string]any         `yaml:"params"`
	Combine       string                 `yaml:"combine"`
	CombineParams map[string]any         `yaml:"combine_params"`
	Reduce        string                 `yaml:"reduce"`
	ReduceParams  map[string]any         `yaml:"reduce_params"`
	Metadata      map[string]any         `yaml:"meta"`
}

// LoadDefinition reads a definition file.
func LoadDefinition(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseDefinition(f)
}

// ParseDefinition decodes a YAML definition. Unknown fields are rejected.
func ParseDefinition(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("definition is empty")
		}
		return nil, fmt.Errorf("parse definition: %w", err)
	}
	if def.Name == "" {
		return nil, errors.New("definition: name is required")
	}
	if len(def.Map) == 0 {
		return nil, errors.New("definition: map needs at least one assignment")
	}
	return &def, nil
}

// Compile turns the definition into a map script and aggregator options.
func (d *Definition) Compile() (*celscript.Map, []scriptmetric.Option, error) {
	m, err := celscript.NewMap(d.Map...)
	if err != nil {
		return nil, nil, err
	}

	opts := []scriptmetric.Option{
		scriptmetric.WithMapParams(toMap(d.Params)),
		scriptmetric.WithMetadata(d.Metadata),
	}
	if d.InitState != nil {
		opts = append(opts, scriptmetric.WithInitialState(toMap(d.InitState)))
	}
	if d.Combine != "" {
		c, err := celscript.NewCombine(d.Combine)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, scriptmetric.WithCombine(c, toMap(d.CombineParams)))
	}
	if d.Reduce != "" {
		r, err := celscript.NewReduce(d.Reduce, toMap(d.ReduceParams))
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, scriptmetric.WithReduce(r))
	}
	return m, opts, nil
}

func toMap(m map[string]any) *value.Map {
	if m == nil {
		return nil
	}
	v, _ := value.FromAny(m).AsMap()
	return v
}
