package value

import (
	"errors"
	"fmt"
)

// ErrSelfReference is matched by every *SelfReferenceError.
var ErrSelfReference = errors.New("self-referencing structure")

// SelfReferenceError reports a container that is its own descendant.
type SelfReferenceError struct {
	// Label names the producer of the structure, e.g. the script phase.
	Label string
	// Path is the key/index path from the root to the repeated container.
	Path string
}

func (e *SelfReferenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("iterable object is self-referencing itself (%s)", e.Label)
	}
	return fmt.Sprintf("iterable object is self-referencing itself (%s) at %s", e.Label, e.Path)
}

// Is makes errors.Is(err, ErrSelfReference) hold.
func (e *SelfReferenceError) Is(target error) bool { return target == ErrSelfReference }

// EnsureNoSelfReferences fails if a list or map in v contains itself,
// directly or transitively. The same container reached through two
// different non-cyclic paths is allowed.
func EnsureNoSelfReferences(v Value, label string) error {
	w := cycleWalker{ancestors: make(map[any]struct{})}
	return w.walk(v, "$", label)
}

type cycleWalker struct {
	ancestors map[any]struct{}
}

func (w *cycleWalker) walk(v Value, path, label string) error {
	var id any
	switch v.kind {
	case KindMap:
		id = v.m
	case KindList:
		id = v.l
	default:
		return nil
	}
	if _, ok := w.ancestors[id]; ok {
		return &SelfReferenceError{Label: label, Path: path}
	}
	w.ancestors[id] = struct{}{}
	defer delete(w.ancestors, id)

	if v.kind == KindMap {
		for _, k := range v.m.keys {
			if err := w.walk(v.m.entries[k], path+"."+k, label); err != nil {
				return err
			}
		}
		return nil
	}
	for i, item := range v.l.items {
		if err := w.walk(item, fmt.Sprintf("%s[%d]", path, i), label); err != nil {
			return err
		}
	}
	return nil
}
