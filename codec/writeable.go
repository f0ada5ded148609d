package codec

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/scriptmetric/value"
)

// ErrNotWriteable is matched by every *NotWriteableError.
var ErrNotWriteable = errors.New("value is not writeable")

// NotWriteableError reports the first part of a value the codec cannot encode.
type NotWriteableError struct {
	Codec       string
	Path        string
	Description string
	cause       error
}

func (e *NotWriteableError) Error() string {
	msg := fmt.Sprintf("can not write type [%s] at %s with codec %s", e.Description, e.Path, e.Codec)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrNotWriteable) hold.
func (e *NotWriteableError) Is(target error) bool { return target == ErrNotWriteable }

// Unwrap returns the codec error, if any.
func (e *NotWriteableError) Unwrap() error { return e.cause }

// CheckWriteable reports whether v can be encoded with c.
//
// Null, bools, ints, strings, lists and maps are representable by every
// built-in codec. Non-finite floats and opaque payloads are trial-encoded,
// so the verdict follows the codec. A nil codec means Default.
func CheckWriteable(c Codec, v value.Value) error {
	if c == nil {
		c = Default
	}
	w := writeChecker{codec: c, ancestors: make(map[any]struct{})}
	return w.check(v, "$")
}

type writeChecker struct {
	codec     Codec
	ancestors map[any]struct{}
}

func (w *writeChecker) check(v value.Value, path string) error {
	switch v.Kind() {
	case value.KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return w.trial(f, path, v.String())
		}
		return nil
	case value.KindOpaque:
		payload, _ := v.OpaqueValue()
		return w.trial(payload, path, fmt.Sprintf("%T", payload))
	case value.KindList:
		l, _ := v.AsList()
		if err := w.enter(l, path); err != nil {
			return err
		}
		defer delete(w.ancestors, l)
		for i, item := range l.Items() {
			if err := w.check(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case value.KindMap:
		m, _ := v.AsMap()
		if err := w.enter(m, path); err != nil {
			return err
		}
		defer delete(w.ancestors, m)
		var err error
		m.Range(func(k string, item value.Value) bool {
			err = w.check(item, path+"."+k)
			return err == nil
		})
		return err
	default:
		return nil
	}
}

func (w *writeChecker) enter(id any, path string) error {
	if _, ok := w.ancestors[id]; ok {
		return &NotWriteableError{Codec: w.codec.Name(), Path: path, Description: "self-referencing structure"}
	}
	w.ancestors[id] = struct{}{}
	return nil
}

func (w *writeChecker) trial(x any, path, desc string) error {
	if _, err := w.codec.Marshal(x); err != nil {
		return &NotWriteableError{Codec: w.codec.Name(), Path: path, Description: desc, cause: err}
	}
	return nil
}
