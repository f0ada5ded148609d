package value

import (
	"fmt"
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindNull represents a null value. It is the zero Kind.
	KindNull Kind = iota
	// KindBool represents a boolean value.
	KindBool
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindList represents an ordered sequence.
	KindList
	// KindMap represents a string-keyed mapping.
	KindMap
	// KindOpaque represents a value produced by a script runtime that has no
	// native representation here.
	KindOpaque
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindOpaque:
		return "opaque"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a dynamically shaped script value.
//
// Scalars are stored inline. Lists and maps are reference containers: copying
// a Value shares the container, which is what allows a script to build a
// structure that contains itself. Use DeepCopy for an isolated copy.
//
// The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	l    *List
	m    *Map
	o    any
}

// Null returns a null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int returns an int64 Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String returns a string Value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// FromList wraps a list. A nil list yields null.
func FromList(l *List) Value {
	if l == nil {
		return Null()
	}
	return Value{kind: KindList, l: l}
}

// FromMap wraps a map. A nil map yields null.
func FromMap(m *Map) Value {
	if m == nil {
		return Null()
	}
	return Value{kind: KindMap, m: m}
}

// Opaque wraps a runtime-specific value.
func Opaque(v any) Value { return Value{kind: KindOpaque, o: v} }

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt returns the int64 value if Kind is KindInt.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsFloat returns the float64 value if Kind is KindFloat.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// AsNumber returns ints and floats as float64.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsList returns the list if Kind is KindList.
func (v Value) AsList() (*List, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.l, true
}

// AsMap returns the map if Kind is KindMap.
func (v Value) AsMap() (*Map, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// OpaqueValue returns the wrapped payload if Kind is KindOpaque.
func (v Value) OpaqueValue() (any, bool) {
	if v.kind != KindOpaque {
		return nil, false
	}
	return v.o, true
}

// String returns a short description of the value. Containers are described
// by kind and size only, so String is safe on cyclic structures.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindList:
		return fmt.Sprintf("list[%d]", v.l.Len())
	case KindMap:
		return fmt.Sprintf("map[%d]", v.m.Len())
	case KindOpaque:
		return fmt.Sprintf("opaque(%T)", v.o)
	default:
		return v.kind.String()
	}
}

// MarshalJSON implements json.Marshaler.
//
// The value must not contain self-references; run EnsureNoSelfReferences first
// for values produced by scripts.
func (v Value) MarshalJSON() ([]byte, error) {
	return gojson.Marshal(ToAny(v))
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// Equal reports whether a and b are structurally equal. Ints and floats
// compare equal when they hold the same number. Opaque payloads compare with ==.
//
// Equal does not terminate on cyclic input.
func Equal(a, b Value) bool {
	if an, ok := a.AsNumber(); ok {
		bn, ok := b.AsNumber()
		if !ok {
			return false
		}
		if math.IsNaN(an) && math.IsNaN(bn) {
			return true
		}
		return an == bn
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindList:
		if a.l.Len() != b.l.Len() {
			return false
		}
		for i := range a.l.items {
			if !Equal(a.l.items[i], b.l.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if a.m.Len() != b.m.Len() {
			return false
		}
		for _, k := range a.m.keys {
			bv, ok := b.m.Get(k)
			if !ok || !Equal(a.m.entries[k], bv) {
				return false
			}
		}
		return true
	case KindOpaque:
		return a.o == b.o
	}
	return false
}
