package value

import (
	"math"
	"slices"
)

// FromAny converts plain Go data into a Value.
//
// Supported inputs are nil, bool, signed and unsigned integers, float32/64,
// string, []any, []Value, map[string]any, map[string]Value, Value, *Map and
// *List. Anything else is wrapped with Opaque; whether it can be transported
// is decided later by the codec. Go maps are inserted in sorted key order.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case *Map:
		return FromMap(t)
	case *List:
		return FromList(t)
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint:
		return fromUint64(uint64(t))
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint64:
		return fromUint64(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case string:
		return String(t)
	case []any:
		l := &List{items: make([]Value, len(t))}
		for i, item := range t {
			l.items[i] = FromAny(item)
		}
		return FromList(l)
	case []Value:
		return FromList(NewList(t...))
	case map[string]any:
		m := NewMap()
		for _, k := range sortedKeys(t) {
			m.Set(k, FromAny(t[k]))
		}
		return FromMap(m)
	case map[string]Value:
		return FromMap(MapOf(t))
	default:
		return Opaque(x)
	}
}

// fromUint64 keeps the sign of unsigned values above math.MaxInt64 by
// widening them to a float.
func fromUint64(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

// ToAny converts v into plain Go data: nil, bool, int64, float64, string,
// []any and map[string]any. Opaque payloads are returned unchanged.
//
// ToAny does not terminate on cyclic input; check with EnsureNoSelfReferences
// first when the value came from a script.
func ToAny(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.l.items))
		for i, item := range v.l.items {
			out[i] = ToAny(item)
		}
		return out
	case KindMap:
		return MapToAny(v.m)
	case KindOpaque:
		return v.o
	default:
		return nil
	}
}

// MapToAny converts m into a map[string]any. A nil map yields an empty map.
func MapToAny(m *Map) map[string]any {
	out := make(map[string]any, m.Len())
	m.Range(func(k string, v Value) bool {
		out[k] = ToAny(v)
		return true
	})
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
