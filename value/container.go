package value

import "slices"

// Map is a string-keyed mapping that remembers insertion order.
//
// Map is not safe for concurrent use.
type Map struct {
	keys    []string
	entries map[string]Value
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{entries: make(map[string]Value)}
}

// MapOf builds a map from a Go map of values. Keys are
// inserted in sorted order so the result is deterministic.
func MapOf(entries map[string]Value) *Map {
	m := NewMap()
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		m.Set(k, entries[k])
	}
	return m
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Null(), false
	}
	v, ok := m.entries[key]
	return v, ok
}

// Set stores v under key. New keys are appended to the key order.
func (m *Map) Set(key string, v Value) {
	if m.entries == nil {
		m.entries = make(map[string]Value)
	}
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = v
}

// Delete removes key. It reports whether the key was present.
func (m *Map) Delete(key string) bool {
	if _, ok := m.entries[key]; !ok {
		return false
	}
	delete(m.entries, key)
	if i := slices.Index(m.keys, key); i >= 0 {
		m.keys = slices.Delete(m.keys, i, i+1)
	}
	return true
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Range calls fn for every entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.entries[k]) {
			return
		}
	}
}

// List is an ordered sequence of values.
//
// List is not safe for concurrent use.
type List struct {
	items []Value
}

// NewList creates a list holding items.
func NewList(items ...Value) *List {
	return &List{items: slices.Clone(items)}
}

// Len returns the number of items.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// At returns the item at index i.
func (l *List) At(i int) Value { return l.items[i] }

// Set replaces the item at index i.
func (l *List) Set(i int, v Value) { l.items[i] = v }

// Append adds items to the end of the list.
func (l *List) Append(items ...Value) {
	l.items = append(l.items, items...)
}

// Items returns a copy of the item slice. The items themselves are shared.
func (l *List) Items() []Value {
	if l == nil {
		return nil
	}
	return slices.Clone(l.items)
}
