package value

// Cloner is implemented by opaque payloads that can produce an independent
// copy of themselves. Opaque payloads that do not implement it are shared by
// DeepCopy.
type Cloner interface {
	CloneValue() any
}

// DeepCopy returns a copy of v that shares no mutable storage with v.
//
// Containers are memoized by identity: a container reachable twice in v is
// copied once and reachable twice in the copy, and a cyclic input yields an
// equally cyclic copy instead of recursing forever.
func DeepCopy(v Value) Value {
	c := copier{
		maps:  make(map[*Map]*Map),
		lists: make(map[*List]*List),
	}
	return c.value(v)
}

// CopyMap returns a deep copy of m. A nil map yields a new empty map.
func CopyMap(m *Map) *Map {
	if m == nil {
		return NewMap()
	}
	c := copier{
		maps:  make(map[*Map]*Map),
		lists: make(map[*List]*List),
	}
	return c.mapOf(m)
}

type copier struct {
	maps  map[*Map]*Map
	lists map[*List]*List
}

func (c *copier) value(v Value) Value {
	switch v.kind {
	case KindList:
		return FromList(c.listOf(v.l))
	case KindMap:
		return FromMap(c.mapOf(v.m))
	case KindOpaque:
		if cl, ok := v.o.(Cloner); ok {
			return Opaque(cl.CloneValue())
		}
		return v
	default:
		return v
	}
}

func (c *copier) mapOf(m *Map) *Map {
	if cp, ok := c.maps[m]; ok {
		return cp
	}
	cp := &Map{
		keys:    make([]string, len(m.keys)),
		entries: make(map[string]Value, len(m.entries)),
	}
	copy(cp.keys, m.keys)
	// Register before descending so cycles resolve to the copy.
	c.maps[m] = cp
	for _, k := range m.keys {
		cp.entries[k] = c.value(m.entries[k])
	}
	return cp
}

func (c *copier) listOf(l *List) *List {
	if cp, ok := c.lists[l]; ok {
		return cp
	}
	cp := &List{items: make([]Value, len(l.items))}
	c.lists[l] = cp
	for i, item := range l.items {
		cp.items[i] = c.value(item)
	}
	return cp
}
