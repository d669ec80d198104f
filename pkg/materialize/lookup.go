package materialize

// Lookup groups values by key, preserving first-seen key order and per-key insertion
// order. The zero value is ready to use.
type Lookup[K comparable, V any] struct {
	keys   []K
	groups map[K][]V
}

// NewLookup creates an empty Lookup.
func NewLookup[K comparable, V any]() *Lookup[K, V] {
	return &Lookup[K, V]{groups: map[K][]V{}}
}

// Add appends v to the group of k.
func (l *Lookup[K, V]) Add(k K, v V) {
	if l.groups == nil {
		l.groups = map[K][]V{}
	}
	if _, ok := l.groups[k]; !ok {
		l.keys = append(l.keys, k)
	}
	l.groups[k] = append(l.groups[k], v)
}

// Keys returns the keys in first-seen order.
func (l *Lookup[K, V]) Keys() []K {
	out := make([]K, len(l.keys))
	copy(out, l.keys)
	return out
}

// Get returns a copy of the values grouped under k, or nil for an unknown key.
func (l *Lookup[K, V]) Get(k K) []V {
	vs, ok := l.groups[k]
	if !ok {
		return nil
	}
	return append([]V(nil), vs...)
}

// Len returns the number of keys.
func (l *Lookup[K, V]) Len() int {
	return len(l.keys)
}

// Map returns the groups as a map.
func (l *Lookup[K, V]) Map() map[K][]V {
	out := make(map[K][]V, len(l.groups))
	for k, vs := range l.groups {
		out[k] = append([]V(nil), vs...)
	}
	return out
}

// Each calls fn for every key in first-seen order.
func (l *Lookup[K, V]) Each(fn func(k K, values []V)) {
	for _, k := range l.keys {
		fn(k, l.groups[k])
	}
}
