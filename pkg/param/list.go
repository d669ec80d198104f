package param

// List is an ordered parameter collection.
//
// An exclusive List refuses parameters that are attached to a different List, the way
// some drivers refuse to share a parameter object between two commands.
type List struct {
	exclusive bool
	items     []*Parameter
}

// NewList creates an empty List.
func NewList(exclusive bool) *List {
	return &List{exclusive: exclusive}
}

// Exclusive reports whether the list rejects parameters owned by another list.
func (l *List) Exclusive() bool {
	return l.exclusive
}

// Add appends p to the list.
func (l *List) Add(p *Parameter) error {
	if p == nil {
		return ErrNilParameter
	}
	if l.exclusive && p.owner != nil && p.owner != l {
		return ErrAttached
	}
	p.owner = l
	l.items = append(l.items, p)
	return nil
}

// Clear detaches and removes every parameter.
func (l *List) Clear() {
	for _, p := range l.items {
		if p.owner == l {
			p.owner = nil
		}
	}
	l.items = nil
}

// Len returns the number of parameters.
func (l *List) Len() int {
	return len(l.items)
}

// All returns a copy of the parameters in insertion order.
func (l *List) All() []*Parameter {
	out := make([]*Parameter, len(l.items))
	copy(out, l.items)
	return out
}

// Get returns the first parameter with the given name.
func (l *List) Get(name string) (*Parameter, bool) {
	for _, p := range l.items {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}
