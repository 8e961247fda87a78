package tree

import "strconv"

// Get returns the node at p. The node stays attached to v.
func (v *Value) Get(p Path) (*Value, error) {
	n, err := v.walk(p)
	if err != nil {
		return nil, &PathError{Op: "get", Path: p.String(DefaultDelimiter), Err: err}
	}
	return n, nil
}

// Has reports whether p resolves to a node.
func (v *Value) Has(p Path) bool {
	_, err := v.walk(p)
	return err == nil
}

func (v *Value) walk(p Path) (*Value, error) {
	n := v
	for _, t := range p {
		switch n.kind {
		case Mapping:
			child, ok := n.Lookup(t.Key())
			if !ok {
				return nil, ErrPathNotFound
			}
			n = child
		case Sequence:
			i, ok := t.Index()
			if !ok {
				return nil, ErrPathNotFound
			}
			if i >= len(n.items) {
				return nil, ErrIndexOutOfRange
			}
			n = n.items[i]
		default:
			return nil, ErrPathNotFound
		}
	}
	return n, nil
}

// Set stores value at p, creating intermediate mappings as needed and replacing
// scalars that stand in the way. Whatever was at p is overwritten. Set takes
// ownership of value.
//
// Setting the root path replaces v itself.
func (v *Value) Set(p Path, value *Value) {
	if value == nil {
		value = Null()
	}
	if len(p) == 0 {
		*v = *value
		return
	}
	if v.kind == Scalar {
		*v = *EmptyMap()
	}

	parents, last := p.Parent()
	touched := make([]*Value, 0, len(p))
	n := v
	touched = append(touched, n)
	for _, t := range parents {
		child := n.child(t)
		if child == nil || child.kind == Scalar {
			child = EmptyMap()
			n.put(t, child)
		}
		n = child
		touched = append(touched, n)
	}
	n.put(last, value)

	for _, c := range touched {
		c.inferSequence()
	}
}

// Delete removes the node at p. A missing path is a no-op. Deleting the root
// path resets v to an empty mapping.
//
// Removing anything but the last item of a sequence leaves a hole: the sequence
// becomes a mapping keyed by the remaining indices.
func (v *Value) Delete(p Path) {
	if len(p) == 0 {
		*v = *EmptyMap()
		return
	}
	parents, last := p.Parent()
	parent, err := v.walk(parents)
	if err != nil {
		return
	}
	switch parent.kind {
	case Mapping:
		if _, ok := parent.Remove(last.Key()); ok {
			parent.inferSequence()
		}
	case Sequence:
		i, ok := last.Index()
		if !ok || i >= len(parent.items) {
			return
		}
		if i == len(parent.items)-1 {
			parent.items = parent.items[:i]
			return
		}
		parent.toMapping()
		parent.Remove(strconv.Itoa(i))
	}
}

// Copy sets dst to a copy of the node at src. It is a no-op when src is missing.
func (v *Value) Copy(src, dst Path) {
	n, err := v.walk(src)
	if err != nil {
		return
	}
	v.Set(dst, n.Clone())
}

// Move copies src to dst and deletes src. It is a no-op when src is missing.
func (v *Value) Move(src, dst Path) {
	if !v.Has(src) {
		return
	}
	v.Copy(src, dst)
	v.Delete(src)
}

// Swap exchanges the nodes at a and b. Both are read before either is written.
func (v *Value) Swap(a, b Path) error {
	paths := [2]Path{a, b}
	bad, err := v.swap(a, b)
	if err != nil {
		return &PathError{Op: "swap", Path: paths[bad].String(DefaultDelimiter), Err: err}
	}
	return nil
}

// swap reports which of a (0) or b (1) failed to resolve. Nothing is written
// on failure.
func (v *Value) swap(a, b Path) (int, error) {
	va, err := v.walk(a)
	if err != nil {
		return 0, err
	}
	vb, err := v.walk(b)
	if err != nil {
		return 1, err
	}
	va, vb = va.Clone(), vb.Clone()
	v.Set(a, vb)
	v.Set(b, va)
	return 0, nil
}

func (v *Value) child(t Token) *Value {
	switch v.kind {
	case Mapping:
		c, _ := v.Lookup(t.Key())
		return c
	case Sequence:
		if i, ok := t.Index(); ok {
			c, _ := v.Index(i)
			return c
		}
	}
	return nil
}

// put assigns child at t. A sequence accepts an index inside its bounds or one
// past the end; anything else turns it into a mapping first.
func (v *Value) put(t Token, child *Value) {
	if v.kind == Sequence {
		i, ok := t.Index()
		switch {
		case ok && i < len(v.items):
			v.items[i] = child
			return
		case ok && i == len(v.items):
			v.items = append(v.items, child)
			return
		}
		v.toMapping()
	}
	v.Put(t.Key(), child)
}

func (v *Value) toMapping() {
	if v.kind != Sequence {
		return
	}
	entries := make([]Entry, len(v.items))
	for i, it := range v.items {
		entries[i] = Entry{Key: strconv.Itoa(i), Value: it}
	}
	*v = Value{kind: Mapping, entries: entries}
}

// inferSequence turns a non-empty mapping keyed "0".."n-1" in order into a sequence.
func (v *Value) inferSequence() {
	if v.kind != Mapping || len(v.entries) == 0 {
		return
	}
	for i, e := range v.entries {
		if e.Key != strconv.Itoa(i) {
			return
		}
	}
	items := make([]*Value, len(v.entries))
	for i, e := range v.entries {
		items[i] = e.Value
	}
	*v = Value{kind: Sequence, items: items}
}

// Walk calls fn for every leaf of the flattened view of v, in order.
func (v *Value) Walk(delim string, fn func(path string, leaf *Value) bool) {
	for _, e := range v.Flatten(delim).entries {
		if !fn(e.Path, e.Value) {
			return
		}
	}
}
