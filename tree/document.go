package tree

// Doc pairs a root value with the delimiter used to address it, so callers can
// work with path strings.
type Doc struct {
	root  *Value
	delim string
}

// NewDoc wraps root. A nil root starts as an empty mapping; an empty delimiter
// selects DefaultDelimiter.
func NewDoc(root *Value, delim string) *Doc {
	if root == nil {
		root = EmptyMap()
	}
	if delim == "" {
		delim = DefaultDelimiter
	}
	return &Doc{root: root, delim: delim}
}

// FromFlat rebuilds a Doc from a FlatView.
func FromFlat(f *FlatView, delim string) (*Doc, error) {
	root, err := Unflatten(f, delim)
	if err != nil {
		return nil, err
	}
	return NewDoc(root, delim), nil
}

// Root returns the wrapped value.
func (d *Doc) Root() *Value { return d.root }

// Delimiter returns the path delimiter.
func (d *Doc) Delimiter() string { return d.delim }

func (d *Doc) parse(op, path string) (Path, error) {
	p, err := ParsePath(path, d.delim)
	if err != nil {
		if pe, ok := err.(*PathError); ok {
			pe.Op = op
		}
		return nil, err
	}
	return p, nil
}

// Get returns the node at path.
func (d *Doc) Get(path string) (*Value, error) {
	p, err := d.parse("get", path)
	if err != nil {
		return nil, err
	}
	n, err := d.root.walk(p)
	if err != nil {
		return nil, &PathError{Op: "get", Path: path, Err: err}
	}
	return n, nil
}

// Has reports whether path resolves. Malformed paths report false.
func (d *Doc) Has(path string) bool {
	p, err := ParsePath(path, d.delim)
	if err != nil {
		return false
	}
	return d.root.Has(p)
}

// Set stores value at path.
func (d *Doc) Set(path string, value *Value) error {
	p, err := d.parse("set", path)
	if err != nil {
		return err
	}
	d.root.Set(p, value)
	return nil
}

// Delete removes the node at path; a missing path is a no-op.
func (d *Doc) Delete(path string) error {
	p, err := d.parse("delete", path)
	if err != nil {
		return err
	}
	d.root.Delete(p)
	return nil
}

// Copy copies src to dst; a missing src is a no-op.
func (d *Doc) Copy(src, dst string) error {
	ps, err := d.parse("copy", src)
	if err != nil {
		return err
	}
	pd, err := d.parse("copy", dst)
	if err != nil {
		return err
	}
	d.root.Copy(ps, pd)
	return nil
}

// Move moves src to dst; a missing src is a no-op.
func (d *Doc) Move(src, dst string) error {
	ps, err := d.parse("move", src)
	if err != nil {
		return err
	}
	pd, err := d.parse("move", dst)
	if err != nil {
		return err
	}
	d.root.Move(ps, pd)
	return nil
}

// Swap exchanges the nodes at a and b.
func (d *Doc) Swap(a, b string) error {
	pa, err := d.parse("swap", a)
	if err != nil {
		return err
	}
	pb, err := d.parse("swap", b)
	if err != nil {
		return err
	}
	paths := [2]string{a, b}
	bad, err := d.root.swap(pa, pb)
	if err != nil {
		return &PathError{Op: "swap", Path: paths[bad], Err: err}
	}
	return nil
}

// Flatten returns the flattened view of the document.
func (d *Doc) Flatten() *FlatView { return d.root.Flatten(d.delim) }

// FlattenTrimmed returns the flattened view with leading delimiters removed.
func (d *Doc) FlattenTrimmed() *FlatView { return d.Flatten().Trimmed(d.delim) }

// HasPrefix reports whether any flattened path starts with prefix.
func (d *Doc) HasPrefix(prefix string) bool { return d.root.HasPrefix(prefix, d.delim) }

// Prefixes returns the flattened paths starting with prefix.
func (d *Doc) Prefixes(prefix string) []string { return d.root.Prefixes(prefix, d.delim) }

// Conform returns, for each of paths in order, a copy of the node found there,
// or an empty string when the path does not resolve. Paths of the document not
// listed are left out.
func (d *Doc) Conform(paths []string) *FlatView {
	out := NewFlatView()
	for _, p := range paths {
		n, err := d.Get(p)
		if err != nil {
			out.Set(p, String(""))
			continue
		}
		out.Set(p, n.Clone())
	}
	return out
}

// Decode decodes the node at path into target. See Value.Decode.
func (d *Doc) Decode(path string, target any) error {
	n, err := d.Get(path)
	if err != nil {
		return err
	}
	return n.Decode(target)
}
