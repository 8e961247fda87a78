package tree

import (
	"slices"
	"strconv"
	"strings"
)

// FlatEntry is one path/leaf pair of a FlatView.
type FlatEntry struct {
	Path  string
	Value *Value
}

// FlatView maps fully qualified paths to leaf values, keeping insertion order.
// Leaves are scalars or empty containers.
type FlatView struct {
	entries []FlatEntry
	index   map[string]int
}

// NewFlatView returns an empty FlatView.
func NewFlatView() *FlatView {
	return &FlatView{index: make(map[string]int)}
}

// Len returns the number of entries.
func (f *FlatView) Len() int { return len(f.entries) }

// Get returns the leaf stored under path.
func (f *FlatView) Get(path string) (*Value, bool) {
	i, ok := f.index[path]
	if !ok {
		return nil, false
	}
	return f.entries[i].Value, true
}

// Set overwrites the leaf under path in place, or appends a new entry.
func (f *FlatView) Set(path string, v *Value) {
	if i, ok := f.index[path]; ok {
		f.entries[i].Value = v
		return
	}
	f.index[path] = len(f.entries)
	f.entries = append(f.entries, FlatEntry{Path: path, Value: v})
}

// Delete removes path and reports whether it was present.
func (f *FlatView) Delete(path string) bool {
	i, ok := f.index[path]
	if !ok {
		return false
	}
	f.entries = slices.Delete(f.entries, i, i+1)
	delete(f.index, path)
	for j := i; j < len(f.entries); j++ {
		f.index[f.entries[j].Path] = j
	}
	return true
}

// Paths returns the paths in order.
func (f *FlatView) Paths() []string {
	out := make([]string, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Path
	}
	return out
}

// Entries returns a copy of the entries in order.
func (f *FlatView) Entries() []FlatEntry { return slices.Clone(f.entries) }

// Clone returns a deep copy.
func (f *FlatView) Clone() *FlatView {
	c := NewFlatView()
	for _, e := range f.entries {
		c.Set(e.Path, e.Value.Clone())
	}
	return c
}

// Trimmed returns a copy whose paths have the leading delimiter removed.
func (f *FlatView) Trimmed(delim string) *FlatView {
	if delim == "" {
		delim = DefaultDelimiter
	}
	c := NewFlatView()
	for _, e := range f.entries {
		c.Set(strings.TrimPrefix(e.Path, delim), e.Value.Clone())
	}
	return c
}

// Flatten projects v onto a FlatView using depth-first order.
//
// Children of the root and of mappings are addressed as parent+delim+key.
// Children of nested sequences are addressed as parent[i]. Empty containers are
// emitted as leaves. Paths therefore start with the delimiter, e.g. ".a.b[0]".
func (v *Value) Flatten(delim string) *FlatView {
	if delim == "" {
		delim = DefaultDelimiter
	}
	out := NewFlatView()
	flattenNode(out, delim, v, "", true)
	return out
}

func flattenNode(out *FlatView, delim string, v *Value, at string, root bool) {
	switch v.kind {
	case Mapping:
		if len(v.entries) == 0 {
			out.Set(at, EmptyMap())
			return
		}
		for _, e := range v.entries {
			flattenNode(out, delim, e.Value, at+delim+e.Key, false)
		}
	case Sequence:
		if len(v.items) == 0 {
			out.Set(at, EmptySeq())
			return
		}
		for i, it := range v.items {
			var p string
			if root {
				p = at + delim + strconv.Itoa(i)
			} else {
				p = at + "[" + strconv.Itoa(i) + "]"
			}
			flattenNode(out, delim, it, p, false)
		}
	default:
		out.Set(at, v.Clone())
	}
}

// Unflatten rebuilds a tree by setting every entry of f, in order, on an empty
// mapping. Container kinds are inferred as described for Set.
//
// Paths are read the way Flatten writes them: an empty segment is the empty
// key, so ".", ".a." and ".[0]" address {"":..}, {"a":{"":..}} and {"":[..]}.
func Unflatten(f *FlatView, delim string) (*Value, error) {
	root := EmptyMap()
	for _, e := range f.entries {
		p, err := parseFlatPath(e.Path, delim)
		if err != nil {
			return nil, err
		}
		leaf := e.Value
		if leaf == nil {
			leaf = Null()
		}
		root.Set(p, leaf.Clone())
	}
	return root, nil
}

// HasPrefix reports whether any flattened path of v starts with prefix. A
// missing leading delimiter on prefix is added.
func (v *Value) HasPrefix(prefix, delim string) bool {
	return len(v.Prefixes(prefix, delim)) > 0
}

// Prefixes returns the flattened paths of v that start with prefix.
func (v *Value) Prefixes(prefix, delim string) []string {
	if delim == "" {
		delim = DefaultDelimiter
	}
	if !strings.HasPrefix(prefix, delim) {
		prefix = delim + prefix
	}
	var out []string
	for _, p := range v.Flatten(delim).Paths() {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}
