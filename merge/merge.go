// Package merge implements leaf-path merging of tree values.
//
// A merge flattens both sides, overlays the delta's leaves onto the base's
// leaves and rebuilds the result. It is not a recursive object merge: sequences
// are combined by position, so a longer delta sequence adds trailing items and
// a shorter one leaves the base's trailing items in place.
//
//	base:  {"name":"Sally","tags":["a","b","c"]}
//	delta: {"age":28,"tags":["z"]}
//	merge: {"name":"Sally","tags":["z","b","c"],"age":28}
//
// An empty container in the delta is a leaf like any other and replaces
// whatever the base holds at its path.
package merge

import (
	"github.com/jacentio/arbor/tree"
)

// Into returns base with every leaf of delta written over it. Neither input is
// modified. Merging an empty delta returns base unchanged.
func Into(base, delta *tree.Value, delim string) (*tree.Value, error) {
	if delim == "" {
		delim = tree.DefaultDelimiter
	}
	if base == nil {
		base = tree.EmptyMap()
	}
	if delta == nil {
		delta = tree.EmptyMap()
	}
	merged := Overlay(base.Flatten(delim), delta.Flatten(delim))
	return tree.Unflatten(merged, delim)
}

// Fields merges a single value at path into base.
func Fields(base *tree.Value, path string, value *tree.Value, delim string) (*tree.Value, error) {
	p, err := tree.ParsePath(path, delim)
	if err != nil {
		return nil, err
	}
	delta := tree.EmptyMap()
	delta.Set(p, value.Clone())
	return Into(base, delta, delim)
}

// Overlay returns a copy of base with every entry of delta written over it.
// Paths only in base keep their position; paths only in delta are appended.
//
// An empty delta flattens to a single empty container at the root path. That
// entry is skipped: it carries no leaves and would otherwise reset the result.
func Overlay(base, delta *tree.FlatView) *tree.FlatView {
	out := base.Clone()
	for _, e := range delta.Entries() {
		if e.Path == "" && e.Value.IsEmptyContainer() {
			continue
		}
		out.Set(e.Path, e.Value.Clone())
	}
	return out
}
