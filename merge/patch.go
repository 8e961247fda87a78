package merge

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/jacentio/arbor/tree"
)

// Patch applies an RFC 6902 JSON Patch document to a copy of base.
//
// The patch engine works on unordered objects, so mapping keys of the result
// come back sorted.
func Patch(base *tree.Value, patchJSON []byte) (*tree.Value, error) {
	ops, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("merge: decode patch: %w", err)
	}
	doc, err := base.MarshalJSON()
	if err != nil {
		return nil, err
	}
	out, err := ops.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("merge: apply patch: %w", err)
	}
	return tree.ParseJSON(out)
}

// Diff returns the RFC 7386 merge patch that turns before into after.
func Diff(before, after *tree.Value) ([]byte, error) {
	a, err := before.MarshalJSON()
	if err != nil {
		return nil, err
	}
	b, err := after.MarshalJSON()
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(a, b)
	if err != nil {
		return nil, fmt.Errorf("merge: diff: %w", err)
	}
	return patch, nil
}

// ApplyDiff applies an RFC 7386 merge patch produced by Diff to a copy of base.
func ApplyDiff(base *tree.Value, patch []byte) (*tree.Value, error) {
	doc, err := base.MarshalJSON()
	if err != nil {
		return nil, err
	}
	out, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, fmt.Errorf("merge: apply diff: %w", err)
	}
	return tree.ParseJSON(out)
}
