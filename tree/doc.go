// Package tree provides a path-addressed, semi-structured document model.
//
// A [Value] is a discriminated union of three kinds: a scalar leaf (null, string,
// boolean or number), an ordered sequence, or an ordered mapping of string keys.
// Nodes are addressed with delimited path strings:
//
//	"name"          // mapping key
//	"a.b.c"         // nested mapping keys
//	"a.b[2].c"      // key "b" followed by sequence index 2
//	"grid[0][1]"    // nested sequences
//
// A leading delimiter is ignored, so ".a.b" and "a.b" address the same node.
// The delimiter is configurable per call; [DefaultDelimiter] is ".".
//
// # Flattening
//
// [Value.Flatten] projects a tree onto a [FlatView]: an ordered map from fully
// qualified path to leaf value. Empty mappings and sequences are leaves too, so
// they survive a round trip through [Unflatten]:
//
//	v, _ := tree.ParseJSON([]byte(`{"name":"Sally","tags":[],"pets":[{"kind":"cat"}]}`))
//	flat := v.Flatten(".")
//	// .name          -> "Sally"
//	// .tags          -> []
//	// .pets[0].kind  -> "cat"
//
// # Container kind inference
//
// Paths carry no explicit container kind. When [Value.Set] creates or writes into
// containers, every mapping along the written path whose keys are exactly
// "0".."n-1" in order becomes a sequence. A mapping that deliberately uses small
// contiguous integer keys is therefore rebuilt as a sequence by [Unflatten].
//
// # Mutation
//
// [Value.Set] auto-vivifies missing intermediate mappings and overwrites whatever
// is found at the target, regardless of its previous shape. [Value.Delete],
// [Value.Copy] and [Value.Move] treat a missing path as a no-op; [Value.Get] and
// [Value.Swap] report [ErrPathNotFound] or [ErrIndexOutOfRange].
//
// [Doc] pairs a root value with a delimiter and accepts path strings directly.
package tree
