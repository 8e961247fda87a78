package tree

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// Kind discriminates the three shapes a Value can take.
type Kind uint8

const (
	Scalar Kind = iota
	Sequence
	Mapping
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Entry is a single key/value pair of a mapping.
type Entry struct {
	Key   string
	Value *Value
}

// Value is a node of a document tree.
//
// Scalars hold nil, string, bool or json.Number. Containers are mutated in
// place, so a *Value obtained from Get stays attached to its tree; use Clone
// for an independent copy.
type Value struct {
	kind    Kind
	scalar  any
	items   []*Value
	entries []Entry
}

// Null returns a null scalar.
func Null() *Value { return &Value{} }

// String returns a string scalar.
func String(s string) *Value { return &Value{scalar: s} }

// Bool returns a boolean scalar.
func Bool(b bool) *Value { return &Value{scalar: b} }

// Int returns an integer scalar.
func Int(i int64) *Value { return &Value{scalar: json.Number(strconv.FormatInt(i, 10))} }

// Float returns a floating point scalar.
func Float(f float64) *Value {
	return &Value{scalar: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}
}

// Number returns a numeric scalar from its decimal text.
func Number(text string) *Value { return &Value{scalar: json.Number(text)} }

// EmptyMap returns a mapping with no entries.
func EmptyMap() *Value { return &Value{kind: Mapping, entries: []Entry{}} }

// EmptySeq returns a sequence with no items.
func EmptySeq() *Value { return &Value{kind: Sequence, items: []*Value{}} }

// Seq returns a sequence holding items.
func Seq(items ...*Value) *Value {
	v := EmptySeq()
	v.items = append(v.items, items...)
	return v
}

// Map returns a mapping holding entries in order. Later duplicates replace earlier ones.
func Map(entries ...Entry) *Value {
	v := EmptyMap()
	for _, e := range entries {
		v.Put(e.Key, e.Value)
	}
	return v
}

// Kind returns the shape of the value.
func (v *Value) Kind() Kind { return v.kind }

// IsNull reports whether v is a null scalar.
func (v *Value) IsNull() bool { return v.kind == Scalar && v.scalar == nil }

// IsContainer reports whether v is a mapping or a sequence.
func (v *Value) IsContainer() bool { return v.kind != Scalar }

// IsEmptyContainer reports whether v is a mapping or sequence with no children.
func (v *Value) IsEmptyContainer() bool { return v.IsContainer() && v.Len() == 0 }

// Len returns the number of children of a container, or 0 for scalars.
func (v *Value) Len() int {
	switch v.kind {
	case Sequence:
		return len(v.items)
	case Mapping:
		return len(v.entries)
	}
	return 0
}

// Scalar returns the raw scalar: nil, string, bool or json.Number.
func (v *Value) Scalar() any { return v.scalar }

// Str returns the string held by a string scalar.
func (v *Value) Str() (string, bool) {
	s, ok := v.scalar.(string)
	return s, ok && v.kind == Scalar
}

// Keys returns the keys of a mapping in order.
func (v *Value) Keys() []string {
	keys := make([]string, 0, len(v.entries))
	for _, e := range v.entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Entries returns the entries of a mapping in order. The slice is a copy; the
// values are not.
func (v *Value) Entries() []Entry { return slices.Clone(v.entries) }

// Items returns the items of a sequence. The slice is a copy; the values are not.
func (v *Value) Items() []*Value { return slices.Clone(v.items) }

// Lookup returns the value stored under key in a mapping.
func (v *Value) Lookup(key string) (*Value, bool) {
	if v.kind != Mapping {
		return nil, false
	}
	if i := v.keyIndex(key); i >= 0 {
		return v.entries[i].Value, true
	}
	return nil, false
}

// Index returns the i-th item of a sequence.
func (v *Value) Index(i int) (*Value, bool) {
	if v.kind != Sequence || i < 0 || i >= len(v.items) {
		return nil, false
	}
	return v.items[i], true
}

// Put stores child under key, replacing an existing entry in place or appending
// a new one. A non-mapping v becomes an empty mapping first.
func (v *Value) Put(key string, child *Value) {
	if v.kind != Mapping {
		*v = *EmptyMap()
	}
	if i := v.keyIndex(key); i >= 0 {
		v.entries[i].Value = child
		return
	}
	v.entries = append(v.entries, Entry{Key: key, Value: child})
}

// Remove deletes key from a mapping and returns the removed value.
func (v *Value) Remove(key string) (*Value, bool) {
	if v.kind != Mapping {
		return nil, false
	}
	i := v.keyIndex(key)
	if i < 0 {
		return nil, false
	}
	removed := v.entries[i].Value
	v.entries = slices.Delete(v.entries, i, i+1)
	return removed, true
}

// Append adds items to the end of a sequence. A non-sequence v becomes an empty
// sequence first.
func (v *Value) Append(items ...*Value) {
	if v.kind != Sequence {
		*v = *EmptySeq()
	}
	v.items = append(v.items, items...)
}

func (v *Value) keyIndex(key string) int {
	for i, e := range v.entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of v.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := &Value{kind: v.kind, scalar: v.scalar}
	switch v.kind {
	case Sequence:
		c.items = make([]*Value, len(v.items))
		for i, it := range v.items {
			c.items[i] = it.Clone()
		}
	case Mapping:
		c.entries = make([]Entry, len(v.entries))
		for i, e := range v.entries {
			c.entries[i] = Entry{Key: e.Key, Value: e.Value.Clone()}
		}
	}
	return c
}

// Equal reports structural equality. Mapping entry order is ignored and numbers
// compare by value.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Sequence:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case Mapping:
		if len(v.entries) != len(o.entries) {
			return false
		}
		for _, e := range v.entries {
			oc, ok := o.Lookup(e.Key)
			if !ok || !e.Value.Equal(oc) {
				return false
			}
		}
		return true
	}
	return scalarEqual(v.scalar, o.scalar)
}

func scalarEqual(a, b any) bool {
	an, aNum := a.(json.Number)
	bn, bNum := b.(json.Number)
	if aNum && bNum {
		if an == bn {
			return true
		}
		af, aerr := an.Float64()
		bf, berr := bn.Float64()
		return aerr == nil && berr == nil && af == bf
	}
	return a == b
}

// Any converts v into plain Go values: map[string]any, []any, and the scalar
// types nil, string, bool and json.Number.
func (v *Value) Any() any {
	switch v.kind {
	case Sequence:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Any()
		}
		return out
	case Mapping:
		out := make(map[string]any, len(v.entries))
		for _, e := range v.entries {
			out[e.Key] = e.Value.Any()
		}
		return out
	}
	return v.scalar
}

// FromAny converts plain Go values into a tree. Map keys are sorted. Structs are
// converted through their json tags. Values with no tree representation
// (channels, functions) are skipped inside containers; at the top level they
// are an error.
func FromAny(x any) (*Value, error) {
	v, ok := fromAny(x)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnrepresentable, x)
	}
	return v, nil
}

func fromAny(x any) (*Value, bool) {
	switch t := x.(type) {
	case nil:
		return Null(), true
	case *Value:
		if t == nil {
			return Null(), true
		}
		return t.Clone(), true
	case Value:
		return t.Clone(), true
	case string:
		return String(t), true
	case bool:
		return Bool(t), true
	case json.Number:
		return Number(t.String()), true
	case map[string]any:
		v := EmptyMap()
		for _, k := range slices.Sorted(maps.Keys(t)) {
			if child, ok := fromAny(t[k]); ok {
				v.Put(k, child)
			}
		}
		return v, true
	case []any:
		v := EmptySeq()
		for _, it := range t {
			if child, ok := fromAny(it); ok {
				v.Append(child)
			}
		}
		return v, true
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(strconv.FormatUint(rv.Uint(), 10)), true
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), true
	case reflect.String:
		return String(rv.String()), true
	case reflect.Bool:
		return Bool(rv.Bool()), true
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), true
		}
		return fromAny(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), true
		}
		v := EmptySeq()
		for i := 0; i < rv.Len(); i++ {
			if child, ok := fromAny(rv.Index(i).Interface()); ok {
				v.Append(child)
			}
		}
		return v, true
	case reflect.Map:
		if rv.IsNil() {
			return Null(), true
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
		}
		return fromAny(m)
	case reflect.Struct:
		m := map[string]any{}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:  &m,
			TagName: "json",
		})
		if err != nil {
			return nil, false
		}
		if err := dec.Decode(x); err != nil {
			return nil, false
		}
		return fromAny(m)
	}
	return nil, false
}
