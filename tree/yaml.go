package tree

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/goccy/go-yaml"
)

// ParseYAML decodes a YAML document, keeping mapping key order. Non-string
// mapping keys are converted with fmt.Sprint.
func ParseYAML(data []byte) (*Value, error) {
	var raw any
	if err := yaml.UnmarshalWithOptions(data, &raw, yaml.UseOrderedMap()); err != nil {
		return nil, err
	}
	return fromYAML(raw)
}

func fromYAML(raw any) (*Value, error) {
	switch t := raw.(type) {
	case yaml.MapSlice:
		v := EmptyMap()
		for _, item := range t {
			child, err := fromYAML(item.Value)
			if err != nil {
				return nil, err
			}
			v.Put(fmt.Sprint(item.Key), child)
		}
		return v, nil
	case []any:
		v := EmptySeq()
		for _, it := range t {
			child, err := fromYAML(it)
			if err != nil {
				return nil, err
			}
			v.Append(child)
		}
		return v, nil
	}
	return FromAny(raw)
}

// MarshalYAML implements the go-yaml InterfaceMarshaler so a *Value can be
// passed to yaml.Marshal directly.
func (v *Value) MarshalYAML() (any, error) {
	return toYAML(v), nil
}

// EncodeYAML writes v as a YAML document.
func EncodeYAML(v *Value) ([]byte, error) {
	return yaml.Marshal(toYAML(v))
}

func toYAML(v *Value) any {
	switch v.kind {
	case Mapping:
		out := make(yaml.MapSlice, 0, len(v.entries))
		for _, e := range v.entries {
			out = append(out, yaml.MapItem{Key: e.Key, Value: toYAML(e.Value)})
		}
		return out
	case Sequence:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = toYAML(it)
		}
		return out
	}
	if n, ok := v.scalar.(json.Number); ok {
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return string(n)
	}
	return v.scalar
}
