package tree

import (
	"encoding/json"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Decode copies v into target, which must be a non-nil pointer. Struct fields
// are matched by their json tag. Input is weakly typed, so "3" decodes into an
// int and durations may be written as "1m30s".
func (v *Value) Decode(target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			numberHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(v.Any())
}

// numberHook unwraps json.Number so it lands in numeric and string fields alike.
func numberHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return n.Float64()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return n.Float64()
	case reflect.Float32, reflect.Float64:
		return n.Float64()
	case reflect.String:
		return n.String(), nil
	case reflect.Interface:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		if f, err := n.Float64(); err == nil {
			return f, nil
		}
	}
	return data, nil
}
