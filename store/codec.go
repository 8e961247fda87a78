package store

import (
	"bytes"

	"github.com/jacentio/arbor/tree"
)

// Codec converts a collection root to and from its blob form.
type Codec interface {
	Name() string
	Encode(root *tree.Value) ([]byte, error)
	Decode(data []byte) (*tree.Value, error)
}

// JSONCodec writes two-space indented JSON with key order preserved.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(root *tree.Value) ([]byte, error) { return root.MarshalIndentJSON() }

func (JSONCodec) Decode(data []byte) (*tree.Value, error) { return tree.ParseJSON(data) }

// YAMLCodec writes an ordered YAML mapping.
type YAMLCodec struct{}

func (YAMLCodec) Name() string { return "yaml" }

func (YAMLCodec) Encode(root *tree.Value) ([]byte, error) { return tree.EncodeYAML(root) }

func (YAMLCodec) Decode(data []byte) (*tree.Value, error) { return tree.ParseYAML(data) }

// CodecFor returns the codec registered under name ("json" or "yaml").
func CodecFor(name string) (Codec, bool) {
	switch name {
	case "", "json":
		return JSONCodec{}, true
	case "yaml", "yml":
		return YAMLCodec{}, true
	}
	return nil, false
}

func isBlank(data []byte) bool { return len(bytes.TrimSpace(data)) == 0 }
