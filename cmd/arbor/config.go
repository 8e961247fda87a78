package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/arbor/blob"
	"github.com/jacentio/arbor/store"
	"github.com/jacentio/arbor/tree"
)

// Backend kinds.
const (
	BackendFile   = "file"
	BackendDynamo = "dynamo"
)

// FileConfig is the TOML configuration file layout.
//
//	delimiter = "."
//	format = "json"
//
//	[backend]
//	kind = "dynamo"
//	table = "arbor-collections"
//	key = "users"
//	region = "eu-west-2"
//	strict = true
type FileConfig struct {
	Delimiter string        `toml:"delimiter"`
	Format    string        `toml:"format"`
	Backend   BackendConfig `toml:"backend"`
}

// BackendConfig selects and configures the blob backend.
type BackendConfig struct {
	Kind   string `toml:"kind"`
	Path   string `toml:"path"`
	Table  string `toml:"table"`
	Key    string `toml:"key"`
	Region string `toml:"region"`
	Strict bool   `toml:"strict"`
}

// DefaultFileConfig returns a file backend on arbor.json.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Delimiter: tree.DefaultDelimiter,
		Format:    "json",
		Backend: BackendConfig{
			Kind: BackendFile,
			Path: "arbor.json",
		},
	}
}

// LoadFileConfig reads path over the defaults. An empty path returns the
// defaults.
func LoadFileConfig(path string) (FileConfig, error) {
	fc := DefaultFileConfig()
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), &fc)
	if err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return fc, fmt.Errorf("config %s: unknown key %q", path, keys[0].String())
	}
	return fc, fc.validate()
}

func (fc FileConfig) validate() error {
	if _, ok := store.CodecFor(fc.Format); !ok {
		return fmt.Errorf("unknown format %q", fc.Format)
	}
	switch fc.Backend.Kind {
	case BackendFile:
		if fc.Backend.Path == "" {
			return fmt.Errorf("file backend requires a path")
		}
	case BackendDynamo:
		if fc.Backend.Table == "" || fc.Backend.Key == "" {
			return fmt.Errorf("dynamo backend requires a table and a key")
		}
	default:
		return fmt.Errorf("unknown backend kind %q", fc.Backend.Kind)
	}
	return nil
}

// Encode writes the configuration as TOML.
func (fc FileConfig) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(fc)
}

// OpenStore builds the backend described by fc and a Store over it.
func OpenStore(ctx context.Context, fc FileConfig, logger *slog.Logger) (*store.Store, error) {
	if err := fc.validate(); err != nil {
		return nil, err
	}
	opts := []blob.Option{blob.WithLogger(logger)}
	if fc.Backend.Strict {
		opts = append(opts, blob.Strict())
	}

	var backend store.Backend
	switch fc.Backend.Kind {
	case BackendFile:
		backend = blob.NewFile(fc.Backend.Path, opts...)
	case BackendDynamo:
		var loadOpts []func(*awsconfig.LoadOptions) error
		if fc.Backend.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(fc.Backend.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		backend = blob.NewDynamo(dynamodb.NewFromConfig(cfg), fc.Backend.Table, fc.Backend.Key, opts...)
	}

	codec, _ := store.CodecFor(fc.Format)
	config := store.DefaultConfig()
	config.Delimiter = fc.Delimiter
	config.Codec = codec
	config.Logger = logger
	return store.New(backend, config), nil
}
