package store

import (
	"log/slog"

	"github.com/jacentio/arbor/metrics"
	"github.com/jacentio/arbor/tree"
)

// Config holds configuration for the Store.
type Config struct {
	// Delimiter separates path segments in merge and projection paths.
	// Default: "."
	Delimiter string

	// Codec encodes the collection blob.
	// Default: JSONCodec (two-space indented JSON)
	Codec Codec

	// Logger receives debug output for saves and warnings for stale writes.
	// Default: slog.Default()
	Logger *slog.Logger

	// Metrics records operation counts and durations. Nil disables recording.
	Metrics *metrics.Metrics
}

// DefaultConfig returns the defaults: "." paths and indented JSON blobs.
func DefaultConfig() Config {
	return Config{
		Delimiter: tree.DefaultDelimiter,
		Codec:     JSONCodec{},
		Logger:    slog.Default(),
	}
}

// validate fills in zero values.
func (c *Config) validate() {
	if c.Delimiter == "" {
		c.Delimiter = tree.DefaultDelimiter
	}
	if c.Codec == nil {
		c.Codec = JSONCodec{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
