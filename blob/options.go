// Package blob provides store.Backend implementations.
//
// Every backend keeps the whole encoded collection in one place: a byte slice
// in memory, a local file, or a single DynamoDB item. Backends ignore the
// stamp passed to Save unless constructed with Strict, in which case a save
// against a stale stamp fails with store.ErrStaleWrite.
package blob

import "log/slog"

// Option configures a backend.
type Option func(*options)

type options struct {
	strict bool
	logger *slog.Logger
}

// Strict makes Save compare its prev stamp against the current one.
func Strict() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithLogger sets the logger. Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
