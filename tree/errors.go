package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath is returned when a path string contains an empty segment
	// or a malformed sequence index.
	ErrInvalidPath = errors.New("tree: invalid path")

	// ErrPathNotFound is returned when a read addresses a key that does not exist,
	// or traverses through a scalar.
	ErrPathNotFound = errors.New("tree: path not found")

	// ErrIndexOutOfRange is returned when a read addresses a sequence index past its end.
	ErrIndexOutOfRange = errors.New("tree: index out of range")

	// ErrUnrepresentable is returned when a Go value has no tree representation.
	ErrUnrepresentable = errors.New("tree: unrepresentable value")
)

// PathError records the operation and path that caused a failure.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }
