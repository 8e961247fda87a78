package store

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned by Get and Edit when the ID is absent.
	ErrKeyNotFound = errors.New("arbor: key not found")

	// ErrRecordNotFound is returned by MergeUpdate when the ID is absent.
	ErrRecordNotFound = errors.New("arbor: record not found")

	// ErrKeyAlreadyExists is returned by Add when the ID is already present.
	ErrKeyAlreadyExists = errors.New("arbor: key already exists")

	// ErrDecode is returned when the stored blob is not a valid collection.
	ErrDecode = errors.New("arbor: cannot decode collection")

	// ErrStaleWrite is returned by strict backends when the collection changed
	// between load and save.
	ErrStaleWrite = errors.New("arbor: collection was modified concurrently")
)

// KeyError reports the record ID an operation failed on.
type KeyError struct {
	Op  string
	ID  string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.ID, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }

// DecodeError reports a blob that could not be decoded into a collection.
type DecodeError struct {
	Codec string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v (%s): %v", ErrDecode, e.Codec, e.Err)
}

// Unwrap returns both ErrDecode and the underlying codec error.
func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }
