package store

import "context"

// Stamp is an opaque exchange token identifying one stored version of a
// collection. The empty Stamp means "no version known".
type Stamp string

// Blob is the raw encoded collection together with the stamp it was read at.
// Empty Data means no collection has been saved yet.
type Blob struct {
	Data  []byte
	Stamp Stamp
}

// Backend loads and saves the encoded collection in full.
//
// Save receives the stamp of the Load the new data was derived from. Backends
// constructed strict return ErrStaleWrite when prev is not the current stamp
// (the empty Stamp is current only while nothing has been saved); all other
// backends ignore prev. Save returns the stamp of the written data.
type Backend interface {
	Load(ctx context.Context) (Blob, error)
	Save(ctx context.Context, data []byte, prev Stamp) (Stamp, error)
}
