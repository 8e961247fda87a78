// Package store keeps an ID-keyed collection of tree documents in a single
// blob.
//
// The collection is encoded as one mapping from record ID to record and is
// read and written in full through a [Backend]. Adapters for memory, local
// files and DynamoDB live in package blob.
//
// # Operations
//
// Each call is a complete load, change and save round trip:
//
//   - [Store.List] and [Store.Get] read records
//   - [Store.Add] and [Store.Insert] create records
//   - [Store.Edit] replaces a record, optionally under a new ID
//   - [Store.MergeUpdate] and [Store.MergeField] change single paths of a
//     record and leave the rest alone
//   - [Store.PatchUpdate] applies a JSON Patch
//   - [Store.Delete] removes a record
//   - [Store.Project] flattens records onto a list of columns
//
// Records handed to and returned from the Store are copies.
//
// # Concurrency
//
// By default there is no coordination between writers: two processes racing
// on the same blob can lose updates, and the last save wins. The Store hands
// every save the [Stamp] of the load it started from; a backend constructed
// strict turns the save into a compare-and-swap against that stamp, and a lost
// race fails with [ErrStaleWrite] for the caller to retry.
//
//	backend := blob.NewFile("users.json", blob.Strict())
//	s := store.New(backend, store.DefaultConfig())
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrKeyNotFound] - Get, Edit or PatchUpdate on an absent ID
//   - [ErrRecordNotFound] - MergeUpdate on an absent ID
//   - [ErrKeyAlreadyExists] - Add with an ID already present
//   - [ErrDecode] - the blob is not a collection
//   - [ErrStaleWrite] - the collection changed between load and save
//
// ID errors are wrapped in [KeyError], decode errors in [DecodeError].
package store
