package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/arbor/merge"
	"github.com/jacentio/arbor/tree"
)

// Store is an ID-keyed collection of tree documents kept in a single blob.
//
// Every operation loads the whole collection, applies its change and saves the
// whole collection again. The Store keeps nothing between calls.
type Store struct {
	backend Backend
	config  Config
}

// New creates a new Store instance over backend.
func New(backend Backend, config Config) *Store {
	config.validate()
	return &Store{
		backend: backend,
		config:  config,
	}
}

// Config returns the effective configuration.
func (s *Store) Config() Config { return s.config }

// List returns every record.
func (s *Store) List(ctx context.Context) (_ *Collection, err error) {
	defer s.observe("list", time.Now(), &err)

	c, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a copy of the record stored under id.
func (s *Store) Get(ctx context.Context, id string) (_ *tree.Value, err error) {
	defer s.observe("get", time.Now(), &err)

	c, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	record, ok := c.Get(id)
	if !ok {
		return nil, &KeyError{Op: "get", ID: id, Err: ErrKeyNotFound}
	}
	return record, nil
}

// Add stores record under a new id and returns the id with a copy of the stored
// record. An existing id fails with ErrKeyAlreadyExists and leaves the stored
// record untouched.
func (s *Store) Add(ctx context.Context, id string, record *tree.Value) (_ string, _ *tree.Value, err error) {
	defer s.observe("add", time.Now(), &err)

	if record == nil {
		record = tree.Null()
	}
	c, stamp, err := s.load(ctx)
	if err != nil {
		return "", nil, err
	}
	if c.Has(id) {
		return "", nil, &KeyError{Op: "add", ID: id, Err: ErrKeyAlreadyExists}
	}
	c.put(id, record.Clone())
	if err := s.save(ctx, c, stamp); err != nil {
		return "", nil, err
	}
	return id, record.Clone(), nil
}

// Insert stores record under a freshly generated UUID.
func (s *Store) Insert(ctx context.Context, record *tree.Value) (string, *tree.Value, error) {
	return s.Add(ctx, uuid.NewString(), record)
}

// Delete removes the record stored under id and returns it. Deleting an absent
// id is not an error: it returns nil and the collection is saved unchanged.
func (s *Store) Delete(ctx context.Context, id string) (_ *tree.Value, err error) {
	defer s.observe("delete", time.Now(), &err)

	c, stamp, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	removed, ok := c.remove(id)
	if !ok {
		s.config.Logger.DebugContext(ctx, "deleting absent record", "recordId", id)
	}
	if err := s.save(ctx, c, stamp); err != nil {
		return nil, err
	}
	return removed, nil
}

// Edit replaces the record stored under existingID. A non-empty newID moves the
// record to newID, replacing any record already stored there. Edit returns a
// copy of the stored record.
func (s *Store) Edit(ctx context.Context, existingID string, record *tree.Value, newID string) (_ *tree.Value, err error) {
	defer s.observe("edit", time.Now(), &err)

	if record == nil {
		record = tree.Null()
	}
	c, stamp, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if !c.Has(existingID) {
		return nil, &KeyError{Op: "edit", ID: existingID, Err: ErrKeyNotFound}
	}
	c.rename(existingID, targetID(existingID, newID), record.Clone())
	if err := s.save(ctx, c, stamp); err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// MergeUpdate merges delta into the record stored under existingID using
// leaf-path merge semantics (see merge.Into) and stores the result under newID,
// or under existingID when newID is empty. An empty delim uses the configured
// delimiter. It returns a copy of the merged record.
func (s *Store) MergeUpdate(ctx context.Context, existingID string, delta *tree.Value, delim, newID string) (_ *tree.Value, err error) {
	defer s.observe("merge", time.Now(), &err)

	if delim == "" {
		delim = s.config.Delimiter
	}
	loaded, stamp, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if !loaded.Has(existingID) {
		return nil, &KeyError{Op: "merge", ID: existingID, Err: ErrRecordNotFound}
	}

	c := loaded.Clone()
	base, _ := c.Get(existingID)
	merged, err := merge.Into(base, delta, delim)
	if err != nil {
		return nil, &KeyError{Op: "merge", ID: existingID, Err: err}
	}
	c.rename(existingID, targetID(existingID, newID), merged)
	if err := s.save(ctx, c, stamp); err != nil {
		return nil, err
	}
	return merged.Clone(), nil
}

// MergeField sets a single path of the record stored under id, leaving every
// other path as it was. The path uses the configured delimiter.
func (s *Store) MergeField(ctx context.Context, id, path string, value *tree.Value) (*tree.Value, error) {
	p, err := tree.ParsePath(path, s.config.Delimiter)
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = tree.Null()
	}
	delta := tree.EmptyMap()
	delta.Set(p, value.Clone())
	return s.MergeUpdate(ctx, id, delta, "", "")
}

// PatchUpdate applies an RFC 6902 JSON Patch to the record stored under id and
// returns a copy of the result.
func (s *Store) PatchUpdate(ctx context.Context, id string, patchJSON []byte) (_ *tree.Value, err error) {
	defer s.observe("patch", time.Now(), &err)

	c, stamp, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	record, ok := c.Get(id)
	if !ok {
		return nil, &KeyError{Op: "patch", ID: id, Err: ErrKeyNotFound}
	}
	patched, err := merge.Patch(record, patchJSON)
	if err != nil {
		return nil, &KeyError{Op: "patch", ID: id, Err: err}
	}
	c.put(id, patched)
	if err := s.save(ctx, c, stamp); err != nil {
		return nil, err
	}
	return patched.Clone(), nil
}

func targetID(existingID, newID string) string {
	if newID == "" {
		return existingID
	}
	return newID
}

// load reads and decodes the collection. A missing or blank blob is an empty
// collection.
func (s *Store) load(ctx context.Context) (*Collection, Stamp, error) {
	blob, err := s.backend.Load(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("arbor: load collection: %w", err)
	}
	if isBlank(blob.Data) {
		return newCollection(nil), blob.Stamp, nil
	}

	root, err := s.config.Codec.Decode(blob.Data)
	if err != nil {
		return nil, "", &DecodeError{Codec: s.config.Codec.Name(), Err: err}
	}
	switch {
	case root.Kind() == tree.Mapping:
	case root.IsEmptyContainer():
		root = tree.EmptyMap()
	default:
		return nil, "", &DecodeError{
			Codec: s.config.Codec.Name(),
			Err:   fmt.Errorf("collection root is a %s, not a mapping", root.Kind()),
		}
	}
	return newCollection(root), blob.Stamp, nil
}

// save encodes and writes the collection, handing the backend the stamp the
// collection was loaded at.
func (s *Store) save(ctx context.Context, c *Collection, prev Stamp) error {
	data, err := s.config.Codec.Encode(c.Value())
	if err != nil {
		return fmt.Errorf("arbor: encode collection: %w", err)
	}

	stamp, err := s.backend.Save(ctx, data, prev)
	if err != nil {
		if errors.Is(err, ErrStaleWrite) {
			s.config.Logger.WarnContext(ctx, "stale collection write rejected", "stamp", string(prev))
			s.config.Metrics.RecordStaleWrite()
			return err
		}
		return fmt.Errorf("arbor: save collection: %w", err)
	}

	s.config.Logger.DebugContext(ctx, "saved collection",
		slog.Int("bytes", len(data)),
		slog.Int("records", c.Len()),
		slog.String("stamp", string(stamp)),
	)
	s.config.Metrics.UpdateCollectionStats(len(data), c.Len())
	return nil
}

func (s *Store) observe(op string, start time.Time, err *error) {
	s.config.Metrics.Observe(op, start, *err)
}
