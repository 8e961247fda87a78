package store_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jacentio/arbor/blob"
	"github.com/jacentio/arbor/metrics"
	"github.com/jacentio/arbor/store"
	"github.com/jacentio/arbor/tree"
)

// --- Helpers ---

func mustJSON(t *testing.T, s string) *tree.Value {
	t.Helper()
	v, err := tree.ParseJSON([]byte(s))
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return v
}

func quietConfig() store.Config {
	cfg := store.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func newTestStore(t *testing.T, seed string) (*store.Store, *blob.Memory) {
	t.Helper()
	m := blob.NewMemory()
	if seed != "" {
		if _, err := m.Save(context.Background(), []byte(seed), ""); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return store.New(m, quietConfig()), m
}

// failingBackend returns fixed errors.
type failingBackend struct {
	loadErr error
	saveErr error
	data    []byte
}

func (f *failingBackend) Load(context.Context) (store.Blob, error) {
	return store.Blob{Data: f.data}, f.loadErr
}

func (f *failingBackend) Save(context.Context, []byte, store.Stamp) (store.Stamp, error) {
	return "", f.saveErr
}

// --- Unit Tests ---

func TestDefaultConfig(t *testing.T) {
	cfg := store.DefaultConfig()

	if cfg.Delimiter != "." {
		t.Errorf("expected Delimiter '.', got %q", cfg.Delimiter)
	}
	if cfg.Codec == nil || cfg.Codec.Name() != "json" {
		t.Errorf("expected json codec, got %v", cfg.Codec)
	}
	if cfg.Logger == nil {
		t.Error("expected non-nil Logger")
	}
}

func TestConfigValidation(t *testing.T) {
	s := store.New(blob.NewMemory(), store.Config{})
	cfg := s.Config()
	if cfg.Delimiter != "." {
		t.Errorf("expected empty Delimiter to default to '.', got %q", cfg.Delimiter)
	}
	if cfg.Codec == nil {
		t.Error("expected nil Codec to get a default")
	}
	if cfg.Logger == nil {
		t.Error("expected nil Logger to get a default")
	}
}

func TestErrors_Uniqueness(t *testing.T) {
	allErrors := []error{
		store.ErrKeyNotFound,
		store.ErrRecordNotFound,
		store.ErrKeyAlreadyExists,
		store.ErrDecode,
		store.ErrStaleWrite,
	}

	seen := make(map[string]error)
	for _, err := range allErrors {
		msg := err.Error()
		if existing, ok := seen[msg]; ok {
			t.Errorf("duplicate error message: %q shared by %v and %v", msg, existing, err)
		}
		seen[msg] = err
	}
}

// --- Store Tests ---

func TestList_EmptyBackend(t *testing.T) {
	s, _ := newTestStore(t, "")
	c, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty collection, got %d records", c.Len())
	}
}

func TestList_KeepsOrder(t *testing.T) {
	s, _ := newTestStore(t, `{"z":{"n":1},"a":{"n":2},"m":[]}`)
	c, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := strings.Join(c.IDs(), ","); got != "z,a,m" {
		t.Errorf("expected z,a,m, got %s", got)
	}
}

func TestList_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "not json", blob: `{"a":`},
		{name: "scalar root", blob: `"hello"`},
		{name: "sequence root", blob: `[1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t, tt.blob)
			_, err := s.List(context.Background())
			if !errors.Is(err, store.ErrDecode) {
				t.Fatalf("expected ErrDecode, got %v", err)
			}
			var de *store.DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
			if de.Codec != "json" {
				t.Errorf("expected codec json, got %q", de.Codec)
			}
		})
	}
}

func TestList_EmptySequenceIsEmptyCollection(t *testing.T) {
	s, _ := newTestStore(t, `[]`)
	c, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty collection, got %d", c.Len())
	}
}

func TestGet_Ghost(t *testing.T) {
	s, _ := newTestStore(t, "")
	_, err := s.Get(context.Background(), "ghost")
	if !errors.Is(err, store.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	var ke *store.KeyError
	if !errors.As(err, &ke) {
		t.Fatalf("expected *KeyError, got %T", err)
	}
	if ke.ID != "ghost" || ke.Op != "get" {
		t.Errorf("expected get \"ghost\", got %s %q", ke.Op, ke.ID)
	}
}

func TestAdd_DuplicateLeavesRecordUnchanged(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, "")

	id, rec, err := s.Add(ctx, "u1", mustJSON(t, `{"role":"admin"}`))
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	if id != "u1" || rec.String() != `{"role":"admin"}` {
		t.Errorf("unexpected add result %s %s", id, rec)
	}

	_, _, err = s.Add(ctx, "u1", mustJSON(t, `{"role":"guest"}`))
	if !errors.Is(err, store.ErrKeyAlreadyExists) {
		t.Fatalf("expected ErrKeyAlreadyExists, got %v", err)
	}

	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.String() != `{"role":"admin"}` {
		t.Errorf("expected role to stay admin, got %s", got)
	}
}

func TestAdd_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, "")

	in := mustJSON(t, `{"tags":["a"]}`)
	_, out, err := s.Add(ctx, "r", in)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	in.Put("tags", tree.String("mutated"))
	out.Put("tags", tree.String("mutated"))

	got, err := s.Get(ctx, "r")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.String() != `{"tags":["a"]}` {
		t.Errorf("stored record aliased caller values: %s", got)
	}
}

func TestAdd_EncodesPrettyJSON(t *testing.T) {
	s, m := newTestStore(t, "")
	if _, _, err := s.Add(context.Background(), "u1", mustJSON(t, `{"e":{},"l":[]}`)); err != nil {
		t.Fatalf("add: %v", err)
	}
	expected := "{\n  \"u1\": {\n    \"e\": {},\n    \"l\": []\n  }\n}\n"
	if string(m.Bytes()) != expected {
		t.Errorf("expected %q, got %q", expected, m.Bytes())
	}
}

func TestInsert_GeneratesID(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, "")
	id1, _, err := s.Insert(ctx, mustJSON(t, `{"n":1}`))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id2, _, err := s.Insert(ctx, mustJSON(t, `{"n":2}`))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id1 == "" || id1 == id2 {
		t.Errorf("expected distinct generated IDs, got %q and %q", id1, id2)
	}
	if len(id1) != 36 {
		t.Errorf("expected UUID string, got %q", id1)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, `{"a":{"n":1},"b":{"n":2}}`)

	removed, err := s.Delete(ctx, "a")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed.String() != `{"n":1}` {
		t.Errorf("expected removed record, got %s", removed)
	}
	c, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Join(c.IDs(), ",") != "b" {
		t.Errorf("expected only b to remain, got %v", c.IDs())
	}
}

// Deleting an absent ID is a silent no-op that still rewrites the collection.
func TestDelete_AbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore(t, `{"a":{"n":1}}`)
	before, _ := m.Load(ctx)

	removed, err := s.Delete(ctx, "ghost")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if removed != nil {
		t.Errorf("expected nil, got %s", removed)
	}
	after, _ := m.Load(ctx)
	if after.Stamp == before.Stamp {
		t.Error("expected the collection to be saved again")
	}
	if _, err := s.Get(ctx, "a"); err != nil {
		t.Errorf("expected a to survive, got %v", err)
	}
}

func TestEdit(t *testing.T) {
	tests := []struct {
		name     string
		newID    string
		expected string
	}{
		{name: "in place", newID: "", expected: `{"a":{"v":2},"b":{"v":9}}`},
		{name: "renamed", newID: "c", expected: `{"b":{"v":9},"c":{"v":2}}`},
		{name: "renamed onto existing", newID: "b", expected: `{"b":{"v":2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, _ := newTestStore(t, `{"a":{"v":1},"b":{"v":9}}`)
			got, err := s.Edit(ctx, "a", mustJSON(t, `{"v":2}`), tt.newID)
			if err != nil {
				t.Fatalf("edit: %v", err)
			}
			if got.String() != `{"v":2}` {
				t.Errorf("expected stored record, got %s", got)
			}
			c, err := s.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if c.Value().String() != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, c.Value())
			}
		})
	}
}

func TestEdit_Missing(t *testing.T) {
	s, _ := newTestStore(t, "")
	_, err := s.Edit(context.Background(), "ghost", tree.EmptyMap(), "")
	if !errors.Is(err, store.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestMergeUpdate_Sally(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, `{"s1":{"name":"Sally","age":27}}`)

	got, err := s.MergeUpdate(ctx, "s1", mustJSON(t, `{"age":28}`), "", "")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got.String() != `{"name":"Sally","age":28}` {
		t.Errorf("unexpected merge result %s", got)
	}
	stored, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.Equal(got) {
		t.Errorf("expected stored %s, got %s", got, stored)
	}
}

func TestMergeUpdate_Rename(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, `{"old":{"a":1,"list":["x","y","z"]}}`)

	got, err := s.MergeUpdate(ctx, "old", mustJSON(t, `{"list":["q"]}`), ".", "new")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got.String() != `{"a":1,"list":["q","y","z"]}` {
		t.Errorf("unexpected merge result %s", got)
	}
	if _, err := s.Get(ctx, "old"); !errors.Is(err, store.ErrKeyNotFound) {
		t.Errorf("expected old ID to be gone, got %v", err)
	}
	if _, err := s.Get(ctx, "new"); err != nil {
		t.Errorf("expected new ID, got %v", err)
	}
}

func TestMergeUpdate_Missing(t *testing.T) {
	s, _ := newTestStore(t, `{"a":{}}`)
	_, err := s.MergeUpdate(context.Background(), "ghost", tree.EmptyMap(), "", "")
	if !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if errors.Is(err, store.ErrKeyNotFound) {
		t.Error("MergeUpdate must report ErrRecordNotFound, not ErrKeyNotFound")
	}
}

func TestMergeField(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, `{"u":{"profile":{"name":"Sally","langs":["go","php"]}}}`)

	got, err := s.MergeField(ctx, "u", "profile.langs[1]", tree.String("rust"))
	if err != nil {
		t.Fatalf("merge field: %v", err)
	}
	if got.String() != `{"profile":{"name":"Sally","langs":["go","rust"]}}` {
		t.Errorf("unexpected result %s", got)
	}
}

func TestPatchUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, `{"u":{"name":"Sally"}}`)

	got, err := s.PatchUpdate(ctx, "u", []byte(`[{"op":"add","path":"/age","value":28}]`))
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !got.Equal(mustJSON(t, `{"name":"Sally","age":28}`)) {
		t.Errorf("unexpected patch result %s", got)
	}

	if _, err := s.PatchUpdate(ctx, "ghost", []byte(`[]`)); !errors.Is(err, store.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
	if _, err := s.PatchUpdate(ctx, "u", []byte(`[{"op":"remove","path":"/missing"}]`)); err == nil {
		t.Error("expected patch failure")
	}
}

func TestProject(t *testing.T) {
	s, _ := newTestStore(t, `{
		"u1": {"name": "Sally", "address": {"city": "Tallinn"}, "tags": ["a"]},
		"u2": {"name": "Bob"}
	}`)
	rows, err := s.Project(context.Background(), []string{"name", "address.city", "tags[0]"})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	want := map[string][]string{
		"u1": {`"Sally"`, `"Tallinn"`, `"a"`},
		"u2": {`"Bob"`, `""`, `""`},
	}
	for _, row := range rows {
		var got []string
		for _, e := range row.Columns.Entries() {
			got = append(got, e.Value.String())
		}
		if strings.Join(got, ",") != strings.Join(want[row.ID], ",") {
			t.Errorf("%s: expected %v, got %v", row.ID, want[row.ID], got)
		}
	}
}

func TestBackendErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	loadErr := errors.New("disk on fire")
	s := store.New(&failingBackend{loadErr: loadErr}, quietConfig())
	if _, err := s.List(ctx); !errors.Is(err, loadErr) {
		t.Errorf("expected load error, got %v", err)
	}

	saveErr := errors.New("bucket gone")
	s = store.New(&failingBackend{saveErr: saveErr}, quietConfig())
	if _, _, err := s.Add(ctx, "a", tree.EmptyMap()); !errors.Is(err, saveErr) {
		t.Errorf("expected save error, got %v", err)
	}
}

func TestStrictBackendRejectsStaleWrite(t *testing.T) {
	ctx := context.Background()
	m := blob.NewMemory(blob.Strict())
	reg := prometheus.NewRegistry()
	cfg := quietConfig()
	cfg.Metrics = metrics.New(reg)
	s := store.New(m, cfg)

	if _, _, err := s.Add(ctx, "a", tree.EmptyMap()); err != nil {
		t.Fatalf("add: %v", err)
	}

	// another writer saves between our load and save
	racing := &racingBackend{Backend: m}
	s = store.New(racing, cfg)
	_, _, err := s.Add(ctx, "b", tree.EmptyMap())
	if !errors.Is(err, store.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}
	if got := testutil.ToFloat64(cfg.Metrics.StaleWritesTotal); got != 1 {
		t.Errorf("expected 1 stale write, got %v", got)
	}
	if got := testutil.ToFloat64(cfg.Metrics.OperationsTotal.WithLabelValues("add", metrics.StatusError)); got != 1 {
		t.Errorf("expected 1 failed add, got %v", got)
	}
}

// racingBackend performs a competing save right after every load.
type racingBackend struct {
	store.Backend
}

func (r *racingBackend) Load(ctx context.Context) (store.Blob, error) {
	b, err := r.Backend.Load(ctx)
	if err != nil {
		return b, err
	}
	if _, err := r.Backend.Save(ctx, []byte(`{"intruder":{}}`), b.Stamp); err != nil {
		return store.Blob{}, err
	}
	return b, nil
}

func TestLenientBackendLastWriterWins(t *testing.T) {
	ctx := context.Background()
	m := blob.NewMemory()
	if _, err := m.Save(ctx, []byte(`{}`), ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := store.New(&racingBackend{Backend: m}, quietConfig())
	if _, _, err := s.Add(ctx, "mine", tree.EmptyMap()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if string(m.Bytes()) != "{\n  \"mine\": {}\n}\n" {
		t.Errorf("expected last writer to win, got %q", m.Bytes())
	}
}

func TestYAMLCodec(t *testing.T) {
	ctx := context.Background()
	m := blob.NewMemory()
	cfg := quietConfig()
	cfg.Codec = store.YAMLCodec{}
	s := store.New(m, cfg)

	if _, _, err := s.Add(ctx, "u1", mustJSON(t, `{"name":"Sally","tags":["a","b"]}`)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.HasPrefix(string(m.Bytes()), "u1:") {
		t.Errorf("expected YAML mapping, got:\n%s", m.Bytes())
	}
	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.String() != `{"name":"Sally","tags":["a","b"]}` {
		t.Errorf("unexpected record %s", got)
	}
}

func TestCodecFor(t *testing.T) {
	for name, want := range map[string]string{"": "json", "json": "json", "yaml": "yaml", "yml": "yaml"} {
		c, ok := store.CodecFor(name)
		if !ok || c.Name() != want {
			t.Errorf("CodecFor(%q): expected %s, got %v", name, want, c)
		}
	}
	if _, ok := store.CodecFor("xml"); ok {
		t.Error("expected xml to be unsupported")
	}
}
