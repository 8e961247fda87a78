package blob_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jacentio/arbor/blob"
	"github.com/jacentio/arbor/store"
)

func TestMemory_EmptyLoad(t *testing.T) {
	m := blob.NewMemory()
	b, err := m.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(b.Data) != 0 || b.Stamp != "" {
		t.Errorf("expected empty blob, got %q at stamp %q", b.Data, b.Stamp)
	}
}

func TestMemory_SaveLoad(t *testing.T) {
	ctx := context.Background()
	m := blob.NewMemory()

	data := []byte(`{"a":1}`)
	stamp, err := m.Save(ctx, data, "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	data[0] = 'X' // caller buffer must not alias stored state

	b, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(b.Data) != `{"a":1}` {
		t.Errorf("expected stored data, got %q", b.Data)
	}
	if b.Stamp != stamp {
		t.Errorf("expected stamp %q, got %q", stamp, b.Stamp)
	}
}

func TestMemory_LenientIgnoresStamp(t *testing.T) {
	ctx := context.Background()
	m := blob.NewMemory()
	if _, err := m.Save(ctx, []byte("1"), ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := m.Save(ctx, []byte("2"), "bogus"); err != nil {
		t.Fatalf("expected lenient save to ignore stamp, got %v", err)
	}
	if string(m.Bytes()) != "2" {
		t.Errorf("expected last write to win, got %q", m.Bytes())
	}
}

func TestMemory_StrictRejectsStale(t *testing.T) {
	ctx := context.Background()
	m := blob.NewMemory(blob.Strict())

	first, err := m.Save(ctx, []byte("1"), "")
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := m.Save(ctx, []byte("2"), ""); !errors.Is(err, store.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite for empty stamp, got %v", err)
	}
	second, err := m.Save(ctx, []byte("2"), first)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if _, err := m.Save(ctx, []byte("3"), first); !errors.Is(err, store.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite for old stamp, got %v", err)
	}
	if second == first {
		t.Error("expected stamps to change between saves")
	}
	if string(m.Bytes()) != "2" {
		t.Errorf("expected rejected write to leave data alone, got %q", m.Bytes())
	}
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := blob.NewMemory()
	if _, err := m.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, err := m.Save(ctx, nil, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
