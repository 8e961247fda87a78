package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jacentio/arbor/internal/digest"
	"github.com/jacentio/arbor/store"
)

// File keeps the collection in a local file. A missing file loads as an empty
// collection. Saves write a temporary file next to the target and rename it
// into place, so readers never observe a partial blob. Stamps are content
// digests.
//
// Strict stamp checks are serialized within the process only; two processes
// saving the same file at the same instant can still both succeed.
type File struct {
	path string
	perm fs.FileMode
	mu   sync.Mutex
	opts options
}

// NewFile returns a backend for the file at path.
func NewFile(path string, opts ...Option) *File {
	return &File{path: path, perm: 0o644, opts: buildOptions(opts)}
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Load reads the file.
func (f *File) Load(ctx context.Context) (store.Blob, error) {
	if err := ctx.Err(); err != nil {
		return store.Blob{}, err
	}
	data, err := f.read()
	if err != nil {
		return store.Blob{}, err
	}
	return store.Blob{Data: data, Stamp: store.Stamp(digest.Content(data))}, nil
}

func (f *File) read() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blob: read %s: %w", f.path, err)
	}
	return data, nil
}

// Save atomically replaces the file.
func (f *File) Save(ctx context.Context, data []byte, prev store.Stamp) (store.Stamp, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.opts.strict {
		current, err := f.read()
		if err != nil {
			return "", err
		}
		if cur := store.Stamp(digest.Content(current)); cur != prev {
			f.opts.logger.DebugContext(ctx, "file blob stamp mismatch",
				"path", f.path, "stamp", string(prev), "current", string(cur))
			return "", store.ErrStaleWrite
		}
	}

	if err := f.writeAtomic(data); err != nil {
		return "", err
	}
	f.opts.logger.DebugContext(ctx, "wrote file blob", "path", f.path, "bytes", len(data))
	return store.Stamp(digest.Content(data)), nil
}

func (f *File) writeAtomic(data []byte) (err error) {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("blob: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("blob: write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("blob: sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Chmod(f.perm); err != nil {
		return fmt.Errorf("blob: chmod %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("blob: close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("blob: rename into %s: %w", f.path, err)
	}
	return nil
}
