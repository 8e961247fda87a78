package blob

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/jacentio/arbor/store"
)

// Memory keeps the collection in process memory. Stamps are save counters.
type Memory struct {
	mu      sync.Mutex
	data    []byte
	version uint64
	opts    options
}

// NewMemory returns an empty in-memory backend.
func NewMemory(opts ...Option) *Memory {
	return &Memory{opts: buildOptions(opts)}
}

func (m *Memory) stamp() store.Stamp {
	if m.version == 0 {
		return ""
	}
	return store.Stamp(strconv.FormatUint(m.version, 10))
}

// Load returns a copy of the stored blob.
func (m *Memory) Load(ctx context.Context) (store.Blob, error) {
	if err := ctx.Err(); err != nil {
		return store.Blob{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return store.Blob{Data: slices.Clone(m.data), Stamp: m.stamp()}, nil
}

// Save replaces the stored blob.
func (m *Memory) Save(ctx context.Context, data []byte, prev store.Stamp) (store.Stamp, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opts.strict && prev != m.stamp() {
		m.opts.logger.DebugContext(ctx, "memory blob stamp mismatch", "stamp", string(prev), "current", string(m.stamp()))
		return "", store.ErrStaleWrite
	}
	m.data = slices.Clone(data)
	m.version++
	return m.stamp(), nil
}

// Bytes returns a copy of the stored blob.
func (m *Memory) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.data)
}
