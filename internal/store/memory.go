package store

import (
	"context"
	"sync"
)

// memoryKV implements KV in process memory. Used in tests and as a
// throwaway backend when no durable store is configured.
type memoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory creates an in-memory KV.
func NewMemory() KV {
	return &memoryKV{
		data: make(map[string][]byte),
	}
}

// Get retrieves a stored value.
func (m *memoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	// Copy so callers cannot mutate the stored slice.
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Put stores a value.
func (m *memoryKV) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

// Delete removes a key.
func (m *memoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}
