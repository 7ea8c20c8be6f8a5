package session

import (
	"context"
	"sync"
)

// MemoryBackend keeps the session in process memory. Nothing survives a restart.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ Backend = (*MemoryBackend)(nil)

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryBackend) Commit(_ context.Context, puts map[string][]byte, deletes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range puts {
		m.data[k] = append([]byte(nil), v...)
	}
	for _, k := range deletes {
		delete(m.data, k)
	}
	return nil
}

// Keys returns the number of stored keys.
func (m *MemoryBackend) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryBackend) Close() error { return nil }
