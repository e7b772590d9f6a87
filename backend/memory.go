package backend

import (
	"context"
	"maps"
	"sync"

	"github.com/hupe1980/clockcache"
)

var _ clockcache.Backend[int, any] = (*Memory[int, any])(nil)

// Memory is a map-backed Backend. Missing keys load as the zero value.
// Safe for concurrent use.
type Memory[K clockcache.Key, V any] struct {
	mu     sync.RWMutex
	values map[K]V
}

// NewMemory creates an empty Memory backend.
func NewMemory[K clockcache.Key, V any]() *Memory[K, V] {
	return &Memory[K, V]{values: make(map[K]V)}
}

// Load implements clockcache.Backend.
func (m *Memory[K, V]) Load(_ context.Context, key K) (V, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

// Store implements clockcache.Backend.
func (m *Memory[K, V]) Store(_ context.Context, key K, value V) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Len returns the number of stored keys.
func (m *Memory[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Snapshot returns a copy of the stored values.
func (m *Memory[K, V]) Snapshot() map[K]V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values)
}

// MemoryObjects is an in-memory ObjectStore for testing.
// Thread-safe for concurrent reads and writes.
type MemoryObjects struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryObjects creates an empty in-memory object store.
func NewMemoryObjects() *MemoryObjects {
	return &MemoryObjects{blobs: make(map[string][]byte)}
}

// Get returns a copy of the blob.
func (m *MemoryObjects) Get(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Put stores a copy of data.
func (m *MemoryObjects) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[name] = append([]byte(nil), data...)
	return nil
}

// Delete removes a blob.
func (m *MemoryObjects) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

// Names returns the stored blob names in unspecified order.
func (m *MemoryObjects) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.blobs))
	for name := range m.blobs {
		names = append(names, name)
	}
	return names
}
