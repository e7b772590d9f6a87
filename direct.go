package clockcache

import (
	"context"
	"sync"
	"time"
)

// dmSlot is one direct-mapped tag.
type dmSlot[K Key, V any] struct {
	key      K
	value    V
	dirty    bool
	occupied bool
}

// writeBack persists the occupant if it is dirty. On failure the slot is
// left untouched.
func (s *dmSlot[K, V]) writeBack(ctx context.Context, l *lower[K, V]) error {
	if !s.occupied || !s.dirty {
		return nil
	}
	if err := l.store(ctx, s.key, s.value); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (s *dmSlot[K, V]) get(ctx context.Context, key K, l *lower[K, V]) (V, error) {
	if s.occupied && s.key == key {
		l.hit()
		return s.value, nil
	}
	l.miss()

	wasDirty := s.dirty
	if err := s.writeBack(ctx, l); err != nil {
		var zero V
		return zero, err
	}

	v, err := l.load(ctx, key)
	if err != nil {
		return v, err
	}

	if s.occupied {
		l.evicted(wasDirty)
	}
	s.key, s.value, s.dirty, s.occupied = key, v, false, true
	return v, nil
}

func (s *dmSlot[K, V]) set(ctx context.Context, key K, value V, l *lower[K, V]) error {
	if s.occupied && s.key == key {
		l.hit()
		s.value, s.dirty = value, true
		return nil
	}
	l.miss()

	wasDirty := s.dirty
	if err := s.writeBack(ctx, l); err != nil {
		return err
	}

	if s.occupied {
		l.evicted(wasDirty)
	}
	s.key, s.value, s.dirty, s.occupied = key, value, true, true
	return nil
}

// DirectMapped is a direct-mapped write-back cache: every key maps to exactly
// one tag (key & (size-1)) and two keys sharing a tag evict each other.
//
// Get, Set, GetMany and Flush are not synchronized. GetThreadSafe and
// SetThreadSafe serialize on a single mutex.
type DirectMapped[K Key, V any] struct {
	mu    sync.Mutex
	mask  uint64
	slots []dmSlot[K, V]
	lower lower[K, V]
}

// NewDirectMapped creates a direct-mapped cache with size tags in front of
// backend. size must be a power of two.
func NewDirectMapped[K Key, V any](size int, backend Backend[K, V], opts ...Option) (*DirectMapped[K, V], error) {
	if err := powerOfTwo("direct-mapped size", size); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, ErrNilBackend
	}

	c := &DirectMapped[K, V]{
		mask:  uint64(size - 1),
		slots: make([]dmSlot[K, V], size),
	}
	c.lower.init(backend, applyOptions(opts), "direct")
	return c, nil
}

// Get returns the value of key, loading it from the backend on a miss.
// A dirty occupant of the key's tag is written back before it is replaced.
func (c *DirectMapped[K, V]) Get(ctx context.Context, key K) (V, error) {
	return c.slots[tagOf(key, c.mask)].get(ctx, key, &c.lower)
}

// Set stores value under key and marks it dirty.
// A dirty occupant of the key's tag is written back before it is replaced.
func (c *DirectMapped[K, V]) Set(ctx context.Context, key K, value V) error {
	return c.slots[tagOf(key, c.mask)].set(ctx, key, value, &c.lower)
}

// GetMany returns the values of keys in order. It stops at the first error.
func (c *DirectMapped[K, V]) GetMany(ctx context.Context, keys []K) ([]V, error) {
	return getMany(ctx, keys, c.Get)
}

// GetThreadSafe is Get under the cache mutex.
func (c *DirectMapped[K, V]) GetThreadSafe(ctx context.Context, key K) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Get(ctx, key)
}

// SetThreadSafe is Set under the cache mutex.
func (c *DirectMapped[K, V]) SetThreadSafe(ctx context.Context, key K, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Set(ctx, key, value)
}

// Load implements Backend so the cache can serve as the backend of another level.
func (c *DirectMapped[K, V]) Load(ctx context.Context, key K) (V, error) {
	return c.GetThreadSafe(ctx, key)
}

// Store implements Backend.
func (c *DirectMapped[K, V]) Store(ctx context.Context, key K, value V) error {
	return c.SetThreadSafe(ctx, key, value)
}

// Flush writes every dirty entry back and marks it clean. Entries stay cached.
//
// A failing write-back does not stop the flush: the entry stays dirty and
// the failures are returned joined.
func (c *DirectMapped[K, V]) Flush(ctx context.Context) error {
	start := time.Now()
	written := 0
	var errs []error
	for i := range c.slots {
		s := &c.slots[i]
		if !s.occupied || !s.dirty {
			continue
		}
		if err := s.writeBack(ctx, &c.lower); err != nil {
			errs = append(errs, err)
			continue
		}
		written++
	}
	return c.lower.flushed(ctx, written, errs, start)
}

// Size returns the number of tags.
func (c *DirectMapped[K, V]) Size() int { return len(c.slots) }

// Stats returns the counters of the cache.
func (c *DirectMapped[K, V]) Stats() Stats { return c.lower.stats() }

func getMany[K Key, V any](ctx context.Context, keys []K, get func(context.Context, K) (V, error)) ([]V, error) {
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		v, err := get(ctx, k)
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
