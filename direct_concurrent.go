package clockcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sys/cpu"
)

// lockedSlot is a tag with its own lock, padded so neighbouring tags never
// share a cache line.
type lockedSlot[K Key, V any] struct {
	_  cpu.CacheLinePad
	mu sync.Mutex
	dmSlot[K, V]
}

// ConcurrentDirectMapped is a DirectMapped cache with one lock per tag.
// Accesses to different tags run in parallel; accesses to the same tag
// serialize, including the backend calls made on a miss.
type ConcurrentDirectMapped[K Key, V any] struct {
	mask  uint64
	slots []lockedSlot[K, V]
	lower lower[K, V]
}

// NewConcurrentDirectMapped creates a per-tag locked direct-mapped cache.
// size must be a power of two.
func NewConcurrentDirectMapped[K Key, V any](size int, backend Backend[K, V], opts ...Option) (*ConcurrentDirectMapped[K, V], error) {
	if err := powerOfTwo("direct-mapped size", size); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, ErrNilBackend
	}

	c := &ConcurrentDirectMapped[K, V]{
		mask:  uint64(size - 1),
		slots: make([]lockedSlot[K, V], size),
	}
	c.lower.init(backend, applyOptions(opts), "direct")
	return c, nil
}

// Get returns the value of key under the lock of its tag.
func (c *ConcurrentDirectMapped[K, V]) Get(ctx context.Context, key K) (V, error) {
	s := &c.slots[tagOf(key, c.mask)]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx, key, &c.lower)
}

// Set stores value under key under the lock of its tag.
func (c *ConcurrentDirectMapped[K, V]) Set(ctx context.Context, key K, value V) error {
	s := &c.slots[tagOf(key, c.mask)]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(ctx, key, value, &c.lower)
}

// GetMany returns the values of keys in order. It stops at the first error.
func (c *ConcurrentDirectMapped[K, V]) GetMany(ctx context.Context, keys []K) ([]V, error) {
	return getMany(ctx, keys, c.Get)
}

// GetThreadSafe is Get; every access is already locked.
func (c *ConcurrentDirectMapped[K, V]) GetThreadSafe(ctx context.Context, key K) (V, error) {
	return c.Get(ctx, key)
}

// SetThreadSafe is Set.
func (c *ConcurrentDirectMapped[K, V]) SetThreadSafe(ctx context.Context, key K, value V) error {
	return c.Set(ctx, key, value)
}

// Load implements Backend.
func (c *ConcurrentDirectMapped[K, V]) Load(ctx context.Context, key K) (V, error) {
	return c.Get(ctx, key)
}

// Store implements Backend.
func (c *ConcurrentDirectMapped[K, V]) Store(ctx context.Context, key K, value V) error {
	return c.Set(ctx, key, value)
}

// Flush writes every dirty entry back, locking one tag at a time.
func (c *ConcurrentDirectMapped[K, V]) Flush(ctx context.Context) error {
	start := time.Now()
	written := 0
	var errs []error
	for i := range c.slots {
		s := &c.slots[i]
		s.mu.Lock()
		if s.occupied && s.dirty {
			if err := s.writeBack(ctx, &c.lower); err != nil {
				errs = append(errs, err)
			} else {
				written++
			}
		}
		s.mu.Unlock()
	}
	return c.lower.flushed(ctx, written, errs, start)
}

// Size returns the number of tags.
func (c *ConcurrentDirectMapped[K, V]) Size() int { return len(c.slots) }

// Stats returns the counters of the cache.
func (c *ConcurrentDirectMapped[K, V]) Stats() Stats { return c.lower.stats() }
