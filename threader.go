package clockcache

import (
	"context"
	"errors"
)

// Threader is a private two-level front cache for one goroutine, placed in
// front of a cache shared with other goroutines.
//
// The private levels (a DirectMapped L1 over a Clock L2) are not
// synchronized and must only be used by the owning goroutine. The shared
// cache is reached only through its Backend methods, which are thread-safe
// on every cache type in this package.
//
// Writes stay private until they are evicted or flushed, so goroutines do
// not observe each other's writes before a Flush.
type Threader[K Key, V any] struct {
	l1 *DirectMapped[K, V]
	l2 *Clock[K, V]
}

// NewThreader creates a front cache with l1Size direct-mapped tags (a power
// of two) and l2Size CLOCK slots over shared.
func NewThreader[K Key, V any](l1Size, l2Size int, shared Backend[K, V], opts ...Option) (*Threader[K, V], error) {
	l2, err := NewClock(l2Size, shared, opts...)
	if err != nil {
		return nil, err
	}
	l1, err := NewDirectMapped[K, V](l1Size, l2, opts...)
	if err != nil {
		return nil, err
	}
	return &Threader[K, V]{l1: l1, l2: l2}, nil
}

// Get returns the value of key.
func (t *Threader[K, V]) Get(ctx context.Context, key K) (V, error) {
	return t.l1.Get(ctx, key)
}

// Set stores value under key in the private L1.
func (t *Threader[K, V]) Set(ctx context.Context, key K, value V) error {
	return t.l1.Set(ctx, key, value)
}

// GetMany returns the values of keys in order. It stops at the first error.
func (t *Threader[K, V]) GetMany(ctx context.Context, keys []K) ([]V, error) {
	return t.l1.GetMany(ctx, keys)
}

// Flush drains the private levels into the shared cache. It does not flush
// the shared cache itself.
func (t *Threader[K, V]) Flush(ctx context.Context) error {
	err1 := t.l1.Flush(ctx)
	err2 := t.l2.Flush(ctx)
	return errors.Join(err1, err2)
}

// Stats returns the counters of the private levels.
func (t *Threader[K, V]) Stats() MultiLevelStats {
	return MultiLevelStats{L1: t.l1.Stats(), L2: t.l2.Stats()}
}
