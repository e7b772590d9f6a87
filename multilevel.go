package clockcache

import (
	"context"
	"errors"
	"slices"
)

// Default MultiLevel geometry.
const (
	DefaultL1Size       = 1 << 16
	DefaultL2Sets       = 256
	DefaultL2TagsPerSet = 1024
)

// MultiLevel chains a per-tag locked direct-mapped L1 in front of a
// set-associative CLOCK L2 in front of the backend. All methods are safe for
// concurrent use.
//
// Misses cascade synchronously: an L1 miss reads through L2, an L2 miss
// reads the backend. An L1 eviction is accepted into an L2 slot, marked
// dirty there, before the L1 slot is reused. Locks are always taken in the
// order L1 tag, L2 set, backend.
type MultiLevel[K Key, V any] struct {
	l1 *ConcurrentDirectMapped[K, V]
	l2 *SetAssociative[K, V]
}

// MultiLevelStats holds the counters of both levels.
type MultiLevelStats struct {
	L1 Stats
	L2 Stats
}

// NewMultiLevel creates a two-level cache over backend. Geometry defaults to
// DefaultL1Size, DefaultL2Sets and DefaultL2TagsPerSet and can be changed
// with WithL1Size, WithL2Sets and WithL2TagsPerSet.
//
// Both levels report to the WithMetrics collector unless WithL1Metrics or
// WithL2Metrics give a level its own.
func NewMultiLevel[K Key, V any](backend Backend[K, V], opts ...Option) (*MultiLevel[K, V], error) {
	o := applyOptions(opts)

	l2, err := NewSetAssociative(o.l2Sets, o.l2TagsPerSet, backend, levelOptions(opts, "l2", o.l2Metrics)...)
	if err != nil {
		return nil, err
	}
	l1, err := NewConcurrentDirectMapped[K, V](o.l1Size, l2, levelOptions(opts, "l1", o.l1Metrics)...)
	if err != nil {
		return nil, err
	}
	return &MultiLevel[K, V]{l1: l1, l2: l2}, nil
}

func levelOptions(opts []Option, name string, m MetricsCollector) []Option {
	out := append(slices.Clone(opts), withLevelName(name))
	if m != nil {
		out = append(out, WithMetrics(m))
	}
	return out
}

// Get returns the value of key.
func (c *MultiLevel[K, V]) Get(ctx context.Context, key K) (V, error) {
	return c.l1.Get(ctx, key)
}

// Set stores value under key in L1.
func (c *MultiLevel[K, V]) Set(ctx context.Context, key K, value V) error {
	return c.l1.Set(ctx, key, value)
}

// GetMany returns the values of keys in order. It stops at the first error.
func (c *MultiLevel[K, V]) GetMany(ctx context.Context, keys []K) ([]V, error) {
	return c.l1.GetMany(ctx, keys)
}

// GetThreadSafe is Get.
func (c *MultiLevel[K, V]) GetThreadSafe(ctx context.Context, key K) (V, error) {
	return c.l1.Get(ctx, key)
}

// SetThreadSafe is Set.
func (c *MultiLevel[K, V]) SetThreadSafe(ctx context.Context, key K, value V) error {
	return c.l1.Set(ctx, key, value)
}

// Load implements Backend.
func (c *MultiLevel[K, V]) Load(ctx context.Context, key K) (V, error) {
	return c.l1.Get(ctx, key)
}

// Store implements Backend.
func (c *MultiLevel[K, V]) Store(ctx context.Context, key K, value V) error {
	return c.l1.Set(ctx, key, value)
}

// Flush flushes L1 into L2, then L2 into the backend. L2 is flushed even if
// the L1 flush reported failures.
func (c *MultiLevel[K, V]) Flush(ctx context.Context) error {
	err1 := c.l1.Flush(ctx)
	err2 := c.l2.Flush(ctx)
	return errors.Join(err1, err2)
}

// L1 returns the direct-mapped first level.
func (c *MultiLevel[K, V]) L1() *ConcurrentDirectMapped[K, V] { return c.l1 }

// L2 returns the set-associative second level.
func (c *MultiLevel[K, V]) L2() *SetAssociative[K, V] { return c.l2 }

// Stats returns the counters of both levels.
func (c *MultiLevel[K, V]) Stats() MultiLevelStats {
	return MultiLevelStats{L1: c.l1.Stats(), L2: c.l2.Stats()}
}
