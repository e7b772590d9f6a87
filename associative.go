package clockcache

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// SetAssociative partitions keys over numSets independent Clock caches by
// the low bits of the key (key & (numSets-1)).
//
// Get and Set touch the owning set without locking. The ThreadSafe variants,
// the Backend methods and Flush lock only the owning set, so goroutines
// working on different sets never contend.
type SetAssociative[K Key, V any] struct {
	mask             uint64
	sets             []*Clock[K, V]
	flushConcurrency int
}

// NewSetAssociative creates numSets sets of tagsPerSet CLOCK slots each.
// numSets must be a power of two.
func NewSetAssociative[K Key, V any](numSets, tagsPerSet int, backend Backend[K, V], opts ...Option) (*SetAssociative[K, V], error) {
	if err := powerOfTwo("set count", numSets); err != nil {
		return nil, err
	}
	if err := atLeast("tags per set", tagsPerSet, 1); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, ErrNilBackend
	}

	o := applyOptions(opts)
	c := &SetAssociative[K, V]{
		mask:             uint64(numSets - 1),
		sets:             make([]*Clock[K, V], numSets),
		flushConcurrency: o.flushConcurrency,
	}
	if c.flushConcurrency <= 0 {
		c.flushConcurrency = runtime.GOMAXPROCS(0)
	}

	for i := range c.sets {
		set, err := NewClock(tagsPerSet, backend, opts...)
		if err != nil {
			return nil, err
		}
		c.sets[i] = set
	}
	return c, nil
}

func (c *SetAssociative[K, V]) set(key K) *Clock[K, V] {
	return c.sets[tagOf(key, c.mask)]
}

// Get returns the value of key from its set without locking.
func (c *SetAssociative[K, V]) Get(ctx context.Context, key K) (V, error) {
	return c.set(key).Get(ctx, key)
}

// Set stores value under key in its set without locking.
func (c *SetAssociative[K, V]) Set(ctx context.Context, key K, value V) error {
	return c.set(key).Set(ctx, key, value)
}

// GetMany returns the values of keys in order, locking each key's set in turn.
// It stops at the first error.
func (c *SetAssociative[K, V]) GetMany(ctx context.Context, keys []K) ([]V, error) {
	return getMany(ctx, keys, c.GetThreadSafe)
}

// GetThreadSafe is Get under the lock of the key's set.
func (c *SetAssociative[K, V]) GetThreadSafe(ctx context.Context, key K) (V, error) {
	return c.set(key).GetThreadSafe(ctx, key)
}

// SetThreadSafe is Set under the lock of the key's set.
func (c *SetAssociative[K, V]) SetThreadSafe(ctx context.Context, key K, value V) error {
	return c.set(key).SetThreadSafe(ctx, key, value)
}

// Load implements Backend.
func (c *SetAssociative[K, V]) Load(ctx context.Context, key K) (V, error) {
	return c.GetThreadSafe(ctx, key)
}

// Store implements Backend.
func (c *SetAssociative[K, V]) Store(ctx context.Context, key K, value V) error {
	return c.SetThreadSafe(ctx, key, value)
}

// Flush flushes every set under its own lock, several sets in parallel.
// Failures of individual sets do not stop the others and are returned joined.
func (c *SetAssociative[K, V]) Flush(ctx context.Context) error {
	errs := make([]error, len(c.sets))

	var g errgroup.Group
	g.SetLimit(c.flushConcurrency)
	for i, set := range c.sets {
		g.Go(func() error {
			errs[i] = set.FlushThreadSafe(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// NumSets returns the number of sets.
func (c *SetAssociative[K, V]) NumSets() int { return len(c.sets) }

// Len returns the number of mapped keys over all sets.
func (c *SetAssociative[K, V]) Len() int {
	n := 0
	for _, set := range c.sets {
		n += set.Len()
	}
	return n
}

// Stats returns the counters summed over all sets.
func (c *SetAssociative[K, V]) Stats() Stats {
	var s Stats
	for _, set := range c.sets {
		s = s.Add(set.Stats())
	}
	return s
}

// SetStats returns the counters of each set, indexed by set number.
func (c *SetAssociative[K, V]) SetStats() []Stats {
	stats := make([]Stats, len(c.sets))
	for i, set := range c.sets {
		stats[i] = set.Stats()
	}
	return stats
}
