package backend

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/clockcache"
)

// Coalesce merges concurrent loads of one key into a single backend call.
//
// Private Threader levels over one shared backend miss independently, so the
// same key can be loaded by several goroutines at once. Store is passed
// through and forgets any in-flight load of the key so later loads observe
// the write.
type Coalesce[K clockcache.Key, V any] struct {
	next  clockcache.Backend[K, V]
	group singleflight.Group
}

// NewCoalesce wraps next.
func NewCoalesce[K clockcache.Key, V any](next clockcache.Backend[K, V]) *Coalesce[K, V] {
	return &Coalesce[K, V]{next: next}
}

// Load implements clockcache.Backend.
func (c *Coalesce[K, V]) Load(ctx context.Context, key K) (V, error) {
	v, err, _ := c.group.Do(FormatKey(key), func() (any, error) {
		return c.next.Load(ctx, key)
	})
	if err != nil {
		var zero V
		return zero, err
	}
	val, _ := v.(V)
	return val, nil
}

// Store implements clockcache.Backend.
func (c *Coalesce[K, V]) Store(ctx context.Context, key K, value V) error {
	name := FormatKey(key)
	c.group.Forget(name)
	err := c.next.Store(ctx, key, value)
	c.group.Forget(name)
	return err
}
