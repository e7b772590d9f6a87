package backend

import (
	"context"

	"github.com/hupe1980/clockcache"
	"github.com/hupe1980/clockcache/internal/resource"
)

// Throttle limits the calls made to another Backend.
type Throttle[K clockcache.Key, V any] struct {
	next clockcache.Backend[K, V]
	rc   *resource.Controller
}

// NewThrottle wraps next with limits.
func NewThrottle[K clockcache.Key, V any](next clockcache.Backend[K, V], limits Limits) *Throttle[K, V] {
	return &Throttle[K, V]{next: next, rc: resource.NewController(limits)}
}

// Load implements clockcache.Backend.
func (t *Throttle[K, V]) Load(ctx context.Context, key K) (V, error) {
	if err := t.rc.Acquire(ctx); err != nil {
		var zero V
		return zero, err
	}
	defer t.rc.Release()
	return t.next.Load(ctx, key)
}

// Store implements clockcache.Backend.
func (t *Throttle[K, V]) Store(ctx context.Context, key K, value V) error {
	if err := t.rc.Acquire(ctx); err != nil {
		return err
	}
	defer t.rc.Release()
	return t.next.Store(ctx, key, value)
}

// InFlight returns the number of calls currently running.
func (t *Throttle[K, V]) InFlight() int64 {
	return t.rc.InFlight()
}
