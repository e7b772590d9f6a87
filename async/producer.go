package async

import "github.com/hupe1980/clockcache"

// Producer is a handle bound to one producer slot. Handles are cheap; a
// goroutine typically takes one with Cache.Producer and keeps it.
//
// Several handles may share a slot when there are more producers than
// slots. Their commands interleave but each handle's own commands stay in
// order.
type Producer[K clockcache.Key, V any] struct {
	c    *Cache[K, V]
	slot int
}

// Producer returns a handle bound to the next slot, round-robin.
func (c *Cache[K, V]) Producer() *Producer[K, V] {
	return &Producer[K, V]{c: c, slot: c.allocate()}
}

// Slot returns the slot the handle is bound to.
func (p *Producer[K, V]) Slot() int { return p.slot }

// GetAsync enqueues a read of key into out. It reports false if out is nil or
// the cache is closed.
func (p *Producer[K, V]) GetAsync(key K, out *V) bool {
	return p.c.GetAsync(key, out, p.slot) >= 0
}

// SetAsync enqueues a write. It reports false if the cache is closed.
func (p *Producer[K, V]) SetAsync(key K, value V) bool {
	return p.c.SetAsync(key, value, p.slot) >= 0
}

// Barrier waits until the handle's slot has applied every command enqueued
// before the call.
func (p *Producer[K, V]) Barrier() error {
	return p.c.Barrier(p.slot)
}

// Get enqueues a read and waits for it. The error also covers earlier
// failed commands on the slot that no Barrier has reported yet.
func (p *Producer[K, V]) Get(key K) (V, error) {
	var out V
	if !p.GetAsync(key, &out) {
		return out, ErrClosed
	}
	err := p.Barrier()
	return out, err
}
