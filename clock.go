package clockcache

import (
	"context"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sys/cpu"
)

type clockSlot[K Key, V any] struct {
	key      K
	value    V
	dirty    bool
	chance   bool
	occupied bool
}

// Clock is an approximate-LRU write-back cache using the two-handed CLOCK
// (second chance) algorithm.
//
// A hit sets the slot's chance bit. On a miss two hands advance in
// lock-step, half the ring apart: the leading hand clears chance bits and
// the trailing hand evicts the first slot whose bit is already clear. A
// recently used slot therefore survives one extra sweep.
//
// Get, Set, GetMany and Flush are not synchronized. The ThreadSafe variants
// and the Backend methods serialize on the cache mutex.
type Clock[K Key, V any] struct {
	_  cpu.CacheLinePad
	mu sync.Mutex

	slots     []clockSlot[K, V]
	index     map[K]int
	hand      int
	evictHand int
	// dirty holds the indices of dirty slots; Flush walks only these.
	dirty *roaring.Bitmap

	lower lower[K, V]
}

// NewClock creates a CLOCK cache with size slots in front of backend.
//
// size need not be a power of two. With size 1 both hands point at the
// single slot and every miss replaces it.
func NewClock[K Key, V any](size int, backend Backend[K, V], opts ...Option) (*Clock[K, V], error) {
	if err := atLeast("clock size", size, 1); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, ErrNilBackend
	}

	c := &Clock[K, V]{
		slots:     make([]clockSlot[K, V], size),
		index:     make(map[K]int, size),
		evictHand: size / 2,
		dirty:     roaring.New(),
	}
	c.lower.init(backend, applyOptions(opts), "clock")
	return c, nil
}

// victim advances both hands until the trailing hand finds a slot without
// a second chance and returns its index.
func (c *Clock[K, V]) victim() int {
	n := len(c.slots)
	for {
		c.slots[c.hand].chance = false
		candidate := c.evictHand

		c.hand++
		if c.hand == n {
			c.hand = 0
		}
		c.evictHand++
		if c.evictHand == n {
			c.evictHand = 0
		}

		if !c.slots[candidate].chance {
			return candidate
		}
	}
}

func (c *Clock[K, V]) writeBack(ctx context.Context, i int) error {
	s := &c.slots[i]
	if !s.occupied || !s.dirty {
		return nil
	}
	if err := c.lower.store(ctx, s.key, s.value); err != nil {
		return err
	}
	s.dirty = false
	c.dirty.Remove(uint32(i))
	return nil
}

// replace moves slot i over to key. The caller has written back the old occupant.
func (c *Clock[K, V]) replace(i int, key K, value V, dirty, wasDirty bool) {
	s := &c.slots[i]
	if s.occupied {
		delete(c.index, s.key)
		c.lower.evicted(wasDirty)
	}
	s.key, s.value, s.dirty, s.chance, s.occupied = key, value, dirty, false, true
	c.index[key] = i
	if dirty {
		c.dirty.Add(uint32(i))
	}
}

// Get returns the value of key, loading it from the backend on a miss.
func (c *Clock[K, V]) Get(ctx context.Context, key K) (V, error) {
	if i, ok := c.index[key]; ok {
		s := &c.slots[i]
		s.chance = true
		c.lower.hit()
		return s.value, nil
	}
	c.lower.miss()

	i := c.victim()
	wasDirty := c.slots[i].dirty
	if err := c.writeBack(ctx, i); err != nil {
		var zero V
		return zero, err
	}

	v, err := c.lower.load(ctx, key)
	if err != nil {
		return v, err
	}
	c.replace(i, key, v, false, wasDirty)
	return v, nil
}

// Set stores value under key and marks it dirty.
func (c *Clock[K, V]) Set(ctx context.Context, key K, value V) error {
	if i, ok := c.index[key]; ok {
		s := &c.slots[i]
		s.chance = true
		s.value = value
		if !s.dirty {
			s.dirty = true
			c.dirty.Add(uint32(i))
		}
		c.lower.hit()
		return nil
	}
	c.lower.miss()

	i := c.victim()
	wasDirty := c.slots[i].dirty
	if err := c.writeBack(ctx, i); err != nil {
		return err
	}
	c.replace(i, key, value, true, wasDirty)
	return nil
}

// GetMany returns the values of keys in order. It stops at the first error.
func (c *Clock[K, V]) GetMany(ctx context.Context, keys []K) ([]V, error) {
	return getMany(ctx, keys, c.Get)
}

// GetThreadSafe is Get under the cache mutex.
func (c *Clock[K, V]) GetThreadSafe(ctx context.Context, key K) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Get(ctx, key)
}

// SetThreadSafe is Set under the cache mutex.
func (c *Clock[K, V]) SetThreadSafe(ctx context.Context, key K, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Set(ctx, key, value)
}

// Load implements Backend.
func (c *Clock[K, V]) Load(ctx context.Context, key K) (V, error) {
	return c.GetThreadSafe(ctx, key)
}

// Store implements Backend.
func (c *Clock[K, V]) Store(ctx context.Context, key K, value V) error {
	return c.SetThreadSafe(ctx, key, value)
}

// Flush writes every dirty entry back and unmaps it, so the next access to
// that key misses. Clean entries stay mapped.
//
// A failing write-back leaves its entry dirty and mapped; the remaining
// entries are still flushed and the failures are returned joined.
func (c *Clock[K, V]) Flush(ctx context.Context) error {
	start := time.Now()
	written := 0
	var errs []error

	// Snapshot: writeBack mutates the bitmap.
	for _, i := range c.dirty.ToArray() {
		idx := int(i)
		if err := c.writeBack(ctx, idx); err != nil {
			errs = append(errs, err)
			continue
		}
		s := &c.slots[idx]
		delete(c.index, s.key)
		var zero clockSlot[K, V]
		*s = zero
		written++
	}
	return c.lower.flushed(ctx, written, errs, start)
}

// FlushThreadSafe is Flush under the cache mutex.
func (c *Clock[K, V]) FlushThreadSafe(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Flush(ctx)
}

// Len returns the number of mapped keys.
func (c *Clock[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Size returns the number of slots.
func (c *Clock[K, V]) Size() int { return len(c.slots) }

// Stats returns the counters of the cache.
func (c *Clock[K, V]) Stats() Stats { return c.lower.stats() }
