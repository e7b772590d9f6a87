package clockcache

import (
	"context"
	"math/bits"
)

// Key is the set of integer types usable as cache keys.
//
// Keys are mapped to slots and sets by bitmasking, so any integer type works,
// including signed ones: a negative key is masked through its two's complement
// representation.
type Key interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Backend is the backing store behind a cache level.
//
// Load is called on a read miss, Store when a dirty entry is written back.
// Implementations used behind the concurrent caches must be safe to call
// concurrently for distinct keys.
type Backend[K Key, V any] interface {
	Load(ctx context.Context, key K) (V, error)
	Store(ctx context.Context, key K, value V) error
}

// BackendFuncs adapts a pair of read-miss and write-miss functions to Backend.
// A nil LoadFunc yields the zero value, a nil StoreFunc discards writes.
type BackendFuncs[K Key, V any] struct {
	LoadFunc  func(ctx context.Context, key K) (V, error)
	StoreFunc func(ctx context.Context, key K, value V) error
}

// Load implements Backend.
func (f BackendFuncs[K, V]) Load(ctx context.Context, key K) (V, error) {
	if f.LoadFunc == nil {
		var zero V
		return zero, nil
	}
	return f.LoadFunc(ctx, key)
}

// Store implements Backend.
func (f BackendFuncs[K, V]) Store(ctx context.Context, key K, value V) error {
	if f.StoreFunc == nil {
		return nil
	}
	return f.StoreFunc(ctx, key, value)
}

func tagOf[K Key](key K, mask uint64) int {
	return int(uint64(key) & mask)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && bits.OnesCount(uint(n)) == 1
}
