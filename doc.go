// Package clockcache provides a hierarchy of in-memory write-back caches for
// integer keys in front of an arbitrary backing store.
//
// # Levels
//
//   - DirectMapped: one slot per tag (key & (size-1)), O(1) lookup, dirty bit.
//   - ConcurrentDirectMapped: DirectMapped with one cache-line padded lock per tag.
//   - Clock: approximate LRU using two CLOCK hands and a second-chance bit.
//   - SetAssociative: keys partitioned over many Clock sets, one lock per set.
//   - MultiLevel: ConcurrentDirectMapped L1 over SetAssociative L2 over the store.
//   - Threader: a private per-goroutine L1/L2 over a shared cache.
//
// The asynchronous single-consumer pipeline lives in the async sub-package.
//
// # Quick Start
//
//	store := clockcache.BackendFuncs[uint64, string]{
//	    LoadFunc:  func(ctx context.Context, k uint64) (string, error) { return db.Get(ctx, k) },
//	    StoreFunc: func(ctx context.Context, k uint64, v string) error { return db.Put(ctx, k, v) },
//	}
//	c, _ := clockcache.NewMultiLevel[uint64, string](store)
//	_ = c.Set(ctx, 42, "answer")
//	v, _ := c.Get(ctx, 42)
//	_ = c.Flush(ctx) // persist dirty entries
//
// # Write-Back
//
// Set only marks an entry dirty. The backend sees the value when the entry is
// evicted or flushed. An eviction writes the victim back before its slot is
// reused; if that write fails the access returns a *WriteBackError and the
// victim stays cached and dirty. Flush never stops at a failing entry: it
// keeps the entry dirty, logs the failure and returns all failures joined.
//
// # Composition
//
// Every cache type implements Backend through thread-safe Load and Store
// methods, so any level can serve as the backing store of another.
//
// # Observability
//
// Use WithLogger and WithMetrics to attach a *Logger and a MetricsCollector.
// Stats returns per-level hit, miss, eviction, load and write-back counters.
package clockcache
