// Package testutil provides testing utilities for clockcache.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Keys
//
//	rng := testutil.NewRNG(seed)
//	keys := rng.Keys(1000, 1<<20) // 1000 keys in [0, 1<<20)
//
// # Recording Backend
//
// Recorder is an in-memory backend that records every Load and Store in
// order and can inject failures:
//
//	rec := testutil.NewRecorder[uint64, string]()
//	rec.FailStore = func(k uint64) error { return errBoom }
//	...
//	stores := rec.Calls(testutil.OpStore)
package testutil
