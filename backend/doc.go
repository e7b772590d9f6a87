// Package backend provides backing stores for clockcache levels.
//
// Every type here implements clockcache.Backend and can sit behind any cache
// level:
//
//   - Memory keeps values in a map.
//   - Object encodes values with a codec.Codec and stores them as named blobs
//     in an ObjectStore (Local, MemoryObjects, or the remote stores in the
//     s3 and minio subpackages).
//   - Throttle bounds concurrency and call rate of another Backend.
//   - Coalesce merges concurrent loads of the same key.
//   - Retry retries transient failures with exponential backoff.
//
// Decorators compose:
//
//	store, _ := backend.NewLocal("/var/lib/cache", backend.Limits{})
//	objects := backend.NewObject[int64, Item](store, backend.WithPrefix("items"))
//	be := backend.NewCoalesce(backend.NewThrottle(objects, backend.Limits{MaxInFlight: 16}))
//	cache, _ := clockcache.NewMultiLevel(be)
package backend
