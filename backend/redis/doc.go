// Package redis provides a clockcache.Backend stored in Redis.
//
// Each cache key is one Redis string "<prefix><decimal key>" holding the
// codec-encoded value. Missing keys load as backend.ErrNotFound unless
// WithZeroOnMissing is set.
package redis
