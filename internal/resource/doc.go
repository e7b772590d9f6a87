// Package resource bounds the load a cache puts on its backing store.
//
// A Controller combines three limits, each optional:
//
//   - In-flight calls: a weighted semaphore caps concurrent backend calls.
//   - Call rate: a token bucket caps backend calls per second.
//   - Byte rate: a token bucket caps encoded bytes moved per second.
//
// # Usage
//
//	rc := resource.NewController(resource.Config{
//	    MaxInFlight: 16,
//	    OpsPerSec:   5000,
//	})
//
//	if err := rc.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer rc.Release()
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
// This allows optional limiting without nil checks everywhere.
package resource
