package clockcache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCapacity is returned by constructors for unusable capacities.
	ErrInvalidCapacity = errors.New("invalid capacity")

	// ErrNilBackend is returned when a cache is constructed without a backend.
	ErrNilBackend = errors.New("nil backend")
)

// CapacityError reports a rejected capacity parameter.
//
// It unwraps to ErrInvalidCapacity.
type CapacityError struct {
	Param string
	Value int
	// Want describes the accepted range, e.g. "power of two".
	Want string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("invalid %s %d: must be %s", e.Param, e.Value, e.Want)
}

func (e *CapacityError) Unwrap() error { return ErrInvalidCapacity }

// WriteBackError reports a failed write of a dirty entry to the backend.
// The entry stays dirty in the cache.
type WriteBackError struct {
	Key any
	Err error
}

func (e *WriteBackError) Error() string {
	return fmt.Sprintf("write-back of key %v failed: %v", e.Key, e.Err)
}

func (e *WriteBackError) Unwrap() error { return e.Err }

// LoadError reports a failed read-miss load from the backend.
type LoadError struct {
	Key any
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load of key %v failed: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func powerOfTwo(param string, v int) error {
	if isPowerOfTwo(v) {
		return nil
	}
	return &CapacityError{Param: param, Value: v, Want: "a power of two"}
}

func atLeast(param string, v, min int) error {
	if v >= min {
		return nil
	}
	return &CapacityError{Param: param, Value: v, Want: fmt.Sprintf("at least %d", min)}
}
