package testutil

import (
	"context"
	"maps"
	"sync"
)

// Op identifies a backend call.
type Op uint8

const (
	OpLoad Op = iota + 1
	OpStore
)

func (o Op) String() string {
	switch o {
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	default:
		return "unknown"
	}
}

// Call is one recorded backend call.
type Call[K comparable, V any] struct {
	Op    Op
	Key   K
	Value V
}

// Recorder is an in-memory backend that records every call.
// It is safe for concurrent use.
type Recorder[K comparable, V any] struct {
	// FailLoad, if set, is consulted before each Load; a non-nil error is
	// returned and nothing is read.
	FailLoad func(K) error
	// FailStore, if set, is consulted before each Store; a non-nil error is
	// returned and nothing is written.
	FailStore func(K) error

	mu    sync.Mutex
	data  map[K]V
	calls []Call[K, V]
}

// NewRecorder creates an empty Recorder.
func NewRecorder[K comparable, V any]() *Recorder[K, V] {
	return &Recorder[K, V]{data: make(map[K]V)}
}

// NewRecorderWith creates a Recorder preloaded with data. Preloading is not recorded.
func NewRecorderWith[K comparable, V any](data map[K]V) *Recorder[K, V] {
	r := NewRecorder[K, V]()
	maps.Copy(r.data, data)
	return r
}

// Load returns the stored value of key, or the zero value.
func (r *Recorder[K, V]) Load(_ context.Context, key K) (V, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero V
	if r.FailLoad != nil {
		if err := r.FailLoad(key); err != nil {
			r.calls = append(r.calls, Call[K, V]{Op: OpLoad, Key: key})
			return zero, err
		}
	}
	v, ok := r.data[key]
	if !ok {
		v = zero
	}
	r.calls = append(r.calls, Call[K, V]{Op: OpLoad, Key: key, Value: v})
	return v, nil
}

// Store records value under key.
func (r *Recorder[K, V]) Store(_ context.Context, key K, value V) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call[K, V]{Op: OpStore, Key: key, Value: value})
	if r.FailStore != nil {
		if err := r.FailStore(key); err != nil {
			return err
		}
	}
	r.data[key] = value
	return nil
}

// Calls returns the recorded calls, filtered to ops if any are given.
func (r *Recorder[K, V]) Calls(ops ...Op) []Call[K, V] {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Call[K, V], 0, len(r.calls))
	for _, c := range r.calls {
		if len(ops) == 0 || containsOp(ops, c.Op) {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the number of recorded calls of op.
func (r *Recorder[K, V]) Count(op Op) int {
	return len(r.Calls(op))
}

// Reset forgets the recorded calls but keeps the data.
func (r *Recorder[K, V]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Value returns the stored value of key.
func (r *Recorder[K, V]) Value(key K) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[key]
	return v, ok
}

// Snapshot returns a copy of the stored data.
func (r *Recorder[K, V]) Snapshot() map[K]V {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.data)
}

func containsOp(ops []Op, op Op) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}
