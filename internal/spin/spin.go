package spin

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Mutex is a test-and-set spin lock. The zero value is unlocked.
//
// It is intended for critical sections that are a handful of instructions
// long (an append or a slice swap). Waiters yield the processor between
// attempts instead of parking.
type Mutex struct {
	locked atomic.Bool
}

// Lock acquires the lock, spinning until it becomes available.
func (m *Mutex) Lock() {
	for !m.locked.CompareAndSwap(false, true) {
		for m.locked.Load() {
			runtime.Gosched()
		}
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (m *Mutex) TryLock() bool {
	return m.locked.CompareAndSwap(false, true)
}

// Unlock releases the lock.
func (m *Mutex) Unlock() {
	m.locked.Store(false)
}

// PaddedMutex is a Mutex occupying its own cache line.
type PaddedMutex struct {
	_ cpu.CacheLinePad
	Mutex
	_ cpu.CacheLinePad
}

// Flag is a boolean signalled by one goroutine and awaited by others.
type Flag struct {
	v atomic.Bool
}

// Set raises the flag.
func (f *Flag) Set() { f.v.Store(true) }

// Clear lowers the flag.
func (f *Flag) Clear() { f.v.Store(false) }

// IsSet reports whether the flag is raised.
func (f *Flag) IsSet() bool { return f.v.Load() }

// Wait yields until the flag is raised or stop returns true.
// It reports whether the flag was observed raised.
func (f *Flag) Wait(stop func() bool) bool {
	for !f.v.Load() {
		if stop != nil && stop() {
			return f.v.Load()
		}
		runtime.Gosched()
	}
	return true
}

// PaddedFlag is a Flag occupying its own cache line.
type PaddedFlag struct {
	_ cpu.CacheLinePad
	Flag
	_ cpu.CacheLinePad
}
