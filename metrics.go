package clockcache

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting cache metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Hits and misses are recorded on the hot path; implementations should be
// cheap and safe for concurrent use.
type MetricsCollector interface {
	RecordHit()
	RecordMiss()

	// RecordEviction is called when an occupied slot is repurposed.
	// dirty reports whether the victim had to be written back first.
	RecordEviction(dirty bool)

	// RecordLoad is called after each read-miss load from the backend.
	RecordLoad(duration time.Duration, err error)

	// RecordWriteBack is called after each write of a dirty entry.
	RecordWriteBack(duration time.Duration, err error)

	// RecordFlush is called after each flush with the number of entries written.
	RecordFlush(written int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordHit()                            {}
func (NoopMetricsCollector) RecordMiss()                           {}
func (NoopMetricsCollector) RecordEviction(bool)                   {}
func (NoopMetricsCollector) RecordLoad(time.Duration, error)       {}
func (NoopMetricsCollector) RecordWriteBack(time.Duration, error)  {}
func (NoopMetricsCollector) RecordFlush(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	Hits            atomic.Int64
	Misses          atomic.Int64
	Evictions       atomic.Int64
	DirtyEvictions  atomic.Int64
	LoadCount       atomic.Int64
	LoadErrors      atomic.Int64
	LoadTotalNanos  atomic.Int64
	WriteBackCount  atomic.Int64
	WriteBackErrors atomic.Int64
	WriteBackNanos  atomic.Int64
	FlushCount      atomic.Int64
	FlushWritten    atomic.Int64
	FlushErrors     atomic.Int64
}

// RecordHit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordHit() { b.Hits.Add(1) }

// RecordMiss implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMiss() { b.Misses.Add(1) }

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction(dirty bool) {
	b.Evictions.Add(1)
	if dirty {
		b.DirtyEvictions.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordWriteBack implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWriteBack(duration time.Duration, err error) {
	b.WriteBackCount.Add(1)
	b.WriteBackNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteBackErrors.Add(1)
	}
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(written int, _ time.Duration, err error) {
	b.FlushCount.Add(1)
	b.FlushWritten.Add(int64(written))
	if err != nil {
		b.FlushErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		Hits:            b.Hits.Load(),
		Misses:          b.Misses.Load(),
		Evictions:       b.Evictions.Load(),
		DirtyEvictions:  b.DirtyEvictions.Load(),
		LoadCount:       b.LoadCount.Load(),
		LoadErrors:      b.LoadErrors.Load(),
		LoadAvgNanos:    avg(b.LoadTotalNanos.Load(), b.LoadCount.Load()),
		WriteBackCount:  b.WriteBackCount.Load(),
		WriteBackErrors: b.WriteBackErrors.Load(),
		WriteBackAvgNs:  avg(b.WriteBackNanos.Load(), b.WriteBackCount.Load()),
		FlushCount:      b.FlushCount.Load(),
		FlushWritten:    b.FlushWritten.Load(),
		FlushErrors:     b.FlushErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Hits            int64
	Misses          int64
	Evictions       int64
	DirtyEvictions  int64
	LoadCount       int64
	LoadErrors      int64
	LoadAvgNanos    int64
	WriteBackCount  int64
	WriteBackErrors int64
	WriteBackAvgNs  int64
	FlushCount      int64
	FlushWritten    int64
	FlushErrors     int64
}

// HitRatio returns hits / (hits + misses), or 0 before the first access.
func (s BasicMetricsStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
