package clockcache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Stats is a snapshot of the counters of one cache level.
type Stats struct {
	Hits       int64
	Misses     int64
	Evictions  int64
	Loads      int64
	WriteBacks int64
}

// HitRatio returns hits / (hits + misses), or 0 before the first access.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Add returns the field-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Hits:       s.Hits + o.Hits,
		Misses:     s.Misses + o.Misses,
		Evictions:  s.Evictions + o.Evictions,
		Loads:      s.Loads + o.Loads,
		WriteBacks: s.WriteBacks + o.WriteBacks,
	}
}

// lower is the path from a cache level to the level below it: the backend
// plus the counters, metrics and logging wrapped around every call into it.
type lower[K Key, V any] struct {
	backend Backend[K, V]
	logger  *Logger
	metrics MetricsCollector

	hits       atomic.Int64
	misses     atomic.Int64
	evictions  atomic.Int64
	loads      atomic.Int64
	writeBacks atomic.Int64
}

func (l *lower[K, V]) init(backend Backend[K, V], o options, level string) {
	l.backend = backend
	if o.levelName != "" {
		level = o.levelName
	}
	l.logger = o.logger.WithLevel(level)
	l.metrics = o.metrics
}

func (l *lower[K, V]) hit() {
	l.hits.Add(1)
	l.metrics.RecordHit()
}

func (l *lower[K, V]) miss() {
	l.misses.Add(1)
	l.metrics.RecordMiss()
}

func (l *lower[K, V]) evicted(dirty bool) {
	l.evictions.Add(1)
	l.metrics.RecordEviction(dirty)
}

func (l *lower[K, V]) load(ctx context.Context, key K) (V, error) {
	start := time.Now()
	v, err := l.backend.Load(ctx, key)
	l.metrics.RecordLoad(time.Since(start), err)
	l.loads.Add(1)
	if err != nil {
		var le *LoadError
		if !errors.As(err, &le) {
			l.logger.LogLoad(ctx, key, err)
			err = &LoadError{Key: key, Err: err}
		}
		var zero V
		return zero, err
	}
	return v, nil
}

func (l *lower[K, V]) store(ctx context.Context, key K, value V) error {
	start := time.Now()
	err := l.backend.Store(ctx, key, value)
	l.metrics.RecordWriteBack(time.Since(start), err)
	if err != nil {
		var we *WriteBackError
		if !errors.As(err, &we) {
			l.logger.LogWriteBack(ctx, key, err)
			err = &WriteBackError{Key: key, Err: err}
		}
		return err
	}
	l.writeBacks.Add(1)
	return nil
}

func (l *lower[K, V]) flushed(ctx context.Context, written int, errs []error, start time.Time) error {
	err := errors.Join(errs...)
	l.metrics.RecordFlush(written, time.Since(start), err)
	l.logger.LogFlush(ctx, written, len(errs))
	return err
}

func (l *lower[K, V]) stats() Stats {
	return Stats{
		Hits:       l.hits.Load(),
		Misses:     l.misses.Load(),
		Evictions:  l.evictions.Load(),
		Loads:      l.loads.Load(),
		WriteBacks: l.writeBacks.Load(),
	}
}
