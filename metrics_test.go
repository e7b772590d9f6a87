package clockcache

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}

	m.RecordHit()
	m.RecordHit()
	m.RecordHit()
	m.RecordMiss()
	m.RecordEviction(true)
	m.RecordEviction(false)
	m.RecordLoad(2*time.Millisecond, nil)
	m.RecordLoad(4*time.Millisecond, errors.New("boom"))
	m.RecordWriteBack(time.Millisecond, nil)
	m.RecordFlush(3, time.Millisecond, nil)

	s := m.GetStats()
	assert.Equal(t, int64(3), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.InDelta(t, 0.75, s.HitRatio(), 1e-9)
	assert.Equal(t, int64(2), s.Evictions)
	assert.Equal(t, int64(1), s.DirtyEvictions)
	assert.Equal(t, int64(2), s.LoadCount)
	assert.Equal(t, int64(1), s.LoadErrors)
	assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), s.LoadAvgNanos)
	assert.Equal(t, int64(1), s.WriteBackCount)
	assert.Equal(t, int64(3), s.FlushWritten)
	assert.Zero(t, s.FlushErrors)
}

func TestStatsHitRatio(t *testing.T) {
	assert.Zero(t, Stats{}.HitRatio())

	s := Stats{Hits: 1, Misses: 3}.Add(Stats{Hits: 1, Misses: 3, Evictions: 2})
	assert.Equal(t, Stats{Hits: 2, Misses: 6, Evictions: 2}, s)
	assert.InDelta(t, 0.25, s.HitRatio(), 1e-9)
}

func TestNoopLoggerDiscards(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}
