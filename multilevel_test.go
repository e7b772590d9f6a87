package clockcache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/clockcache/testutil"
)

func TestMultiLevel_ReadThrough(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewRecorderWith(map[uint64]string{5: "five"})

	c, err := NewMultiLevel[uint64, string](store, WithL1Size(4), WithL2Sets(2), WithL2TagsPerSet(4))
	require.NoError(t, err)

	v, err := c.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "five", v)

	v, err = c.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "five", v)

	assert.Equal(t, 1, store.Count(testutil.OpLoad))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.L1.Hits)
	assert.Equal(t, int64(1), stats.L1.Misses)
	assert.Equal(t, int64(1), stats.L2.Misses)
}

func TestMultiLevel_PerLevelMetrics(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewRecorderWith(map[uint64]string{5: "five"})
	l1, l2 := &BasicMetricsCollector{}, &BasicMetricsCollector{}

	c, err := NewMultiLevel[uint64, string](store, WithL1Size(4), WithL2Sets(2), WithL2TagsPerSet(4),
		WithL1Metrics(l1), WithL2Metrics(l2))
	require.NoError(t, err)

	for range 3 {
		_, err := c.Get(ctx, 5)
		require.NoError(t, err)
	}

	s1, s2 := l1.GetStats(), l2.GetStats()
	assert.Equal(t, int64(2), s1.Hits)
	assert.Equal(t, int64(1), s1.Misses)
	assert.Equal(t, int64(0), s2.Hits)
	assert.Equal(t, int64(1), s2.Misses)
}

func TestMultiLevel_LogsLevelNames(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	store := testutil.NewRecorder[uint64, string]()
	store.FailLoad = func(uint64) error { return boom }

	var buf bytes.Buffer
	logger := &Logger{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	c, err := NewMultiLevel[uint64, string](store, WithL1Size(4), WithL2Sets(2), WithL2TagsPerSet(4), WithLogger(logger))
	require.NoError(t, err)

	_, err = c.Get(ctx, 1)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "cache=l2")
}

func TestMultiLevel_L1EvictionLandsInL2(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewRecorder[uint64, string]()

	c, err := NewMultiLevel[uint64, string](store, WithL1Size(4), WithL2Sets(2), WithL2TagsPerSet(4))
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, 0, "a"))
	require.NoError(t, c.Set(ctx, 4, "b")) // evicts 0 from L1 into L2

	// Nothing reached the backend yet.
	assert.Empty(t, store.Calls())

	v, err := c.Get(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	assert.Empty(t, store.Calls(testutil.OpLoad))

	require.NoError(t, c.Flush(ctx))
	assert.Equal(t, map[uint64]string{0: "a", 4: "b"}, store.Snapshot())

	store.Reset()
	require.NoError(t, c.Flush(ctx))
	assert.Empty(t, store.Calls())
}

func TestMultiLevel_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewRecorder[uint64, uint64]()

	c, err := NewMultiLevel[uint64, uint64](store, WithL1Size(64), WithL2Sets(8), WithL2TagsPerSet(16))
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	for g := range uint64(workers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range uint64(3000) {
				k := (i%512)*workers + g
				v, err := c.Get(ctx, k)
				if err != nil {
					t.Error(err)
					return
				}
				if err := c.Set(ctx, k, v+1); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	require.NoError(t, c.Flush(ctx))

	var total uint64
	for _, v := range store.Snapshot() {
		total += v
	}
	assert.Equal(t, uint64(workers*3000), total)
}

func TestMultiLevel_FlushReportsFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	store := testutil.NewRecorder[int, int]()
	store.FailStore = func(int) error { return boom }

	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	metrics := &BasicMetricsCollector{}

	c, err := NewMultiLevel[int, int](store,
		WithL1Size(4), WithL2Sets(2), WithL2TagsPerSet(2),
		WithLogger(logger), WithMetrics(metrics),
	)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, 1, 1))
	require.NoError(t, c.Set(ctx, 2, 2))

	err = c.Flush(ctx)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "write-back failed")

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.WriteBackErrors)
	assert.Positive(t, stats.FlushErrors)

	// Retry once the backend recovers.
	store.FailStore = nil
	require.NoError(t, c.Flush(ctx))
	assert.Equal(t, map[int]int{1: 1, 2: 2}, store.Snapshot())
}

func TestMultiLevel_DefaultGeometry(t *testing.T) {
	c, err := NewMultiLevel[uint32, int](testutil.NewRecorder[uint32, int]())
	require.NoError(t, err)

	assert.Equal(t, DefaultL1Size, c.L1().Size())
	assert.Equal(t, DefaultL2Sets, c.L2().NumSets())
}

func TestMultiLevel_InvalidGeometry(t *testing.T) {
	_, err := NewMultiLevel[int, int](testutil.NewRecorder[int, int](), WithL1Size(100))
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestThreader_PrivateUntilFlush(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewRecorder[int, int]()

	shared, err := NewSetAssociative[int, int](4, 4, store)
	require.NoError(t, err)

	t1, err := NewThreader[int, int](4, 4, shared)
	require.NoError(t, err)
	t2, err := NewThreader[int, int](4, 4, shared)
	require.NoError(t, err)

	require.NoError(t, t1.Set(ctx, 7, 70))

	v, err := t2.Get(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, t1.Flush(ctx))

	// t2 still holds its stale copy; a fresh front cache sees the write.
	t3, err := NewThreader[int, int](4, 4, shared)
	require.NoError(t, err)
	v, err = t3.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 70, v)

	// The shared level was not flushed to the store.
	assert.Zero(t, store.Count(testutil.OpStore))
	require.NoError(t, shared.Flush(ctx))
	got, ok := store.Value(7)
	require.True(t, ok)
	assert.Equal(t, 70, got)
}

func TestThreader_PerGoroutine(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewRecorder[uint64, uint64]()

	shared, err := NewSetAssociative[uint64, uint64](8, 8, store)
	require.NoError(t, err)

	const workers = 4
	var wg sync.WaitGroup
	for g := range uint64(workers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			front, err := NewThreader[uint64, uint64](8, 16, shared)
			if err != nil {
				t.Error(err)
				return
			}
			for i := range uint64(1000) {
				k := (i%100)*workers + g
				if err := front.Set(ctx, k, k+g); err != nil {
					t.Error(err)
					return
				}
			}
			if err := front.Flush(ctx); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	require.NoError(t, shared.Flush(ctx))
	snap := store.Snapshot()
	assert.Len(t, snap, 400)
	for k, v := range snap {
		assert.Equal(t, k+k%workers, v)
	}
}
