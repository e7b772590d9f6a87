package otelmetrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/hupe1980/clockcache"
	"github.com/hupe1980/clockcache/testutil"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumWhere(t *testing.T, data metricdata.Aggregation, key attribute.Key, value attribute.Value) int64 {
	t.Helper()

	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(key); ok && v == value {
			total += dp.Value
		}
	}
	return total
}

func histogramCount(t *testing.T, data metricdata.Aggregation, errored bool) uint64 {
	t.Helper()

	h, ok := data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var n uint64
	for _, dp := range h.DataPoints {
		if v, ok := dp.Attributes.Value("error"); ok && v.AsBool() == errored {
			n += dp.Count
		}
	}
	return n
}

func TestCollector(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	collector, err := New(provider.Meter("clockcache"), WithLevel("l2"))
	require.NoError(t, err)

	store := testutil.NewRecorder[int, int]()
	store.FailStore = func(k int) error {
		if k == 3 {
			return errors.New("boom")
		}
		return nil
	}

	cache, err := clockcache.NewClock[int, int](2, store, clockcache.WithMetrics(collector))
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, 1, 10)) // miss
	require.NoError(t, cache.Set(ctx, 2, 20)) // miss
	_, err = cache.Get(ctx, 1)                // hit
	require.NoError(t, err)
	_, err = cache.Get(ctx, 4) // miss, evicts a dirty entry
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, 3, 30))
	assert.Error(t, cache.Flush(ctx))

	data := collect(t, reader)

	requests := data[MetricRequests]
	assert.Equal(t, int64(1), sumWhere(t, requests, "result", attribute.StringValue("hit")))
	assert.Equal(t, int64(4), sumWhere(t, requests, "result", attribute.StringValue("miss")))
	assert.Equal(t, int64(5), sumWhere(t, requests, "level", attribute.StringValue("l2")))

	assert.Equal(t, int64(2), sumWhere(t, data[MetricEvictions], "dirty", attribute.BoolValue(true)))

	assert.Equal(t, uint64(1), histogramCount(t, data[MetricLoadDuration], false))
	assert.Equal(t, uint64(1), histogramCount(t, data[MetricWriteBackDuration], true))
	assert.Equal(t, uint64(1), histogramCount(t, data[MetricFlushDuration], true))
}

func TestCollectorDirect(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	collector, err := New(provider.Meter("clockcache"))
	require.NoError(t, err)

	collector.RecordEviction(false)
	collector.RecordFlush(3, 0, nil)
	collector.RecordFlush(2, 0, nil)

	data := collect(t, reader)
	assert.Equal(t, int64(1), sumWhere(t, data[MetricEvictions], "dirty", attribute.BoolValue(false)))
	assert.Equal(t, int64(5), sumWhere(t, data[MetricFlushWritten], "error", attribute.BoolValue(false)))
}
