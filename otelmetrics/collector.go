package otelmetrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hupe1980/clockcache"
)

var _ clockcache.MetricsCollector = (*Collector)(nil)

// Instrument names.
const (
	MetricRequests          = "clockcache.requests"
	MetricEvictions         = "clockcache.evictions"
	MetricLoadDuration      = "clockcache.load.duration"
	MetricWriteBackDuration = "clockcache.writeback.duration"
	MetricFlushDuration     = "clockcache.flush.duration"
	MetricFlushWritten      = "clockcache.flush.written"
)

// Option configures a Collector.
type Option func(*Collector)

// WithLevel adds a level attribute (e.g. "l1") to every measurement.
func WithLevel(level string) Option {
	return func(c *Collector) {
		c.base = append(c.base, attribute.String("level", level))
	}
}

// Collector implements clockcache.MetricsCollector with OpenTelemetry
// instruments.
type Collector struct {
	base []attribute.KeyValue

	requests  metric.Int64Counter
	evictions metric.Int64Counter
	load      metric.Float64Histogram
	writeBack metric.Float64Histogram
	flush     metric.Float64Histogram
	written   metric.Int64Counter

	hit, miss        metric.MeasurementOption
	clean, dirty     metric.MeasurementOption
	success, failure metric.MeasurementOption
}

// New creates the instruments on meter.
func New(meter metric.Meter, opts ...Option) (*Collector, error) {
	c := &Collector{}
	for _, fn := range opts {
		fn(c)
	}

	var err error
	if c.requests, err = meter.Int64Counter(MetricRequests,
		metric.WithDescription("Cache lookups by result")); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", MetricRequests, err)
	}
	if c.evictions, err = meter.Int64Counter(MetricEvictions,
		metric.WithDescription("Occupied slots repurposed for another key")); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", MetricEvictions, err)
	}
	if c.load, err = meter.Float64Histogram(MetricLoadDuration,
		metric.WithDescription("Backend read-miss latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", MetricLoadDuration, err)
	}
	if c.writeBack, err = meter.Float64Histogram(MetricWriteBackDuration,
		metric.WithDescription("Backend write-miss latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", MetricWriteBackDuration, err)
	}
	if c.flush, err = meter.Float64Histogram(MetricFlushDuration,
		metric.WithDescription("Flush latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", MetricFlushDuration, err)
	}
	if c.written, err = meter.Int64Counter(MetricFlushWritten,
		metric.WithDescription("Dirty entries written by flushes")); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", MetricFlushWritten, err)
	}

	c.hit = c.with(attribute.String("result", "hit"))
	c.miss = c.with(attribute.String("result", "miss"))
	c.clean = c.with(attribute.Bool("dirty", false))
	c.dirty = c.with(attribute.Bool("dirty", true))
	c.success = c.with(attribute.Bool("error", false))
	c.failure = c.with(attribute.Bool("error", true))
	return c, nil
}

// with precomputes an attribute set so the hot path does not allocate.
func (c *Collector) with(kv ...attribute.KeyValue) metric.MeasurementOption {
	all := make([]attribute.KeyValue, 0, len(c.base)+len(kv))
	all = append(all, c.base...)
	all = append(all, kv...)
	return metric.WithAttributeSet(attribute.NewSet(all...))
}

func (c *Collector) outcome(err error) metric.MeasurementOption {
	if err != nil {
		return c.failure
	}
	return c.success
}

// RecordHit implements clockcache.MetricsCollector.
func (c *Collector) RecordHit() {
	c.requests.Add(context.Background(), 1, c.hit)
}

// RecordMiss implements clockcache.MetricsCollector.
func (c *Collector) RecordMiss() {
	c.requests.Add(context.Background(), 1, c.miss)
}

// RecordEviction implements clockcache.MetricsCollector.
func (c *Collector) RecordEviction(dirty bool) {
	opt := c.clean
	if dirty {
		opt = c.dirty
	}
	c.evictions.Add(context.Background(), 1, opt)
}

// RecordLoad implements clockcache.MetricsCollector.
func (c *Collector) RecordLoad(d time.Duration, err error) {
	c.load.Record(context.Background(), d.Seconds(), c.outcome(err))
}

// RecordWriteBack implements clockcache.MetricsCollector.
func (c *Collector) RecordWriteBack(d time.Duration, err error) {
	c.writeBack.Record(context.Background(), d.Seconds(), c.outcome(err))
}

// RecordFlush implements clockcache.MetricsCollector.
func (c *Collector) RecordFlush(written int, d time.Duration, err error) {
	ctx := context.Background()
	opt := c.outcome(err)
	c.flush.Record(ctx, d.Seconds(), opt)
	c.written.Add(ctx, int64(written), opt)
}
