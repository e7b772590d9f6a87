package async

import (
	"time"

	"github.com/hupe1980/clockcache"
)

// Defaults.
const (
	DefaultProducers  = 8
	DefaultL1Size     = 1 << 10
	DefaultL2Size     = 1 << 14
	DefaultIdlePasses = 100
	DefaultIdleSleep  = time.Millisecond
)

type options struct {
	producers  int
	l1Size     int
	l2Size     int
	idlePasses int
	idleSleep  time.Duration
	logger     *clockcache.Logger
	metrics    clockcache.MetricsCollector
}

// Option configures an async Cache.
type Option func(*options)

// WithProducers sets the number of producer slots. Must be a power of two.
func WithProducers(n int) Option {
	return func(o *options) {
		o.producers = n
	}
}

// WithL1Size sets the number of direct-mapped L1 tags. Must be a power of two.
func WithL1Size(n int) Option {
	return func(o *options) {
		o.l1Size = n
	}
}

// WithL2Size sets the number of CLOCK L2 slots.
func WithL2Size(n int) Option {
	return func(o *options) {
		o.l2Size = n
	}
}

// WithIdlePasses sets how many consecutive passes without work the consumer
// makes before it starts sleeping between passes.
func WithIdlePasses(n int) Option {
	return func(o *options) {
		o.idlePasses = n
	}
}

// WithIdleSleep sets how long an idle consumer sleeps between passes.
func WithIdleSleep(d time.Duration) Option {
	return func(o *options) {
		o.idleSleep = d
	}
}

// WithLogger sets the logger used by the consumer and the cache levels.
func WithLogger(l *clockcache.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = clockcache.NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics sets the metrics collector of the cache levels.
func WithMetrics(m clockcache.MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = clockcache.NoopMetricsCollector{}
		}
		o.metrics = m
	}
}
