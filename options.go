package clockcache

type options struct {
	logger           *Logger
	metrics          MetricsCollector
	l1Metrics        MetricsCollector
	l2Metrics        MetricsCollector
	levelName        string
	l1Size           int
	l2Sets           int
	l2TagsPerSet     int
	flushConcurrency int
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metrics:          NoopMetricsCollector{},
		l1Size:           DefaultL1Size,
		l2Sets:           DefaultL2Sets,
		l2TagsPerSet:     DefaultL2TagsPerSet,
		flushConcurrency: 0,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Option configures cache construction.
type Option func(*options)

// WithLogger sets the logger used to report failed loads, write-backs and flushes.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics sets the metrics collector.
//
// If nil is passed, metrics are discarded.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithL1Metrics sets the collector of the L1 level of a MultiLevel cache,
// overriding WithMetrics for that level. Use it with WithL2Metrics to keep
// hit ratios of the two levels apart.
func WithL1Metrics(m MetricsCollector) Option {
	return func(o *options) {
		o.l1Metrics = m
	}
}

// WithL2Metrics sets the collector of the L2 level of a MultiLevel cache,
// overriding WithMetrics for that level.
func WithL2Metrics(m MetricsCollector) Option {
	return func(o *options) {
		o.l2Metrics = m
	}
}

func withLevelName(name string) Option {
	return func(o *options) {
		o.levelName = name
	}
}

// WithL1Size sets the number of direct-mapped L1 tags of a MultiLevel cache.
// Must be a power of two.
func WithL1Size(n int) Option {
	return func(o *options) {
		o.l1Size = n
	}
}

// WithL2Sets sets the number of L2 sets of a MultiLevel cache.
// Must be a power of two.
func WithL2Sets(n int) Option {
	return func(o *options) {
		o.l2Sets = n
	}
}

// WithL2TagsPerSet sets the CLOCK capacity of each L2 set of a MultiLevel cache.
func WithL2TagsPerSet(n int) Option {
	return func(o *options) {
		o.l2TagsPerSet = n
	}
}

// WithFlushConcurrency bounds the number of sets flushed in parallel by
// SetAssociative.Flush. Zero or negative means one goroutine per CPU.
func WithFlushConcurrency(n int) Option {
	return func(o *options) {
		o.flushConcurrency = n
	}
}
