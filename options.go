package streamcluster

import (
	"log/slog"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	membership       bool
	capacityHint     int
}

func defaultOptions() options {
	return options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}

// Option configures Cluster construction.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &streamcluster.BasicMetricsCollector{}
//	c, _ := streamcluster.New[[]float32, []float32](10, metric, streamcluster.WithMetricsCollector(metrics))
//	// ... feed c ...
//	stats := metrics.GetStats()
//	fmt.Printf("Adds: %d, Compactions: %d\n", stats.AddCount, stats.CompactionCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for phase transitions,
// compactions and feed progress. Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := streamcluster.NewJSONLogger(slog.LevelDebug)
//	c, _ := streamcluster.New[[]float32, []float32](10, metric, streamcluster.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMembership makes every center remember the stream ordinals folded
// into it (0-based, in insertion order). Ordinals are kept in compressed
// roaring bitmaps; memory grows with the stream length, so leave this off
// for unbounded streams.
func WithMembership() Option {
	return func(o *options) {
		o.membership = true
	}
}

// WithCapacityHint preallocates room for n centers. Without it the engine
// reserves K+2 slots, at most 1026; values <= 0 keep that default.
func WithCapacityHint(n int) Option {
	return func(o *options) {
		o.capacityHint = n
	}
}
