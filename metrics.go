package streamcluster

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    addCounter          prometheus.Counter
//	    compactionHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordAdd(folded bool) {
//	    p.addCounter.Inc()
//	}
type MetricsCollector interface {
	// RecordAdd is called after each insertion.
	// folded reports whether the item was folded into an existing center.
	RecordAdd(folded bool)

	// RecordCompaction is called after each compaction with the center
	// counts before and after, the new threshold and the time taken.
	RecordCompaction(before, after int, phi float32, duration time.Duration)

	// RecordPhaseTransition is called once, when the engine leaves the
	// initialization phase.
	RecordPhaseTransition(centers int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(bool)                                    {}
func (NoopMetricsCollector) RecordCompaction(int, int, float32, time.Duration) {}
func (NoopMetricsCollector) RecordPhaseTransition(int)                         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount             atomic.Int64
	FoldCount            atomic.Int64
	CompactionCount      atomic.Int64
	CompactionTotalNanos atomic.Int64
	CentersMerged        atomic.Int64
	PhaseTransitions     atomic.Int64
	phiBits              atomic.Uint32
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(folded bool) {
	b.AddCount.Add(1)
	if folded {
		b.FoldCount.Add(1)
	}
}

// RecordCompaction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompaction(before, after int, phi float32, duration time.Duration) {
	b.CompactionCount.Add(1)
	b.CompactionTotalNanos.Add(duration.Nanoseconds())
	b.CentersMerged.Add(int64(before - after))
	b.phiBits.Store(math.Float32bits(phi))
}

// RecordPhaseTransition implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPhaseTransition(int) {
	b.PhaseTransitions.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:           b.AddCount.Load(),
		FoldCount:          b.FoldCount.Load(),
		CompactionCount:    b.CompactionCount.Load(),
		CompactionAvgNanos: b.getAvgCompactionNanos(),
		CentersMerged:      b.CentersMerged.Load(),
		PhaseTransitions:   b.PhaseTransitions.Load(),
		LastCompactionPhi:  math.Float32frombits(b.phiBits.Load()),
	}
}

func (b *BasicMetricsCollector) getAvgCompactionNanos() int64 {
	count := b.CompactionCount.Load()
	if count == 0 {
		return 0
	}
	return b.CompactionTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount           int64
	FoldCount          int64
	CompactionCount    int64
	CompactionAvgNanos int64
	CentersMerged      int64
	PhaseTransitions   int64
	LastCompactionPhi  float32
}
