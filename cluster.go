package streamcluster

import (
	"context"
	"fmt"
	"math"
	"time"
)

const (
	// InitialPhi is the threshold a fresh engine starts with. Because the
	// phase flag is checked before an item is handled and phi starts at the
	// largest float32, the first positive distance observed during
	// initialization always lowers it.
	InitialPhi float32 = math.MaxFloat32

	// MergeFactor scales phi into the merge radius used both for folding new
	// items and for compaction.
	MergeFactor float32 = 4

	growthFactor float32 = 2

	// maxDefaultPrealloc caps the center slots reserved without an explicit
	// WithCapacityHint; larger engines grow their slice on demand.
	maxDefaultPrealloc = 1024
)

// Cluster maintains at most K weighted centers over a stream of items.
//
// T is the stream item type and R its representation under the metric.
// A Cluster is not safe for concurrent use.
type Cluster[T, R any] struct {
	metric Metric[T, R]
	opts   options

	k            int
	initializing bool
	centers      []*center[T, R]
	phi          float32

	added       uint64
	compactions uint64
}

// New creates a Cluster that keeps at most k centers.
func New[T, R any](k int, metric Metric[T, R], optFns ...Option) (*Cluster[T, R], error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, k)
	}
	if metric == nil {
		return nil, ErrNilMetric
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Cluster[T, R]{
		metric: metric,
		opts:   opts,
		k:      k,
	}
	c.opts.logger = c.opts.logger.WithCapacity(k)
	c.Reset()
	return c, nil
}

// Reset discards all centers and returns the engine to its freshly
// constructed state.
func (c *Cluster[T, R]) Reset() {
	c.centers = make([]*center[T, R], 0, c.preallocSize())
	c.initializing = true
	c.phi = InitialPhi
	c.added = 0
	c.compactions = 0
}

// preallocSize is the initial capacity of the center slice: the explicit
// hint if any, otherwise K+2 capped at maxDefaultPrealloc+2.
func (c *Cluster[T, R]) preallocSize() int {
	if c.opts.capacityHint > 0 {
		return c.opts.capacityHint
	}
	return min(c.k, maxDefaultPrealloc) + 2
}

// Add ingests one stream item.
//
// During the initialization phase every item becomes its own center. After
// it, the item is folded into the nearest center if that center lies within
// MergeFactor*phi, and becomes a new center otherwise; a compaction then
// restores the bound of K centers.
//
// During initialization phi only takes positive distances: a duplicate of an
// existing center would otherwise set phi to 0, and 0 stays 0 under
// doubling, so every later item would open a new center.
func (c *Cluster[T, R]) Add(item T) {
	repr := c.metric.Representation(item)
	seq := c.added
	c.added++

	if c.initializing && len(c.centers) > c.k {
		c.initializing = false
		c.opts.metricsCollector.RecordPhaseTransition(len(c.centers))
		c.opts.logger.LogPhaseTransition(context.Background(), len(c.centers), c.phi)
	}

	if c.initializing {
		// Zero distances come from duplicate items; taking them would pin
		// phi at zero, where doubling can no longer grow it.
		if d, ok := c.minDistance(repr); ok && d > 0 && d < c.phi {
			c.phi = d
		}
		c.push(item, repr, seq)
		c.opts.metricsCollector.RecordAdd(false)
		return
	}

	nearest, d := c.nearest(repr)
	folded := d <= MergeFactor*c.phi
	if folded {
		nearest.fold(seq)
	} else {
		c.push(item, repr, seq)
	}
	c.opts.metricsCollector.RecordAdd(folded)

	c.compact()
}

// AddBatch ingests items in order.
func (c *Cluster[T, R]) AddBatch(items ...T) {
	for _, item := range items {
		c.Add(item)
	}
}

func (c *Cluster[T, R]) push(item T, repr R, seq uint64) {
	ctr := newCenter(item, repr)
	if c.opts.membership {
		ctr.members = newMembers(seq)
	}
	c.centers = append(c.centers, ctr)
}

func (c *Cluster[T, R]) minDistance(repr R) (float32, bool) {
	if len(c.centers) == 0 {
		return 0, false
	}
	best := c.metric.Distance(c.centers[0].repr, repr)
	for _, ctr := range c.centers[1:] {
		best = min(best, c.metric.Distance(ctr.repr, repr))
	}
	return best, true
}

// nearest returns the center closest to repr. Ties go to the first center
// in iteration order.
func (c *Cluster[T, R]) nearest(repr R) (*center[T, R], float32) {
	if len(c.centers) == 0 {
		panic(fmt.Errorf("streamcluster: nearest center lookup: %w", ErrNoCenters))
	}
	best := c.centers[0]
	bestDist := c.metric.Distance(best.repr, repr)
	for _, ctr := range c.centers[1:] {
		if d := c.metric.Distance(ctr.repr, repr); d < bestDist {
			best, bestDist = ctr, d
		}
	}
	return best, bestDist
}

// compact doubles phi and merges every pair of centers within
// MergeFactor*phi until at most K centers remain.
//
// One round is not always enough. With K=2 and the stream 0, 1, 100, 1000
// the engine leaves initialization with phi=1 and four centers; doubling
// once (radius 8) only merges 0 and 1, leaving three. The rounds continue
// through phi=32 (radius 128), where 100 absorbs the merged 0/1 center and
// two centers remain.
func (c *Cluster[T, R]) compact() {
	if len(c.centers) <= c.k {
		return
	}

	start := time.Now()
	before := len(c.centers)
	for len(c.centers) > c.k {
		c.phi = min(c.phi*growthFactor, InitialPhi)
		c.centers = c.merge(c.centers, MergeFactor*c.phi)
	}
	c.compactions++

	c.opts.metricsCollector.RecordCompaction(before, len(c.centers), c.phi, time.Since(start))
	c.opts.logger.LogCompaction(context.Background(), before, len(c.centers), c.phi)
}

// merge repeatedly takes the last active center, absorbs every remaining
// active center within radius of it and moves it to the result.
func (c *Cluster[T, R]) merge(active []*center[T, R], radius float32) []*center[T, R] {
	merged := make([]*center[T, R], 0, cap(active))
	for len(active) > 0 {
		last := len(active) - 1
		probe := active[last]
		active[last] = nil
		active = active[:last]

		kept := active[:0]
		for _, other := range active {
			if c.metric.Distance(probe.repr, other.repr) > radius {
				kept = append(kept, other)
				continue
			}
			probe.absorb(other)
		}
		clear(active[len(kept):])
		active = kept

		merged = append(merged, probe)
	}
	return merged
}

// Centers returns the canonical item of every center, in no particular
// order. The engine is left untouched; repeated calls without an
// intervening Add return the same items.
func (c *Cluster[T, R]) Centers() []T {
	items := make([]T, len(c.centers))
	for i, ctr := range c.centers {
		items[i] = ctr.item
	}
	return items
}

// Points returns a view of every center with its weight.
func (c *Cluster[T, R]) Points() []Point[T] {
	points := make([]Point[T], len(c.centers))
	for i, ctr := range c.centers {
		points[i] = ctr.point()
	}
	return points
}

// Drain returns the canonical item of every center and resets the engine.
func (c *Cluster[T, R]) Drain() []T {
	items := c.Centers()
	c.Reset()
	return items
}

// Phi returns the current merge threshold.
func (c *Cluster[T, R]) Phi() float32 { return c.phi }

// Len returns the current number of centers.
func (c *Cluster[T, R]) Len() int { return len(c.centers) }

// Capacity returns the bound K.
func (c *Cluster[T, R]) Capacity() int { return c.k }

// Initializing reports whether the engine is still in its initialization
// phase.
func (c *Cluster[T, R]) Initializing() bool { return c.initializing }

// Added returns the number of items ingested since construction or the
// last Reset.
func (c *Cluster[T, R]) Added() uint64 { return c.added }

// TotalWeight returns the sum of all center weights. It always equals
// Added.
func (c *Cluster[T, R]) TotalWeight() uint64 {
	var sum uint64
	for _, ctr := range c.centers {
		sum += ctr.weight
	}
	return sum
}

// Stats is a point-in-time summary of a Cluster.
type Stats struct {
	Centers      int
	Capacity     int
	Phi          float32
	Initializing bool
	Added        uint64
	TotalWeight  uint64
	Compactions  uint64
}

// Stats returns a summary of the engine state.
func (c *Cluster[T, R]) Stats() Stats {
	return Stats{
		Centers:      len(c.centers),
		Capacity:     c.k,
		Phi:          c.phi,
		Initializing: c.initializing,
		Added:        c.added,
		TotalWeight:  c.TotalWeight(),
		Compactions:  c.compactions,
	}
}
