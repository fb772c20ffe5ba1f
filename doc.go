// Package streamcluster provides bounded-memory online clustering for Go.
//
// A Cluster consumes a stream one item at a time and maintains at most K
// weighted centers approximating a k-center partition of everything seen so
// far. The stream itself is never stored; only the canonical item of every
// center, its cached representation and the number of stream elements folded
// into it.
//
// # Quick Start
//
//	metric := streamcluster.VectorMetric{Func: distance.SquaredL2}
//	c, _ := streamcluster.New[[]float32, []float32](10, metric)
//	for _, v := range vectors {
//	    c.Add(v)
//	}
//	centers := c.Centers()
//
// # Algorithm
//
// The engine implements the incremental doubling heuristic for k-center
// clustering. During the initialization phase every item becomes its own
// center and the threshold phi tracks the smallest distance observed. Once
// the center count exceeds K for the first time, new items are folded into
// the nearest center when it lies within 4*phi and become new centers
// otherwise. Whenever the count exceeds K, phi is doubled and all centers
// within 4*phi of each other are merged, transferring their weights.
//
// The phase flag is evaluated before an item is handled and phi starts at
// InitialPhi (the largest float32), so the first distance observed always
// lowers it.
//
// # Metrics
//
// The engine is generic over a Metric capability that turns an item into a
// representation and measures the distance between two representations:
//
//	type Metric[T, R any] interface {
//	    Representation(item T) R
//	    Distance(a, b R) float32
//	}
//
// The distance is expected to be a metric. Violations (asymmetry, NaN) are
// not detected; they degrade clustering quality without breaking the engine.
//
// # Persistence
//
// Snapshot and Restore move the engine state in and out of a plain value
// that the checkpoint package encodes, compresses and stores in any
// blobstore.Store (local disk, memory, S3, MinIO).
//
// # Concurrency
//
// A Cluster is not safe for concurrent use. Feed a single engine from one
// goroutine, or guard it externally.
package streamcluster
