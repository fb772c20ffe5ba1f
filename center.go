package streamcluster

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// center is one maintained cluster center. Only the canonical item is kept;
// items folded into it survive as weight (and optionally as ordinals).
type center[T, R any] struct {
	item    T
	repr    R
	weight  uint64
	members *roaring64.Bitmap // nil unless membership tracking is enabled
}

func newCenter[T, R any](item T, repr R) *center[T, R] {
	return &center[T, R]{
		item:   item,
		repr:   repr,
		weight: 1,
	}
}

// fold accounts for one more stream element at ordinal seq.
func (c *center[T, R]) fold(seq uint64) {
	c.weight++
	if c.members != nil {
		c.members.Add(seq)
	}
}

// absorb transfers the full weight of other into c.
func (c *center[T, R]) absorb(other *center[T, R]) {
	c.weight += other.weight
	if c.members != nil && other.members != nil {
		c.members.Or(other.members)
	}
}

func (c *center[T, R]) point() Point[T] {
	p := Point[T]{
		Item:   c.item,
		Weight: c.weight,
	}
	if c.members != nil {
		p.Members = c.members.ToArray()
	}
	return p
}

// Point is a read-only view of a cluster center.
type Point[T any] struct {
	// Item is the canonical stream item representing the center.
	Item T
	// Weight is the number of stream elements folded into the center.
	Weight uint64
	// Members lists the stream ordinals folded into the center in ascending
	// order. Only populated when membership tracking is enabled.
	Members []uint64
}

func newMembers(seq uint64) *roaring64.Bitmap {
	b := roaring64.New()
	b.Add(seq)
	return b
}
