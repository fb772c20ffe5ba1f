package streamcluster

import (
	"context"
	"math"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// State is a serializable copy of a Cluster. Representations are not part
// of the state; they are recomputed through the metric on restore.
type State[T any] struct {
	Capacity     int             `json:"capacity"`
	Phi          float32         `json:"phi"`
	Initializing bool            `json:"initializing"`
	Added        uint64          `json:"added"`
	Compactions  uint64          `json:"compactions"`
	Points       []PointState[T] `json:"points"`
}

// PointState is the serializable form of one center.
type PointState[T any] struct {
	Item   T      `json:"item"`
	Weight uint64 `json:"weight"`
	// Members is the portable roaring64 encoding of the folded ordinals.
	Members []byte `json:"members,omitempty"`
}

// Snapshot copies the engine state. The snapshot shares canonical items with
// the engine but no engine-owned structure.
func (c *Cluster[T, R]) Snapshot() (State[T], error) {
	st := State[T]{
		Capacity:     c.k,
		Phi:          c.phi,
		Initializing: c.initializing,
		Added:        c.added,
		Compactions:  c.compactions,
		Points:       make([]PointState[T], len(c.centers)),
	}
	for i, ctr := range c.centers {
		ps := PointState[T]{
			Item:   ctr.item,
			Weight: ctr.weight,
		}
		if ctr.members != nil {
			b, err := ctr.members.MarshalBinary()
			if err != nil {
				return State[T]{}, err
			}
			ps.Members = b
		}
		st.Points[i] = ps
	}
	return st, nil
}

// Validate reports whether the state describes a reachable engine state.
func (s State[T]) Validate() error {
	if s.Capacity <= 0 {
		return invalidState("capacity %d", s.Capacity)
	}
	if math.IsNaN(float64(s.Phi)) || s.Phi <= 0 {
		return invalidState("phi %v", s.Phi)
	}
	limit := s.Capacity
	if s.Initializing {
		limit = s.Capacity + 1
	} else if len(s.Points) == 0 {
		return invalidState("no centers after initialization")
	}
	if len(s.Points) > limit {
		return invalidState("%d centers exceed capacity %d", len(s.Points), s.Capacity)
	}
	var total uint64
	for i, p := range s.Points {
		if p.Weight == 0 {
			return invalidState("center %d has zero weight", i)
		}
		total += p.Weight
	}
	if total != s.Added {
		return invalidState("total weight %d does not match %d added items", total, s.Added)
	}
	return nil
}

// Restore replaces the engine state with st. The capacity of st must match
// the engine's, and an engine that tracks membership needs member bitmaps
// matching every center's weight. On error the engine is left unchanged.
func (c *Cluster[T, R]) Restore(st State[T]) error {
	err := c.restore(st)
	c.opts.logger.LogRestore(context.Background(), len(c.centers), c.added, err)
	return err
}

func (c *Cluster[T, R]) restore(st State[T]) error {
	if err := st.Validate(); err != nil {
		return err
	}
	if st.Capacity != c.k {
		return invalidState("capacity %d does not match engine capacity %d", st.Capacity, c.k)
	}

	centers := make([]*center[T, R], len(st.Points), max(c.preallocSize(), len(st.Points)))
	for i, p := range st.Points {
		ctr := newCenter(p.Item, c.metric.Representation(p.Item))
		ctr.weight = p.Weight
		if c.opts.membership {
			if len(p.Members) == 0 {
				return invalidState("members missing for center %d", i)
			}
			ctr.members = roaring64.New()
			if err := ctr.members.UnmarshalBinary(p.Members); err != nil {
				return &ErrInvalidState{Reason: "decoding members", cause: err}
			}
			if n := ctr.members.GetCardinality(); n != p.Weight {
				return invalidState("center %d has %d members but weight %d", i, n, p.Weight)
			}
		}
		centers[i] = ctr
	}

	c.centers = centers
	c.phi = st.Phi
	c.initializing = st.Initializing
	c.added = st.Added
	c.compactions = st.Compactions
	return nil
}

// FromState creates a Cluster and restores st into it.
func FromState[T, R any](st State[T], metric Metric[T, R], optFns ...Option) (*Cluster[T, R], error) {
	c, err := New(st.Capacity, metric, optFns...)
	if err != nil {
		return nil, err
	}
	if err := c.Restore(st); err != nil {
		return nil, err
	}
	return c, nil
}
