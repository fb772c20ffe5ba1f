package streamcluster

import (
	"slices"

	"github.com/hupe1980/streamcluster/distance"
)

// Metric turns stream items into representations and measures the distance
// between two representations.
//
// Representation must be deterministic: equal items must yield
// representations at identical distances from everything else. Distance
// must be non-negative, symmetric and zero for identical representations.
// The triangle inequality is assumed for the approximation quality, but it
// is never checked.
type Metric[T, R any] interface {
	Representation(item T) R
	Distance(a, b R) float32
}

// MetricFunc adapts a pair of plain functions to the Metric interface.
type MetricFunc[T, R any] struct {
	Repr func(item T) R
	Dist func(a, b R) float32
}

// Representation implements Metric.
func (m MetricFunc[T, R]) Representation(item T) R { return m.Repr(item) }

// Distance implements Metric.
func (m MetricFunc[T, R]) Distance(a, b R) float32 { return m.Dist(a, b) }

// VectorMetric clusters raw float32 vectors. The representation is a copy of
// the item, so callers may reuse their buffers after Add returns.
//
// A nil Func defaults to distance.SquaredL2.
type VectorMetric struct {
	Func distance.Func
}

// NewVectorMetric returns a VectorMetric for the given distance metric.
func NewVectorMetric(m distance.Metric) (VectorMetric, error) {
	f, err := distance.Provider(m)
	if err != nil {
		return VectorMetric{}, err
	}
	return VectorMetric{Func: f}, nil
}

// Representation implements Metric.
func (v VectorMetric) Representation(item []float32) []float32 {
	return slices.Clone(item)
}

// Distance implements Metric.
func (v VectorMetric) Distance(a, b []float32) float32 {
	if v.Func == nil {
		return distance.SquaredL2(a, b)
	}
	return v.Func(a, b)
}
