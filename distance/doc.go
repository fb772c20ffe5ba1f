// Package distance provides the distance functions used to cluster vectors.
//
// Every function returned by Provider is a non-negative, symmetric distance
// that is zero for identical inputs, which is what the clustering engine
// expects from its metric.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (default)
//   - MetricEuclidean: Euclidean distance
//   - MetricCosine: Cosine distance (1 - cosine similarity)
//   - MetricHamming: Hamming distance on packed bit vectors
//
// # Usage
//
//	dist := distance.SquaredL2(a, b)
//	f, _ := distance.Provider(distance.MetricCosine)
//	d := f(a, b)
package distance
