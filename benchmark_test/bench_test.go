package benchmark_test

import (
	"context"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/hupe1980/streamcluster"
	"github.com/hupe1980/streamcluster/checkpoint"
	"github.com/hupe1980/streamcluster/codec"
	"github.com/hupe1980/streamcluster/distance"
	"github.com/hupe1980/streamcluster/pointcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const benchSeed = pointcloud.DefaultSeed

// ============================================================================
// Scale
// ============================================================================

// TestScale_LargeCloud clusters 500 synthetic clusters of 501 points with
// room for 1000 centers.
func TestScale_LargeCloud(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping scale test in short mode")
	}

	const k = 1000
	points := pointcloud.Generate(500, 500, benchSeed)
	require.Len(t, points, 500*501)

	metrics := &streamcluster.BasicMetricsCollector{}
	c, err := streamcluster.New[pointcloud.Vec3, pointcloud.Vec3](k, pointcloud.Metric{},
		streamcluster.WithMetricsCollector(metrics),
	)
	require.NoError(t, err)

	start := time.Now()
	n, err := streamcluster.Feed(context.Background(), c, slices.Values(points))
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.Equal(t, len(points), n)
	assert.LessOrEqual(t, c.Len(), k)
	assert.Positive(t, c.Len())
	assert.False(t, c.Initializing())
	assert.Equal(t, uint64(len(points)), c.TotalWeight())

	stats := metrics.GetStats()
	t.Logf("centers=%d phi=%g compactions=%d elapsed=%s (%.0f items/s)",
		c.Len(), c.Phi(), stats.CompactionCount, elapsed, float64(n)/elapsed.Seconds())
}

// ============================================================================
// Add
// ============================================================================

// BenchmarkAdd measures per-item cost on the synthetic cloud for several
// capacities. Reports items/sec.
func BenchmarkAdd(b *testing.B) {
	points := pointcloud.Generate(100, 100, benchSeed)

	for _, k := range []int{10, 100, 1000} {
		b.Run("k="+strconv.Itoa(k), func(b *testing.B) {
			c, err := streamcluster.New[pointcloud.Vec3, pointcloud.Vec3](k, pointcloud.Metric{})
			if err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				c.Add(points[i%len(points)])
			}

			b.StopTimer()
			b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "items/sec")
		})
	}
}

// BenchmarkAdd_Vectors measures Add on 128-dimensional vectors for every
// float32 metric.
func BenchmarkAdd_Vectors(b *testing.B) {
	const (
		dim = 128
		n   = 4096
	)

	rng := pointcloud.NewRNG(benchSeed)
	vecs := make([][]float32, n)
	for i := range vecs {
		v := make([]float32, dim)
		for j := range v {
			v[j] = rng.Uniform(-1, 1)
		}
		vecs[i] = v
	}

	for _, metric := range []distance.Metric{distance.MetricL2, distance.MetricEuclidean, distance.MetricCosine} {
		b.Run(metric.String(), func(b *testing.B) {
			m, err := streamcluster.NewVectorMetric(metric)
			if err != nil {
				b.Fatal(err)
			}
			c, err := streamcluster.New[[]float32, []float32](64, m)
			if err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				c.Add(vecs[i%n])
			}

			b.StopTimer()
			b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "vectors/sec")
		})
	}
}

// BenchmarkAdd_Membership compares Add with and without membership tracking.
func BenchmarkAdd_Membership(b *testing.B) {
	points := pointcloud.Generate(100, 100, benchSeed)

	for _, membership := range []bool{false, true} {
		b.Run("membership="+strconv.FormatBool(membership), func(b *testing.B) {
			var optFns []streamcluster.Option
			if membership {
				optFns = append(optFns, streamcluster.WithMembership())
			}
			c, err := streamcluster.New[pointcloud.Vec3, pointcloud.Vec3](100, pointcloud.Metric{}, optFns...)
			if err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				c.Add(points[i%len(points)])
			}
		})
	}
}

// ============================================================================
// State
// ============================================================================

func loadedCluster(b *testing.B, k int) *streamcluster.Cluster[pointcloud.Vec3, pointcloud.Vec3] {
	b.Helper()

	c, err := streamcluster.New[pointcloud.Vec3, pointcloud.Vec3](k, pointcloud.Metric{})
	if err != nil {
		b.Fatal(err)
	}
	c.AddBatch(pointcloud.Generate(k, 20, benchSeed)...)
	return c
}

// BenchmarkSnapshotRestore measures copying a full engine state out and back.
func BenchmarkSnapshotRestore(b *testing.B) {
	c := loadedCluster(b, 1000)
	target, err := streamcluster.New[pointcloud.Vec3, pointcloud.Vec3](1000, pointcloud.Metric{})
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		st, err := c.Snapshot()
		if err != nil {
			b.Fatal(err)
		}
		if err := target.Restore(st); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCheckpointEncode measures checkpoint encoding per codec and
// compression. Reports the encoded size.
func BenchmarkCheckpointEncode(b *testing.B) {
	st, err := loadedCluster(b, 1000).Snapshot()
	if err != nil {
		b.Fatal(err)
	}

	for _, name := range codec.Names() {
		c, _ := codec.ByName(name)
		for _, compression := range []checkpoint.Compression{checkpoint.CompressionNone, checkpoint.CompressionLZ4, checkpoint.CompressionZSTD} {
			b.Run(name+"/"+compression.String(), func(b *testing.B) {
				var size int

				b.ReportAllocs()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					data, err := checkpoint.Encode(st, c, compression)
					if err != nil {
						b.Fatal(err)
					}
					size = len(data)
				}

				b.StopTimer()
				b.ReportMetric(float64(size), "bytes")
			})
		}
	}
}
