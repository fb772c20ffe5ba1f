package pointcloud

import (
	"math/rand/v2"

	"github.com/hupe1980/streamcluster/distance"
)

const (
	// DefaultSeed is the seed used by the CLI and the reference scenarios.
	DefaultSeed uint64 = 42

	// Spacing is the distance between neighboring centers on the x axis.
	Spacing float32 = 3

	// Jitter bounds the y and z offsets of neighbors: [0, Jitter).
	Jitter = 1.5
)

// Vec3 is a point in three-dimensional space.
type Vec3 [3]float32

// Metric measures Vec3 points by squared Euclidean distance. The point is
// its own representation.
type Metric struct{}

// Representation implements streamcluster.Metric.
func (Metric) Representation(p Vec3) Vec3 { return p }

// Distance implements streamcluster.Metric.
func (Metric) Distance(a, b Vec3) float32 {
	return distance.SquaredL2(a[:], b[:])
}

// RNG is a seeded PCG generator. It is not safe for concurrent use.
type RNG struct {
	rand *rand.Rand
	seed uint64
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// Reset rewinds the RNG to its initial seed.
func (r *RNG) Reset() {
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Uniform returns a pseudo-random value in [minVal, maxVal).
func (r *RNG) Uniform(minVal, maxVal float64) float32 {
	return float32(minVal + r.rand.Float64()*(maxVal-minVal))
}

// Shuffle pseudo-randomizes the order of points in place.
func (r *RNG) Shuffle(points []Vec3) {
	r.rand.Shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
	})
}

// Centers returns the x coordinates of n centers spaced Spacing apart.
// For odd n the centers are symmetric around zero; for even n the extra
// center sits on the negative side.
func Centers(n int) []float32 {
	if n <= 0 {
		return nil
	}
	start := -(n / 2)
	end := n / 2
	if n%2 == 0 {
		end--
	}
	xs := make([]float32, 0, n)
	for i := start; i <= end; i++ {
		xs = append(xs, Spacing*float32(i))
	}
	return xs
}

// Generate returns centers*(perCluster+1) shuffled points: every center
// (x, 0, 0) plus perCluster neighbors (x, y, z) with y, z in [0, Jitter).
func Generate(centers, perCluster int, seed uint64) []Vec3 {
	return NewRNG(seed).Cloud(centers, perCluster)
}

// Cloud is Generate drawing from r.
func (r *RNG) Cloud(centers, perCluster int) []Vec3 {
	xs := Centers(centers)
	points := make([]Vec3, 0, len(xs)*(max(perCluster, 0)+1))
	for _, x := range xs {
		points = append(points, Vec3{x, 0, 0})
		for range perCluster {
			y := r.Uniform(0, Jitter)
			z := r.Uniform(0, Jitter)
			points = append(points, Vec3{x, y, z})
		}
	}
	r.Shuffle(points)
	return points
}
