// Package pointcloud generates deterministic synthetic point clouds for
// exercising and benchmarking the clustering engine.
//
// # Usage
//
//	points := pointcloud.Generate(5, 20, pointcloud.DefaultSeed)
//	c, _ := streamcluster.New[pointcloud.Vec3, pointcloud.Vec3](10, pointcloud.Metric{})
//	c.AddBatch(points...)
//
// Generate places centers on the x axis three units apart, symmetric around
// the origin, surrounds each with jittered neighbors and shuffles the result.
// The same seed always yields the same cloud.
package pointcloud
