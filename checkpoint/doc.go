// Package checkpoint persists cluster state snapshots to a blobstore.Store.
//
// A checkpoint is a self-describing blob: a small header names the codec and
// the compression used for the payload, so readers never need to be told how
// a checkpoint was written.
//
// # Layout
//
// Checkpoints of one run live under a common prefix:
//
//	<prefix>/00000000000000001024.ckpt
//	<prefix>/00000000000000002048.ckpt
//	<prefix>/CURRENT
//
// The number is the count of stream items ingested when the snapshot was
// taken, zero padded so lexical order is ingestion order. CURRENT holds the
// name of the newest complete checkpoint and is written after it.
//
// # Usage
//
//	w := checkpoint.NewWriter[pointcloud.Vec3](store, "run-42",
//	    checkpoint.WithCompression(checkpoint.CompressionZSTD),
//	)
//	st, _ := c.Snapshot()
//	name, err := w.Save(ctx, st)
//
//	st, err = w.LoadLatest(ctx)
//	c, err = streamcluster.FromState[pointcloud.Vec3, pointcloud.Vec3](st, pointcloud.Metric{})
package checkpoint
