// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	client := awss3.NewFromConfig(cfg)
//	store := s3.NewStore(client, "my-bucket", "checkpoints/")
//
//	w := checkpoint.NewWriter[pointcloud.Vec3](store, "run-42")
//
// # Features
//
//   - Multipart uploads for large checkpoints
//   - CRC32C integrity checksums
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//   - DynamoDB-backed CURRENT pointer for concurrent writers (DDBCommitStore)
package s3
