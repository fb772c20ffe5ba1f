package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/streamcluster"
	"github.com/hupe1980/streamcluster/blobstore"
	minioblob "github.com/hupe1980/streamcluster/blobstore/minio"
	s3blob "github.com/hupe1980/streamcluster/blobstore/s3"
	"github.com/hupe1980/streamcluster/checkpoint"
	"github.com/hupe1980/streamcluster/codec"
	"github.com/hupe1980/streamcluster/internal/config"
	"github.com/hupe1980/streamcluster/pointcloud"
)

// openStore returns the configured checkpoint store, or nil for backend
// "none".
func openStore(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	switch cfg.Checkpoint.Backend {
	case "none":
		return nil, nil
	case "local":
		return blobstore.NewLocalStore(cfg.Checkpoint.Dir), nil
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		store := s3blob.NewStore(awss3.NewFromConfig(awsCfg), cfg.S3.Bucket, cfg.S3.Prefix,
			s3blob.WithPartSize(int64(cfg.S3.PartSizeMB)*1024*1024),
		)
		if cfg.S3.DynamoDB == "" {
			return store, nil
		}
		baseURI := fmt.Sprintf("s3://%s/%s", cfg.S3.Bucket, cfg.S3.Prefix)
		return s3blob.NewDDBCommitStore(store, dynamodb.NewFromConfig(awsCfg), cfg.S3.DynamoDB, baseURI), nil
	case "minio":
		client, err := minioblob.NewClient(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Secure)
		if err != nil {
			return nil, fmt.Errorf("creating MinIO client: %w", err)
		}
		if err := minioblob.EnsureBucket(ctx, client, cfg.MinIO.Bucket); err != nil {
			return nil, fmt.Errorf("ensuring bucket %s: %w", cfg.MinIO.Bucket, err)
		}
		return minioblob.NewStore(client, cfg.MinIO.Bucket, cfg.MinIO.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Checkpoint.Backend)
	}
}

// newWriter opens the configured store and returns a checkpoint writer for
// it, or nil for backend "none".
func newWriter(ctx context.Context, cfg *config.Config, logger *streamcluster.Logger) (*checkpoint.Writer[pointcloud.Vec3], error) {
	store, err := openStore(ctx, cfg)
	if err != nil || store == nil {
		return nil, err
	}
	return writerFor(store, cfg, logger)
}

func writerFor(store blobstore.Store, cfg *config.Config, logger *streamcluster.Logger) (*checkpoint.Writer[pointcloud.Vec3], error) {
	c, _ := codec.ByName(cfg.Checkpoint.Codec)
	compression, err := checkpoint.ParseCompression(cfg.Checkpoint.Compression)
	if err != nil {
		return nil, err
	}

	return checkpoint.NewWriter[pointcloud.Vec3](store, cfg.Checkpoint.Prefix,
		checkpoint.WithCodec(c),
		checkpoint.WithCompression(compression),
		checkpoint.WithLogger(logger),
	), nil
}
