package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Cluster.K)
	assert.Equal(t, 5, cfg.Cloud.Centers)
	assert.Equal(t, 20, cfg.Cloud.PerCluster)
	assert.Equal(t, uint64(42), cfg.Cloud.Seed)
	assert.Equal(t, "none", cfg.Checkpoint.Backend)
	assert.Equal(t, "go-json", cfg.Checkpoint.Codec)
	assert.Equal(t, "zstd", cfg.Checkpoint.Compression)
	assert.Equal(t, slog.LevelInfo, cfg.Log.SlogLevel())
	assert.Empty(t, cfg.Warnings())
}

func TestLoad_FileEnvFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streamcluster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cluster:
  k: 3
cloud:
  centers: 2
  seed: 7
checkpoint:
  backend: s3
s3:
  bucket: my-bucket
  dynamodb_table: commits
log:
  level: debug
  format: json
`), 0o644))

	t.Setenv("STREAMCLUSTER_CLOUD_PER_CLUSTER", "50")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("k", 10, "")
	flags.Uint64("seed", 42, "")
	require.NoError(t, flags.Parse([]string{"--k", "4"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Cluster.K, "flag wins over file")
	assert.Equal(t, uint64(7), cfg.Cloud.Seed, "unset flag does not shadow the file")
	assert.Equal(t, 2, cfg.Cloud.Centers)
	assert.Equal(t, 50, cfg.Cloud.PerCluster, "environment wins over default")
	assert.Equal(t, "my-bucket", cfg.S3.Bucket)
	assert.Equal(t, "commits", cfg.S3.DynamoDB)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("STREAMCLUSTER_CLUSTER_K", "0")

	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster.k")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load("", nil)
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"Capacity", func(c *Config) { c.Cluster.K = -1 }, "cluster.k"},
		{"Cloud", func(c *Config) { c.Cloud.Centers = -1 }, "cloud.centers"},
		{"Bench", func(c *Config) { c.Bench.Parallel = 0 }, "bench"},
		{"Backend", func(c *Config) { c.Checkpoint.Backend = "ftp" }, "ftp"},
		{"S3Bucket", func(c *Config) { c.Checkpoint.Backend = "s3" }, "s3.bucket"},
		{"MinIOBucket", func(c *Config) { c.Checkpoint.Backend = "minio" }, "minio.bucket"},
		{"Codec", func(c *Config) { c.Checkpoint.Codec = "gob" }, "gob"},
		{"Compression", func(c *Config) { c.Checkpoint.Compression = "brotli" }, "brotli"},
		{"LogFormat", func(c *Config) { c.Log.Format = "xml" }, "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestWarnings(t *testing.T) {
	cfg := Config{
		Cluster:    ClusterConfig{K: 2, Membership: true},
		Cloud:      CloudConfig{Centers: 5},
		Checkpoint: CheckpointConfig{Backend: "none", Every: 100},
	}
	assert.Len(t, cfg.Warnings(), 3)
}

func TestLogConfig_SlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, LogConfig{Level: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelError, LogConfig{Level: "ERROR"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: "loud"}.SlogLevel())
}
