// Package config loads the streamcluster CLI configuration from file,
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/streamcluster/checkpoint"
	"github.com/hupe1980/streamcluster/codec"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. STREAMCLUSTER_CLUSTER_K.
const EnvPrefix = "STREAMCLUSTER"

// Config holds all application configuration.
type Config struct {
	Cluster    ClusterConfig    `mapstructure:"cluster"`
	Cloud      CloudConfig      `mapstructure:"cloud"`
	Bench      BenchConfig      `mapstructure:"bench"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	S3         S3Config         `mapstructure:"s3"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Log        LogConfig        `mapstructure:"log"`
}

type ClusterConfig struct {
	K          int  `mapstructure:"k"`
	Membership bool `mapstructure:"membership"`
}

// CloudConfig describes the synthetic point cloud.
type CloudConfig struct {
	Centers    int    `mapstructure:"centers"`
	PerCluster int    `mapstructure:"per_cluster"`
	Seed       uint64 `mapstructure:"seed"`
}

type BenchConfig struct {
	Trials   int `mapstructure:"trials"`
	Parallel int `mapstructure:"parallel"`
}

// CheckpointConfig selects where and how checkpoints are written.
// Backend is one of "none", "local", "s3" or "minio".
type CheckpointConfig struct {
	Backend     string `mapstructure:"backend"`
	Dir         string `mapstructure:"dir"`
	Prefix      string `mapstructure:"prefix"`
	Every       int    `mapstructure:"every"`
	Keep        int    `mapstructure:"keep"`
	Codec       string `mapstructure:"codec"`
	Compression string `mapstructure:"compression"`
}

type S3Config struct {
	Bucket     string `mapstructure:"bucket"`
	Prefix     string `mapstructure:"prefix"`
	DynamoDB   string `mapstructure:"dynamodb_table"`
	PartSizeMB int    `mapstructure:"part_size_mb"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Secure    bool   `mapstructure:"secure"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SlogLevel parses Level, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"k":                  "cluster.k",
	"membership":         "cluster.membership",
	"centers":            "cloud.centers",
	"per-cluster":        "cloud.per_cluster",
	"seed":               "cloud.seed",
	"trials":             "bench.trials",
	"parallel":           "bench.parallel",
	"checkpoint-backend": "checkpoint.backend",
	"checkpoint-dir":     "checkpoint.dir",
	"checkpoint-prefix":  "checkpoint.prefix",
	"checkpoint-every":   "checkpoint.every",
	"checkpoint-keep":    "checkpoint.keep",
	"codec":              "checkpoint.codec",
	"compression":        "checkpoint.compression",
	"log-level":          "log.level",
	"log-format":         "log.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cluster.k", 10)
	v.SetDefault("cluster.membership", false)
	v.SetDefault("cloud.centers", 5)
	v.SetDefault("cloud.per_cluster", 20)
	v.SetDefault("cloud.seed", 42)
	v.SetDefault("bench.trials", 8)
	v.SetDefault("bench.parallel", 4)
	v.SetDefault("checkpoint.backend", "none")
	v.SetDefault("checkpoint.dir", "checkpoints")
	v.SetDefault("checkpoint.prefix", "default")
	v.SetDefault("checkpoint.every", 0)
	v.SetDefault("checkpoint.keep", 3)
	v.SetDefault("checkpoint.codec", codec.Default.Name())
	v.SetDefault("checkpoint.compression", "zstd")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.dynamodb_table", "")
	v.SetDefault("s3.part_size_mb", 8)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "")
	v.SetDefault("minio.prefix", "")
	v.SetDefault("minio.secure", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate reports configuration errors that make a run impossible.
func (c *Config) Validate() error {
	var errs []error

	if c.Cluster.K <= 0 {
		errs = append(errs, fmt.Errorf("cluster.k must be positive, got %d", c.Cluster.K))
	}
	if c.Cloud.Centers < 0 || c.Cloud.PerCluster < 0 {
		errs = append(errs, errors.New("cloud.centers and cloud.per_cluster must not be negative"))
	}
	if c.Bench.Trials <= 0 || c.Bench.Parallel <= 0 {
		errs = append(errs, errors.New("bench.trials and bench.parallel must be positive"))
	}

	switch c.Checkpoint.Backend {
	case "none", "local":
	case "s3":
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("checkpoint backend s3 requires s3.bucket"))
		}
	case "minio":
		if c.MinIO.Bucket == "" || c.MinIO.Endpoint == "" {
			errs = append(errs, errors.New("checkpoint backend minio requires minio.endpoint and minio.bucket"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown checkpoint backend %q", c.Checkpoint.Backend))
	}
	if _, ok := codec.ByName(c.Checkpoint.Codec); !ok {
		errs = append(errs, fmt.Errorf("unknown codec %q (known: %s)", c.Checkpoint.Codec, strings.Join(codec.Names(), ", ")))
	}
	if _, err := checkpoint.ParseCompression(c.Checkpoint.Compression); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Warnings checks configuration for suspicious but usable values.
func (c *Config) Warnings() []string {
	var warnings []string

	if c.Cloud.Centers > c.Cluster.K {
		warnings = append(warnings, fmt.Sprintf("cloud.centers %d exceeds cluster.k %d; clusters will be merged", c.Cloud.Centers, c.Cluster.K))
	}
	if c.Cluster.Membership {
		warnings = append(warnings, "cluster.membership keeps every stream ordinal; memory grows with the stream")
	}
	if c.Checkpoint.Backend == "none" && c.Checkpoint.Every > 0 {
		warnings = append(warnings, "checkpoint.every is set but checkpoint.backend is none")
	}
	if c.Checkpoint.Backend == "minio" && c.MinIO.AccessKey == "" {
		warnings = append(warnings, "minio.access_key is empty")
	}

	return warnings
}

// Load reads configuration from an optional file, the environment and the
// given flags, in increasing order of precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
