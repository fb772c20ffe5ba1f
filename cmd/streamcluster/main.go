// Command streamcluster clusters synthetic point clouds with the streaming
// k-center engine, benchmarks it and inspects checkpoints.
package main

import (
	"os"

	"github.com/hupe1980/streamcluster"
	"github.com/hupe1980/streamcluster/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "streamcluster",
		Short:        "Bounded-memory streaming k-center clustering",
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file path (yaml, toml or json)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")
	pf.String("checkpoint-backend", "none", "Checkpoint backend (none, local, s3, minio)")
	pf.String("checkpoint-dir", "checkpoints", "Directory of the local checkpoint backend")
	pf.String("checkpoint-prefix", "default", "Checkpoint prefix (one per run)")

	rootCmd.AddCommand(
		newRunCmd(&configPath),
		newBenchCmd(&configPath),
		newInspectCmd(&configPath),
	)
	return rootCmd
}

// loadConfig loads the configuration with the flags of cmd bound on top.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, *streamcluster.Logger, error) {
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	var logger *streamcluster.Logger
	if cfg.Log.Format == "json" {
		logger = streamcluster.NewJSONLogger(cfg.Log.SlogLevel())
	} else {
		logger = streamcluster.NewTextLogger(cfg.Log.SlogLevel())
	}

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}
	return cfg, logger, nil
}
