package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/hupe1980/streamcluster"
	"github.com/hupe1980/streamcluster/checkpoint"
	"github.com/hupe1980/streamcluster/pointcloud"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newRunCmd(configPath *string) *cobra.Command {
	var resume bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Cluster a synthetic point cloud and print the centers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			writer, err := newWriter(ctx, cfg, logger)
			if err != nil {
				return err
			}
			if resume && writer == nil {
				return errors.New("--resume needs a checkpoint backend")
			}

			metrics := &streamcluster.BasicMetricsCollector{}
			optFns := []streamcluster.Option{
				streamcluster.WithLogger(logger),
				streamcluster.WithMetricsCollector(metrics),
			}
			if cfg.Cluster.Membership {
				optFns = append(optFns, streamcluster.WithMembership())
			}

			c, err := streamcluster.New[pointcloud.Vec3, pointcloud.Vec3](cfg.Cluster.K, pointcloud.Metric{}, optFns...)
			if err != nil {
				return err
			}

			points := pointcloud.Generate(cfg.Cloud.Centers, cfg.Cloud.PerCluster, cfg.Cloud.Seed)

			if resume {
				st, err := writer.LoadLatest(ctx)
				switch {
				case errors.Is(err, checkpoint.ErrNoCheckpoint):
					logger.InfoContext(ctx, "no checkpoint to resume from", "prefix", cfg.Checkpoint.Prefix)
				case err != nil:
					return err
				default:
					if st.Added > uint64(len(points)) {
						return fmt.Errorf("checkpoint covers %d items but the cloud has %d", st.Added, len(points))
					}
					if err := c.Restore(st); err != nil {
						return err
					}
					points = points[st.Added:]
				}
			}

			chunk := len(points)
			if writer != nil && cfg.Checkpoint.Every > 0 {
				chunk = cfg.Checkpoint.Every
			}

			bar := newProgressBar(len(points), "clustering")
			for start := 0; start < len(points); start += chunk {
				batch := points[start:min(start+chunk, len(points))]
				n, err := streamcluster.Feed(ctx, c, slices.Values(batch))
				_ = bar.Add(n)
				if err != nil {
					return err
				}

				if writer != nil && cfg.Checkpoint.Every > 0 {
					st, err := c.Snapshot()
					if err != nil {
						return err
					}
					if _, err := writer.Save(ctx, st); err != nil {
						return err
					}
				}
			}
			_ = bar.Finish()

			if writer != nil {
				if cfg.Checkpoint.Every == 0 {
					st, err := c.Snapshot()
					if err != nil {
						return err
					}
					if _, err := writer.Save(ctx, st); err != nil {
						return err
					}
				}
				if _, err := writer.Prune(ctx, cfg.Checkpoint.Keep); err != nil {
					return err
				}
			}

			printCenters(cmd.OutOrStdout(), c)
			printMetrics(cmd.OutOrStdout(), metrics.GetStats())
			return nil
		},
	}

	f := cmd.Flags()
	f.Int("k", 10, "Maximum number of centers")
	f.Bool("membership", false, "Track the ordinals folded into each center")
	f.Int("centers", 5, "Number of synthetic clusters")
	f.Int("per-cluster", 20, "Neighbors generated around each synthetic center")
	f.Uint64("seed", pointcloud.DefaultSeed, "Seed of the synthetic cloud")
	f.Int("checkpoint-every", 0, "Save a checkpoint every n items (0 saves only at the end)")
	f.Int("checkpoint-keep", 3, "Number of checkpoints kept after pruning")
	f.String("codec", "go-json", "Checkpoint codec (json, go-json)")
	f.String("compression", "zstd", "Checkpoint compression (none, lz4, zstd)")
	f.BoolVar(&resume, "resume", false, "Continue from the latest checkpoint")
	return cmd
}

// newProgressBar returns a progress bar on stderr, or a silent one when
// stderr is not a terminal.
func newProgressBar(n int, description string) *progressbar.ProgressBar {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return progressbar.DefaultSilent(int64(n), description)
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func printCenters(w io.Writer, c *streamcluster.Cluster[pointcloud.Vec3, pointcloud.Vec3]) {
	points := c.Points()
	slices.SortFunc(points, func(a, b streamcluster.Point[pointcloud.Vec3]) int {
		return slices.Compare(a.Item[:], b.Item[:])
	})

	stats := c.Stats()
	fmt.Fprintf(w, "centers: %d (k=%d, phi=%g, items=%d)\n", len(points), stats.Capacity, stats.Phi, stats.Added)
	for _, p := range points {
		fmt.Fprintf(w, "  [%7.3f %7.3f %7.3f]  weight=%d", p.Item[0], p.Item[1], p.Item[2], p.Weight)
		if p.Members != nil {
			fmt.Fprintf(w, "  members=%d", len(p.Members))
		}
		fmt.Fprintln(w)
	}
}

func printMetrics(w io.Writer, s streamcluster.BasicMetricsStats) {
	fmt.Fprintf(w, "adds=%d folded=%d compactions=%d merged=%d avg_compaction=%dns\n",
		s.AddCount, s.FoldCount, s.CompactionCount, s.CentersMerged, s.CompactionAvgNanos)
}
