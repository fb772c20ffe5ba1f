package main

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/streamcluster"
	"github.com/hupe1980/streamcluster/pointcloud"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type trialResult struct {
	seed     uint64
	centers  int
	phi      float32
	duration time.Duration
}

func newBenchCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Cluster independent clouds in parallel and report timings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}

			results := make([]trialResult, cfg.Bench.Trials)
			bar := newProgressBar(cfg.Bench.Trials, "trials")
			var barMu sync.Mutex

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(cfg.Bench.Parallel)

			for i := range cfg.Bench.Trials {
				seed := cfg.Cloud.Seed + uint64(i)
				g.Go(func() error {
					points := pointcloud.Generate(cfg.Cloud.Centers, cfg.Cloud.PerCluster, seed)

					c, err := streamcluster.New[pointcloud.Vec3, pointcloud.Vec3](cfg.Cluster.K, pointcloud.Metric{},
						streamcluster.WithLogger(logger.WithComponent("bench")),
						streamcluster.WithCapacityHint(cfg.Cluster.K+2),
					)
					if err != nil {
						return err
					}

					start := time.Now()
					if _, err := streamcluster.Feed(ctx, c, slices.Values(points)); err != nil {
						return err
					}
					results[i] = trialResult{
						seed:     seed,
						centers:  c.Len(),
						phi:      c.Phi(),
						duration: time.Since(start),
					}

					barMu.Lock()
					_ = bar.Add(1)
					barMu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			_ = bar.Finish()

			w := cmd.OutOrStdout()
			var total time.Duration
			items := cfg.Cloud.Centers * (cfg.Cloud.PerCluster + 1)
			for _, r := range results {
				total += r.duration
				fmt.Fprintf(w, "seed=%d centers=%d phi=%g duration=%s\n", r.seed, r.centers, r.phi, r.duration)
			}
			if len(results) > 0 {
				avg := total / time.Duration(len(results))
				fmt.Fprintf(w, "trials=%d items=%d avg=%s", len(results), items, avg)
				if avg > 0 {
					fmt.Fprintf(w, " throughput=%.0f items/s", float64(items)/avg.Seconds())
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.Int("k", 10, "Maximum number of centers")
	f.Int("centers", 5, "Number of synthetic clusters")
	f.Int("per-cluster", 20, "Neighbors generated around each synthetic center")
	f.Uint64("seed", pointcloud.DefaultSeed, "Seed of the first trial; trial i uses seed+i")
	f.Int("trials", 8, "Number of independent trials")
	f.Int("parallel", 4, "Maximum number of concurrent trials")
	return cmd
}
