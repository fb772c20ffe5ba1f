package streamcluster

import (
	"context"
	"iter"
	"time"

	"golang.org/x/time/rate"
)

// feedCheckInterval is how many items Feed adds between context checks.
const feedCheckInterval = 1024

// Feed adds every item of seq to c in order and returns how many were added.
//
// Feed stops early with ctx.Err() when the context is done; items added up
// to that point stay in the engine. Progress is logged through the engine's
// logger at most once per second.
func Feed[T, R any](ctx context.Context, c *Cluster[T, R], seq iter.Seq[T]) (int, error) {
	progress := rate.Sometimes{Interval: time.Second}

	n := 0
	for item := range seq {
		if n%feedCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				c.opts.logger.LogFeed(ctx, n, len(c.centers), c.phi, err)
				return n, err
			}
		}
		c.Add(item)
		n++
		progress.Do(func() {
			c.opts.logger.LogFeed(ctx, n, len(c.centers), c.phi, nil)
		})
	}
	return n, nil
}
