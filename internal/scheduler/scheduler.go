// Package scheduler runs a job periodically without overlapping runs.
//
// The first run starts immediately. A tick that fires while a run is still
// in progress is dropped, so a slow run delays the schedule instead of
// queueing a burst of runs behind it.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/xtxerr/feedlog/internal/logging"
)

var log = logging.Component("scheduler")

// Job is one scheduled unit of work.
type Job func(ctx context.Context)

// Stats describes a finished loop.
type Stats struct {
	Runs    int
	Skipped int
}

// Loop runs job now and then once per interval until ctx is cancelled.
// It returns ctx.Err() once the current run, if any, has finished.
func Loop(ctx context.Context, interval time.Duration, job Job) error {
	_, err := LoopStats(ctx, interval, job)
	return err
}

// LoopStats is Loop that also reports how many runs happened and how many
// ticks were dropped.
func LoopStats(ctx context.Context, interval time.Duration, job Job) (Stats, error) {
	var stats Stats
	if interval <= 0 {
		return stats, fmt.Errorf("scheduler: interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("scheduler started", "interval", interval)

	for {
		if err := ctx.Err(); err != nil {
			log.Info("scheduler stopped", "runs", stats.Runs, "skipped", stats.Skipped)
			return stats, err
		}

		start := time.Now()
		job(ctx)
		stats.Runs++
		elapsed := time.Since(start)

		// Drop the tick that fired during a long run.
		select {
		case <-ticker.C:
			stats.Skipped++
			log.Warn("run overran its interval, tick skipped", "elapsed", elapsed, "interval", interval)
		default:
		}

		select {
		case <-ctx.Done():
			log.Info("scheduler stopped", "runs", stats.Runs, "skipped", stats.Skipped)
			return stats, ctx.Err()
		case <-ticker.C:
		}
	}
}
