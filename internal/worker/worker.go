// Package worker runs queued crawl jobs on a River client backed by the
// PostgreSQL pool.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"sitepaths/internal/config"
	"sitepaths/internal/crawler"
	"sitepaths/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.uber.org/zap/exp/zapslog"
)

type Options struct {
	// MaxWorkers is the number of crawl jobs run concurrently.
	MaxWorkers int
}

func NewOptions(cfg *config.Config) Options {
	return Options{MaxWorkers: cfg.Worker.MaxWorkers}
}

// Start registers the crawl worker and starts processing the default queue. The
// caller stops the returned client on shutdown.
func Start(ctx context.Context, dbPool *pgxpool.Pool, runner crawler.Runner, opts Options) (*river.Client[pgx.Tx], error) {
	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, NewCrawlWorker(runner)); err != nil {
		return nil, fmt.Errorf("could not register crawl worker: %w", err)
	}

	riverClient, err := river.NewClient(riverpgxv5.New(dbPool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
		Logger:  slog.New(zapslog.NewHandler(logger.Get(ctx).Core())),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create river client: %w", err)
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("could not start river client: %w", err)
	}

	return riverClient, nil
}
