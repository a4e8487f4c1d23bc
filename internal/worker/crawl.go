package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sitepaths/internal/crawler"
	"sitepaths/internal/tracker"
	"sitepaths/pkg/logger"
	"sitepaths/pkg/serrors"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// CrawlWorker runs one crawl per job.
type CrawlWorker struct {
	river.WorkerDefaults[tracker.JobArgs]

	runner crawler.Runner
}

func NewCrawlWorker(runner crawler.Runner) *CrawlWorker {
	return &CrawlWorker{runner: runner}
}

// Timeout disables River's job timeout. Crawls are bounded by the crawler's own
// limits instead.
func (w *CrawlWorker) Timeout(*river.Job[tracker.JobArgs]) time.Duration { return -1 }

// Work cancels jobs for domains that are no longer tracked and leaves every other
// failure to River's retry policy.
func (w *CrawlWorker) Work(ctx context.Context, job *river.Job[tracker.JobArgs]) error {
	ctx = logger.WithFields(ctx,
		zap.Int64("jobID", job.ID),
		zap.Int("attempt", job.Attempt),
		zap.String("domain", job.Args.Domain))

	if err := w.runner.Run(ctx, job.Args.Domain); err != nil {
		if errors.Is(err, serrors.ErrNotFound) {
			logger.Warn(ctx, "cancelling crawl of untracked domain", zap.Error(err))

			return river.JobCancel(err) //nolint: wrapcheck
		}

		return fmt.Errorf("could not crawl domain: %w", err)
	}

	return nil
}
