package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Fetch stages.
const (
	StagePolicy  = "policy"
	StageSitemap = "sitemap"
	StagePage    = "page"
)

// Fetch outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "bad_status"
	OutcomeTransport = "transport_error"
	OutcomeTooLarge  = "too_large"
)

// CrawlMetrics groups the instruments recorded by the crawler.
type CrawlMetrics struct {
	fetches       metric.Int64Counter
	fetchDuration metric.Float64Histogram
	paths         metric.Int64Counter
	runs          metric.Int64Counter
}

// NewCrawlMetrics registers the crawl instruments on meter.
func NewCrawlMetrics(meter metric.Meter) (*CrawlMetrics, error) {
	fetches, err := meter.Int64Counter("crawler.fetches",
		metric.WithDescription("HTTP fetches issued by crawl runs, by stage and outcome"))
	if err != nil {
		return nil, fmt.Errorf("could not create fetches counter: %w", err)
	}

	fetchDuration, err := meter.Float64Histogram("crawler.fetch.duration",
		metric.WithDescription("Duration of crawl HTTP fetches"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create fetch duration histogram: %w", err)
	}

	paths, err := meter.Int64Counter("crawler.paths.created",
		metric.WithDescription("Paths newly recorded by crawl runs, by source"))
	if err != nil {
		return nil, fmt.Errorf("could not create paths counter: %w", err)
	}

	runs, err := meter.Int64Counter("crawler.runs",
		metric.WithDescription("Finished crawl runs, by result"))
	if err != nil {
		return nil, fmt.Errorf("could not create runs counter: %w", err)
	}

	return &CrawlMetrics{
		fetches:       fetches,
		fetchDuration: fetchDuration,
		paths:         paths,
		runs:          runs,
	}, nil
}

// Fetch records one HTTP fetch.
func (m *CrawlMetrics) Fetch(ctx context.Context, stage, outcome string, took time.Duration) {
	stageAttr := attribute.String("stage", stage)
	m.fetches.Add(ctx, 1, metric.WithAttributes(stageAttr, attribute.String("outcome", outcome)))
	m.fetchDuration.Record(ctx, took.Seconds(), metric.WithAttributes(stageAttr))
}

// PathsCreated records n newly stored paths found by source, either "sitemap" or "link".
func (m *CrawlMetrics) PathsCreated(ctx context.Context, source string, n int) {
	if n == 0 {
		return
	}
	m.paths.Add(ctx, int64(n), metric.WithAttributes(attribute.String("source", source)))
}

// Run records a finished crawl run.
func (m *CrawlMetrics) Run(ctx context.Context, result string) {
	m.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
