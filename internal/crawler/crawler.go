// Package crawler discovers the URL paths of a tracked domain. A run reads the
// domain's robots.txt, ingests the locations listed in its sitemaps and then walks
// same-host hyperlinks breadth first starting at the home page. Every accepted
// path is recorded through Store.
//
// Fetch and parse failures are soft: they drop the single document involved and
// the run carries on. So does a path the store rejects as a value. Other store
// failures and cancellation end a run early.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sitepaths/internal/config"
	"sitepaths/pkg/domain"
	"sitepaths/pkg/logger"
	"sitepaths/pkg/metrics"
	"sitepaths/pkg/serrors"
	"sitepaths/pkg/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultMaxBodyBytes    = 10 << 20
	defaultMaxSitemapBytes = 50 << 20

	meterName = "sitepaths/crawler"
)

type Options struct {
	// HTTPClient issues every request. http.DefaultClient is used when nil.
	HTTPClient *http.Client
	// UserAgent is sent with every request when set.
	UserAgent string
	// PolicyTimeout bounds the robots.txt request.
	PolicyTimeout time.Duration
	// FetchTimeout bounds each sitemap and page request.
	FetchTimeout time.Duration
	// MaxBodyBytes caps how much of a robots.txt or page body is read. Longer
	// bodies are truncated.
	MaxBodyBytes int64
	// MaxSitemapBytes is the largest sitemap body that is parsed. A longer
	// sitemap is skipped whole, since a truncated document cannot be parsed.
	MaxSitemapBytes int64
	// MaxPages stops link traversal after this many page fetches. 0 disables the
	// limit.
	MaxPages int
	// MaxDepth is the number of link hops from the home page that are followed.
	// Links found at that depth are still recorded but not fetched. 0 disables the
	// limit.
	MaxDepth int
	// RunBudget bounds the wall-clock time of a whole run. A run that exhausts it
	// stops where it is and keeps what it recorded. 0 disables the limit.
	RunBudget time.Duration
	// RequestsPerSecond spaces out the requests of a single run. Runs for
	// different domains are not limited against each other. 0 disables the limit.
	RequestsPerSecond float64
	// Meter receives the crawl instruments. The global meter provider is used
	// when nil.
	Meter metric.Meter
}

func NewOptions(cfg *config.Config) Options {
	return Options{
		HTTPClient:    &http.Client{},
		UserAgent:     cfg.Crawler.UserAgent,
		PolicyTimeout: cfg.Crawler.PolicyTimeout,
		FetchTimeout:  cfg.Crawler.FetchTimeout,
		MaxBodyBytes:  cfg.Crawler.MaxBodyBytes,
		MaxPages:      cfg.Crawler.MaxPages,
		MaxDepth:      cfg.Crawler.MaxDepth,
		RunBudget:     cfg.Crawler.RunBudget,

		MaxSitemapBytes:   cfg.Crawler.MaxSitemapBytes,
		RequestsPerSecond: cfg.Crawler.RequestsPerSecond,
	}
}

type Crawler struct {
	store   Store
	client  *http.Client
	options Options
	metrics *metrics.CrawlMetrics
}

var _ Runner = (*Crawler)(nil)

func New(store Store, options Options) (*Crawler, error) {
	switch {
	case store == nil:
		return nil, errors.New("crawler needs a store")
	case options.PolicyTimeout <= 0:
		return nil, fmt.Errorf("policy timeout must be positive, got %s", options.PolicyTimeout)
	case options.FetchTimeout <= 0:
		return nil, fmt.Errorf("fetch timeout must be positive, got %s", options.FetchTimeout)
	case options.MaxPages < 0, options.MaxDepth < 0, options.RunBudget < 0, options.RequestsPerSecond < 0:
		return nil, errors.New("crawl limits must not be negative")
	}

	if options.MaxBodyBytes <= 0 {
		options.MaxBodyBytes = defaultMaxBodyBytes
	}
	if options.MaxSitemapBytes <= 0 {
		options.MaxSitemapBytes = defaultMaxSitemapBytes
	}
	client := options.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	meter := options.Meter
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	m, err := metrics.NewCrawlMetrics(meter)
	if err != nil {
		return nil, err
	}

	return &Crawler{
		store:   store,
		client:  client,
		options: options,
		metrics: m,
	}, nil
}

// Run crawls the tracked domain name: policy first, then sitemaps, then links.
// It returns an error of kind serrors.ErrNotFound when name is not tracked.
// Exhausting RunBudget is not an error.
func (c *Crawler) Run(ctx context.Context, name string) error {
	ctx = logger.WithFields(ctx, zap.String("domain", name))

	d, err := c.store.DomainByName(ctx, name)
	if err != nil {
		return fmt.Errorf("could not get domain %s: %w", name, err)
	}
	if d == nil {
		return serrors.With(serrors.ErrNotFound, "domain %s is not tracked", name)
	}

	runCtx := ctx
	if c.options.RunBudget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.options.RunBudget)
		defer cancel()
	}
	if c.options.RequestsPerSecond > 0 {
		runCtx = withLimiter(runCtx, rate.NewLimiter(rate.Limit(c.options.RequestsPerSecond), 1))
	}

	start := time.Now()
	logger.Info(ctx, "crawl started")

	policy := c.FetchPolicy(runCtx, d.Name)
	stats, err := c.IngestSitemaps(runCtx, d, policy)
	if err == nil {
		var linkStats Stats
		linkStats, err = c.CrawlLinks(runCtx, d, policy)
		stats = stats.merge(linkStats)
	}

	fields := append(stats.fields(), zap.Duration("took", time.Since(start)))
	switch {
	case err == nil:
		c.metrics.Run(ctx, "completed")
		logger.Info(ctx, "crawl finished", fields...)
	case ctx.Err() != nil:
		c.metrics.Run(ctx, "interrupted")
		logger.Warn(ctx, "crawl interrupted", fields...)

		return fmt.Errorf("crawl of %s interrupted: %w", name, ctx.Err())
	case runCtx.Err() != nil:
		c.metrics.Run(ctx, "budget_exhausted")
		logger.Warn(ctx, "crawl stopped after exhausting its time budget", fields...)
	default:
		c.metrics.Run(ctx, "failed")
		logger.Error(ctx, "crawl failed", append(fields, zap.Error(err))...)

		return fmt.Errorf("crawl of %s failed: %w", name, err)
	}

	return nil
}

// Stats summarizes what a crawl stage did.
type Stats struct {
	SitemapsFetched int
	SitemapsFailed  int
	PagesFetched    int
	PagesFailed     int
	// PathsAccepted counts in-scope paths handed to the store, repeats included.
	PathsAccepted int
	// PathsCreated counts paths the store had not seen before.
	PathsCreated int
	// PathsRejected counts paths the store refused to hold.
	PathsRejected int
}

func (s Stats) merge(o Stats) Stats {
	return Stats{
		SitemapsFetched: s.SitemapsFetched + o.SitemapsFetched,
		SitemapsFailed:  s.SitemapsFailed + o.SitemapsFailed,
		PagesFetched:    s.PagesFetched + o.PagesFetched,
		PagesFailed:     s.PagesFailed + o.PagesFailed,
		PathsAccepted:   s.PathsAccepted + o.PathsAccepted,
		PathsCreated:    s.PathsCreated + o.PathsCreated,
		PathsRejected:   s.PathsRejected + o.PathsRejected,
	}
}

func (s Stats) fields() []zap.Field {
	return []zap.Field{
		zap.Int("sitemapsFetched", s.SitemapsFetched),
		zap.Int("sitemapsFailed", s.SitemapsFailed),
		zap.Int("pagesFetched", s.PagesFetched),
		zap.Int("pagesFailed", s.PagesFailed),
		zap.Int("pathsAccepted", s.PathsAccepted),
		zap.Int("pathsCreated", s.PathsCreated),
		zap.Int("pathsRejected", s.PathsRejected),
	}
}

// record stores path for d and updates the counters. A path rejected by the
// store is logged and skipped.
func (c *Crawler) record(ctx context.Context, d *domain.Domain, path string, stats *Stats) error {
	created, err := c.store.CreatePath(ctx, d.ID, path)
	if errors.Is(err, storage.ErrRejectedValue) {
		stats.PathsRejected++
		logger.Warn(ctx, "path rejected by store", zap.Int("pathBytes", len(path)), zap.Error(err))

		return nil
	}
	if err != nil {
		return fmt.Errorf("could not store path %s: %w", path, err)
	}
	stats.PathsAccepted++
	if created {
		stats.PathsCreated++
	}

	return nil
}
