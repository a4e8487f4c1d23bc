package crawler

import (
	"context"
	"io"
	"net/http"
	"time"

	"sitepaths/pkg/logger"
	"sitepaths/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type limiterKey struct{}

func withLimiter(ctx context.Context, l *rate.Limiter) context.Context {
	return context.WithValue(ctx, limiterKey{}, l)
}

// fetch GETs rawURL within timeout and returns the body of a 200 response. Any
// other outcome is logged and reported as false. Sitemap bodies over
// MaxSitemapBytes are rejected, other bodies are cut at MaxBodyBytes.
func (c *Crawler) fetch(ctx context.Context, stage, rawURL string, timeout time.Duration) ([]byte, bool) {
	if l, ok := ctx.Value(limiterKey{}).(*rate.Limiter); ok {
		if err := l.Wait(ctx); err != nil {
			logger.Debug(ctx, "request not sent", zap.String("stage", stage), zap.String("url", rawURL),
				zap.Error(err))

			return nil, false
		}
	}

	start := time.Now()
	outcome := metrics.OutcomeTransport
	defer func() {
		c.metrics.Fetch(ctx, stage, outcome, time.Since(start))
	}()

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		logger.Debug(ctx, "could not build request", zap.String("stage", stage), zap.String("url", rawURL),
			zap.Error(err))

		return nil, false
	}
	if c.options.UserAgent != "" {
		req.Header.Set("User-Agent", c.options.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Debug(ctx, "fetch failed", zap.String("stage", stage), zap.String("url", rawURL), zap.Error(err))

		return nil, false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		outcome = metrics.OutcomeStatus
		logger.Debug(ctx, "unexpected response status", zap.String("stage", stage), zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode))

		return nil, false
	}

	limit := c.options.MaxBodyBytes
	if stage == metrics.StageSitemap {
		limit = c.options.MaxSitemapBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		logger.Debug(ctx, "could not read response body", zap.String("stage", stage), zap.String("url", rawURL),
			zap.Error(err))

		return nil, false
	}
	if int64(len(body)) > limit {
		if stage == metrics.StageSitemap {
			outcome = metrics.OutcomeTooLarge
			logger.Warn(ctx, "response body exceeds size limit", zap.String("stage", stage),
				zap.String("url", rawURL), zap.Int64("limit", limit))

			return nil, false
		}
		body = body[:limit]
	}
	outcome = metrics.OutcomeOK

	return body, true
}
