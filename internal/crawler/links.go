package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"sitepaths/pkg/domain"
	"sitepaths/pkg/logger"
	"sitepaths/pkg/metrics"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// ExtractLinks returns the href of every <a> element of an HTML page, resolved
// against base. Values that cannot be parsed as URL references are dropped.
func ExtractLinks(base *url.URL, body []byte) ([]*url.URL, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not parse html: %w", err)
	}

	var links []*url.URL
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		links = append(links, ref)
	})

	return links, nil
}

type queuedPage struct {
	url   *url.URL
	depth int
}

// CrawlLinks walks the domain breadth first from https://{name}/. Every in-scope
// link is recorded, and followed unless its URL was already fetched. A URL may sit
// in the queue more than once; it is fetched the first time it is dequeued and
// skipped afterwards.
func (c *Crawler) CrawlLinks(ctx context.Context, d *domain.Domain, p *Policy) (Stats, error) {
	var stats Stats
	defer func() { c.metrics.PathsCreated(ctx, "link", stats.PathsCreated) }()

	queue := []queuedPage{{url: &url.URL{Scheme: "https", Host: d.Name, Path: "/"}}}
	visited := map[string]struct{}{}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if c.options.MaxPages > 0 && stats.PagesFetched+stats.PagesFailed >= c.options.MaxPages {
			logger.Info(ctx, "page limit reached, stopping link traversal",
				zap.Int("maxPages", c.options.MaxPages), zap.Int("queued", len(queue)))

			break
		}

		page := queue[0]
		queue[0] = queuedPage{}
		queue = queue[1:]

		pageURL := page.url.String()
		if _, seen := visited[pageURL]; seen {
			continue
		}
		visited[pageURL] = struct{}{}

		body, ok := c.fetch(ctx, metrics.StagePage, pageURL, c.options.FetchTimeout)
		if !ok {
			stats.PagesFailed++

			continue
		}
		stats.PagesFetched++

		links, err := ExtractLinks(page.url, body)
		if err != nil {
			logger.Debug(ctx, "skipping page", zap.String("url", pageURL), zap.Error(err))

			continue
		}

		follow := c.options.MaxDepth == 0 || page.depth < c.options.MaxDepth
		for _, link := range links {
			path, ok := p.Accepts(d.Name, link)
			if !ok {
				continue
			}

			// fragments never reach the server, so they do not make a page distinct
			link.Fragment, link.RawFragment = "", ""
			if link.Path == "" {
				link.Path = "/"
			}
			if _, seen := visited[link.String()]; follow && !seen {
				queue = append(queue, queuedPage{url: link, depth: page.depth + 1})
			}

			if err := c.record(ctx, d, path, &stats); err != nil {
				return stats, err
			}
		}
	}

	return stats, nil
}
