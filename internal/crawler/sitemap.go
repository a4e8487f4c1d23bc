package crawler

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"sitepaths/pkg/domain"
	"sitepaths/pkg/logger"
	"sitepaths/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

var errNoRootElement = errors.New("document has no root element")

// ExtractLocations returns the trimmed text of every <loc> element of a sitemap
// or sitemap index, whatever namespace it is in. Malformed XML fails the whole
// document.
func ExtractLocations(body []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		locs    []string
		text    strings.Builder
		inLoc   int
		hasRoot bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not parse sitemap: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			hasRoot = true
			if t.Name.Local == "loc" {
				if inLoc == 0 {
					text.Reset()
				}
				inLoc++
			}
		case xml.EndElement:
			if t.Name.Local == "loc" && inLoc > 0 {
				inLoc--
				if inLoc == 0 {
					locs = append(locs, strings.TrimSpace(text.String()))
				}
			}
		case xml.CharData:
			if inLoc > 0 {
				text.Write(t)
			}
		}
	}
	if !hasRoot {
		return nil, errNoRootElement
	}

	return locs, nil
}

// IngestSitemaps records the in-scope locations of every sitemap in p. Sitemaps
// that cannot be fetched or parsed are skipped.
func (c *Crawler) IngestSitemaps(ctx context.Context, d *domain.Domain, p *Policy) (Stats, error) {
	var stats Stats
	defer func() { c.metrics.PathsCreated(ctx, "sitemap", stats.PathsCreated) }()

	for _, sitemapURL := range p.SitemapURLs() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		body, ok := c.fetch(ctx, metrics.StageSitemap, sitemapURL, c.options.FetchTimeout)
		if !ok {
			stats.SitemapsFailed++

			continue
		}

		locs, err := ExtractLocations(body)
		if err != nil {
			logger.Debug(ctx, "skipping sitemap", zap.String("url", sitemapURL), zap.Error(err))
			stats.SitemapsFailed++

			continue
		}
		stats.SitemapsFetched++

		for _, loc := range locs {
			u, err := url.Parse(loc)
			if err != nil {
				continue
			}
			path, ok := p.Accepts(d.Name, u)
			if !ok {
				continue
			}
			if err := c.record(ctx, d, path, &stats); err != nil {
				return stats, err
			}
		}
	}

	return stats, nil
}
