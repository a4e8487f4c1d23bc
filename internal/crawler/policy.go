package crawler

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"sitepaths/pkg/logger"
	"sitepaths/pkg/metrics"

	"go.uber.org/zap"
)

const (
	disallowDirective = "Disallow:"
	sitemapDirective  = "Sitemap:"
)

// Policy is what a crawl takes from a domain's robots.txt: path prefixes that
// must not be recorded or followed and the sitemaps to ingest. User-agent groups
// are not distinguished. A Policy is not modified after it is built.
type Policy struct {
	disallow map[string]struct{}
	// decoded holds the percent-decoded form of every disallow prefix.
	decoded  map[string]struct{}
	sitemaps map[string]struct{}
}

// ParsePolicy collects every non-empty "Disallow:" and "Sitemap:" value of a
// robots.txt body. Directive names are matched case-sensitively at the start of
// the trimmed line.
func ParsePolicy(body []byte) *Policy {
	p := &Policy{
		disallow: map[string]struct{}{},
		decoded:  map[string]struct{}{},
		sitemaps: map[string]struct{}{},
	}

	lines := strings.FieldsFunc(string(body), func(r rune) bool { return r == '\n' || r == '\r' })
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, disallowDirective); ok {
			if v = strings.TrimSpace(v); v != "" {
				p.disallow[v] = struct{}{}
				p.decoded[unescapePath(v)] = struct{}{}
			}
		} else if v, ok := strings.CutPrefix(line, sitemapDirective); ok {
			if v = strings.TrimSpace(v); v != "" {
				p.sitemaps[v] = struct{}{}
			}
		}
	}

	return p
}

// Disallows reports whether path starts with any disallowed prefix. Both sides
// are also compared percent-decoded, so "/café/" and "/caf%C3%A9/" match either
// spelling of the path.
func (p *Policy) Disallows(path string) bool {
	if hasAnyPrefix(path, p.disallow) {
		return true
	}

	return hasAnyPrefix(unescapePath(path), p.decoded)
}

func hasAnyPrefix(s string, prefixes map[string]struct{}) bool {
	for prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}

// unescapePath decodes percent escapes in s and returns s unchanged when it is
// not validly escaped.
func unescapePath(s string) string {
	if d, err := url.PathUnescape(s); err == nil {
		return d
	}

	return s
}

// DisallowPrefixes returns the disallowed prefixes in sorted order.
func (p *Policy) DisallowPrefixes() []string {
	return sortedKeys(p.disallow)
}

// SitemapURLs returns the declared sitemap URLs in sorted order.
func (p *Policy) SitemapURLs() []string {
	return sortedKeys(p.sitemaps)
}

// Accepts reports whether u belongs to the domain named host and is not
// disallowed, and returns the path to record for it. The host comparison is exact,
// so subdomains, other ports and URLs carrying user info are out of scope.
func (p *Policy) Accepts(host string, u *url.URL) (string, bool) {
	if u.Host != host || u.User != nil {
		return "", false
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if p.Disallows(path) {
		return "", false
	}

	return path, true
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)

	return out
}

// FetchPolicy reads https://{name}/robots.txt. A missing or unreachable file
// yields an empty policy.
func (c *Crawler) FetchPolicy(ctx context.Context, name string) *Policy {
	robotsURL := (&url.URL{Scheme: "https", Host: name, Path: "/robots.txt"}).String()

	body, ok := c.fetch(ctx, metrics.StagePolicy, robotsURL, c.options.PolicyTimeout)
	if !ok {
		logger.Debug(ctx, "no robots policy, crawling without restrictions")

		return ParsePolicy(nil)
	}

	p := ParsePolicy(body)
	logger.Debug(ctx, "robots policy loaded",
		zap.Strings("disallow", p.DisallowPrefixes()),
		zap.Strings("sitemaps", p.SitemapURLs()))

	return p
}
