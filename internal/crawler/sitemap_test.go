package crawler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"sitepaths/internal/crawler"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const urlset = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/admin/secret</loc></url>
  <url>
    <loc>
      https://example.com/public/page
    </loc>
    <lastmod>2024-01-01</lastmod>
  </url>
</urlset>`

func TestExtractLocations(t *testing.T) {
	cases := []struct {
		name string
		body string
		locs []string
	}{
		{
			name: "namespaced urlset",
			body: urlset,
			locs: []string{"https://example.com/admin/secret", "https://example.com/public/page"},
		},
		{
			name: "no namespace",
			body: `<urlset><url><loc>https://example.com/a</loc></url></urlset>`,
			locs: []string{"https://example.com/a"},
		},
		{
			name: "prefixed namespace",
			body: `<sm:urlset xmlns:sm="http://www.sitemaps.org/schemas/sitemap/0.9">` +
				`<sm:url><sm:loc>https://example.com/b</sm:loc></sm:url></sm:urlset>`,
			locs: []string{"https://example.com/b"},
		},
		{
			name: "sitemap index",
			body: `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` +
				`<sitemap><loc>https://example.com/sitemap-1.xml</loc></sitemap></sitemapindex>`,
			locs: []string{"https://example.com/sitemap-1.xml"},
		},
		{
			name: "entities and cdata",
			body: `<urlset><url><loc>https://example.com/a?x=1&amp;y=2</loc></url>` +
				`<url><loc><![CDATA[https://example.com/c]]></loc></url></urlset>`,
			locs: []string{"https://example.com/a?x=1&y=2", "https://example.com/c"},
		},
		{
			name: "declared latin-1 encoding",
			body: "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><urlset><url><loc>https://example.com/caf\xe9</loc></url></urlset>",
			locs: []string{"https://example.com/café"},
		},
		{
			name: "no loc elements",
			body: `<urlset></urlset>`,
			locs: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			locs, err := crawler.ExtractLocations([]byte(tc.body))
			require.NoError(t, err)
			require.Equal(t, tc.locs, locs)
		})
	}
}

func TestExtractLocations_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"empty":          "",
		"plain text":     "this is not xml",
		"unclosed":       `<urlset><url><loc>https://example.com/a</loc></url>`,
		"mismatched tag": `<urlset><loc>https://example.com/a</url></urlset>`,
		"html page":      `<html><body><p>Sorry<br></body></html>`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := crawler.ExtractLocations([]byte(body))
			require.Error(t, err)
		})
	}
}

func TestCrawler_IngestSitemaps_FiltersDisallowed(t *testing.T) {
	site := newFakeSite(map[string]resource{
		"https://example.com/sitemap.xml": {body: urlset},
	})
	store := newMemStore("example.com")
	c := newTestCrawler(t, store, testOptions(site))
	p := crawler.ParsePolicy([]byte("Disallow: /admin/\nSitemap: https://example.com/sitemap.xml"))

	stats, err := c.IngestSitemaps(t.Context(), store.domain("example.com"), p)
	require.NoError(t, err)
	require.Equal(t, []string{"/public/page"}, store.pathsOf("example.com"))
	require.Equal(t, 1, stats.SitemapsFetched)
	require.Equal(t, 1, stats.PathsCreated)
}

func TestCrawler_IngestSitemaps_ForeignHosts(t *testing.T) {
	site := newFakeSite(map[string]resource{
		"https://example.com/sitemap.xml": {body: `<urlset>
			<url><loc>https://cdn.example.com/asset</loc></url>
			<url><loc>https://other.org/page</loc></url>
			<url><loc>https://example.com:8080/alt</loc></url>
			<url><loc>://broken</loc></url>
			<url><loc></loc></url>
			<url><loc>https://example.com/kept</loc></url>
		</urlset>`},
	})
	store := newMemStore("example.com")
	c := newTestCrawler(t, store, testOptions(site))
	p := crawler.ParsePolicy([]byte("Sitemap: https://example.com/sitemap.xml"))

	_, err := c.IngestSitemaps(t.Context(), store.domain("example.com"), p)
	require.NoError(t, err)
	require.Equal(t, []string{"/kept"}, store.pathsOf("example.com"))
}

func TestCrawler_IngestSitemaps_Idempotent(t *testing.T) {
	site := newFakeSite(map[string]resource{
		"https://example.com/sitemap.xml": {body: `<urlset>
			<url><loc>https://example.com/a</loc></url>
			<url><loc>https://example.com/b</loc></url>
			<url><loc>https://example.com/a</loc></url>
		</urlset>`},
	})
	store := newMemStore("example.com")
	c := newTestCrawler(t, store, testOptions(site))
	p := crawler.ParsePolicy([]byte("Sitemap: https://example.com/sitemap.xml"))
	d := store.domain("example.com")

	first, err := c.IngestSitemaps(t.Context(), d, p)
	require.NoError(t, err)
	second, err := c.IngestSitemaps(t.Context(), d, p)
	require.NoError(t, err)

	require.Equal(t, []string{"/a", "/b"}, store.pathsOf("example.com"))
	require.Equal(t, 2, first.PathsCreated)
	require.Equal(t, 3, first.PathsAccepted)
	require.Zero(t, second.PathsCreated)
}

func TestCrawler_IngestSitemaps_SkipsBrokenSitemaps(t *testing.T) {
	site := newFakeSite(map[string]resource{
		"https://example.com/gone.xml":    {status: http.StatusGone},
		"https://example.com/broken.xml":  {body: "<urlset><url><loc>https://example.com/never"},
		"https://example.com/timeout.xml": {hang: true},
		"https://example.com/good.xml":    {body: `<urlset><url><loc>https://example.com/good</loc></url></urlset>`},
	})
	store := newMemStore("example.com")
	opts := testOptions(site)
	opts.FetchTimeout = 20 * time.Millisecond
	c := newTestCrawler(t, store, opts)
	p := crawler.ParsePolicy([]byte("Sitemap: https://example.com/gone.xml\n" +
		"Sitemap: https://example.com/broken.xml\n" +
		"Sitemap: https://example.com/timeout.xml\n" +
		"Sitemap: https://example.com/missing.xml\n" +
		"Sitemap: https://example.com/good.xml\n"))

	stats, err := c.IngestSitemaps(t.Context(), store.domain("example.com"), p)
	require.NoError(t, err)
	require.Equal(t, []string{"/good"}, store.pathsOf("example.com"))
	require.Equal(t, 1, stats.SitemapsFetched)
	require.Equal(t, 4, stats.SitemapsFailed)
	require.Len(t, site.requested(), 5, "each sitemap is fetched once")
}

func TestCrawler_IngestSitemaps_LargerThanPageLimit(t *testing.T) {
	// valid sitemap above the 10 MiB page limit, with its locations after the padding
	body := "<urlset><!-- " + strings.Repeat("x", 11<<20) + " -->" +
		"<url><loc>https://example.com/late/1</loc></url>" +
		"<url><loc>https://example.com/late/2</loc></url></urlset>"
	site := newFakeSite(map[string]resource{
		"https://example.com/sitemap.xml": {body: body},
	})
	store := newMemStore("example.com")
	c := newTestCrawler(t, store, testOptions(site))
	p := crawler.ParsePolicy([]byte("Sitemap: https://example.com/sitemap.xml"))

	stats, err := c.IngestSitemaps(t.Context(), store.domain("example.com"), p)
	require.NoError(t, err)
	require.Equal(t, []string{"/late/1", "/late/2"}, store.pathsOf("example.com"))
	require.Equal(t, 1, stats.SitemapsFetched)
	require.Zero(t, stats.SitemapsFailed)
}

func TestCrawler_IngestSitemaps_Oversized(t *testing.T) {
	big := "<urlset>" + strings.Repeat("<url><loc>https://example.com/big</loc></url>", 20) + "</urlset>"
	site := newFakeSite(map[string]resource{
		"https://example.com/big.xml":   {body: big},
		"https://example.com/small.xml": {body: `<urlset><url><loc>https://example.com/small</loc></url></urlset>`},
	})
	reader := sdkmetric.NewManualReader()
	store := newMemStore("example.com")
	opts := testOptions(site)
	opts.MaxSitemapBytes = 256
	opts.Meter = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	c := newTestCrawler(t, store, opts)
	p := crawler.ParsePolicy([]byte("Sitemap: https://example.com/big.xml\nSitemap: https://example.com/small.xml"))

	stats, err := c.IngestSitemaps(t.Context(), store.domain("example.com"), p)
	require.NoError(t, err)
	require.Equal(t, []string{"/small"}, store.pathsOf("example.com"), "an oversized sitemap is skipped whole")
	require.Equal(t, 1, stats.SitemapsFetched)
	require.Equal(t, 1, stats.SitemapsFailed)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	outcomes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if m.Name != "crawler.fetches" || !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key("outcome"))
				outcomes[v.AsString()] += dp.Value
			}
		}
	}
	require.Equal(t, map[string]int64{"too_large": 1, "ok": 1}, outcomes)
}
