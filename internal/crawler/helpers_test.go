package crawler_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"sitepaths/internal/crawler"
	"sitepaths/pkg/domain"
	"sitepaths/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// resource is one URL served by fakeSite.
type resource struct {
	status int
	body   string
	err    error
	// hang blocks the request until its context ends
	hang bool
}

// fakeSite serves a fixed set of URLs and answers 404 for everything else. It
// records every request in order.
type fakeSite struct {
	mu        sync.Mutex
	resources map[string]resource
	requests  []string
	agents    []string
}

func newFakeSite(resources map[string]resource) *fakeSite {
	return &fakeSite{resources: resources}
}

func (s *fakeSite) client() *http.Client {
	return &http.Client{Transport: rtFunc(s.roundTrip)}
}

func (s *fakeSite) roundTrip(r *http.Request) (*http.Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, r.URL.String())
	s.agents = append(s.agents, r.Header.Get("User-Agent"))
	res, ok := s.resources[r.URL.String()]
	s.mu.Unlock()

	switch {
	case !ok:
		return respond(http.StatusNotFound, "not found"), nil
	case res.hang:
		<-r.Context().Done()

		return nil, r.Context().Err()
	case res.err != nil:
		return nil, res.err
	default:
		status := res.status
		if status == 0 {
			status = http.StatusOK
		}

		return respond(status, res.body), nil
	}
}

func (s *fakeSite) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.requests...)
}

// fetchCount returns how often url was requested.
func (s *fakeSite) fetchCount(url string) int {
	n := 0
	for _, r := range s.requested() {
		if r == url {
			n++
		}
	}

	return n
}

// memStore is an in-memory crawler.Store.
type memStore struct {
	mu      sync.Mutex
	domains map[string]*domain.Domain
	paths   map[domain.DomainID][]string
	writes  int
	// reject maps paths to the error CreatePath returns for them
	reject map[string]error
}

func newMemStore(names ...string) *memStore {
	s := &memStore{
		domains: map[string]*domain.Domain{},
		paths:   map[domain.DomainID][]string{},
	}
	for _, n := range names {
		s.domains[n] = &domain.Domain{ID: domain.DomainID(uuid.New()), Name: n, CreatedAt: time.Now()}
	}

	return s
}

func (s *memStore) DomainByName(_ context.Context, name string) (*domain.Domain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.domains[name], nil
}

func (s *memStore) CreatePath(_ context.Context, domainID domain.DomainID, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++
	if err := s.reject[path]; err != nil {
		return false, err
	}
	for _, p := range s.paths[domainID] {
		if p == path {
			return false, nil
		}
	}
	s.paths[domainID] = append(s.paths[domainID], path)

	return true, nil
}

func (s *memStore) domain(name string) *domain.Domain {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.domains[name]
}

func (s *memStore) pathsOf(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.paths[s.domains[name].ID]...)
}

func testOptions(site *fakeSite) crawler.Options {
	return crawler.Options{
		HTTPClient:    site.client(),
		UserAgent:     "sitepaths-test",
		PolicyTimeout: time.Second,
		FetchTimeout:  time.Second,
	}
}

func newTestCrawler(t *testing.T, store crawler.Store, opts crawler.Options) *crawler.Crawler {
	t.Helper()
	c, err := crawler.New(store, opts)
	require.NoError(t, err)

	return c
}
