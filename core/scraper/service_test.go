// ABOUTME: Tests for the scraper service orchestration
// ABOUTME: Covers cache fast path, breaker interplay and error classification

package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"citations-app-api/core/breaker"
	coreerrors "citations-app-api/core/errors"
	"citations-app-api/core/interfaces"
)

const articleHTML = `<html lang="en">
<head>
<title>Fallback Title</title>
<meta property="og:title" content="A Story">
<meta property="og:site_name" content="Example News">
</head>
<body><h1>A Story</h1></body>
</html>`

func newTestService(cache *mockCache, fetcher *mockFetcher, client *mockHTTPClient) *Service {
	deps := interfaces.Dependencies{
		Cache:      cache,
		HTTPClient: client,
		Logger:     &mockLogger{},
	}
	brk := breaker.New("test", breaker.Config{FailureThreshold: 3}, nil)
	return NewService(deps, fetcher, brk, Options{})
}

func TestScrape_FetchesExtractsAndCaches(t *testing.T) {
	cache := newMockCache()
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, url string) (*interfaces.Page, error) {
			return &interfaces.Page{HTML: articleHTML, FinalURL: url}, nil
		},
	}
	service := newTestService(cache, fetcher, &mockHTTPClient{})

	result, err := service.Scrape(context.Background(), "https://example.com/story")
	if err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}

	if result.Title != "A Story" {
		t.Errorf("Title = %q, want A Story", result.Title)
	}
	if result.SiteName != "Example News" {
		t.Errorf("SiteName = %q, want Example News", result.SiteName)
	}
	if fetcher.fetchCalls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.fetchCalls)
	}
	if cache.setCalls != 1 {
		t.Errorf("cache writes = %d, want 1", cache.setCalls)
	}
}

func TestScrape_SecondCallServedFromCache(t *testing.T) {
	cache := newMockCache()
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, url string) (*interfaces.Page, error) {
			return &interfaces.Page{HTML: articleHTML, FinalURL: url}, nil
		},
	}
	service := newTestService(cache, fetcher, &mockHTTPClient{})
	ctx := context.Background()

	first, err := service.Scrape(ctx, "https://example.com/story")
	if err != nil {
		t.Fatalf("first Scrape returned error: %v", err)
	}
	second, err := service.Scrape(ctx, "https://example.com/story")
	if err != nil {
		t.Fatalf("second Scrape returned error: %v", err)
	}

	if fetcher.fetchCalls != 1 {
		t.Errorf("fetch calls = %d, want 1 (second call must hit the cache)", fetcher.fetchCalls)
	}
	if second.Title != first.Title {
		t.Errorf("cached Title = %q, want %q", second.Title, first.Title)
	}
}

func TestScrape_CanonicalURLsShareCacheEntry(t *testing.T) {
	cache := newMockCache()
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, url string) (*interfaces.Page, error) {
			return &interfaces.Page{HTML: articleHTML, FinalURL: url}, nil
		},
	}
	service := newTestService(cache, fetcher, &mockHTTPClient{})
	ctx := context.Background()

	service.Scrape(ctx, "https://example.com/story")
	service.Scrape(ctx, "HTTPS://EXAMPLE.COM:443/story")

	if fetcher.fetchCalls != 1 {
		t.Errorf("fetch calls = %d, want 1 for canonically equal URLs", fetcher.fetchCalls)
	}
}

func TestScrape_InvalidURLRejectedBeforeFetch(t *testing.T) {
	cases := []string{
		"",
		"not-a-url",
		"ftp://example.com/file",
		"http://localhost/admin",
		"http://192.168.1.1/router",
	}

	for _, raw := range cases {
		fetcher := &mockFetcher{}
		service := newTestService(newMockCache(), fetcher, &mockHTTPClient{})

		_, err := service.Scrape(context.Background(), raw)

		if !coreerrors.IsValidation(err) {
			t.Errorf("Scrape(%q) error = %v, want validation error", raw, err)
		}
		if fetcher.fetchCalls != 0 {
			t.Errorf("Scrape(%q) reached the fetcher", raw)
		}
	}
}

func TestScrape_NotFoundClassified(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, url string) (*interfaces.Page, error) {
			return nil, &interfaces.FetchError{Kind: interfaces.FetchErrorNotFound, URL: url, Status: 404}
		},
	}
	service := newTestService(newMockCache(), fetcher, &mockHTTPClient{})

	_, err := service.Scrape(context.Background(), "https://example.com/gone")

	if !coreerrors.IsNotFound(err) {
		t.Errorf("error = %v, want not-found", err)
	}
}

func TestScrape_TimeoutClassified(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, url string) (*interfaces.Page, error) {
			return nil, &interfaces.FetchError{Kind: interfaces.FetchErrorTimeout, URL: url}
		},
	}
	service := newTestService(newMockCache(), fetcher, &mockHTTPClient{})

	_, err := service.Scrape(context.Background(), "https://slow.example.com/page")

	if !coreerrors.IsTimeout(err) {
		t.Errorf("error = %v, want timeout", err)
	}
}

func TestScrape_GenericFailureClassified(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, url string) (*interfaces.Page, error) {
			return nil, &interfaces.FetchError{Kind: interfaces.FetchErrorGeneric, URL: url, Status: 500}
		},
	}
	service := newTestService(newMockCache(), fetcher, &mockHTTPClient{})

	_, err := service.Scrape(context.Background(), "https://example.com/broken")

	if !coreerrors.IsFetchFailed(err) {
		t.Errorf("error = %v, want fetch-failed", err)
	}
}

func TestScrape_OpenBreakerShortCircuits(t *testing.T) {
	cache := newMockCache()
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, url string) (*interfaces.Page, error) {
			return nil, &interfaces.FetchError{Kind: interfaces.FetchErrorGeneric, URL: url, Status: 500}
		},
	}
	service := newTestService(cache, fetcher, &mockHTTPClient{})
	ctx := context.Background()

	// Threshold is 3 in newTestService.
	for i := 0; i < 3; i++ {
		service.Scrape(ctx, "https://example.com/broken")
	}

	_, err := service.Scrape(ctx, "https://example.com/broken")

	if !coreerrors.IsCircuitOpen(err) {
		t.Fatalf("error = %v, want circuit-open", err)
	}
	if fetcher.fetchCalls != 3 {
		t.Errorf("fetch calls = %d, want 3 (fourth call must be rejected by the breaker)", fetcher.fetchCalls)
	}

	var openErr *coreerrors.CircuitOpenError
	if errors.As(err, &openErr) && openErr.RetryAfter(time.Now()) < 0 {
		t.Error("RetryAfter is negative immediately after opening")
	}
}

func TestScrape_CacheHitBypassesOpenBreaker(t *testing.T) {
	cache := newMockCache()
	failing := false
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, url string) (*interfaces.Page, error) {
			if failing {
				return nil, &interfaces.FetchError{Kind: interfaces.FetchErrorGeneric, URL: url}
			}
			return &interfaces.Page{HTML: articleHTML, FinalURL: url}, nil
		},
	}
	service := newTestService(cache, fetcher, &mockHTTPClient{})
	ctx := context.Background()

	service.Scrape(ctx, "https://example.com/story")

	// Trip the breaker on a different page.
	failing = true
	for i := 0; i < 3; i++ {
		service.Scrape(ctx, "https://example.com/broken")
	}

	result, err := service.Scrape(ctx, "https://example.com/story")
	if err != nil {
		t.Fatalf("cached Scrape returned error while breaker open: %v", err)
	}
	if result.Title != "A Story" {
		t.Errorf("Title = %q, want A Story", result.Title)
	}
}

func TestScrape_UndecodableCacheEntryTreatedAsMiss(t *testing.T) {
	cache := newMockCache()
	cache.getFunc = func(ctx context.Context, key string) ([]byte, error) {
		return []byte("{not json"), nil
	}
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, url string) (*interfaces.Page, error) {
			return &interfaces.Page{HTML: articleHTML, FinalURL: url}, nil
		},
	}
	service := newTestService(cache, fetcher, &mockHTTPClient{})

	result, err := service.Scrape(context.Background(), "https://example.com/story")
	if err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	if fetcher.fetchCalls != 1 {
		t.Errorf("fetch calls = %d, want 1 after discarding bad cache entry", fetcher.fetchCalls)
	}
	if result.Title != "A Story" {
		t.Errorf("Title = %q, want A Story", result.Title)
	}
}

func TestScrape_CacheWriteFailureDoesNotFailRequest(t *testing.T) {
	cache := newMockCache()
	cache.setFunc = func(ctx context.Context, key string, value []byte, ttl time.Duration) error {
		return errors.New("cache down")
	}
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, url string) (*interfaces.Page, error) {
			return &interfaces.Page{HTML: articleHTML, FinalURL: url}, nil
		},
	}
	service := newTestService(cache, fetcher, &mockHTTPClient{})

	if _, err := service.Scrape(context.Background(), "https://example.com/story"); err != nil {
		t.Errorf("Scrape returned error on cache write failure: %v", err)
	}
}

func TestCheckHealth_ReportsOK(t *testing.T) {
	service := newTestService(newMockCache(), &mockFetcher{}, &mockHTTPClient{})

	status := service.CheckHealth(context.Background())

	if status.Status != "ok" {
		t.Errorf("Status = %q, want ok", status.Status)
	}
	if status.Fetcher != "ok" {
		t.Errorf("Fetcher = %q, want ok", status.Fetcher)
	}
	if status.Breaker.State != breaker.StateClosed {
		t.Errorf("Breaker.State = %s, want closed", status.Breaker.State)
	}
}

func TestCheckHealth_DegradedWhenFetcherDown(t *testing.T) {
	fetcher := &mockFetcher{
		healthFunc: func(ctx context.Context) error {
			return errors.New("dns resolution failed")
		},
	}
	service := newTestService(newMockCache(), fetcher, &mockHTTPClient{})

	status := service.CheckHealth(context.Background())

	if status.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", status.Status)
	}
	if !strings.Contains(status.Fetcher, "dns resolution failed") {
		t.Errorf("Fetcher = %q, want the probe error", status.Fetcher)
	}
}
