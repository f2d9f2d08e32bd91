// ABOUTME: Scraper service orchestrating cache, circuit breaker and extractor
// ABOUTME: Single entry point for URL scraping plus DOI/ISBN lookups and health reporting

package scraper

import (
	"context"
	"encoding/json"
	"time"

	"citations-app-api/core/breaker"
	"citations-app-api/core/domain"
	coreerrors "citations-app-api/core/errors"
	"citations-app-api/core/extract"
	"citations-app-api/core/interfaces"
	"citations-app-api/pkg/cachekey"
	"citations-app-api/pkg/urlutil"
)

const cacheNamespace = "metadata"

// Options tunes the service's cache TTLs and lookup registries.
type Options struct {
	// ScrapeTTL is the cache TTL for scraped page metadata.
	ScrapeTTL time.Duration

	// LookupTTL is the cache TTL for DOI/ISBN registry lookups, which
	// change far less often than web pages.
	LookupTTL time.Duration

	// CrossrefBaseURL overrides the DOI registry endpoint (tests).
	CrossrefBaseURL string

	// OpenLibraryBaseURL overrides the ISBN registry endpoint (tests).
	OpenLibraryBaseURL string
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		ScrapeTTL:          24 * time.Hour,
		LookupTTL:          7 * 24 * time.Hour,
		CrossrefBaseURL:    "https://api.crossref.org",
		OpenLibraryBaseURL: "https://openlibrary.org",
	}
}

// HealthStatus is the service liveness snapshot.
type HealthStatus struct {
	Status        string                `json:"status"`
	Fetcher       string                `json:"fetcher"`
	UptimeSeconds int64                 `json:"uptimeSeconds"`
	Cache         interfaces.CacheStats `json:"cache"`
	Breaker       breaker.Stats         `json:"circuitBreaker"`
}

// Service combines the tiered cache, the fetch circuit breaker and the
// metadata extractor behind one scrape operation. One instance is
// created at startup and shared across requests.
type Service struct {
	deps      interfaces.Dependencies
	fetcher   interfaces.Fetcher
	breaker   *breaker.CircuitBreaker
	extractor *extract.Extractor
	opts      Options
	startedAt time.Time
}

// NewService creates the scraper service. Zero-valued options fall back
// to DefaultOptions.
func NewService(deps interfaces.Dependencies, fetcher interfaces.Fetcher, brk *breaker.CircuitBreaker, opts Options) *Service {
	defaults := DefaultOptions()
	if opts.ScrapeTTL <= 0 {
		opts.ScrapeTTL = defaults.ScrapeTTL
	}
	if opts.LookupTTL <= 0 {
		opts.LookupTTL = defaults.LookupTTL
	}
	if opts.CrossrefBaseURL == "" {
		opts.CrossrefBaseURL = defaults.CrossrefBaseURL
	}
	if opts.OpenLibraryBaseURL == "" {
		opts.OpenLibraryBaseURL = defaults.OpenLibraryBaseURL
	}

	return &Service{
		deps:      deps,
		fetcher:   fetcher,
		breaker:   brk,
		extractor: extract.NewExtractor(deps.Logger),
		opts:      opts,
		startedAt: time.Now(),
	}
}

// Scrape returns citation metadata for a public web page: cache lookup,
// then a breaker-guarded fetch and extraction, then write-through.
func (s *Service) Scrape(ctx context.Context, rawURL string) (*domain.MetadataResult, error) {
	u, err := urlutil.ValidatePublicHTTPURL(rawURL)
	if err != nil {
		return nil, err
	}

	normalized := urlutil.Canonical(u)
	key := cachekey.Build(cacheNamespace, "scraper", normalized)

	if cached := s.cacheGet(ctx, key); cached != nil {
		return cached, nil
	}

	var result *domain.MetadataResult
	err = s.breaker.Execute(ctx, func(ctx context.Context) error {
		page, fetchErr := s.fetcher.Fetch(ctx, normalized)
		if fetchErr != nil {
			return fetchErr
		}

		finalURL := page.FinalURL
		if finalURL == "" {
			finalURL = normalized
		}
		result = s.extractor.Extract(page.HTML, finalURL)
		return nil
	})
	if err != nil {
		return nil, s.classifyFetchError(normalized, err)
	}

	s.cacheSet(ctx, key, result, s.opts.ScrapeTTL)
	return result, nil
}

// classifyFetchError translates fetch-boundary and breaker errors into
// the stable API-facing taxonomy. Internal error types never leak past
// this point.
func (s *Service) classifyFetchError(url string, err error) error {
	if coreerrors.IsCircuitOpen(err) {
		return err
	}

	if fe, ok := interfaces.AsFetchError(err); ok {
		switch fe.Kind {
		case interfaces.FetchErrorNotFound:
			return &coreerrors.NotFoundError{Resource: "page", ID: url}
		case interfaces.FetchErrorTimeout:
			return &coreerrors.TimeoutError{URL: url}
		case interfaces.FetchErrorInvalidURL:
			return &coreerrors.ValidationError{Field: "url", Message: "url was rejected by the fetch layer"}
		default:
			return &coreerrors.FetchFailedError{URL: url, Message: fe.Error()}
		}
	}

	return &coreerrors.FetchFailedError{URL: url, Message: err.Error()}
}

// cacheGet returns a previously cached result, or nil on any miss or
// decode failure.
func (s *Service) cacheGet(ctx context.Context, key string) *domain.MetadataResult {
	if s.deps.Cache == nil {
		return nil
	}

	data, err := s.deps.Cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}

	var result domain.MetadataResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.deps.Logger.Warn("discarding undecodable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil
	}

	return &result
}

// cacheSet writes a result through to the cache, best-effort.
func (s *Service) cacheSet(ctx context.Context, key string, result *domain.MetadataResult, ttl time.Duration) {
	if s.deps.Cache == nil || result == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}

	if err := s.deps.Cache.Set(ctx, key, data, ttl); err != nil {
		s.deps.Logger.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// CheckHealth probes the fetch layer and snapshots cache and breaker
// state.
func (s *Service) CheckHealth(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:        "ok",
		Fetcher:       "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Cache:         s.CacheStats(),
		Breaker:       s.BreakerStats(),
	}

	if err := s.fetcher.CheckHealth(ctx); err != nil {
		status.Status = "degraded"
		status.Fetcher = err.Error()
	}
	if status.Breaker.State == breaker.StateOpen {
		status.Status = "degraded"
	}

	return status
}

// CacheStats reports cumulative cache hit/miss counters.
func (s *Service) CacheStats() interfaces.CacheStats {
	if sc, ok := s.deps.Cache.(interfaces.StatCache); ok {
		return sc.Stats()
	}
	return interfaces.CacheStats{}
}

// BreakerStats reports the fetch breaker's counters.
func (s *Service) BreakerStats() breaker.Stats {
	return s.breaker.Stats()
}
