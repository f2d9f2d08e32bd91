// ABOUTME: HTTP handlers for scrape, DOI and ISBN citation lookups
// ABOUTME: Thin adapters translating service results and errors into API responses

package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"citations-app-api/core/breaker"
	"citations-app-api/core/domain"
	"citations-app-api/core/interfaces"
	"citations-app-api/core/scraper"
	"citations-app-api/pkg/metrics"
)

// ScraperService is the contract the handlers need from the scraper
// core; defined here so tests can substitute a mock.
type ScraperService interface {
	Scrape(ctx context.Context, url string) (*domain.MetadataResult, error)
	ScrapeDOI(ctx context.Context, doi string) (*domain.MetadataResult, error)
	ScrapeISBN(ctx context.Context, isbn string) (*domain.MetadataResult, error)
	CheckHealth(ctx context.Context) scraper.HealthStatus
	CacheStats() interfaces.CacheStats
	BreakerStats() breaker.Stats
}

// ScrapeHandler handles citation metadata requests
type ScrapeHandler struct {
	service ScraperService
}

// NewScrapeHandler creates a new scrape handler
func NewScrapeHandler(service ScraperService) *ScrapeHandler {
	return &ScrapeHandler{service: service}
}

// RegisterRoutes registers scraper routes
func (h *ScrapeHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "scrapeUrl",
		Method:      http.MethodPost,
		Path:        "/scrape",
		Summary:     "Extract citation metadata from a web page",
		Tags:        []string{"Scraper"},
	}, h.Scrape)

	huma.Register(api, huma.Operation{
		OperationID: "scrapeDoi",
		Method:      http.MethodPost,
		Path:        "/doi",
		Summary:     "Resolve a DOI to citation metadata",
		Tags:        []string{"Scraper"},
	}, h.ScrapeDOI)

	huma.Register(api, huma.Operation{
		OperationID: "scrapeIsbn",
		Method:      http.MethodPost,
		Path:        "/isbn",
		Summary:     "Resolve an ISBN to citation metadata",
		Tags:        []string{"Scraper"},
	}, h.ScrapeISBN)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Service health including cache and breaker state",
		Tags:        []string{"Observability"},
	}, h.Health)

	huma.Register(api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Cache and circuit breaker statistics",
		Tags:        []string{"Observability"},
	}, h.Stats)
}

// ScrapeInput defines the input for URL scraping
type ScrapeInput struct {
	Body struct {
		URL string `json:"url" doc:"Public HTTP(S) URL to extract citation metadata from"`
	}
}

// DOIInput defines the input for DOI lookup
type DOIInput struct {
	Body struct {
		DOI string `json:"doi" doc:"DOI, with or without the doi.org resolver prefix"`
	}
}

// ISBNInput defines the input for ISBN lookup
type ISBNInput struct {
	Body struct {
		ISBN string `json:"isbn" doc:"ISBN-10 or ISBN-13, hyphens allowed"`
	}
}

// MetadataOutput wraps a metadata result response
type MetadataOutput struct {
	Body domain.MetadataResult
}

// HealthOutput wraps the health response
type HealthOutput struct {
	Body scraper.HealthStatus
}

// StatsBody aggregates observability snapshots
type StatsBody struct {
	Cache   interfaces.CacheStats `json:"cache"`
	Breaker breaker.Stats         `json:"circuitBreaker"`
}

// StatsOutput wraps the stats response
type StatsOutput struct {
	Body StatsBody
}

// Scrape extracts citation metadata from a web page
func (h *ScrapeHandler) Scrape(ctx context.Context, input *ScrapeInput) (*MetadataOutput, error) {
	result, err := h.service.Scrape(ctx, input.Body.URL)
	if err != nil {
		metrics.ScrapesTotal.WithLabelValues("scrape", errorCode(err)).Inc()
		return nil, toHumaError(err)
	}

	metrics.ScrapesTotal.WithLabelValues("scrape", "ok").Inc()
	return &MetadataOutput{Body: *result}, nil
}

// ScrapeDOI resolves a DOI to citation metadata
func (h *ScrapeHandler) ScrapeDOI(ctx context.Context, input *DOIInput) (*MetadataOutput, error) {
	result, err := h.service.ScrapeDOI(ctx, input.Body.DOI)
	if err != nil {
		metrics.ScrapesTotal.WithLabelValues("doi", errorCode(err)).Inc()
		return nil, toHumaError(err)
	}

	metrics.ScrapesTotal.WithLabelValues("doi", "ok").Inc()
	return &MetadataOutput{Body: *result}, nil
}

// ScrapeISBN resolves an ISBN to citation metadata
func (h *ScrapeHandler) ScrapeISBN(ctx context.Context, input *ISBNInput) (*MetadataOutput, error) {
	result, err := h.service.ScrapeISBN(ctx, input.Body.ISBN)
	if err != nil {
		metrics.ScrapesTotal.WithLabelValues("isbn", errorCode(err)).Inc()
		return nil, toHumaError(err)
	}

	metrics.ScrapesTotal.WithLabelValues("isbn", "ok").Inc()
	return &MetadataOutput{Body: *result}, nil
}

// Health reports service liveness
func (h *ScrapeHandler) Health(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	return &HealthOutput{Body: h.service.CheckHealth(ctx)}, nil
}

// Stats reports cache and breaker statistics
func (h *ScrapeHandler) Stats(_ context.Context, _ *struct{}) (*StatsOutput, error) {
	return &StatsOutput{Body: StatsBody{
		Cache:   h.service.CacheStats(),
		Breaker: h.service.BreakerStats(),
	}}, nil
}
