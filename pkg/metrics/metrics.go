// ABOUTME: Prometheus collectors for scrape, cache and breaker observability
// ABOUTME: Exposed on /metrics via the standard promhttp handler

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScrapesTotal counts scrape operations by operation and outcome.
	ScrapesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citations_scrapes_total",
		Help: "Scrape operations by operation (scrape/doi/isbn) and outcome.",
	}, []string{"operation", "outcome"})

	// CacheHitsTotal counts tiered cache hits by tier.
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citations_cache_hits_total",
		Help: "Tiered cache hits by tier (l1/l2).",
	}, []string{"tier"})

	// CacheMissesTotal counts full tiered cache misses.
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "citations_cache_misses_total",
		Help: "Tiered cache lookups that missed every tier.",
	})

	// BreakerTransitionsTotal counts circuit breaker state transitions.
	BreakerTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citations_breaker_transitions_total",
		Help: "Circuit breaker state transitions by breaker name and new state.",
	}, []string{"breaker", "to"})
)

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
