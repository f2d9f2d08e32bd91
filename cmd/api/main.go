// ABOUTME: Main entry point for the Citations Scraper API server
// ABOUTME: Wires together all components and starts the HTTP server

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"citations-app-api/api"
	"citations-app-api/api/handlers"
	"citations-app-api/core/breaker"
	"citations-app-api/core/interfaces"
	"citations-app-api/core/scraper"
	rediscache "citations-app-api/infrastructure/cache/redis"
	"citations-app-api/infrastructure/cache/tiered"
	"citations-app-api/infrastructure/fetch"
	stdhttp "citations-app-api/infrastructure/http/standard"
	logrusadapter "citations-app-api/infrastructure/logger/logrus"
	"citations-app-api/pkg/config"
	"citations-app-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logrusadapter.NewLogger(cfg.Server.LogLevel)
	logger.Info("Starting Citations Scraper API", map[string]interface{}{
		"port":          cfg.Server.Port,
		"redis_enabled": cfg.Cache.Redis.Address != "",
	})

	// Secondary cache tier is optional: a missing address just means
	// reduced hit rate, and a failed connection degrades the same way.
	var l2 interfaces.Cache
	if cfg.Cache.Redis.Address != "" {
		redisCache, err := rediscache.NewRedisCache(cfg.Cache.Redis)
		if err != nil {
			logger.Error("Failed to connect Redis tier, continuing without it", map[string]interface{}{
				"address": cfg.Cache.Redis.Address,
				"error":   err.Error(),
			})
		} else {
			l2 = redisCache
			defer redisCache.Close()
			logger.Info("Using Redis secondary cache tier", map[string]interface{}{
				"address": cfg.Cache.Redis.Address,
			})
		}
	}

	cache := tiered.New(cfg.Cache.L1Size, cfg.Cache.ScrapeTTL, l2, logger)

	// The page fetcher gets its own short deadline; registry lookups
	// share a more patient client.
	fetchClient := stdhttp.NewStandardHTTPClient(cfg.Fetch.Timeout)
	registryClient := stdhttp.NewStandardHTTPClient(30 * time.Second)

	fetcher := fetch.NewClient(fetchClient, logger, cfg.Fetch.HealthURL)

	fetchBreaker := breaker.New("page-fetch", breaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
		HalfOpenMaxCalls: cfg.Breaker.HalfOpenMaxCalls,
		MaxBackoff:       cfg.Breaker.MaxBackoff,
		OnStateChange: func(newState, _ breaker.State) {
			metrics.BreakerTransitionsTotal.WithLabelValues("page-fetch", string(newState)).Inc()
		},
	}, logger)

	deps := interfaces.Dependencies{
		Cache:      cache,
		HTTPClient: registryClient,
		Logger:     logger,
	}

	scraperService := scraper.NewService(deps, fetcher, fetchBreaker, scraper.Options{
		ScrapeTTL: cfg.Cache.ScrapeTTL,
		LookupTTL: cfg.Cache.LookupTTL,
	})

	apiConfig := api.APIConfig{
		Logger:     logger,
		RateLimit:  100,
		RateWindow: time.Minute,
	}
	humaAPI, router := api.NewAPIWithMiddleware(apiConfig)

	scrapeHandler := handlers.NewScrapeHandler(scraperService)
	scrapeHandler.RegisterRoutes(humaAPI)

	router.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", map[string]interface{}{
				"error": err.Error(),
			})
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped", nil)
}
