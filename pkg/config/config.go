// ABOUTME: Configuration management for the application with environment variable support
// ABOUTME: Defines configuration structures for server, cache, breaker and fetch settings

package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig

	// Cache contains cache tier configuration
	Cache CacheConfig

	// Breaker contains circuit breaker thresholds
	Breaker BreakerConfig

	// Fetch contains page fetch configuration
	Fetch FetchConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	// Port is the HTTP server port
	Port string

	// LogLevel is the logrus level name (debug/info/warn/error)
	LogLevel string
}

// CacheConfig holds cache tier configuration
type CacheConfig struct {
	// ScrapeTTL is how long scraped page metadata stays cached
	ScrapeTTL time.Duration

	// LookupTTL is how long DOI/ISBN registry lookups stay cached
	LookupTTL time.Duration

	// L1Size bounds the number of entries in the in-memory tier
	L1Size int

	// Redis configures the optional distributed tier. An empty address
	// disables the tier; that is not an error.
	Redis RedisConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Address is the Redis server address; empty disables the tier
	Address string

	// Password is the Redis authentication password
	Password string

	// DB is the Redis database number
	DB int
}

// BreakerConfig holds circuit breaker thresholds
type BreakerConfig struct {
	// FailureThreshold opens the gate after this many closed-state failures
	FailureThreshold int

	// SuccessThreshold closes the gate after this many half-open successes
	SuccessThreshold int

	// MaxBackoff caps the open-state cooldown
	MaxBackoff time.Duration

	// HalfOpenMaxCalls bounds concurrent half-open probes
	HalfOpenMaxCalls int
}

// FetchConfig holds page fetch configuration
type FetchConfig struct {
	// Timeout is the per-request fetch deadline
	Timeout time.Duration

	// HealthURL is fetched by the health probe; empty skips the probe
	HealthURL string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvOrDefault("PORT", "8000"),
			LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Cache: CacheConfig{
			ScrapeTTL: getEnvAsMillis("SCRAPE_CACHE_TTL_MS", 24*time.Hour),
			LookupTTL: getEnvAsMillis("LOOKUP_CACHE_TTL_MS", 7*24*time.Hour),
			L1Size:    getEnvAsIntOrDefault("SCRAPE_CACHE_SIZE", 2048),
			Redis: RedisConfig{
				Address:  getEnvOrDefault("REDIS_ADDRESS", ""),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
			},
		},
		Breaker: BreakerConfig{
			FailureThreshold: getEnvAsIntOrDefault("BREAKER_FAILURE_THRESHOLD", 5),
			SuccessThreshold: getEnvAsIntOrDefault("BREAKER_SUCCESS_THRESHOLD", 2),
			MaxBackoff:       getEnvAsMillis("BREAKER_TIMEOUT_MS", time.Minute),
			HalfOpenMaxCalls: getEnvAsIntOrDefault("BREAKER_HALF_OPEN_MAX_CALLS", 3),
		},
		Fetch: FetchConfig{
			Timeout:   getEnvAsMillis("FETCH_TIMEOUT_MS", 10*time.Second),
			HealthURL: getEnvOrDefault("FETCH_HEALTH_URL", ""),
		},
	}

	return cfg, nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsMillis reads a millisecond count from the environment
func getEnvAsMillis(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("port cannot be empty")
	}

	if c.Cache.ScrapeTTL <= 0 || c.Cache.LookupTTL <= 0 {
		return errors.New("cache TTLs must be positive")
	}

	if c.Cache.L1Size < 1 {
		return errors.New("cache size must be at least 1")
	}

	if c.Breaker.FailureThreshold < 1 || c.Breaker.SuccessThreshold < 1 {
		return errors.New("breaker thresholds must be at least 1")
	}

	if c.Breaker.HalfOpenMaxCalls < 1 {
		return errors.New("breaker half-open call limit must be at least 1")
	}

	// The probe budget must be able to reach the success threshold,
	// otherwise the breaker can never recover from half-open.
	if c.Breaker.SuccessThreshold > c.Breaker.HalfOpenMaxCalls {
		return errors.New("breaker success threshold cannot exceed the half-open call limit")
	}

	if c.Fetch.Timeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}

	return nil
}
