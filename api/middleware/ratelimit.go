// ABOUTME: Fixed-window per-client rate limiting middleware
// ABOUTME: Bounds request rates before any scraping work is attempted

package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter tracks request counts per client in fixed windows.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	clients map[string]*windowCount
}

type windowCount struct {
	count      int
	windowFrom time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window
// per client address.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*windowCount),
	}
}

// Allow reports whether the client may make another request now.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	wc, ok := rl.clients[client]
	if !ok || now.Sub(wc.windowFrom) >= rl.window {
		rl.clients[client] = &windowCount{count: 1, windowFrom: now}
		rl.pruneLocked(now)
		return true
	}

	if wc.count >= rl.limit {
		return false
	}

	wc.count++
	return true
}

// pruneLocked drops clients whose window has long expired. Caller
// holds rl.mu.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	for client, wc := range rl.clients {
		if now.Sub(wc.windowFrom) >= 2*rl.window {
			delete(rl.clients, client)
		}
	}
}

// RateLimitMiddleware rejects requests over the limit with 429.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := r.RemoteAddr
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				client = host
			}

			if !limiter.Allow(client) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
