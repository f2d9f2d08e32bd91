// ABOUTME: Tests for the fixed-window rate limiter middleware
// ABOUTME: Covers per-client isolation, window reset and the 429 response

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllow_EnforcesLimitPerClient(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("requests within the limit were rejected")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("request over the limit was allowed")
	}

	// Other clients have their own window.
	if !rl.Allow("5.6.7.8") {
		t.Error("independent client was rejected")
	}
}

func TestAllow_WindowResets(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	rl.Allow("1.2.3.4")
	if rl.Allow("1.2.3.4") {
		t.Fatal("second request in the same window was allowed")
	}

	time.Sleep(15 * time.Millisecond)

	if !rl.Allow("1.2.3.4") {
		t.Error("request after window expiry was rejected")
	}
}

func TestRateLimitMiddleware_Returns429(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/scrape", nil)
	req.RemoteAddr = "1.2.3.4:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}

func TestRateLimitMiddleware_KeysByHostNotPort(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodGet, "/health", nil)
	first.RemoteAddr = "1.2.3.4:1111"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)

	// Same host on a new ephemeral port shares the window.
	second := httptest.NewRequest(http.MethodGet, "/health", nil)
	second.RemoteAddr = "1.2.3.4:2222"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 for the same host on a different port", rec.Code)
	}
}
