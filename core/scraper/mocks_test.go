// ABOUTME: Shared mock implementations for scraper service tests
// ABOUTME: Func-field mocks for the cache, fetcher, HTTP client and logger

package scraper

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"citations-app-api/core/interfaces"
)

// mockCache is a mock implementation of interfaces.Cache
type mockCache struct {
	mu    sync.Mutex
	store map[string][]byte

	getFunc func(ctx context.Context, key string) ([]byte, error)
	setFunc func(ctx context.Context, key string, value []byte, ttl time.Duration) error

	getCalls int
	setCalls int
}

func newMockCache() *mockCache {
	return &mockCache{store: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	if data, ok := m.store[key]; ok {
		return data, nil
	}
	return nil, errors.New("key not found")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setFunc != nil {
		return m.setFunc(ctx, key, value, ttl)
	}
	m.store[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

// mockFetcher is a mock implementation of interfaces.Fetcher
type mockFetcher struct {
	fetchFunc  func(ctx context.Context, url string) (*interfaces.Page, error)
	healthFunc func(ctx context.Context) error

	fetchCalls int
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*interfaces.Page, error) {
	m.fetchCalls++
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, url)
	}
	return &interfaces.Page{HTML: "<html><head><title>stub</title></head></html>", FinalURL: url}, nil
}

func (m *mockFetcher) CheckHealth(ctx context.Context) error {
	if m.healthFunc != nil {
		return m.healthFunc(ctx)
	}
	return nil
}

// mockHTTPClient is a mock implementation of interfaces.HTTPClient
type mockHTTPClient struct {
	getFunc func(ctx context.Context, url string) (interfaces.Response, error)

	getCalls int
	lastURL  string
}

func (m *mockHTTPClient) Get(ctx context.Context, url string) (interfaces.Response, error) {
	m.getCalls++
	m.lastURL = url
	if m.getFunc != nil {
		return m.getFunc(ctx, url)
	}
	return &mockResponse{statusCode: 200, body: "{}"}, nil
}

// mockResponse is a mock implementation of interfaces.Response
type mockResponse struct {
	statusCode int
	body       string
	finalURL   string
}

func (m *mockResponse) StatusCode() int { return m.statusCode }

func (m *mockResponse) Body() io.ReadCloser {
	return io.NopCloser(bytes.NewReader([]byte(m.body)))
}

func (m *mockResponse) Header(key string) string { return "" }

func (m *mockResponse) FinalURL() string { return m.finalURL }

// mockLogger is a mock implementation of interfaces.Logger
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, fields map[string]interface{}) {}
func (m *mockLogger) Info(msg string, fields map[string]interface{})  {}
func (m *mockLogger) Warn(msg string, fields map[string]interface{})  {}
func (m *mockLogger) Error(msg string, fields map[string]interface{}) {}
