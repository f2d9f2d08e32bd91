// ABOUTME: HTML fetch boundary classifying failures into the closed FetchError kinds
// ABOUTME: Wraps the HTTP client, caps body size and tracks the final URL after redirects

package fetch

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"citations-app-api/core/interfaces"
)

const (
	// maxBodyBytes caps how much of a page we read. Citation metadata
	// lives in the head; 5MB is already generous.
	maxBodyBytes = 5 * 1024 * 1024

	healthProbeTimeout = 5 * time.Second
)

// Client implements interfaces.Fetcher over an HTTPClient.
type Client struct {
	httpClient interfaces.HTTPClient
	logger     interfaces.Logger

	// healthURL is fetched by CheckHealth; HEAD-weight liveness probe.
	healthURL string
}

// NewClient creates a fetcher. healthURL may be empty to skip the
// network part of health checks.
func NewClient(httpClient interfaces.HTTPClient, logger interfaces.Logger, healthURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		healthURL:  healthURL,
	}
}

// Fetch downloads the page at url. Every failure is returned as a
// *interfaces.FetchError so the scraper can switch on a closed set of
// kinds instead of inspecting error strings.
func (c *Client) Fetch(ctx context.Context, url string) (*interfaces.Page, error) {
	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, c.classifyTransportError(url, err)
	}
	defer resp.Body().Close()

	switch {
	case resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusGone:
		return nil, &interfaces.FetchError{Kind: interfaces.FetchErrorNotFound, URL: url, Status: resp.StatusCode()}
	case resp.StatusCode() == http.StatusForbidden || resp.StatusCode() == http.StatusUnavailableForLegalReasons:
		return nil, &interfaces.FetchError{Kind: interfaces.FetchErrorBlocked, URL: url, Status: resp.StatusCode()}
	case resp.StatusCode() == http.StatusRequestTimeout || resp.StatusCode() == http.StatusGatewayTimeout:
		return nil, &interfaces.FetchError{Kind: interfaces.FetchErrorTimeout, URL: url, Status: resp.StatusCode()}
	case resp.StatusCode() >= 400:
		return nil, &interfaces.FetchError{Kind: interfaces.FetchErrorGeneric, URL: url, Status: resp.StatusCode()}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body(), maxBodyBytes))
	if err != nil {
		return nil, c.classifyTransportError(url, err)
	}

	finalURL := resp.FinalURL()
	if finalURL == "" {
		finalURL = url
	}

	return &interfaces.Page{
		HTML:     string(body),
		FinalURL: finalURL,
	}, nil
}

// classifyTransportError maps transport-level failures onto the closed
// error kinds.
func (c *Client) classifyTransportError(url string, err error) *interfaces.FetchError {
	kind := interfaces.FetchErrorGeneric

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = interfaces.FetchErrorTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = interfaces.FetchErrorTimeout
	case strings.Contains(err.Error(), "unsupported protocol scheme"),
		strings.Contains(err.Error(), "missing protocol scheme"):
		kind = interfaces.FetchErrorInvalidURL
	}

	return &interfaces.FetchError{Kind: kind, URL: url, Err: err}
}

// CheckHealth probes the fetch mechanism. With no health URL configured
// it only verifies the client is wired.
func (c *Client) CheckHealth(ctx context.Context) error {
	if c.httpClient == nil {
		return errors.New("fetch client not configured")
	}
	if c.healthURL == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	resp, err := c.httpClient.Get(ctx, c.healthURL)
	if err != nil {
		return err
	}
	resp.Body().Close()
	return nil
}
