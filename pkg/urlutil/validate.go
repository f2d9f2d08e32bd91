// ABOUTME: Public URL validation and canonicalization for scrape targets
// ABOUTME: Rejects non-HTTP schemes and private network hosts as an SSRF guard

package urlutil

import (
	"net"
	"net/url"
	"strings"

	coreerrors "citations-app-api/core/errors"
)

var blockedHostSuffixes = []string{
	".local",
	".internal",
	".localdomain",
}

// ValidatePublicHTTPURL parses raw and verifies it is a well-formed
// HTTP(S) URL pointing at a public host. Private, loopback, link-local
// and cloud-metadata targets are rejected before any network work.
func ValidatePublicHTTPURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &coreerrors.ValidationError{Field: "url", Message: "url is required"}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, &coreerrors.ValidationError{Field: "url", Message: "malformed url"}
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, &coreerrors.ValidationError{Field: "url", Message: "only http and https urls are supported"}
	}

	host := u.Hostname()
	if host == "" {
		return nil, &coreerrors.ValidationError{Field: "url", Message: "url has no host"}
	}

	if isBlockedHost(host) {
		return nil, &coreerrors.ValidationError{Field: "url", Message: "url targets a private network"}
	}

	return u, nil
}

// isBlockedHost rejects hostnames and literal IPs that resolve inside
// private or otherwise non-routable address space.
func isBlockedHost(host string) bool {
	lower := strings.ToLower(host)
	if lower == "localhost" {
		return true
	}
	for _, suffix := range blockedHostSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}

	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

// Canonical returns the normalized string form of u used for cache
// keys: lowercased scheme and host, default port stripped, fragment
// dropped.
func Canonical(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	c.Fragment = ""

	host := c.Hostname()
	port := c.Port()
	if (c.Scheme == "http" && port == "80") || (c.Scheme == "https" && port == "443") {
		c.Host = host
	}

	return c.String()
}
