// ABOUTME: Fetch boundary contract between the scraper core and the network layer
// ABOUTME: Classifies fetch failures into a closed set of kinds instead of duck-typed codes

package interfaces

import (
	"context"
	"errors"
	"fmt"
)

// Page is the raw HTML of a fetched document plus the URL the request
// resolved to after redirects.
type Page struct {
	HTML     string
	FinalURL string
}

// FetchErrorKind is the closed set of fetch failure classes the scraper
// switches on.
type FetchErrorKind int

const (
	// FetchErrorGeneric covers transport and server failures with no
	// more specific classification.
	FetchErrorGeneric FetchErrorKind = iota
	// FetchErrorNotFound means the target resource does not exist.
	FetchErrorNotFound
	// FetchErrorTimeout means the fetch exceeded its deadline.
	FetchErrorTimeout
	// FetchErrorInvalidURL means the URL was rejected before any request.
	FetchErrorInvalidURL
	// FetchErrorBlocked means the target refused the request (403/451).
	FetchErrorBlocked
)

// FetchError is the typed failure returned by a Fetcher.
type FetchError struct {
	Kind   FetchErrorKind
	URL    string
	Status int
	Err    error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchErrorNotFound:
		return fmt.Sprintf("page not found: %s", e.URL)
	case FetchErrorTimeout:
		return fmt.Sprintf("fetch timed out: %s", e.URL)
	case FetchErrorInvalidURL:
		return fmt.Sprintf("invalid url: %s", e.URL)
	case FetchErrorBlocked:
		return fmt.Sprintf("fetch blocked with status %d: %s", e.Status, e.URL)
	default:
		if e.Err != nil {
			return fmt.Sprintf("fetch failed for %s: %v", e.URL, e.Err)
		}
		return fmt.Sprintf("fetch failed with status %d: %s", e.Status, e.URL)
	}
}

// Unwrap exposes the underlying transport error, if any.
func (e *FetchError) Unwrap() error { return e.Err }

// AsFetchError extracts a *FetchError from an error chain.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Fetcher retrieves raw HTML for a single public URL.
type Fetcher interface {
	// Fetch downloads the page at url. Failures are always *FetchError.
	Fetch(ctx context.Context, url string) (*Page, error)

	// CheckHealth reports whether the fetch mechanism is usable.
	CheckHealth(ctx context.Context) error
}
