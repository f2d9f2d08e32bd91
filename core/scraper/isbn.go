// ABOUTME: ISBN lookup against the Open Library books registry
// ABOUTME: Validates ISBN-10/13 checksums before any cache or network work

package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"citations-app-api/core/domain"
	coreerrors "citations-app-api/core/errors"
	"citations-app-api/pkg/cachekey"
)

// openLibraryBook is the subset of the Open Library data response we read.
type openLibraryBook struct {
	Title       string `json:"title"`
	PublishDate string `json:"publish_date"`
	URL         string `json:"url"`
	Authors     []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
}

// ScrapeISBN resolves an ISBN to citation metadata via Open Library.
// Like ScrapeDOI it shares the cache but not the breaker.
func (s *Service) ScrapeISBN(ctx context.Context, isbn string) (*domain.MetadataResult, error) {
	isbn = normalizeISBN(isbn)
	if !validISBN(isbn) {
		return nil, &coreerrors.ValidationError{Field: "isbn", Message: "malformed ISBN"}
	}

	key := cachekey.Build(cacheNamespace, "isbn", isbn)
	if cached := s.cacheGet(ctx, key); cached != nil {
		return cached, nil
	}

	endpoint := s.opts.OpenLibraryBaseURL + "/api/books?bibkeys=ISBN:" + isbn + "&format=json&jscmd=data"
	resp, err := s.deps.HTTPClient.Get(ctx, endpoint)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &coreerrors.TimeoutError{URL: endpoint}
		}
		return nil, &coreerrors.FetchFailedError{URL: endpoint, Message: err.Error()}
	}
	defer resp.Body().Close()

	if resp.StatusCode() != 200 {
		return nil, &coreerrors.FetchFailedError{
			URL:     endpoint,
			Message: fmt.Sprintf("registry returned status %d", resp.StatusCode()),
		}
	}

	var books map[string]openLibraryBook
	if err := json.NewDecoder(resp.Body()).Decode(&books); err != nil {
		return nil, &coreerrors.FetchFailedError{URL: endpoint, Message: "undecodable registry response"}
	}

	book, ok := books["ISBN:"+isbn]
	if !ok || book.Title == "" {
		return nil, &coreerrors.NotFoundError{Resource: "isbn", ID: isbn}
	}

	result := s.resultFromOpenLibrary(isbn, book)
	s.cacheSet(ctx, key, result, s.opts.LookupTTL)
	return result, nil
}

func (s *Service) resultFromOpenLibrary(isbn string, book openLibraryBook) *domain.MetadataResult {
	result := &domain.MetadataResult{
		URL:        book.URL,
		Title:      strings.TrimSpace(book.Title),
		AccessDate: time.Now().UTC().Format(time.RFC3339),
		Authors:    []domain.Author{},
		Type:       domain.ResourceBook,
		SiteName:   "Open Library",
		Source:     "openlibrary",
	}
	if result.URL == "" {
		result.URL = "https://openlibrary.org/isbn/" + isbn
	}

	for _, a := range book.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			result.Authors = append(result.Authors, domain.ParseAuthor(name))
		}
	}
	if len(book.Publishers) > 0 {
		result.Publisher = strings.TrimSpace(book.Publishers[0].Name)
	}

	if book.PublishDate != "" {
		result.PublishedDate = strings.TrimSpace(book.PublishDate)
	}

	return result
}

// normalizeISBN strips separators and uppercases the ISBN-10 check
// character.
func normalizeISBN(isbn string) string {
	isbn = strings.ToUpper(strings.TrimSpace(isbn))
	isbn = strings.TrimPrefix(isbn, "ISBN:")
	isbn = strings.TrimPrefix(isbn, "ISBN")
	var b strings.Builder
	for _, r := range isbn {
		if (r >= '0' && r <= '9') || r == 'X' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validISBN verifies the ISBN-10 or ISBN-13 checksum.
func validISBN(isbn string) bool {
	switch len(isbn) {
	case 10:
		sum := 0
		for i, r := range isbn {
			var v int
			switch {
			case r >= '0' && r <= '9':
				v = int(r - '0')
			case r == 'X' && i == 9:
				v = 10
			default:
				return false
			}
			sum += (10 - i) * v
		}
		return sum%11 == 0
	case 13:
		sum := 0
		for i, r := range isbn {
			if r < '0' || r > '9' {
				return false
			}
			v := int(r - '0')
			if i%2 == 1 {
				v *= 3
			}
			sum += v
		}
		return sum%10 == 0
	default:
		return false
	}
}
