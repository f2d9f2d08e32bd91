// ABOUTME: Metadata extractor turning arbitrary third-party HTML into a MetadataResult
// ABOUTME: Runs five strategies over one parsed document and merges them by priority

package extract

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"citations-app-api/core/domain"
	"citations-app-api/core/interfaces"
)

// Extractor builds the best-available metadata record from raw HTML.
// It never returns an error: malformed input degrades to a minimal
// result with the hostname as title.
type Extractor struct {
	logger interfaces.Logger
}

// NewExtractor creates a new extractor.
func NewExtractor(logger interfaces.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract parses html and merges the five strategy outputs. pageURL is
// the final URL of the fetched page; its hostname backstops the title,
// publisher and site name.
func (e *Extractor) Extract(html string, pageURL string) *domain.MetadataResult {
	hostname := hostnameOf(pageURL)

	result := &domain.MetadataResult{
		URL:        pageURL,
		AccessDate: time.Now().UTC().Format(time.RFC3339),
		Authors:    []domain.Author{},
		Type:       domain.ResourceWebsite,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("failed to parse HTML document", map[string]interface{}{
				"url":   pageURL,
				"error": err.Error(),
			})
		}
		result.Title = hostname
		return result
	}

	// Fixed priority order; the merge fold depends on it.
	partials := []partial{
		extractJSONLD(doc),
		extractMetaTags(doc),
		extractOpenGraph(doc),
		extractTwitterCard(doc),
		extractHeuristic(doc),
	}

	m := mergePartials(partials)

	result.Title = m.title
	result.Description = m.description
	result.PublishedDate = m.publishedDate
	result.ModifiedDate = m.modifiedDate
	result.Publisher = m.publisher
	result.SiteName = m.siteName
	result.Language = m.language
	result.Source = m.source
	if m.resourceType != "" {
		result.Type = m.resourceType
	}
	if len(m.authors) > 0 {
		result.Authors = m.authors
	}

	if result.Language == "" {
		result.Language = strings.TrimSpace(doc.Find("html").AttrOr("lang", ""))
	}

	// Readability backstop for fields no strategy filled.
	if result.Description == "" || result.SiteName == "" {
		e.fillFromReadability(result, html, pageURL)
	}

	if result.Title == "" {
		result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if result.Title == "" {
		result.Title = hostname
	}
	if result.SiteName == "" {
		result.SiteName = hostname
	}
	if result.Publisher == "" {
		result.Publisher = hostname
	}

	return result
}

// fillFromReadability runs the readability parser as a backstop for
// description and site name. Failures are ignored; this is strictly
// additive.
func (e *Extractor) fillFromReadability(result *domain.MetadataResult, html, pageURL string) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return
	}

	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		return
	}

	if result.Description == "" {
		result.Description = strings.TrimSpace(article.Excerpt)
	}
	if result.SiteName == "" {
		result.SiteName = strings.TrimSpace(article.SiteName)
	}
}

func hostnameOf(pageURL string) string {
	if u, err := url.Parse(pageURL); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return pageURL
}
