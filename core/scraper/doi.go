// ABOUTME: DOI lookup against the Crossref works registry
// ABOUTME: Shares the scrape cache discipline but bypasses the circuit breaker

package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"citations-app-api/core/domain"
	coreerrors "citations-app-api/core/errors"
	"citations-app-api/pkg/cachekey"
)

// doiPattern matches the registrant-prefix/suffix shape of a DOI.
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// crossrefWork is the subset of the Crossref works response we read.
type crossrefWork struct {
	Message struct {
		Title          []string `json:"title"`
		ContainerTitle []string `json:"container-title"`
		Publisher      string   `json:"publisher"`
		Type           string   `json:"type"`
		URL            string   `json:"URL"`
		Abstract       string   `json:"abstract"`
		Author         []struct {
			Given  string `json:"given"`
			Family string `json:"family"`
			Name   string `json:"name"`
		} `json:"author"`
		Issued struct {
			DateParts [][]int `json:"date-parts"`
		} `json:"issued"`
	} `json:"message"`
}

// ScrapeDOI resolves a DOI to citation metadata via Crossref. Lookups
// hit a single trusted registry, so no breaker is involved, but the
// cache and error-classification discipline match Scrape.
func (s *Service) ScrapeDOI(ctx context.Context, doi string) (*domain.MetadataResult, error) {
	doi = normalizeDOI(doi)
	if !doiPattern.MatchString(doi) {
		return nil, &coreerrors.ValidationError{Field: "doi", Message: "malformed DOI"}
	}

	key := cachekey.Build(cacheNamespace, "doi", strings.ToLower(doi))
	if cached := s.cacheGet(ctx, key); cached != nil {
		return cached, nil
	}

	endpoint := s.opts.CrossrefBaseURL + "/works/" + url.PathEscape(doi)
	resp, err := s.deps.HTTPClient.Get(ctx, endpoint)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &coreerrors.TimeoutError{URL: endpoint}
		}
		return nil, &coreerrors.FetchFailedError{URL: endpoint, Message: err.Error()}
	}
	defer resp.Body().Close()

	if resp.StatusCode() == 404 {
		return nil, &coreerrors.NotFoundError{Resource: "doi", ID: doi}
	}
	if resp.StatusCode() != 200 {
		return nil, &coreerrors.FetchFailedError{
			URL:     endpoint,
			Message: fmt.Sprintf("registry returned status %d", resp.StatusCode()),
		}
	}

	var work crossrefWork
	if err := json.NewDecoder(resp.Body()).Decode(&work); err != nil {
		return nil, &coreerrors.FetchFailedError{URL: endpoint, Message: "undecodable registry response"}
	}

	result := s.resultFromCrossref(doi, work)
	s.cacheSet(ctx, key, result, s.opts.LookupTTL)
	return result, nil
}

// normalizeDOI strips the resolver prefix and doi: scheme callers
// commonly paste in.
func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi.org/", "doi:"} {
		if strings.HasPrefix(strings.ToLower(doi), prefix) {
			doi = doi[len(prefix):]
			break
		}
	}
	return strings.TrimSpace(doi)
}

func (s *Service) resultFromCrossref(doi string, work crossrefWork) *domain.MetadataResult {
	msg := work.Message

	result := &domain.MetadataResult{
		URL:        msg.URL,
		AccessDate: time.Now().UTC().Format(time.RFC3339),
		Authors:    []domain.Author{},
		Type:       crossrefType(msg.Type),
		Publisher:  msg.Publisher,
		Source:     "crossref",
	}
	if result.URL == "" {
		result.URL = "https://doi.org/" + doi
	}

	if len(msg.Title) > 0 {
		result.Title = strings.TrimSpace(msg.Title[0])
	}
	if result.Title == "" {
		result.Title = doi
	}
	if len(msg.ContainerTitle) > 0 {
		result.SiteName = strings.TrimSpace(msg.ContainerTitle[0])
	}
	result.Description = strings.TrimSpace(msg.Abstract)

	for _, a := range msg.Author {
		switch {
		case a.Family != "":
			result.Authors = append(result.Authors, domain.Author{
				FullName:  strings.TrimSpace(strings.TrimSpace(a.Given + " " + a.Family)),
				FirstName: a.Given,
				LastName:  a.Family,
			})
		case a.Name != "":
			result.Authors = append(result.Authors, domain.ParseAuthor(a.Name))
		}
	}

	result.PublishedDate = dateFromParts(msg.Issued.DateParts)

	return result
}

// crossrefType maps Crossref work types onto the internal enum.
func crossrefType(t string) domain.ResourceType {
	switch t {
	case "book", "monograph", "edited-book", "reference-book":
		return domain.ResourceBook
	case "":
		return domain.ResourceUnknown
	default:
		return domain.ResourceAcademic
	}
}

// dateFromParts renders Crossref [[year, month, day]] parts with
// whatever precision is present.
func dateFromParts(parts [][]int) string {
	if len(parts) == 0 || len(parts[0]) == 0 {
		return ""
	}

	p := parts[0]
	switch {
	case len(p) >= 3:
		return fmt.Sprintf("%04d-%02d-%02d", p[0], p[1], p[2])
	case len(p) == 2:
		return fmt.Sprintf("%04d-%02d", p[0], p[1])
	default:
		return fmt.Sprintf("%04d", p[0])
	}
}
