// ABOUTME: Domain types for extracted citation metadata
// ABOUTME: Defines the canonical metadata record returned by the scraper

package domain

import "strings"

// ResourceType classifies the kind of page a citation points at.
type ResourceType string

const (
	ResourceArticle  ResourceType = "article"
	ResourceWebsite  ResourceType = "website"
	ResourceBlog     ResourceType = "blog"
	ResourceNews     ResourceType = "news"
	ResourceAcademic ResourceType = "academic"
	ResourceBook     ResourceType = "book"
	ResourceUnknown  ResourceType = "unknown"
)

// Author is one credited author of a page.
// FullName is always set; FirstName/LastName are derived when the
// name has more than one token.
type Author struct {
	FullName  string `json:"fullName"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// ParseAuthor splits a bare name string into an Author.
// A single token yields FullName only; with multiple tokens the last
// token becomes LastName and everything before it FirstName.
func ParseAuthor(name string) Author {
	name = strings.TrimSpace(name)
	author := Author{FullName: name}

	tokens := strings.Fields(name)
	if len(tokens) > 1 {
		author.LastName = tokens[len(tokens)-1]
		author.FirstName = strings.Join(tokens[:len(tokens)-1], " ")
	}

	return author
}

// MetadataResult is the canonical extracted-page record handed to the
// citation formatting layer. Immutable once returned; cached by the
// scraper service, not by the extractor.
type MetadataResult struct {
	URL           string       `json:"url"`
	Title         string       `json:"title"`
	AccessDate    string       `json:"accessDate"`
	Authors       []Author     `json:"authors"`
	PublishedDate string       `json:"publishedDate,omitempty"`
	ModifiedDate  string       `json:"modifiedDate,omitempty"`
	Publisher     string       `json:"publisher,omitempty"`
	SiteName      string       `json:"siteName,omitempty"`
	Description   string       `json:"description,omitempty"`
	Language      string       `json:"language,omitempty"`
	Type          ResourceType `json:"type"`
	Source        string       `json:"_source,omitempty"`
}
