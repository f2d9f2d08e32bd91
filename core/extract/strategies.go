// ABOUTME: The five independent metadata extraction strategies
// ABOUTME: Each strategy reads one signal family and returns a provenance-tagged partial

package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"citations-app-api/core/domain"
	timeutils "citations-app-api/pkg/utils/time"
)

// Provenance tags stamped into the merged result's _source field.
const (
	sourceJSONLD      = "json-ld"
	sourceMetaTags    = "meta-tags"
	sourceOpenGraph   = "open-graph"
	sourceTwitterCard = "twitter-card"
	sourceHeuristic   = "heuristic"
)

// articleLikeTypes are the structured-data @type tags we recognize,
// mapped to the internal resource type.
var articleLikeTypes = map[string]domain.ResourceType{
	"Article":          domain.ResourceArticle,
	"TechArticle":      domain.ResourceArticle,
	"NewsArticle":      domain.ResourceNews,
	"BlogPosting":      domain.ResourceBlog,
	"ScholarlyArticle": domain.ResourceAcademic,
	"WebPage":          domain.ResourceWebsite,
}

// extractJSONLD scans every embedded JSON-LD block, tolerating parse
// failures per block, and extracts from the first article-like node.
func extractJSONLD(doc *goquery.Document) partial {
	result := partial{source: sourceJSONLD}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var raw interface{}
		if err := json.Unmarshal([]byte(sel.Text()), &raw); err != nil {
			// Malformed block; keep scanning the rest of the page.
			return true
		}

		for _, node := range flattenLDNodes(raw) {
			resourceType, ok := articleLikeType(node)
			if !ok {
				continue
			}

			result.resourceType = resourceType
			result.title = stringField(node, "headline")
			if result.title == "" {
				result.title = stringField(node, "name")
			}
			result.authors = parseLDAuthors(node["author"])
			result.publishedDate = stringField(node, "datePublished")
			result.modifiedDate = stringField(node, "dateModified")
			result.description = stringField(node, "description")
			result.language = stringField(node, "inLanguage")
			result.publisher = nameOf(node["publisher"])
			return false
		}
		return true
	})

	return result
}

// flattenLDNodes expands a decoded JSON-LD value into candidate nodes:
// a bare object, a top-level array, or an @graph collection.
func flattenLDNodes(raw interface{}) []map[string]interface{} {
	var nodes []map[string]interface{}

	switch v := raw.(type) {
	case map[string]interface{}:
		if graph, ok := v["@graph"].([]interface{}); ok {
			for _, entry := range graph {
				if node, ok := entry.(map[string]interface{}); ok {
					nodes = append(nodes, node)
				}
			}
		}
		nodes = append(nodes, v)
	case []interface{}:
		for _, entry := range v {
			if node, ok := entry.(map[string]interface{}); ok {
				nodes = append(nodes, node)
			}
		}
	}

	return nodes
}

// articleLikeType maps a node's @type to the internal enum, accepting
// both string and array forms.
func articleLikeType(node map[string]interface{}) (domain.ResourceType, bool) {
	switch t := node["@type"].(type) {
	case string:
		if rt, ok := articleLikeTypes[t]; ok {
			return rt, true
		}
	case []interface{}:
		for _, entry := range t {
			if s, ok := entry.(string); ok {
				if rt, ok := articleLikeTypes[s]; ok {
					return rt, true
				}
			}
		}
	}
	return "", false
}

// parseLDAuthors normalizes the author field's string, object and array
// forms into the Author shape.
func parseLDAuthors(raw interface{}) []domain.Author {
	var authors []domain.Author

	appendAuthor := func(entry interface{}) {
		switch v := entry.(type) {
		case string:
			if name := strings.TrimSpace(v); name != "" {
				authors = append(authors, domain.ParseAuthor(name))
			}
		case map[string]interface{}:
			if name := nameOf(v); name != "" {
				authors = append(authors, domain.ParseAuthor(name))
			}
		}
	}

	if list, ok := raw.([]interface{}); ok {
		for _, entry := range list {
			appendAuthor(entry)
		}
	} else if raw != nil {
		appendAuthor(raw)
	}

	return authors
}

// nameOf extracts a display name from a string or {"name": ...} object.
func nameOf(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		return stringField(v, "name")
	}
	return ""
}

func stringField(node map[string]interface{}, key string) string {
	if s, ok := node[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// extractMetaTags reads plain <meta name="..."> tags.
func extractMetaTags(doc *goquery.Document) partial {
	result := partial{source: sourceMetaTags}

	result.title = metaByName(doc, "title")
	result.description = metaByName(doc, "description")

	if author := metaByName(doc, "author"); author != "" {
		result.authors = []domain.Author{domain.ParseAuthor(author)}
	}

	result.publishedDate = metaByName(doc, "article:published_time")
	if result.publishedDate == "" {
		result.publishedDate = metaByName(doc, "date")
	}
	result.modifiedDate = metaByName(doc, "article:modified_time")

	return result
}

// extractOpenGraph reads <meta property="og:..."> tags.
func extractOpenGraph(doc *goquery.Document) partial {
	result := partial{source: sourceOpenGraph}

	result.title = metaByProperty(doc, "og:title")
	result.siteName = metaByProperty(doc, "og:site_name")
	result.description = metaByProperty(doc, "og:description")

	switch metaByProperty(doc, "og:type") {
	case "article":
		result.resourceType = domain.ResourceArticle
	case "website":
		result.resourceType = domain.ResourceWebsite
	}

	return result
}

// extractTwitterCard reads twitter:* tags, accepting both the name and
// property attribute spellings. The creator handle (minus a leading @)
// serves as a single-author fallback.
func extractTwitterCard(doc *goquery.Document) partial {
	result := partial{source: sourceTwitterCard}

	result.title = twitterMeta(doc, "twitter:title")
	result.description = twitterMeta(doc, "twitter:description")

	if creator := strings.TrimPrefix(twitterMeta(doc, "twitter:creator"), "@"); creator != "" {
		result.authors = []domain.Author{domain.ParseAuthor(creator)}
	}

	return result
}

// extractHeuristic is the last-resort DOM scan: headline elements for
// the title, author-flavored elements for a byline, and date-flavored
// elements normalized to ISO 8601 (dropped silently when unparseable).
func extractHeuristic(doc *goquery.Document) partial {
	result := partial{source: sourceHeuristic}

	result.title = firstText(doc, "h1")
	if result.title == "" {
		result.title = firstText(doc, `[class*="title"]`)
	}

	author := firstText(doc, `[rel="author"]`)
	if author == "" {
		author = firstText(doc, `[class*="author"]`)
	}
	if author == "" {
		author = firstText(doc, `[itemprop="author"]`)
	}
	if author != "" {
		result.authors = []domain.Author{domain.ParseAuthor(author)}
	}

	rawDate := strings.TrimSpace(doc.Find("time[datetime]").First().AttrOr("datetime", ""))
	if rawDate == "" {
		rawDate = firstText(doc, `[class*="date"]`)
	}
	if rawDate == "" {
		rawDate = firstText(doc, `[itemprop="datePublished"]`)
	}
	result.publishedDate = timeutils.ToISO8601(rawDate)

	return result
}

func metaByName(doc *goquery.Document, name string) string {
	return strings.TrimSpace(doc.Find(`meta[name="` + name + `"]`).First().AttrOr("content", ""))
}

func metaByProperty(doc *goquery.Document, property string) string {
	return strings.TrimSpace(doc.Find(`meta[property="` + property + `"]`).First().AttrOr("content", ""))
}

func twitterMeta(doc *goquery.Document, key string) string {
	if v := metaByName(doc, key); v != "" {
		return v
	}
	return metaByProperty(doc, key)
}

func firstText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}
