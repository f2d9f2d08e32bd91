// ABOUTME: Merge fold combining partial extraction results in priority order
// ABOUTME: First non-empty value wins per field; first non-empty author list wins whole

package extract

import "citations-app-api/core/domain"

// partial is one strategy's view of the page. All fields are optional;
// empty means the strategy had no signal. Never exposed outside the
// extractor.
type partial struct {
	source        string
	title         string
	description   string
	publishedDate string
	modifiedDate  string
	publisher     string
	siteName      string
	language      string
	resourceType  domain.ResourceType
	authors       []domain.Author
}

// merged is the fold result plus provenance of the winning fields.
type merged struct {
	partial
	titleSource string
}

// mergePartials folds the strategy outputs in their fixed priority
// order. Scalar fields keep the first non-empty value seen. The author
// list is all-or-nothing: the first strategy producing a non-empty list
// wins in full and stamps the provenance tag, even if a later strategy
// has a richer list.
func mergePartials(partials []partial) merged {
	var out merged

	for _, p := range partials {
		if out.title == "" && p.title != "" {
			out.title = p.title
			out.titleSource = p.source
		}
		fill(&out.description, p.description)
		fill(&out.publishedDate, p.publishedDate)
		fill(&out.modifiedDate, p.modifiedDate)
		fill(&out.publisher, p.publisher)
		fill(&out.siteName, p.siteName)
		fill(&out.language, p.language)

		if out.resourceType == "" {
			out.resourceType = p.resourceType
		}

		if len(out.authors) == 0 && len(p.authors) > 0 {
			out.authors = p.authors
			out.source = p.source
		}
	}

	if out.source == "" {
		out.source = out.titleSource
	}

	return out
}

// fill sets *dst to src only when *dst is still empty.
func fill(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}
