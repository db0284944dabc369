package normalisers

import (
	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

const (
	// UnknownDefaultID is used when an unclassified document has no id field
	UnknownDefaultID = "0"

	// UnknownDefaultURL is used when an unclassified document has no url field
	UnknownDefaultURL = "http://example.org"
)

// UnknownNormaliser is the fallback for collections matching no configured name
type UnknownNormaliser struct{}

func (n *UnknownNormaliser) SourceType() domain.SourceType {
	return domain.SourceTypeUnknown
}

func (n *UnknownNormaliser) Normalise(hit driven.Hit) domain.RetrievedDocument {
	src := hit.Source
	doc := domain.RetrievedDocument{
		SourceType: domain.SourceTypeUnknown,
		Score:      hit.Score,
		ID:         UnknownDefaultID,
		URL:        UnknownDefaultURL,
		Content:    src["content"],
	}
	if id, ok := src["id"]; ok && id != nil {
		doc.ID = render(id)
	}
	if url, ok := src["url"]; ok && url != nil {
		doc.URL = render(url)
	}
	if page, ok := intAt(src, "page_number"); ok {
		p := int(page)
		doc.PageNumber = &p
	}
	return doc
}

// Text returns "": there is no template for unclassified documents
func (n *UnknownNormaliser) Text(source map[string]any) string {
	return ""
}
