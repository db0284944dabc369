package normalisers

import (
	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

var confluenceTemplate = template{
	{"title", "Titel:"},
	{"body", "Inhalt:"},
	{"url", "URL:"},
}

// ConfluenceNormaliser maps wiki pages.
// Page content is not part of the indexed document, so Content stays absent.
type ConfluenceNormaliser struct{}

func (n *ConfluenceNormaliser) SourceType() domain.SourceType {
	return domain.SourceTypeConfluence
}

func (n *ConfluenceNormaliser) Normalise(hit driven.Hit) domain.RetrievedDocument {
	src := hit.Source
	doc := domain.RetrievedDocument{
		SourceType: domain.SourceTypeConfluence,
		Score:      hit.Score,
		ID:         hit.ID,
		Title:      stringAt(src, "title"),
		Summary:    stringAt(src, "body"),
		URL:        stringAt(src, "url"),
		Created:    dateAt(src, "createdDate"),
	}
	// author is sometimes a bare string; only the object form has a display name
	if author, ok := src["author"].(map[string]any); ok {
		doc.Creator, _ = author["displayName"].(string)
	}
	return doc
}

func (n *ConfluenceNormaliser) Text(source map[string]any) string {
	return confluenceTemplate.Render(source)
}
