package normalisers

import (
	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// NetworkDriveNormaliser maps crawled file share documents
type NetworkDriveNormaliser struct{}

func (n *NetworkDriveNormaliser) SourceType() domain.SourceType {
	return domain.SourceTypeNetworkDrive
}

func (n *NetworkDriveNormaliser) Normalise(hit driven.Hit) domain.RetrievedDocument {
	src := hit.Source
	doc := domain.RetrievedDocument{
		SourceType: domain.SourceTypeNetworkDrive,
		Score:      hit.Score,
		Title:      stringAt(src, "title"),
		Summary:    stringAt(src, "body"),
		URL:        stringAt(src, "path"),
		Created:    dateAt(src, "created_at"),
	}
	if id, ok := src["id"]; ok && id != nil {
		doc.ID = render(id)
	}
	if size, ok := intAt(src, "size"); ok {
		doc.SizeBytes = &size
	}
	return doc
}

// Text returns "": file shares are not embedded
func (n *NetworkDriveNormaliser) Text(source map[string]any) string {
	return ""
}
