package domain

import "strings"

// SourceType identifies the system a collection was ingested from.
// The set is closed; anything unrecognised is SourceTypeUnknown.
type SourceType string

const (
	SourceTypeJira         SourceType = "Jira"
	SourceTypeConfluence   SourceType = "Confluence"
	SourceTypeNetworkDrive SourceType = "Network Drive"
	SourceTypeUnknown      SourceType = "Unknown"
)

// AllSourceTypes lists every source type in dispatch order
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceTypeJira,
		SourceTypeConfluence,
		SourceTypeNetworkDrive,
		SourceTypeUnknown,
	}
}

// IsValid checks if the source type is one of the known values
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypeJira, SourceTypeConfluence, SourceTypeNetworkDrive, SourceTypeUnknown:
		return true
	}
	return false
}

// CollectionMapping holds the configured index names per source type.
type CollectionMapping struct {
	Jira  string `json:"jira" yaml:"jira" toml:"jira"`
	Wiki  string `json:"wiki" yaml:"wiki" toml:"wiki"`
	Files string `json:"files" yaml:"files" toml:"files"`
}

// Resolve returns the source type of a collection.
// A collection matches when it contains the configured name, so versioned
// index names such as "jira-2024" resolve to the same type.
func (m CollectionMapping) Resolve(collection string) SourceType {
	switch {
	case m.Jira != "" && strings.Contains(collection, m.Jira):
		return SourceTypeJira
	case m.Wiki != "" && strings.Contains(collection, m.Wiki):
		return SourceTypeConfluence
	case m.Files != "" && strings.Contains(collection, m.Files):
		return SourceTypeNetworkDrive
	default:
		return SourceTypeUnknown
	}
}

// Collection returns the configured index name for a source type
func (m CollectionMapping) Collection(t SourceType) string {
	switch t {
	case SourceTypeJira:
		return m.Jira
	case SourceTypeConfluence:
		return m.Wiki
	case SourceTypeNetworkDrive:
		return m.Files
	default:
		return ""
	}
}

// SourceInfo describes one entry of the source catalog
type SourceInfo struct {
	Name       string     `json:"name" yaml:"name" toml:"name" example:"jira"`
	Type       SourceType `json:"type" yaml:"type" toml:"type" example:"Jira"`
	Available  bool       `json:"available" yaml:"available" toml:"available" example:"true"`
	Embeddings bool       `json:"embeddings" yaml:"embeddings" toml:"embeddings" example:"true"`
}

// DefaultCatalog builds the catalog served when no catalog file is configured.
// Unconfigured index names are left out.
func DefaultCatalog(m CollectionMapping) []SourceInfo {
	var catalog []SourceInfo
	if m.Jira != "" {
		catalog = append(catalog, SourceInfo{Name: m.Jira, Type: SourceTypeJira, Available: true, Embeddings: true})
	}
	if m.Wiki != "" {
		catalog = append(catalog, SourceInfo{Name: m.Wiki, Type: SourceTypeConfluence, Available: true, Embeddings: true})
	}
	if m.Files != "" {
		catalog = append(catalog, SourceInfo{Name: m.Files, Type: SourceTypeNetworkDrive, Available: true, Embeddings: false})
	}
	return catalog
}
