package normalisers

import (
	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// JiraBrowseURL prefixes issue keys to build browse links
const JiraBrowseURL = "http://jira/browse/"

var jiraTemplate = template{
	{"Issue.assignee.displayName", "Bearbeiter:"},
	{"Issue.creator.displayName", "Erstellt von:"},
	{"Issue.summary", "Zusammenfassung:"},
	{"Issue.description", "Beschreibung:"},
	{"Issue.project.name", "Projektname:"},
	{"Issue.project.projectCategory.description", "Projektkategorie:"},
	{"Issue.resolution.name", "Lösung:"},
	{"Type", "Typ:"},
	{"Custom_Fields.Kunde(n)", "Kunde(n):"},
}

// JiraNormaliser maps issue tracker documents
type JiraNormaliser struct{}

func (n *JiraNormaliser) SourceType() domain.SourceType {
	return domain.SourceTypeJira
}

func (n *JiraNormaliser) Normalise(hit driven.Hit) domain.RetrievedDocument {
	src := hit.Source
	doc := domain.RetrievedDocument{
		SourceType: domain.SourceTypeJira,
		Score:      hit.Score,
		ID:         stringAt(src, "Key"),
		Title:      stringAt(src, "Issue.summary"),
		Summary:    stringAt(src, "Issue.description"),
		Creator:    stringAt(src, "Issue.creator.displayName"),
		Created:    dateAt(src, "Issue.created"),
	}
	if doc.ID != "" {
		doc.URL = JiraBrowseURL + doc.ID
	}
	if issue, ok := src["Issue"].(map[string]any); ok {
		doc.Content = issue
	}
	return doc
}

func (n *JiraNormaliser) Text(source map[string]any) string {
	return jiraTemplate.Render(source)
}
