package driven

import (
	"github.com/ragsense/ragsense/internal/core/domain"
)

// Normaliser maps the raw documents of one source type.
// Implementations are pure functions of their input.
type Normaliser interface {
	// SourceType returns the source type this normaliser handles
	SourceType() domain.SourceType

	// Normalise converts a raw hit into a retrieved document.
	// Missing or malformed fields are left absent, never an error.
	Normalise(hit Hit) domain.RetrievedDocument

	// Text renders the canonical text that gets embedded for a document.
	// Returns "" when the source type has no template.
	Text(source map[string]any) string
}

// NormaliserRegistry dispatches to the normaliser of a source type
type NormaliserRegistry interface {
	// Get returns the normaliser for a source type.
	// Falls back to the SourceTypeUnknown normaliser; never nil once that is registered.
	Get(t domain.SourceType) Normaliser

	// Register registers a normaliser, replacing any existing one for its type
	Register(n Normaliser)

	// List returns the registered source types
	List() []domain.SourceType
}
