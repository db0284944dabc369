package domain

// Capabilities is a snapshot of what a running instance can serve, derived
// from the AI services that passed their startup health checks
type Capabilities struct {
	QueueBackend   string       `json:"queueBackend" example:"redis"`
	EmbeddingModel string       `json:"embeddingModel,omitempty" example:"text-embedding-3-small"`
	Dimensions     int          `json:"dimensions,omitempty" example:"1536"`
	LLMModel       string       `json:"llmModel,omitempty" example:"gpt-4o-mini"`
	SearchModes    []SearchMode `json:"searchModes"`
	Answers        bool         `json:"answers"`
	Reindex        bool         `json:"reindex"`
}

// NewCapabilities derives the flags from the model names. An empty model
// means the service is absent.
func NewCapabilities(queueBackend, embeddingModel string, dimensions int, llmModel string) Capabilities {
	c := Capabilities{
		QueueBackend:   queueBackend,
		EmbeddingModel: embeddingModel,
		Dimensions:     dimensions,
		LLMModel:       llmModel,
		SearchModes:    []SearchMode{SearchModeKeyword},
		Answers:        llmModel != "",
		Reindex:        embeddingModel != "",
	}
	if embeddingModel != "" {
		c.SearchModes = append(c.SearchModes, SearchModeVector, SearchModeHybrid)
	}
	return c
}

// Supports reports whether mode can run without an embedding error
func (c Capabilities) Supports(mode SearchMode) bool {
	if mode.RequiresEmbedding() {
		return c.Reindex
	}
	return mode.IsValid()
}
