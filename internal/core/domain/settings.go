package domain

// AIProvider identifies the AI/embedding provider
type AIProvider string

const (
	// AIProviderOpenAI is the hosted OpenAI API (API key required)
	AIProviderOpenAI AIProvider = "openai"
	// AIProviderLocal is a self-hosted OpenAI-compatible server
	AIProviderLocal AIProvider = "local"
)

const (
	// DefaultEmbeddingModel is the multilingual sentence model the indices were built with
	DefaultEmbeddingModel = "distiluse-base-multilingual-cased-v1"

	// DefaultLLMModel is the chat model served by the local gateway
	DefaultLLMModel = "/models/Meta-Llama-3.1-8B-Instruct-Q5_K_M.gguf"

	// DefaultSystemPrompt is sent as the system message of every completion
	DefaultSystemPrompt = "Du bist ein hilfreicher Assistent."
)

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider AIProvider `json:"provider"`
	Model    string     `json:"model"`
	APIKey   string     `json:"-"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty"`

	// RequestsPerSecond throttles embedding calls; zero disables throttling
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
}

// IsConfigured reports whether the service can be built. The hosted API
// needs a key, a local server needs its URL.
func (e *EmbeddingSettings) IsConfigured() bool {
	return e.Provider.configured(e.APIKey, e.BaseURL)
}

// LLMSettings configures the LLM service
type LLMSettings struct {
	Provider     AIProvider `json:"provider"`
	Model        string     `json:"model"`
	APIKey       string     `json:"-"` // Never serialize to JSON
	BaseURL      string     `json:"base_url,omitempty"`
	Temperature  float64    `json:"temperature"`
	SystemPrompt string     `json:"system_prompt,omitempty"`
}

// IsConfigured applies the same rule as EmbeddingSettings.IsConfigured
func (l *LLMSettings) IsConfigured() bool {
	return l.Provider.configured(l.APIKey, l.BaseURL)
}

func (p AIProvider) configured(apiKey, baseURL string) bool {
	switch {
	case !p.IsValid():
		return false
	case p.RequiresAPIKey():
		return apiKey != ""
	default:
		return baseURL != ""
	}
}

// RequiresAPIKey returns true if this provider requires an API key
func (p AIProvider) RequiresAPIKey() bool {
	return p != AIProviderLocal
}

// IsValid returns true if this is a known provider
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderLocal:
		return true
	default:
		return false
	}
}
