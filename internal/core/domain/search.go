package domain

import "slices"

// SearchMode determines the retrieval strategy
type SearchMode string

const (
	SearchModeKeyword SearchMode = "Keyword"   // full-text relevance only
	SearchModeVector  SearchMode = "Embedding" // cosine similarity only
	SearchModeHybrid  SearchMode = "Hybrid"    // weighted text relevance + cosine
)

// IsValid checks if the mode is a known search mode
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeKeyword, SearchModeVector, SearchModeHybrid:
		return true
	}
	return false
}

// RequiresEmbedding returns true if the mode needs a query vector
func (m SearchMode) RequiresEmbedding() bool {
	return m == SearchModeVector || m == SearchModeHybrid
}

const (
	// DefaultTopK is the per-collection result limit when none is given
	DefaultTopK = 10

	// DefaultGenerativeDocs is how many top results feed a generated answer
	DefaultGenerativeDocs = 1

	// DefaultBM25Weight scales the text relevance part of a hybrid score
	DefaultBM25Weight = 1.0

	// DefaultEmbeddingWeight scales the cosine part of a hybrid score.
	// Text scores are unbounded while cosine+1 lies in [0,2].
	DefaultEmbeddingWeight = 35.0

	// CosineOffset keeps cosine based scores non-negative
	CosineOffset = 1.0
)

// FusionWeights are the coefficients of a hybrid score
type FusionWeights struct {
	BM25      float64 `json:"bm25Weight" example:"1.0"`
	Embedding float64 `json:"embeddingWeight" example:"35.0"`
}

// DefaultFusionWeights returns the standard hybrid weighting
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{
		BM25:      DefaultBM25Weight,
		Embedding: DefaultEmbeddingWeight,
	}
}

// Combine computes bm25 * textScore + embedding * (cosine + 1)
func (w FusionWeights) Combine(textScore, cosine float64) float64 {
	return w.BM25*textScore + w.Embedding*(cosine+CosineOffset)
}

// SearchQuery is a retrieval request across one or more collections
type SearchQuery struct {
	Text            string         `json:"query"`
	Collections     []string       `json:"sources"`
	Mode            SearchMode     `json:"searchType"`
	TopK            int            `json:"topK"`
	Generative      bool           `json:"enableGenerative"`
	PromptExtension string         `json:"promptExtension,omitempty"`
	GenerativeDocs  int            `json:"generativeDocs"`
	BM25Weight      *float64       `json:"bm25Weight,omitempty"`
	EmbeddingWeight *float64       `json:"embeddingWeight,omitempty"`
	Filters         *Filters       `json:"filters,omitempty"`
}

// WeightsOver returns base with the weights this query sets replaced.
// Either weight may be overridden alone.
func (q *SearchQuery) WeightsOver(base FusionWeights) FusionWeights {
	if q.BM25Weight != nil {
		base.BM25 = *q.BM25Weight
	}
	if q.EmbeddingWeight != nil {
		base.Embedding = *q.EmbeddingWeight
	}
	return base
}

// Validate applies defaults and rejects malformed queries
func (q *SearchQuery) Validate() error {
	if q.TopK == 0 {
		q.TopK = DefaultTopK
	}
	if q.TopK < 0 || q.GenerativeDocs < 0 {
		return ErrInvalidInput
	}
	if (q.BM25Weight != nil && *q.BM25Weight < 0) || (q.EmbeddingWeight != nil && *q.EmbeddingWeight < 0) {
		return ErrInvalidInput
	}
	if !q.Mode.IsValid() {
		return ErrInvalidInput
	}
	if len(q.Collections) == 0 {
		return ErrInvalidInput
	}
	return nil
}

// SearchOutcome holds the ordered results and an optional generated answer.
// Results are grouped by collection in request order; each group keeps the
// store's descending score order.
type SearchOutcome struct {
	Results []RetrievedDocument `json:"results"`
	Answer  string              `json:"answer,omitempty"`
}

// Filters narrows a result list without reordering it
type Filters struct {
	CreatedFrom *Date        `json:"createdFrom,omitempty" swaggertype:"string" example:"2024-01-01"`
	CreatedTo   *Date        `json:"createdTo,omitempty" swaggertype:"string" example:"2024-12-31"`
	Creators    []string     `json:"creators,omitempty"`
	SourceTypes []SourceType `json:"sourceTypes,omitempty"`
}

// IsEmpty returns true if no criterion is set
func (f *Filters) IsEmpty() bool {
	return f == nil || (f.CreatedFrom == nil && f.CreatedTo == nil &&
		len(f.Creators) == 0 && len(f.SourceTypes) == 0)
}

// Match reports whether a document passes every criterion.
// Undated documents only pass when no date bound is set.
func (f *Filters) Match(doc RetrievedDocument) bool {
	if f.IsEmpty() {
		return true
	}
	if len(f.SourceTypes) > 0 && !slices.Contains(f.SourceTypes, doc.SourceType) {
		return false
	}
	if len(f.Creators) > 0 && (doc.Creator == "" || !slices.Contains(f.Creators, doc.Creator)) {
		return false
	}
	if doc.Created == nil {
		return f.CreatedFrom == nil && f.CreatedTo == nil
	}
	if f.CreatedFrom != nil && doc.Created.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && doc.Created.After(*f.CreatedTo) {
		return false
	}
	return true
}

// Apply returns the documents that match, in their original order
func (f *Filters) Apply(docs []RetrievedDocument) []RetrievedDocument {
	if f.IsEmpty() {
		return docs
	}
	out := make([]RetrievedDocument, 0, len(docs))
	for _, d := range docs {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out
}
