package domain

import (
	"errors"
	"testing"
)

func TestSearchMode(t *testing.T) {
	tests := []struct {
		mode      SearchMode
		valid     bool
		embedding bool
	}{
		{SearchModeKeyword, true, false},
		{SearchModeVector, true, true},
		{SearchModeHybrid, true, true},
		{SearchMode("semantic"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if got := tt.mode.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
			if got := tt.mode.RequiresEmbedding(); got != tt.embedding {
				t.Errorf("RequiresEmbedding() = %v, want %v", got, tt.embedding)
			}
		})
	}
}

func TestFusionWeights_Combine(t *testing.T) {
	w := DefaultFusionWeights()
	if w.BM25 != 1.0 || w.Embedding != 35.0 {
		t.Fatalf("unexpected defaults: %+v", w)
	}

	// 1.0*2.5 + 35*(0.5+1)
	if got := w.Combine(2.5, 0.5); got != 55.0 {
		t.Errorf("expected 55.0, got %v", got)
	}

	zeroText := FusionWeights{BM25: 0, Embedding: 1}
	if got := zeroText.Combine(100, -1); got != 0 {
		t.Errorf("expected 0 for opposite vectors, got %v", got)
	}
}

func TestFusionWeights_EmbeddingWeightFavoursCloserDocument(t *testing.T) {
	const text = 3.0
	near, far := 0.9, 0.1

	for _, ew := range []float64{0, 1, 35, 100} {
		w := FusionWeights{BM25: 1, Embedding: ew}
		if w.Combine(text, near) < w.Combine(text, far) {
			t.Errorf("embedding weight %v ranked the farther document higher", ew)
		}
	}
}

func TestSearchQuery_Validate(t *testing.T) {
	q := SearchQuery{Text: "vpn", Collections: []string{"jira"}, Mode: SearchModeKeyword}
	if err := q.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.TopK != DefaultTopK {
		t.Errorf("expected default topK %d, got %d", DefaultTopK, q.TopK)
	}

	bad := []SearchQuery{
		{Text: "vpn", Collections: []string{"jira"}, Mode: "fuzzy"},
		{Text: "vpn", Collections: nil, Mode: SearchModeKeyword},
		{Text: "vpn", Collections: []string{"jira"}, Mode: SearchModeKeyword, TopK: -1},
		{Text: "vpn", Collections: []string{"jira"}, Mode: SearchModeKeyword, GenerativeDocs: -2},
	}
	for i, b := range bad {
		if err := b.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestSearchQuery_WeightsOver(t *testing.T) {
	base := FusionWeights{BM25: 1, Embedding: 50}
	bm25, embedding := 2.0, 10.0

	tests := []struct {
		name  string
		query SearchQuery
		want  FusionWeights
	}{
		{"none set", SearchQuery{}, base},
		{"bm25 only", SearchQuery{BM25Weight: &bm25}, FusionWeights{BM25: 2, Embedding: 50}},
		{"embedding only", SearchQuery{EmbeddingWeight: &embedding}, FusionWeights{BM25: 1, Embedding: 10}},
		{"both", SearchQuery{BM25Weight: &bm25, EmbeddingWeight: &embedding}, FusionWeights{BM25: 2, Embedding: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.WeightsOver(base); got != tt.want {
				t.Errorf("WeightsOver() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSearchQuery_ValidateRejectsNegativeWeight(t *testing.T) {
	negative := -1.0
	q := SearchQuery{Text: "x", Collections: []string{"jira"}, Mode: SearchModeHybrid, EmbeddingWeight: &negative}
	if err := q.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func mustDate(t *testing.T, s string) *Date {
	t.Helper()
	d, ok := ParseDate(s)
	if !ok {
		t.Fatalf("failed to parse %s", s)
	}
	return &d
}

func TestFilters_Match(t *testing.T) {
	jan := mustDate(t, "2024-01-15")
	jun := mustDate(t, "2024-06-01")

	jira := RetrievedDocument{SourceType: SourceTypeJira, Creator: "Anna", Created: jan}
	wiki := RetrievedDocument{SourceType: SourceTypeConfluence, Creator: "Ben", Created: jun}
	undated := RetrievedDocument{SourceType: SourceTypeNetworkDrive}

	tests := []struct {
		name    string
		filters *Filters
		doc     RetrievedDocument
		want    bool
	}{
		{"nil filters", nil, jira, true},
		{"source type match", &Filters{SourceTypes: []SourceType{SourceTypeJira}}, jira, true},
		{"source type miss", &Filters{SourceTypes: []SourceType{SourceTypeJira}}, wiki, false},
		{"creator match", &Filters{Creators: []string{"Ben"}}, wiki, true},
		{"creator missing", &Filters{Creators: []string{"Ben"}}, undated, false},
		{"from inclusive", &Filters{CreatedFrom: jan}, jira, true},
		{"to inclusive", &Filters{CreatedTo: jan}, jira, true},
		{"after range", &Filters{CreatedTo: jan}, wiki, false},
		{"before range", &Filters{CreatedFrom: jun}, jira, false},
		{"undated without bounds", &Filters{SourceTypes: []SourceType{SourceTypeNetworkDrive}}, undated, true},
		{"undated with bounds", &Filters{CreatedFrom: jan}, undated, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filters.Match(tt.doc); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilters_ApplyPreservesOrder(t *testing.T) {
	docs := []RetrievedDocument{
		{SourceType: SourceTypeJira, ID: "a", Score: 9},
		{SourceType: SourceTypeConfluence, ID: "b", Score: 8},
		{SourceType: SourceTypeJira, ID: "c", Score: 7},
	}

	f := &Filters{SourceTypes: []SourceType{SourceTypeJira}}
	out := f.Apply(docs)

	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "c" {
		t.Errorf("unexpected filtered result: %+v", out)
	}

	var none *Filters
	if len(none.Apply(docs)) != 3 {
		t.Error("expected nil filters to keep everything")
	}
}
