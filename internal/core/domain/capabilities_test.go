package domain

import "testing"

func TestNewCapabilities_KeywordOnly(t *testing.T) {
	c := NewCapabilities("postgres", "", 0, "")

	if !c.Supports(SearchModeKeyword) {
		t.Error("expected keyword search without embeddings")
	}
	if c.Supports(SearchModeVector) || c.Supports(SearchModeHybrid) {
		t.Error("expected vector modes to need embeddings")
	}
	if c.Reindex || c.Answers {
		t.Errorf("expected no reindex or answers, got %+v", c)
	}
	if len(c.SearchModes) != 1 {
		t.Errorf("expected only keyword mode, got %v", c.SearchModes)
	}
}

func TestNewCapabilities_AllServices(t *testing.T) {
	c := NewCapabilities("redis", "text-embedding-3-small", 1536, "gpt-4o-mini")

	for _, mode := range []SearchMode{SearchModeKeyword, SearchModeVector, SearchModeHybrid} {
		if !c.Supports(mode) {
			t.Errorf("expected %s to be supported", mode)
		}
	}
	if !c.Reindex || !c.Answers {
		t.Errorf("expected reindex and answers, got %+v", c)
	}
	if c.Supports(SearchMode("Fuzzy")) {
		t.Error("expected unknown mode to be unsupported")
	}
}
