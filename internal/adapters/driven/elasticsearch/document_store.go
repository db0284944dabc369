package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// searchResponse is the subset of a search or scroll response we read
type searchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []rawHit `json:"hits"`
	} `json:"hits"`
}

type rawHit struct {
	ID     string         `json:"_id"`
	Score  *float64       `json:"_score"`
	Source map[string]any `json:"_source"`
}

func (h rawHit) toHit() driven.Hit {
	hit := driven.Hit{ID: h.ID, Source: h.Source}
	if h.Score != nil {
		hit.Score = *h.Score
	}
	if hit.Source == nil {
		hit.Source = map[string]any{}
	}
	return hit
}

func toHits(raw []rawHit) []driven.Hit {
	hits := make([]driven.Hit, len(raw))
	for i, h := range raw {
		hits[i] = h.toHit()
	}
	return hits
}

func encode(v any) (*bytes.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Search runs a keyword, vector or hybrid query against one index.
// Vector and hybrid queries require q.Vector.
func (s *DocumentStore) Search(ctx context.Context, collection string, q driven.StoreQuery) ([]driven.Hit, error) {
	if q.Mode.RequiresEmbedding() && len(q.Vector) == 0 {
		return nil, fmt.Errorf("%w: %s query without vector", domain.ErrQuery, q.Mode)
	}

	body, err := encode(searchBody(q))
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", domain.ErrQuery, err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(collection),
		s.es.Search.WithBody(body),
	)
	if err != nil {
		return nil, transportError("search", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res)
	}

	var parsed searchResponse
	if err := decode("search", res, &parsed); err != nil {
		return nil, err
	}
	return toHits(parsed.Hits.Hits), nil
}

// getResponse is the document GET envelope
type getResponse struct {
	ID     string         `json:"_id"`
	Found  bool           `json:"found"`
	Source map[string]any `json:"_source"`
}

// Get fetches one document by id
func (s *DocumentStore) Get(ctx context.Context, collection, id string) (*driven.Hit, error) {
	res, err := s.es.Get(collection, id, s.es.Get.WithContext(ctx))
	if err != nil {
		return nil, transportError("get", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrNotFound, collection, id)
	}
	if res.IsError() {
		return nil, responseError("get", res)
	}

	var parsed getResponse
	if err := decode("get", res, &parsed); err != nil {
		return nil, err
	}
	if !parsed.Found {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrNotFound, collection, id)
	}

	hit := rawHit{ID: parsed.ID, Source: parsed.Source}.toHit()
	return &hit, nil
}

// bulkResponse reports per-item outcomes of a bulk request
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// BulkUpdate applies partial updates in one bulk request.
// Any failed item fails the whole call.
func (s *DocumentStore) BulkUpdate(ctx context.Context, collection string, updates []driven.PartialUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, u := range updates {
		if err := enc.Encode(object{"update": object{"_index": collection, "_id": u.ID}}); err != nil {
			return fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(object{"doc": u.Fields}); err != nil {
			return fmt.Errorf("encode bulk document %s: %w", u.ID, err)
		}
	}

	res, err := s.es.Bulk(
		&buf,
		s.es.Bulk.WithContext(ctx),
		s.es.Bulk.WithIndex(collection),
	)
	if err != nil {
		return transportError("bulk", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("bulk", res)
	}

	var parsed bulkResponse
	if err := decode("bulk", res, &parsed); err != nil {
		return err
	}
	if !parsed.Errors {
		return nil
	}

	failed := 0
	var first string
	for _, item := range parsed.Items {
		for _, result := range item {
			if result.Error == nil {
				continue
			}
			if failed == 0 {
				first = fmt.Sprintf("%s: %s: %s", result.ID, result.Error.Type, result.Error.Reason)
			}
			failed++
		}
	}
	return fmt.Errorf("%w: bulk update of %d documents had %d failures, first %s",
		domain.ErrQuery, len(updates), failed, first)
}
