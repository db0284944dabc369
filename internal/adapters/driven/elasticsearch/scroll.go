package elasticsearch

import (
	"context"
	"time"

	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// Scan opens a scroll over every document of a collection.
// The first page is fetched here so that a missing index fails early.
func (s *DocumentStore) Scan(ctx context.Context, collection string, pageSize int, ttl time.Duration) (driven.Cursor, error) {
	body, err := encode(scanBody())
	if err != nil {
		return nil, err
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(collection),
		s.es.Search.WithBody(body),
		s.es.Search.WithSize(pageSize),
		s.es.Search.WithScroll(ttl),
	)
	if err != nil {
		return nil, transportError("open scroll", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("open scroll", res)
	}

	var parsed searchResponse
	if err := decode("open scroll", res, &parsed); err != nil {
		return nil, err
	}

	return &scrollCursor{
		store:    s,
		scrollID: parsed.ScrollID,
		ttl:      ttl,
		first:    toHits(parsed.Hits.Hits),
		buffered: true,
	}, nil
}

// scrollCursor pages through a scroll context
type scrollCursor struct {
	store    *DocumentStore
	scrollID string
	ttl      time.Duration
	first    []driven.Hit
	buffered bool
	closed   bool
}

// Next returns the buffered first page, then scrolls
func (c *scrollCursor) Next(ctx context.Context) ([]driven.Hit, error) {
	if c.buffered {
		c.buffered = false
		page := c.first
		c.first = nil
		return page, nil
	}
	if c.closed || c.scrollID == "" {
		return nil, nil
	}

	es := c.store.es
	res, err := es.Scroll(
		es.Scroll.WithContext(ctx),
		es.Scroll.WithScrollID(c.scrollID),
		es.Scroll.WithScroll(c.ttl),
	)
	if err != nil {
		return nil, transportError("scroll", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("scroll", res)
	}

	var parsed searchResponse
	if err := decode("scroll", res, &parsed); err != nil {
		return nil, err
	}
	if parsed.ScrollID != "" {
		c.scrollID = parsed.ScrollID
	}
	return toHits(parsed.Hits.Hits), nil
}

// Close clears the scroll context. Calling it again is a no-op.
func (c *scrollCursor) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.scrollID == "" {
		return nil
	}

	es := c.store.es
	res, err := es.ClearScroll(
		es.ClearScroll.WithContext(ctx),
		es.ClearScroll.WithScrollID(c.scrollID),
	)
	if err != nil {
		return transportError("clear scroll", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return responseError("clear scroll", res)
	}
	return nil
}
