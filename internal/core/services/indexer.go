package services

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// cursorCloseTimeout bounds the best-effort cursor release
const cursorCloseTimeout = 10 * time.Second

// IndexProgress counts the pages and documents written so far
type IndexProgress struct {
	Pages     int
	Processed int
}

// EmbeddingIndexer recomputes the stored embedding of every document in a
// collection. Each page is embedded in one call and written back with one
// bulk partial update, so rerunning after a failure is safe.
type EmbeddingIndexer struct {
	store    driven.DocumentStore
	registry driven.NormaliserRegistry
	mapping  domain.CollectionMapping
	logger   *slog.Logger
}

// NewEmbeddingIndexer creates an indexer over a document store
func NewEmbeddingIndexer(store driven.DocumentStore, registry driven.NormaliserRegistry, mapping domain.CollectionMapping, logger *slog.Logger) *EmbeddingIndexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingIndexer{
		store:    store,
		registry: registry,
		mapping:  mapping,
		logger:   logger,
	}
}

// Run scans the collection page by page until an empty page, embedding the
// canonical text of each document. Documents with empty text are still
// embedded and counted. onPage, if set, is called after each written page.
// The cursor is released on every exit path.
func (ix *EmbeddingIndexer) Run(
	ctx context.Context,
	embedder driven.EmbeddingService,
	req domain.ReindexRequest,
	onPage func(IndexProgress),
) (IndexProgress, error) {
	var progress IndexProgress

	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return progress, err
	}

	fail := func(stage string, err error) (IndexProgress, error) {
		return progress, &domain.PipelineError{
			Collection: req.Collection,
			Stage:      stage,
			Processed:  progress.Processed,
			Err:        err,
		}
	}

	normaliser := ix.registry.Get(ix.mapping.Resolve(req.Collection))
	if normaliser == nil {
		return progress, fmt.Errorf("no normaliser for collection %q", req.Collection)
	}

	cursor, err := ix.store.Scan(ctx, req.Collection, req.BatchSize, req.ScrollTTL)
	if err != nil {
		return fail(domain.StageScan, err)
	}
	defer ix.release(ctx, req.Collection, cursor)

	for page, err := range pages(ctx, cursor) {
		if err != nil {
			return fail(domain.StageScan, err)
		}

		texts := make([]string, len(page))
		for i, hit := range page {
			texts[i] = normaliser.Text(hit.Source)
		}

		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return fail(domain.StageEmbed, err)
		}
		if len(vectors) != len(page) {
			return fail(domain.StageEmbed, fmt.Errorf("got %d vectors for %d documents", len(vectors), len(page)))
		}

		updates := make([]driven.PartialUpdate, len(page))
		for i, hit := range page {
			updates[i] = driven.PartialUpdate{
				ID:     hit.ID,
				Fields: map[string]any{domain.EmbeddingField: vectors[i]},
			}
		}
		if err := ix.store.BulkUpdate(ctx, req.Collection, updates); err != nil {
			return fail(domain.StageWrite, err)
		}

		progress.Pages++
		progress.Processed += len(page)
		ix.logger.Debug("reindex page written",
			"collection", req.Collection,
			"page", progress.Pages,
			"processed", progress.Processed,
		)
		if onPage != nil {
			onPage(progress)
		}
	}

	return progress, nil
}

// release closes the cursor even when ctx is already cancelled.
// A close failure is logged and never replaces the run's own result.
func (ix *EmbeddingIndexer) release(ctx context.Context, collection string, cursor driven.Cursor) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cursorCloseTimeout)
	defer cancel()
	if err := cursor.Close(closeCtx); err != nil {
		ix.logger.Warn("failed to release scan cursor", "collection", collection, "error", err)
	}
}

// pages yields non-empty pages until the cursor is exhausted or fails
func pages(ctx context.Context, cursor driven.Cursor) iter.Seq2[[]driven.Hit, error] {
	return func(yield func([]driven.Hit, error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			page, err := cursor.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(page) == 0 {
				return
			}
			if !yield(page, nil) {
				return
			}
		}
	}
}
