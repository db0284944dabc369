package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven/mocks"
	"github.com/ragsense/ragsense/internal/normalisers"
)

type reindexFixture struct {
	store    *mocks.MockDocumentStore
	embedder *mocks.MockEmbeddingService
	lock     *mocks.MockDistributedLock
	runs     *mocks.MockReindexRunStore
	queue    *mocks.MockTaskQueue
	svc      *reindexService
}

func newReindexFixture(withEmbedding bool) *reindexFixture {
	f := &reindexFixture{
		store:    mocks.NewMockDocumentStore(),
		embedder: mocks.NewMockEmbeddingService(),
		lock:     mocks.NewMockDistributedLock(),
		runs:     mocks.NewMockReindexRunStore(),
		queue:    mocks.NewMockTaskQueue(),
	}
	var embedder *mocks.MockEmbeddingService
	if withEmbedding {
		embedder = f.embedder
	}
	f.svc = NewReindexService(ReindexServiceConfig{
		Indexer:     NewEmbeddingIndexer(f.store, normalisers.DefaultRegistry(), testMapping, nil),
		Services:    createTestServices(embedder, nil),
		Lock:        f.lock,
		Runs:        f.runs,
		Queue:       f.queue,
		Catalog:     NewCatalogService(f.store, testCatalog),
		Concurrency: 2,
	}).(*reindexService)
	return f
}

func TestReindexService_Reindex(t *testing.T) {
	f := newReindexFixture(true)
	seedJira(f.store, 25)

	run, err := f.svc.Reindex(context.Background(), domain.ReindexRequest{Collection: "jira", BatchSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.Status != domain.ReindexStatusCompleted {
		t.Errorf("expected completed run, got %s", run.Status)
	}
	if run.Processed != 25 || run.Pages != 3 {
		t.Errorf("expected 25 documents in 3 pages, got %d/%d", run.Processed, run.Pages)
	}
	if run.Model != "mock-embedding-model" {
		t.Errorf("expected embedding model recorded, got %q", run.Model)
	}

	stored, err := f.runs.Get(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("expected run to be stored: %v", err)
	}
	if stored.Status != domain.ReindexStatusCompleted || stored.CompletedAt == nil {
		t.Errorf("expected stored run to be completed, got %+v", stored)
	}

	if f.lock.IsHeld("reindex:jira") {
		t.Error("expected lock to be released")
	}
	if f.lock.Extended != 3 {
		t.Errorf("expected lock extended after each page, got %d", f.lock.Extended)
	}
}

func TestReindexService_Reindex_LockHeld(t *testing.T) {
	f := newReindexFixture(true)
	seedJira(f.store, 5)
	f.lock.SetLockHeld("reindex:jira", time.Minute)

	_, err := f.svc.Reindex(context.Background(), domain.ReindexRequest{Collection: "jira"})
	if !errors.Is(err, domain.ErrReindexInProgress) {
		t.Errorf("expected ErrReindexInProgress, got %v", err)
	}
	if f.store.ScansOpened != 0 {
		t.Error("expected no scan while another run holds the lock")
	}
	if !f.lock.IsHeld("reindex:jira") {
		t.Error("expected foreign lock to stay held")
	}
}

func TestReindexService_Reindex_LockError(t *testing.T) {
	f := newReindexFixture(true)
	f.lock.AcquireFn = func(name string, ttl time.Duration) (bool, error) {
		return false, errors.New("redis down")
	}

	_, err := f.svc.Reindex(context.Background(), domain.ReindexRequest{Collection: "jira"})
	if err == nil || errors.Is(err, domain.ErrReindexInProgress) {
		t.Errorf("expected lock backend error, got %v", err)
	}
}

func TestReindexService_Reindex_NoEmbeddingService(t *testing.T) {
	f := newReindexFixture(false)
	seedJira(f.store, 5)

	_, err := f.svc.Reindex(context.Background(), domain.ReindexRequest{Collection: "jira"})
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
	if len(f.lock.Acquired) != 0 {
		t.Error("expected no lock to be taken")
	}
}

func TestReindexService_Reindex_FailureRecorded(t *testing.T) {
	f := newReindexFixture(true)
	seedJira(f.store, 25)
	f.embedder.FailOnCall = 2

	run, err := f.svc.Reindex(context.Background(), domain.ReindexRequest{Collection: "jira", BatchSize: 10})
	if !errors.Is(err, domain.ErrIndexingPipeline) {
		t.Fatalf("expected ErrIndexingPipeline, got %v", err)
	}
	if run == nil {
		t.Fatal("expected failed run to be returned")
	}

	stored, _ := f.runs.Get(context.Background(), run.ID)
	if stored.Status != domain.ReindexStatusFailed {
		t.Errorf("expected failed status, got %s", stored.Status)
	}
	if stored.Processed != 10 || stored.Error == "" {
		t.Errorf("expected progress and error recorded, got %+v", stored)
	}
	if f.lock.IsHeld("reindex:jira") {
		t.Error("expected lock to be released after failure")
	}
}

func TestReindexService_Reindex_InvalidRequest(t *testing.T) {
	f := newReindexFixture(true)

	_, err := f.svc.Reindex(context.Background(), domain.ReindexRequest{Collection: " "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReindexService_ReindexAll(t *testing.T) {
	f := newReindexFixture(true)
	seedJira(f.store, 12)
	f.store.Put("wiki", "w1", wikiSource("Drucker", "Toner"))
	f.store.Put("files", "f1", map[string]any{"id": 1, "path": "/share/a.pdf"})

	runs, err := f.svc.ReindexAll(context.Background(), 5, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("expected runs for jira and wiki, got %d", len(runs))
	}
	if runs[0].Collection != "jira" || runs[1].Collection != "wiki" {
		t.Errorf("expected catalog order, got %s, %s", runs[0].Collection, runs[1].Collection)
	}
	if runs[0].Processed != 12 || runs[1].Processed != 1 {
		t.Errorf("unexpected counts %d, %d", runs[0].Processed, runs[1].Processed)
	}
	if f.store.Source("files", "f1")["embedding"] != nil {
		t.Error("expected collection without embeddings to be skipped")
	}
}

func TestReindexService_ReindexAll_PartialFailure(t *testing.T) {
	f := newReindexFixture(true)
	seedJira(f.store, 3)
	f.store.Put("wiki", "w1", wikiSource("Drucker", "Toner"))
	f.store.BulkErrFn = func(collection string, call int) error {
		if collection == "wiki" {
			return errors.New("mapping conflict")
		}
		return nil
	}

	runs, err := f.svc.ReindexAll(context.Background(), 0, 0)
	if !errors.Is(err, domain.ErrIndexingPipeline) {
		t.Fatalf("expected joined pipeline error, got %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected both runs returned, got %d", len(runs))
	}
	if runs[0].Status != domain.ReindexStatusCompleted || runs[1].Status != domain.ReindexStatusFailed {
		t.Errorf("unexpected statuses %s, %s", runs[0].Status, runs[1].Status)
	}
}

func TestReindexService_Enqueue(t *testing.T) {
	f := newReindexFixture(true)

	task, err := f.svc.Enqueue(context.Background(), domain.ReindexRequest{Collection: "wiki", BatchSize: 64})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if task.Type != domain.TaskTypeReindex {
		t.Errorf("expected reindex task, got %s", task.Type)
	}
	req := task.ReindexRequest()
	if req.Collection != "wiki" || req.BatchSize != 64 || req.ScrollTTL != domain.DefaultScrollTTL {
		t.Errorf("unexpected payload %+v", req)
	}
	if len(f.queue.Pending()) != 1 {
		t.Errorf("expected one queued task, got %d", len(f.queue.Pending()))
	}

	if _, err := f.svc.Enqueue(context.Background(), domain.ReindexRequest{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReindexService_EnqueueAll(t *testing.T) {
	f := newReindexFixture(true)

	task, err := f.svc.EnqueueAll(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type != domain.TaskTypeReindexAll {
		t.Errorf("expected reindex_all task, got %s", task.Type)
	}

	if _, err := f.svc.EnqueueAll(context.Background(), domain.MaxBatchSize+1, 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReindexService_Enqueue_NoQueue(t *testing.T) {
	svc := NewReindexService(ReindexServiceConfig{
		Services: createTestServices(nil, nil),
		Lock:     mocks.NewMockDistributedLock(),
		Runs:     mocks.NewMockReindexRunStore(),
	})

	if _, err := svc.Enqueue(context.Background(), domain.ReindexRequest{Collection: "jira"}); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
	if _, err := svc.EnqueueAll(context.Background(), 0, 0); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestReindexService_ListRuns(t *testing.T) {
	f := newReindexFixture(true)
	seedJira(f.store, 2)
	f.store.Put("wiki", "w1", wikiSource("a", "b"))

	for _, c := range []string{"jira", "wiki", "jira"} {
		if _, err := f.svc.Reindex(context.Background(), domain.ReindexRequest{Collection: c}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := f.svc.ListRuns(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 runs, got %d", len(all))
	}

	jira, _ := f.svc.ListRuns(context.Background(), "jira", 0)
	if len(jira) != 2 {
		t.Errorf("expected 2 jira runs, got %d", len(jira))
	}

	limited, _ := f.svc.ListRuns(context.Background(), "", 1)
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}
