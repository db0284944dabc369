package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
	"github.com/ragsense/ragsense/internal/core/ports/driving"
	"github.com/ragsense/ragsense/internal/runtime"
)

// Ensure reindexService implements ReindexService
var _ driving.ReindexService = (*reindexService)(nil)

const (
	// DefaultLockTTL bounds how long a crashed run can block its collection.
	// The lock is extended after every page.
	DefaultLockTTL = 10 * time.Minute

	lockPrefix = "reindex:"

	defaultRunListLimit = 20
	maxRunListLimit     = 100
)

// reindexService implements the ReindexService interface
type reindexService struct {
	indexer     *EmbeddingIndexer
	services    *runtime.Services
	lock        driven.DistributedLock
	runs        driven.ReindexRunStore
	queue       driven.TaskQueue
	catalog     driving.CatalogService
	lockTTL     time.Duration
	concurrency int
	logger      *slog.Logger
}

// ReindexServiceConfig holds dependencies for the reindex service
type ReindexServiceConfig struct {
	Indexer     *EmbeddingIndexer
	Services    *runtime.Services
	Lock        driven.DistributedLock
	Runs        driven.ReindexRunStore
	Queue       driven.TaskQueue // optional, needed for Enqueue
	Catalog     driving.CatalogService
	LockTTL     time.Duration
	Concurrency int // collections reindexed in parallel by ReindexAll
	Logger      *slog.Logger
}

// NewReindexService creates a new ReindexService
func NewReindexService(cfg ReindexServiceConfig) driving.ReindexService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &reindexService{
		indexer:     cfg.Indexer,
		services:    cfg.Services,
		lock:        cfg.Lock,
		runs:        cfg.Runs,
		queue:       cfg.Queue,
		catalog:     cfg.Catalog,
		lockTTL:     lockTTL,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Reindex runs the embedding indexer for one collection under a
// per-collection lock and records the run
func (s *reindexService) Reindex(ctx context.Context, req domain.ReindexRequest) (*domain.ReindexRun, error) {
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	embedder, err := s.services.RequireEmbedding()
	if err != nil {
		return nil, err
	}

	lockName := lockPrefix + req.Collection
	acquired, err := s.lock.Acquire(ctx, lockName, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire reindex lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", domain.ErrReindexInProgress, req.Collection)
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), lockName); err != nil {
			s.logger.Warn("failed to release reindex lock", "collection", req.Collection, "error", err)
		}
	}()

	run := domain.NewReindexRun(req, embedder.Model())
	if err := s.runs.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("save reindex run: %w", err)
	}

	logger := s.logger.With("run_id", run.ID, "collection", req.Collection, "model", run.Model)
	logger.Info("reindex started", "batch_size", req.BatchSize, "scroll_ttl", req.ScrollTTL)

	onPage := func(p IndexProgress) {
		if err := s.lock.Extend(ctx, lockName, s.lockTTL); err != nil {
			logger.Warn("failed to extend reindex lock", "error", err)
		}
		run.Processed, run.Pages = p.Processed, p.Pages
		if err := s.runs.Save(ctx, run); err != nil {
			logger.Warn("failed to checkpoint reindex run", "error", err)
		}
	}

	progress, runErr := s.indexer.Run(ctx, embedder, req, onPage)
	if runErr != nil {
		run.Fail(progress.Processed, progress.Pages, runErr)
		s.saveFinal(ctx, logger, run)
		logger.Error("reindex failed",
			"processed", progress.Processed,
			"pages", progress.Pages,
			"error", runErr,
		)
		return run, runErr
	}

	run.Complete(progress.Processed, progress.Pages)
	s.saveFinal(ctx, logger, run)
	logger.Info("reindex completed",
		"processed", progress.Processed,
		"pages", progress.Pages,
		"duration", run.Duration(),
	)
	return run, nil
}

// saveFinal persists the terminal run state even if ctx was cancelled
func (s *reindexService) saveFinal(ctx context.Context, logger *slog.Logger, run *domain.ReindexRun) {
	if err := s.runs.Save(context.WithoutCancel(ctx), run); err != nil {
		logger.Error("failed to save reindex run", "status", run.Status, "error", err)
	}
}

// ReindexAll reindexes every embeddings-enabled catalog collection on a
// bounded worker pool. Runs are returned in catalog order; failures are
// joined into one error and do not stop the other collections.
func (s *reindexService) ReindexAll(ctx context.Context, batchSize int, scrollTTL time.Duration) ([]*domain.ReindexRun, error) {
	collections := s.catalog.EmbeddingCollections(ctx)
	if len(collections) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(s.concurrency)
	if err != nil {
		return nil, fmt.Errorf("create reindex pool: %w", err)
	}
	defer pool.Release()

	runs := make([]*domain.ReindexRun, len(collections))
	errs := make([]error, len(collections))

	var wg sync.WaitGroup
	for i, collection := range collections {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			runs[i], errs[i] = s.Reindex(ctx, domain.ReindexRequest{
				Collection: collection,
				BatchSize:  batchSize,
				ScrollTTL:  scrollTTL,
			})
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = fmt.Errorf("schedule %s: %w", collection, submitErr)
		}
	}
	wg.Wait()

	var done []*domain.ReindexRun
	for _, run := range runs {
		if run != nil {
			done = append(done, run)
		}
	}
	return done, errors.Join(errs...)
}

// Enqueue schedules a reindex of one collection on the task queue
func (s *reindexService) Enqueue(ctx context.Context, req domain.ReindexRequest) (*domain.Task, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("%w: no task queue configured", domain.ErrServiceUnavailable)
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	task := domain.NewReindexTask(req)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("enqueue reindex: %w", err)
	}
	s.logger.Info("reindex enqueued", "task_id", task.ID, "collection", req.Collection)
	return task, nil
}

// EnqueueAll schedules a reindex of every embeddings-enabled collection
func (s *reindexService) EnqueueAll(ctx context.Context, batchSize int, scrollTTL time.Duration) (*domain.Task, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("%w: no task queue configured", domain.ErrServiceUnavailable)
	}
	if batchSize < 0 || batchSize > domain.MaxBatchSize || scrollTTL < 0 {
		return nil, domain.ErrInvalidInput
	}

	task := domain.NewReindexAllTask(batchSize, scrollTTL)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("enqueue reindex: %w", err)
	}
	s.logger.Info("reindex of all collections enqueued", "task_id", task.ID)
	return task, nil
}

// ListRuns returns recent runs, newest first
func (s *reindexService) ListRuns(ctx context.Context, collection string, limit int) ([]*domain.ReindexRun, error) {
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	if limit > maxRunListLimit {
		limit = maxRunListLimit
	}
	return s.runs.List(ctx, collection, limit)
}
