package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
	"github.com/ragsense/ragsense/internal/core/ports/driving"
	"github.com/ragsense/ragsense/internal/core/services"
)

const (
	defaultDequeueTimeout = 5 // seconds
	dequeueErrorBackoff   = time.Second
)

// handlerFunc executes one claimed task. A nil error acks the task.
type handlerFunc func(ctx context.Context, task *domain.Task, logger *slog.Logger) error

// Worker claims reindex tasks from the queue and runs them through the
// reindex service. Several loops may run concurrently; the per-collection
// lock inside the reindex service keeps them from indexing the same
// collection twice.
type Worker struct {
	taskQueue driven.TaskQueue
	reindex   driving.ReindexService
	scheduler *services.Scheduler
	logger    *slog.Logger
	handlers  map[domain.TaskType]handlerFunc

	concurrency    int
	dequeueTimeout int

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig configures NewWorker. Scheduler is optional.
type WorkerConfig struct {
	TaskQueue      driven.TaskQueue
	Reindex        driving.ReindexService
	Scheduler      *services.Scheduler
	Logger         *slog.Logger
	Concurrency    int // parallel dequeue loops, default 1
	DequeueTimeout int // seconds a loop blocks on an empty queue, default 5
}

func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Worker{
		taskQueue:      cfg.TaskQueue,
		reindex:        cfg.Reindex,
		scheduler:      cfg.Scheduler,
		logger:         logger.With("component", "worker"),
		concurrency:    max(cfg.Concurrency, 1),
		dequeueTimeout: cfg.DequeueTimeout,
	}
	if w.dequeueTimeout <= 0 {
		w.dequeueTimeout = defaultDequeueTimeout
	}
	w.handlers = map[domain.TaskType]handlerFunc{
		domain.TaskTypeReindex:    w.handleReindex,
		domain.TaskTypeReindexAll: w.handleReindexAll,
	}
	return w
}

// TaskTypes lists the task types this worker executes, sorted
func (w *Worker) TaskTypes() []domain.TaskType {
	types := make([]domain.TaskType, 0, len(w.handlers))
	for t := range w.handlers {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Start launches the dequeue loops and the scheduler, then returns. The
// loops end when ctx is cancelled or Stop is called. Starting a running
// worker is a no-op.
func (w *Worker) Start(ctx context.Context) error {
	if w.taskQueue == nil || w.reindex == nil {
		return errors.New("worker requires a task queue and a reindex service")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
		"task_types", w.TaskTypes(),
	)

	if w.scheduler != nil {
		if err := w.scheduler.Start(ctx); err != nil {
			w.logger.Error("failed to start scheduler", "error", err)
		}
	}

	var wg sync.WaitGroup
	for id := range w.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.processLoop(ctx, w.logger.With("worker_id", id))
		}()
	}
	go func(done chan struct{}) {
		wg.Wait()
		close(done)
	}(w.doneCh)

	return nil
}

// Stop signals the loops and waits for them. A reindex in flight runs to
// completion first, so the collection lock is released normally.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	if w.scheduler != nil {
		w.scheduler.Stop()
	}
	<-done

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	w.logger.Info("worker stopped")
}

// Wait blocks until every loop has returned
func (w *Worker) Wait() {
	w.mu.RLock()
	done := w.doneCh
	w.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (w *Worker) stopping(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *Worker) processLoop(ctx context.Context, logger *slog.Logger) {
	for !w.stopping(ctx) {
		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		case err != nil:
			logger.Error("failed to dequeue task", "error", err)
			select {
			case <-time.After(dequeueErrorBackoff):
			case <-w.stopCh:
			case <-ctx.Done():
			}
		case task != nil:
			w.processTask(ctx, task, logger)
		}
	}
}

// processTask runs task and settles it. A failure is nacked and the queue
// decides between retry and failed.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type, "attempt", task.Attempts)
	logger.Info("processing task")
	start := time.Now()

	var err error
	if handle, ok := w.handlers[task.Type]; ok {
		err = handle(ctx, task, logger)
	} else {
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	if err != nil {
		logger.Error("task failed", "duration", time.Since(start), "error", err)
		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", time.Since(start))
	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// handleReindex treats a collection that is already being reindexed as
// done: the running pass will embed the same documents.
func (w *Worker) handleReindex(ctx context.Context, task *domain.Task, logger *slog.Logger) error {
	req := task.ReindexRequest()
	if req.Collection == "" {
		return errors.New("collection not found in task payload")
	}

	run, err := w.reindex.Reindex(ctx, req)
	if errors.Is(err, domain.ErrReindexInProgress) {
		logger.Info("reindex skipped, collection busy", "collection", req.Collection)
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("reindex finished",
		"collection", run.Collection,
		"model", run.Model,
		"processed", run.Processed,
		"pages", run.Pages,
	)
	return nil
}

// handleReindexAll fails only when no collection completed; partial
// failures stay visible in the run history
func (w *Worker) handleReindexAll(ctx context.Context, task *domain.Task, logger *slog.Logger) error {
	req := task.ReindexRequest()
	runs, err := w.reindex.ReindexAll(ctx, req.BatchSize, req.ScrollTTL)
	if err == nil {
		logger.Info("reindex of all collections finished", "collections", len(runs))
		return nil
	}

	completed := slices.IndexFunc(runs, func(r *domain.ReindexRun) bool {
		return r.Status == domain.ReindexStatusCompleted
	}) >= 0
	if !completed {
		return err
	}
	logger.Warn("some reindex runs failed", "runs", len(runs), "error", err)
	return nil
}

// Health is the worker state plus the queue depth
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Pending     int64  `json:"pending"`
	Failed      int64  `json:"failed"`
	Error       string `json:"error,omitempty"`
}

func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	health := Health{Running: w.running}
	w.mu.RUnlock()

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.Error = err.Error()
		return health
	}
	health.QueueHealth = true

	stats, err := w.taskQueue.Stats(ctx)
	if err != nil {
		health.Error = err.Error()
		return health
	}
	health.Pending, health.Failed = stats.PendingCount, stats.FailedCount
	return health
}
