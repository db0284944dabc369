package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ragsense/ragsense/internal/core/ports/driven"
	"github.com/ragsense/ragsense/internal/core/ports/driving"
)

// schedulerLockName guards the periodic enqueue across instances
const schedulerLockName = "scheduler:reindex_all"

const defaultReindexInterval = 24 * time.Hour

// Scheduler enqueues one reindex_all task per interval on worker nodes.
//
// With a lock configured, the instance that wins a cycle keeps the lease for
// most of the interval, so instances whose tickers fire a little later in the
// same cycle find it held and skip. A failed enqueue releases the lease at
// once so another instance can retry.
type Scheduler struct {
	reindex driving.ReindexService
	lock    driven.DistributedLock
	logger  *slog.Logger

	interval   time.Duration
	lockTTL    time.Duration
	batchSize  int
	scrollTTL  time.Duration
	runOnStart bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// SchedulerConfig configures NewScheduler. Lock is optional for a single
// worker instance.
type SchedulerConfig struct {
	Reindex    driving.ReindexService
	Lock       driven.DistributedLock
	Logger     *slog.Logger
	Interval   time.Duration // default 24h
	BatchSize  int           // forwarded in the task payload
	ScrollTTL  time.Duration // forwarded in the task payload
	LockTTL    time.Duration // default nine tenths of Interval
	RunOnStart bool
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultReindexInterval
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 || lockTTL > interval {
		lockTTL = interval - interval/10
	}

	return &Scheduler{
		reindex:    cfg.Reindex,
		lock:       cfg.Lock,
		logger:     logger.With("component", "scheduler"),
		interval:   interval,
		lockTTL:    lockTTL,
		batchSize:  cfg.BatchSize,
		scrollTTL:  cfg.ScrollTTL,
		runOnStart: cfg.RunOnStart,
	}
}

// Start launches the loop in the background; a second Start is a no-op
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	s.logger.Info("scheduler starting", "interval", s.interval, "run_on_start", s.runOnStart)
	go s.run(ctx, s.stopCh, s.doneCh)
	return nil
}

// Stop ends the loop and waits for an enqueue in progress
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.running = false
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if s.runOnStart {
		s.enqueue(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.enqueue(ctx)
		}
	}
}

// enqueue submits one reindex_all task unless another instance already did
// so this cycle
func (s *Scheduler) enqueue(ctx context.Context) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, schedulerLockName, s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire scheduler lock, skipping cycle", "error", err)
			return
		}
		if !acquired {
			s.logger.Debug("cycle already scheduled by another instance")
			return
		}
	}

	task, err := s.reindex.EnqueueAll(ctx, s.batchSize, s.scrollTTL)
	if err != nil {
		s.logger.Error("failed to enqueue scheduled reindex", "error", err)
		if s.lock != nil {
			if relErr := s.lock.Release(ctx, schedulerLockName); relErr != nil {
				s.logger.Warn("failed to release scheduler lock", "error", relErr)
			}
		}
		return
	}
	s.logger.Info("enqueued scheduled reindex", "task_id", task.ID, "lease", s.lockTTL)
}
