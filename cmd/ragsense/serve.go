package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/ragsense/ragsense/internal/adapters/driving/http"
	"github.com/ragsense/ragsense/internal/config"
	"github.com/ragsense/ragsense/internal/core/services"
	"github.com/ragsense/ragsense/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve [api|worker|all]",
	Short: "Run the HTTP API, the reindex worker, or both",
	Long: `Starts ragsense in the given mode. Without an argument the mode is taken
from RUN_MODE (default: all).

  api     HTTP API only
  worker  task worker and reindex scheduler only
  all     both in one process`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{config.RunModeAPI, config.RunModeWorker, config.RunModeAll},
	RunE:      runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	mode := cfg.RunMode
	if len(args) > 0 {
		mode = args[0]
	}
	switch mode {
	case config.RunModeAPI, config.RunModeWorker, config.RunModeAll:
	default:
		return fmt.Errorf("unknown mode: %s (use: api, worker, or all)", mode)
	}

	log.Printf("ragsense %s starting in %s mode", version, mode)

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	switch mode {
	case config.RunModeAPI:
		return runAPI(ctx, a)

	case config.RunModeWorker:
		return runWorkerMode(ctx, a)

	default:
		if a.queue == nil {
			log.Println("Worker disabled: set REDIS_URL or DATABASE_URL to process queued reindex tasks")
			return runAPI(ctx, a)
		}

		workerErr := make(chan error, 1)
		go func() {
			workerErr <- runWorkerMode(ctx, a)
		}()

		apiErr := runAPI(ctx, a)
		// Stop the worker when the API exits on its own
		cancel()
		return errors.Join(apiErr, <-workerErr)
	}
}

// runAPI serves HTTP until ctx is cancelled
func runAPI(ctx context.Context, a *app) error {
	http.SwaggerInfo.Version = version

	server := http.NewServer(
		http.Config{
			Host:        "0.0.0.0",
			Port:        a.cfg.Port,
			Version:     version,
			CORSOrigins: a.cfg.CORSOrigins,
			Logger:      a.logger,
		},
		http.Services{
			Auth:    a.auth,
			Search:  a.search,
			Answer:  a.answer,
			Catalog: a.catalog,
			Reindex: a.reindex,

			Capabilities: a.services,
		},
	)
	if a.auth == nil {
		log.Println("Operator auth not configured: set JWT_SECRET and OPERATOR_KEY_HASH to enable reindex endpoints")
	}

	log.Printf("API server starting on :%d", a.cfg.Port)
	return server.Start(ctx)
}

// runWorkerMode starts the worker and scheduler.
// It processes reindex tasks from the queue and enqueues periodic full runs.
func runWorkerMode(ctx context.Context, a *app) error {
	if a.queue == nil {
		return errors.New("worker mode requires a task queue: set REDIS_URL or DATABASE_URL")
	}

	log.Println("Starting worker mode...")

	var scheduler *services.Scheduler
	if a.cfg.Reindex.SchedulerEnabled {
		scheduler = services.NewScheduler(services.SchedulerConfig{
			Reindex:    a.reindex,
			Lock:       a.lock,
			Logger:     a.logger,
			Interval:   a.cfg.Reindex.Interval,
			BatchSize:  a.cfg.Reindex.BatchSize,
			ScrollTTL:  a.cfg.Reindex.ScrollTTL,
			RunOnStart: a.cfg.Reindex.OnStart,
		})
		log.Printf("Scheduler enabled (interval=%s, on_start=%t)", a.cfg.Reindex.Interval, a.cfg.Reindex.OnStart)
	} else {
		log.Println("Scheduler disabled via SCHEDULER_ENABLED=false")
	}

	w := worker.NewWorker(worker.WorkerConfig{
		TaskQueue:      a.queue,
		Reindex:        a.reindex,
		Scheduler:      scheduler,
		Logger:         a.logger,
		Concurrency:    a.cfg.Worker.Concurrency,
		DequeueTimeout: a.cfg.Worker.DequeueTimeout,
	})

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	health := w.Health(ctx)
	log.Printf("Worker started: task_types=%v, queue_healthy=%t, pending=%d, failed=%d",
		w.TaskTypes(), health.QueueHealth, health.Pending, health.Failed)

	<-ctx.Done()

	log.Println("Stopping worker...")
	w.Stop()
	log.Println("Worker stopped")
	return nil
}
