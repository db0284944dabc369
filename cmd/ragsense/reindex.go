package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ragsense/ragsense/internal/core/domain"
)

var (
	reindexCollection string
	reindexAll        bool
	reindexBatchSize  int
	reindexScrollTTL  time.Duration
	reindexEnqueue    bool

	runsCollection string
	runsLimit      int
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Recompute document embeddings",
	Long: `Scrolls through a collection, embeds every page of documents with the
configured embedding model and writes the vectors back.

By default the run happens in this process and the command waits for it.
With --enqueue the run is handed to the task queue instead.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

var reindexRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent reindex runs",
	Args:  cobra.NoArgs,
	RunE:  runReindexRuns,
}

func init() {
	reindexCmd.Flags().StringVarP(&reindexCollection, "collection", "c", "", "collection (index name) to reindex")
	reindexCmd.Flags().BoolVar(&reindexAll, "all", false, "reindex every embeddings-enabled collection")
	reindexCmd.Flags().IntVar(&reindexBatchSize, "batch-size", 0, "documents per page (default REINDEX_BATCH_SIZE)")
	reindexCmd.Flags().DurationVar(&reindexScrollTTL, "scroll-ttl", 0, "scroll cursor lifetime (default REINDEX_SCROLL_TTL)")
	reindexCmd.Flags().BoolVar(&reindexEnqueue, "enqueue", false, "enqueue the run for a worker instead of running it here")
	reindexCmd.MarkFlagsMutuallyExclusive("collection", "all")
	reindexCmd.MarkFlagsOneRequired("collection", "all")

	reindexRunsCmd.Flags().StringVarP(&runsCollection, "collection", "c", "", "only runs of this collection")
	reindexRunsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs")

	reindexCmd.AddCommand(reindexRunsCmd)
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	batchSize := reindexBatchSize
	if !cmd.Flags().Changed("batch-size") {
		batchSize = cfg.Reindex.BatchSize
	}
	scrollTTL := reindexScrollTTL
	if !cmd.Flags().Changed("scroll-ttl") {
		scrollTTL = cfg.Reindex.ScrollTTL
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if reindexEnqueue {
		var task *domain.Task
		if reindexAll {
			task, err = a.reindex.EnqueueAll(ctx, batchSize, scrollTTL)
		} else {
			task, err = a.reindex.Enqueue(ctx, domain.ReindexRequest{
				Collection: reindexCollection,
				BatchSize:  batchSize,
				ScrollTTL:  scrollTTL,
			})
		}
		if err != nil {
			return fmt.Errorf("enqueue failed: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd, task)
		}
		cmd.Printf("Enqueued task %s (%s)\n", task.ID, task.Type)
		return nil
	}

	if reindexAll {
		cmd.Println("Reindexing all embeddings-enabled collections...")
		runs, err := a.reindex.ReindexAll(ctx, batchSize, scrollTTL)
		if outErr := outputRuns(cmd, runs); outErr != nil {
			return outErr
		}
		if err != nil {
			return fmt.Errorf("reindex failed: %w", err)
		}
		return nil
	}

	cmd.Printf("Reindexing %s...\n", reindexCollection)
	run, err := a.reindex.Reindex(ctx, domain.ReindexRequest{
		Collection: reindexCollection,
		BatchSize:  batchSize,
		ScrollTTL:  scrollTTL,
	})
	if run != nil {
		if outErr := outputRuns(cmd, []*domain.ReindexRun{run}); outErr != nil {
			return outErr
		}
	}
	if err != nil {
		if errors.Is(err, domain.ErrReindexInProgress) {
			return fmt.Errorf("%s is already being reindexed", reindexCollection)
		}
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

func runReindexRuns(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.reindex.ListRuns(ctx, runsCollection, runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 && !jsonOutput {
		cmd.Println("No reindex runs recorded.")
		return nil
	}
	return outputRuns(cmd, runs)
}

func outputRuns(cmd *cobra.Command, runs []*domain.ReindexRun) error {
	if jsonOutput {
		if runs == nil {
			runs = []*domain.ReindexRun{}
		}
		return printJSON(cmd, runs)
	}

	for _, run := range runs {
		if run == nil {
			continue
		}
		cmd.Printf("  %s  %-10s %-20s processed=%d pages=%d duration=%s\n",
			run.ID, run.Status, run.Collection, run.Processed, run.Pages, run.Duration().Round(time.Millisecond))
		if run.Error != "" {
			cmd.Printf("      Error: %s\n", run.Error)
		}
	}
	return nil
}
