package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/alignedalloc"
	"github.com/hupe1980/alignedalloc/internal/stress"
)

var (
	stressWorkers      int
	stressConcurrent   int
	stressOps          int
	stressMaxSize      int
	stressMaxAlignment int
	stressSeed         int64
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressWorkers, "workers", 4, "Number of worker goroutines")
	cmd.Flags().IntVar(&stressConcurrent, "max-concurrent", 0, "Workers allowed to run at once (0 = all)")
	cmd.Flags().IntVar(&stressOps, "ops", 10000, "Operations per worker")
	cmd.Flags().IntVar(&stressMaxSize, "max-size", 64<<10, "Largest requested size in bytes")
	cmd.Flags().IntVar(&stressMaxAlignment, "max-alignment", 4096, "Largest requested alignment (power of two)")
	cmd.Flags().Int64Var(&stressSeed, "seed", 1, "Random seed")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run a concurrent randomized workload",
		Long: `The stress command runs workers that allocate, reallocate and free buffers
of random sizes and alignments, verifying alignment and content after every
step. Exhaustion under --limit is counted, not treated as a failure.

Example:
  alignctl stress --workers 16 --ops 100000
  alignctl stress --backend mmap --max-alignment 65536
  alignctl stress --limit 1048576 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runStress(ctx)
		},
	}
}

type stressResult struct {
	Backend   string         `json:"backend"`
	Workers   int            `json:"workers"`
	Seed      int64          `json:"seed"`
	Duration  time.Duration  `json:"duration_ns"`
	Allocs    int64          `json:"allocs"`
	Reallocs  int64          `json:"reallocs"`
	Frees     int64          `json:"frees"`
	Exhausted int64          `json:"exhausted"`
	Leaks     int            `json:"leaks"`
	Metrics   metricsSummary `json:"metrics"`
}

func runStress(ctx context.Context) error {
	metrics := &alignedalloc.BasicMetricsCollector{}
	a, err := newAllocator(metrics)
	if err != nil {
		return err
	}
	tracker := alignedalloc.NewTracker(a)

	start := time.Now()
	report, err := stress.Run(ctx, withDebug(tracker, "stress"), stress.Config{
		Workers:       stressWorkers,
		MaxConcurrent: stressConcurrent,
		Ops:           stressOps,
		MaxSize:       stressMaxSize,
		MaxAlignment:  stressMaxAlignment,
		Seed:          stressSeed,
	})
	if err != nil {
		return err
	}

	result := stressResult{
		Backend:   backendName,
		Workers:   stressWorkers,
		Seed:      stressSeed,
		Duration:  time.Since(start),
		Allocs:    report.Allocs,
		Reallocs:  report.Reallocs,
		Frees:     report.Frees,
		Exhausted: report.Exhausted,
		Leaks:     len(tracker.Leaks()),
		Metrics:   summarize(metrics),
	}
	if result.Leaks != 0 {
		err = fmt.Errorf("stress run leaked %d buffers", result.Leaks)
	}

	if jsonOut {
		if perr := printJSON(result); perr != nil {
			return perr
		}
		return err
	}

	printInfo("Stress (%s backend, %d workers, seed %d): %s\n",
		backendName, stressWorkers, stressSeed, result.Duration.Round(time.Millisecond))
	printInfo("  ops: %d allocate, %d reallocate, %d free, %d exhausted\n\n",
		result.Allocs, result.Reallocs, result.Frees, result.Exhausted)
	printMetrics(result.Metrics)
	return err
}
