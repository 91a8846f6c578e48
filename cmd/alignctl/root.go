package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/alignedalloc"
	"github.com/hupe1980/alignedalloc/backend"
)

var (
	// Global flags
	verbose        bool
	jsonOut        bool
	backendName    string
	limitBytes     int64
	fastPathMax    int
	failAllocAfter int
)

var rootCmd = &cobra.Command{
	Use:   "alignctl",
	Short: "Exercise the aligned allocator",
	Long: `alignctl drives the aligned allocator against a chosen backend. It runs
the built-in self test, a logged end-to-end demo and a concurrent stress
workload, and reports the reallocation strategies that were taken.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every allocator call")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "heap", "Backend to allocate from (heap, mmap)")
	rootCmd.PersistentFlags().Int64Var(&limitBytes, "limit", 0, "Backend memory budget in bytes (0 = unlimited)")
	rootCmd.PersistentFlags().
		IntVar(&fastPathMax, "fast-path-max-alignment", -1, "Largest alignment resized in place (-1 = backend baseline, 0 = disabled)")
	rootCmd.PersistentFlags().
		IntVar(&failAllocAfter, "fail-alloc-after", -1, "Fail every backend allocation after the first n (-1 = never)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resetFlags restores the global flag defaults.
func resetFlags() {
	verbose = false
	jsonOut = false
	backendName = "heap"
	limitBytes = 0
	fastPathMax = -1
	failAllocAfter = -1
}

// newBackend builds the backend chain selected by the global flags.
func newBackend() (backend.Backend, error) {
	var b backend.Backend
	switch backendName {
	case "heap":
		b = backend.NewHeap()
	case "mmap":
		b = backend.NewMmap()
	default:
		return nil, fmt.Errorf("unknown backend %q (want heap or mmap)", backendName)
	}

	if failAllocAfter >= 0 {
		f := backend.NewFaulty(b)
		f.FailAllocAfter(failAllocAfter)
		b = f
	}
	if limitBytes > 0 {
		b = backend.NewLimited(b, limitBytes)
	}
	return b, nil
}

func newAllocator(metrics alignedalloc.MetricsCollector) (*alignedalloc.Aligned, error) {
	b, err := newBackend()
	if err != nil {
		return nil, err
	}

	opts := []alignedalloc.Option{
		alignedalloc.WithBackend(b),
		alignedalloc.WithMetricsCollector(metrics),
	}
	if fastPathMax >= 0 {
		opts = append(opts, alignedalloc.WithFastPathMaxAlignment(fastPathMax))
	}
	return alignedalloc.New(opts...), nil
}

// newLogger returns a stderr logger; --verbose enables the per-call records.
func newLogger(level slog.Level) *alignedalloc.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	if jsonOut {
		return alignedalloc.NewJSONLogger(level)
	}
	return alignedalloc.NewTextLogger(level)
}

// withDebug wraps a in a Debug decorator when --verbose is set.
func withDebug(a alignedalloc.Allocator, src string) alignedalloc.Allocator {
	if !verbose {
		return a
	}
	return alignedalloc.NewDebug(a, src, alignedalloc.WithDebugLogger(newLogger(slog.LevelInfo)))
}

type metricsSummary struct {
	Allocations        int64 `json:"allocations"`
	AllocationErrors   int64 `json:"allocation_errors"`
	Reallocations      int64 `json:"reallocations"`
	ReallocationErrors int64 `json:"reallocation_errors"`
	FastPath           int64 `json:"fast_path"`
	Realign            int64 `json:"realign"`
	SlowPath           int64 `json:"slow_path"`
	Frees              int64 `json:"frees"`
	LiveBytes          int64 `json:"live_bytes"`
}

func summarize(m *alignedalloc.BasicMetricsCollector) metricsSummary {
	return metricsSummary{
		Allocations:        m.AllocateCount.Load(),
		AllocationErrors:   m.AllocateErrors.Load(),
		Reallocations:      m.ReallocateCount.Load(),
		ReallocationErrors: m.ReallocateErrors.Load(),
		FastPath:           m.FastPathCount.Load(),
		Realign:            m.RealignCount.Load(),
		SlowPath:           m.SlowPathCount.Load(),
		Frees:              m.FreeCount.Load(),
		LiveBytes:          m.LiveBytes.Load(),
	}
}

func printMetrics(s metricsSummary) {
	printInfo("Allocations:\n")
	printInfo("  allocate:   %d (%d failed)\n", s.Allocations, s.AllocationErrors)
	printInfo("  reallocate: %d (%d failed)\n", s.Reallocations, s.ReallocationErrors)
	printInfo("    fast path: %d (%d realigned)\n", s.FastPath, s.Realign)
	printInfo("    slow path: %d\n", s.SlowPath)
	printInfo("  free:       %d\n", s.Frees)
	printInfo("  live bytes: %d\n", s.LiveBytes)
}

// printInfo prints to stdout.
func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
