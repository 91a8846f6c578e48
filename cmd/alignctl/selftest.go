package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/alignedalloc"
)

func init() {
	rootCmd.AddCommand(newSelfTestCmd())
}

func newSelfTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Run the allocator self test",
		Long: `The selftest command checks alignment for every power of two up to 64 KiB,
sizes around a 64 KiB boundary, and content preservation across reallocations.

Example:
  alignctl selftest
  alignctl selftest --backend mmap --fast-path-max-alignment 0
  alignctl selftest --limit 65536 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfTest()
		},
	}
}

type selfTestResult struct {
	Backend  string         `json:"backend"`
	Passed   bool           `json:"passed"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
	Leaks    int            `json:"leaks"`
	Metrics  metricsSummary `json:"metrics"`
}

// finish folds leaked buffers into the outcome and records it. It returns
// the error the command exits with.
func (r *selfTestResult) finish(testErr error) error {
	if testErr == nil && r.Leaks != 0 {
		testErr = fmt.Errorf("self test leaked %d buffers", r.Leaks)
	}
	r.Passed = testErr == nil
	r.Error = ""
	if testErr != nil {
		r.Error = testErr.Error()
	}
	return testErr
}

func runSelfTest() error {
	metrics := &alignedalloc.BasicMetricsCollector{}
	a, err := newAllocator(metrics)
	if err != nil {
		return err
	}
	tracker := alignedalloc.NewTracker(a)

	start := time.Now()
	testErr := alignedalloc.SelfTest(withDebug(tracker, "selftest"))

	result := selfTestResult{
		Backend:  backendName,
		Duration: time.Since(start),
		Leaks:    len(tracker.Leaks()),
		Metrics:  summarize(metrics),
	}
	testErr = result.finish(testErr)

	if jsonOut {
		if err := printJSON(result); err != nil {
			return err
		}
		return testErr
	}

	status := "PASS"
	if testErr != nil {
		status = "FAIL"
	}
	printInfo("Self test (%s backend): %s in %s\n", backendName, status, result.Duration.Round(time.Microsecond))
	if result.Error != "" {
		printInfo("  %s\n", result.Error)
	}
	printInfo("\n")
	printMetrics(result.Metrics)

	return testErr
}
