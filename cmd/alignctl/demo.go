package main

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/alignedalloc"
	"github.com/hupe1980/alignedalloc/internal/mem"
)

const (
	demoSize      = 64 << 10
	demoAlignment = 4096
	demoText      = "Hello world"
)

func init() {
	rootCmd.AddCommand(newDemoCmd())
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a logged allocate, grow, shrink and free sequence",
		Long: `The demo command drives the host hook table the way a host API would:
it allocates 64 KiB at 4096-byte alignment, writes "Hello world", grows the
buffer to 128 KiB, shrinks it back and frees it. Every hook call is logged to
stderr.

Example:
  alignctl demo
  alignctl demo --backend mmap --json
  alignctl demo --fail-alloc-after 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
}

type demoStep struct {
	Op        string `json:"op"`
	Size      int    `json:"size"`
	Alignment int    `json:"alignment"`
	Addr      string `json:"addr"`
	Aligned   bool   `json:"aligned"`
	Content   string `json:"content"`
}

func runDemo() error {
	a, err := newAllocator(nil)
	if err != nil {
		return err
	}
	cb := alignedalloc.NewDebugCallbacks(a, "alignctl demo",
		alignedalloc.WithDebugLogger(newLogger(slog.LevelDebug)))

	var steps []demoStep
	record := func(op string, buf []byte) {
		steps = append(steps, demoStep{
			Op:        op,
			Size:      len(buf),
			Alignment: demoAlignment,
			Addr:      fmt.Sprintf("%#x", mem.Addr(buf)),
			Aligned:   mem.IsAligned(buf, demoAlignment),
			Content:   string(bytes.TrimRight(buf[:len(demoText)], "\x00")),
		})
	}

	buf := cb.Allocation(demoSize, demoAlignment, alignedalloc.ScopeObject)
	if buf == nil {
		return fmt.Errorf("allocate %d bytes: %w", demoSize, alignedalloc.ErrOutOfMemory)
	}
	copy(buf, demoText)
	record("allocate", buf)

	cb.InternalAllocation(demoAlignment, alignedalloc.InternalAllocationExecutable, alignedalloc.ScopeDevice)
	defer cb.InternalFree(demoAlignment, alignedalloc.InternalAllocationExecutable, alignedalloc.ScopeDevice)

	for _, size := range []int{2 * demoSize, demoSize} {
		nb := cb.Reallocation(buf, size, demoAlignment, alignedalloc.ScopeObject)
		if nb == nil {
			cb.Free(buf)
			return fmt.Errorf("reallocate to %d bytes: %w", size, alignedalloc.ErrOutOfMemory)
		}
		buf = nb
		record("reallocate", buf)

		if string(buf[:len(demoText)]) != demoText {
			cb.Free(buf)
			return fmt.Errorf("reallocate to %d bytes lost content", size)
		}
	}

	cb.Free(buf)

	if jsonOut {
		return printJSON(steps)
	}
	for _, st := range steps {
		printInfo("%-10s %7d bytes @ %s aligned=%t %q\n", st.Op, st.Size, st.Addr, st.Aligned, st.Content)
	}
	printInfo("free\n")
	return nil
}
