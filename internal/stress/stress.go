// Package stress runs a concurrent randomized workload against an Allocator
// and verifies alignment and payload after every step.
//
// Each worker owns a private set of buffers, so workers never touch each
// other's allocations; the run exercises the allocator's claim that
// operations on distinct buffers do not interact.
package stress

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/alignedalloc"
	"github.com/hupe1980/alignedalloc/internal/mem"
	"github.com/hupe1980/alignedalloc/internal/resource"
	"github.com/hupe1980/alignedalloc/testutil"
)

// ErrViolation is wrapped by every contract violation a run detects.
var ErrViolation = errors.New("stress: allocator contract violated")

// Config describes a workload.
type Config struct {
	// Workers is the number of goroutines. If 0, defaults to 4.
	Workers int
	// MaxConcurrent caps how many workers run at once. If 0, all run at once.
	MaxConcurrent int
	// Ops is the number of operations per worker. If 0, defaults to 1000.
	Ops int
	// Slots is the number of buffers each worker juggles. If 0, defaults to 16.
	Slots int
	// MaxSize is the largest requested size. If 0, defaults to 64 KiB.
	MaxSize int
	// MaxAlignment is the largest requested alignment (a power of two).
	// If 0, defaults to 4096.
	MaxAlignment int
	// Seed seeds the per-worker random sources.
	Seed int64
}

func (c *Config) setDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = c.Workers
	}
	if c.Ops <= 0 {
		c.Ops = 1000
	}
	if c.Slots <= 0 {
		c.Slots = 16
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 64 << 10
	}
	if c.MaxAlignment <= 0 {
		c.MaxAlignment = 4096
	}
}

// Report summarizes a run.
type Report struct {
	Allocs    int64
	Reallocs  int64
	Frees     int64
	Exhausted int64 // requests refused with ErrOutOfMemory
}

type counters struct {
	allocs, reallocs, frees, exhausted atomic.Int64
}

type slot struct {
	buf       []byte
	size      int
	alignment int
	seed      uint64
}

// Run executes the workload. Exhaustion is counted, not treated as failure;
// the first contract violation cancels the run and is returned. All buffers
// are freed before Run returns.
func Run(ctx context.Context, a alignedalloc.Allocator, cfg Config) (Report, error) {
	cfg.setDefaults()

	if !mem.IsPowerOfTwo(cfg.MaxAlignment) {
		return Report{}, fmt.Errorf("stress: max alignment %d is not a power of two", cfg.MaxAlignment)
	}

	rc := resource.NewController(resource.Config{MaxWorkers: int64(cfg.MaxConcurrent)})

	var c counters
	g, ctx := errgroup.WithContext(ctx)

	for w := 0; w < cfg.Workers; w++ {
		rng := testutil.NewRNG(cfg.Seed + int64(w))
		g.Go(func() error {
			if err := rc.AcquireWorker(ctx); err != nil {
				return err
			}
			defer rc.ReleaseWorker()

			return work(ctx, a, cfg, rng, &c)
		})
	}

	err := g.Wait()

	return Report{
		Allocs:    c.allocs.Load(),
		Reallocs:  c.reallocs.Load(),
		Frees:     c.frees.Load(),
		Exhausted: c.exhausted.Load(),
	}, err
}

func work(ctx context.Context, a alignedalloc.Allocator, cfg Config, rng *testutil.RNG, c *counters) (err error) {
	slots := make([]slot, cfg.Slots)
	defer func() {
		for i := range slots {
			if slots[i].buf != nil {
				a.Free(slots[i].buf)
				c.frees.Add(1)
			}
		}
	}()

	for op := 0; op < cfg.Ops; op++ {
		if op%64 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		s := &slots[rng.Intn(len(slots))]
		if s.buf == nil {
			err = allocate(a, s, rng, cfg, c)
		} else if rng.Intn(3) == 0 {
			err = free(a, s, c)
		} else {
			err = reallocate(a, s, rng, cfg, c)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func allocate(a alignedalloc.Allocator, s *slot, rng *testutil.RNG, cfg Config, c *counters) error {
	size := rng.Size(1, cfg.MaxSize)
	alignment := rng.Alignment(cfg.MaxAlignment)

	c.allocs.Add(1)
	buf, err := a.Allocate(size, alignment)
	if errors.Is(err, alignedalloc.ErrOutOfMemory) {
		c.exhausted.Add(1)
		return nil
	}
	if err != nil {
		return err
	}
	if err := verify(buf, size, alignment); err != nil {
		return err
	}

	*s = slot{buf: buf, size: size, alignment: alignment, seed: rng.Uint64()}
	testutil.FillPattern(buf, s.seed)
	return nil
}

func reallocate(a alignedalloc.Allocator, s *slot, rng *testutil.RNG, cfg Config, c *counters) error {
	size := rng.Size(1, cfg.MaxSize)

	c.reallocs.Add(1)
	buf, orig, err := a.Reallocate(s.buf, size, s.alignment)
	if orig != s.size {
		return fmt.Errorf("%w: reallocate reported original size %d, want %d", ErrViolation, orig, s.size)
	}
	if errors.Is(err, alignedalloc.ErrOutOfMemory) {
		c.exhausted.Add(1)
		// The original buffer must be untouched.
		if i := testutil.CheckPattern(s.buf, s.seed); i >= 0 {
			return fmt.Errorf("%w: failed reallocate corrupted byte %d", ErrViolation, i)
		}
		return nil
	}
	if err != nil {
		return err
	}

	// The old buffer is gone; the slot owns the new one even if it is bad.
	s.buf, s.size = buf, size
	if err := verify(buf, size, s.alignment); err != nil {
		return err
	}
	if i := testutil.CheckPattern(buf[:min(orig, size)], s.seed); i >= 0 {
		return fmt.Errorf("%w: reallocate %d -> %d lost byte %d", ErrViolation, orig, size, i)
	}

	testutil.FillPattern(buf, s.seed)
	return nil
}

func free(a alignedalloc.Allocator, s *slot, c *counters) error {
	c.frees.Add(1)
	if i := testutil.CheckPattern(s.buf, s.seed); i >= 0 {
		return fmt.Errorf("%w: payload corrupted at byte %d before free", ErrViolation, i)
	}
	if orig := a.Free(s.buf); orig != s.size {
		return fmt.Errorf("%w: free reported size %d, want %d", ErrViolation, orig, s.size)
	}
	*s = slot{}
	return nil
}

func verify(buf []byte, size, alignment int) error {
	if len(buf) != size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrViolation, len(buf), size)
	}
	if !mem.IsAligned(buf, alignment) {
		return fmt.Errorf("%w: %#x is not aligned to %d", ErrViolation, mem.Addr(buf), alignment)
	}
	return nil
}
