package stress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/alignedalloc"
	"github.com/hupe1980/alignedalloc/backend"
)

func TestRun_Heap(t *testing.T) {
	tracker := alignedalloc.NewTracker(alignedalloc.New())

	report, err := Run(t.Context(), tracker, Config{Workers: 8, Ops: 500, Seed: 1})
	require.NoError(t, err)

	assert.Positive(t, report.Allocs)
	assert.Positive(t, report.Reallocs)
	assert.Positive(t, report.Frees)
	assert.Zero(t, report.Exhausted)
	assert.Zero(t, tracker.Live())
}

func TestRun_SlowPathOnly(t *testing.T) {
	metrics := &alignedalloc.BasicMetricsCollector{}
	a := alignedalloc.New(
		alignedalloc.WithFastPathMaxAlignment(0),
		alignedalloc.WithMetricsCollector(metrics),
	)

	_, err := Run(t.Context(), a, Config{Workers: 4, Ops: 300, Seed: 2})
	require.NoError(t, err)

	assert.Zero(t, metrics.FastPathCount.Load())
	assert.Positive(t, metrics.SlowPathCount.Load())
	assert.Zero(t, metrics.LiveBytes.Load())
}

func TestRun_Budget(t *testing.T) {
	limited := backend.NewLimited(backend.NewHeap(), 256<<10)
	a := alignedalloc.New(alignedalloc.WithBackend(limited))

	report, err := Run(t.Context(), a, Config{
		Workers:       4,
		MaxConcurrent: 2,
		Ops:           500,
		Slots:         32,
		MaxSize:       32 << 10,
		Seed:          3,
	})
	require.NoError(t, err)

	assert.Positive(t, report.Exhausted)
	assert.Zero(t, limited.Usage())
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Run(ctx, alignedalloc.New(), Config{Workers: 2, Ops: 100})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_InvalidAlignment(t *testing.T) {
	_, err := Run(t.Context(), alignedalloc.New(), Config{MaxAlignment: 3})
	assert.Error(t, err)
}

// damaging reports success on Reallocate but hands back a bad buffer.
type damaging struct {
	alignedalloc.Allocator
	damage func([]byte) []byte
}

func (d damaging) Reallocate(buf []byte, size, alignment int) ([]byte, int, error) {
	nb, orig, err := d.Allocator.Reallocate(buf, size, alignment)
	if err != nil || nb == nil {
		return nb, orig, err
	}
	return d.damage(nb), orig, nil
}

func TestRun_ViolationAfterReallocate(t *testing.T) {
	tests := map[string]func([]byte) []byte{
		"content": func(b []byte) []byte {
			b[0] ^= 0xff
			return b
		},
		"length": func(b []byte) []byte {
			if len(b) < 2 {
				return b
			}
			return b[:len(b)-1]
		},
	}

	for name, damage := range tests {
		t.Run(name, func(t *testing.T) {
			tracker := alignedalloc.NewTracker(alignedalloc.New())

			// The damaged buffer is released exactly once; a second free of
			// the replaced buffer would panic inside the tracker.
			_, err := Run(t.Context(), damaging{Allocator: tracker, damage: damage}, Config{
				Workers: 2,
				Ops:     200,
				Seed:    4,
			})
			assert.ErrorIs(t, err, ErrViolation)
			assert.Zero(t, tracker.Live())
		})
	}
}
