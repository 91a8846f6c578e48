package alignedalloc

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/alignedalloc/backend"
	"github.com/hupe1980/alignedalloc/internal/mem"
	"github.com/hupe1980/alignedalloc/testutil"
)

func jsonLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestDebug_LogsEveryOperation(t *testing.T) {
	var out bytes.Buffer
	d := NewDebug(New(), "renderer.go:42", WithDebugLogger(jsonLogger(&out)))

	buf, err := d.AllocateScope(64, 16, ScopeObject)
	require.NoError(t, err)
	addr := mem.Addr(buf)

	buf, orig, err := d.ReallocateScope(buf, 128, 16, ScopeCache)
	require.NoError(t, err)
	assert.Equal(t, 64, orig)

	d.InternalAllocation(4096, InternalAllocationExecutable, ScopeDevice)
	d.InternalFree(4096, InternalAllocationExecutable, ScopeDevice)

	assert.Equal(t, 128, d.Free(buf))

	recs := records(t, &out)
	require.Len(t, recs, 5)
	for _, rec := range recs {
		assert.Equal(t, "renderer.go:42", rec["src"])
		assert.Equal(t, "DEBUG", rec["level"])
	}

	assert.Equal(t, "alloc", recs[0]["msg"])
	assert.Equal(t, float64(64), recs[0]["size"])
	assert.Equal(t, float64(16), recs[0]["alignment"])
	assert.Equal(t, "object", recs[0]["scope"])
	assert.Equal(t, ptr(addr), recs[0]["ptr"])

	assert.Equal(t, "realloc", recs[1]["msg"])
	assert.Equal(t, ptr(addr), recs[1]["old_ptr"])
	assert.Equal(t, float64(64), recs[1]["original_size"])
	assert.Equal(t, "cache", recs[1]["scope"])

	assert.Equal(t, "internal allocation", recs[2]["msg"])
	assert.Equal(t, "executable", recs[2]["type"])
	assert.Equal(t, "device", recs[2]["scope"])
	assert.Equal(t, "internal free", recs[3]["msg"])

	assert.Equal(t, "free", recs[4]["msg"])
	assert.Equal(t, float64(128), recs[4]["size"])
}

func TestDebug_UnspecifiedScope(t *testing.T) {
	var out bytes.Buffer
	d := NewDebug(New(), "x", WithDebugLogger(jsonLogger(&out)))

	buf, err := d.Allocate(8, 8)
	require.NoError(t, err)
	d.Free(buf)

	recs := records(t, &out)
	require.Len(t, recs, 2)
	assert.Equal(t, "???", recs[0]["scope"])
}

func TestDebug_LogsFailures(t *testing.T) {
	var out bytes.Buffer
	f := backend.NewFaulty(backend.NewHeap())
	d := NewDebug(New(WithBackend(f)), "x", WithDebugLogger(jsonLogger(&out)))

	buf, err := d.Allocate(100, 64)
	require.NoError(t, err)

	f.FailAllocAfter(0)
	_, err = d.Allocate(100, 64)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	nb, orig, err := d.Reallocate(buf, 200, 64)
	assert.Nil(t, nb)
	assert.Equal(t, 100, orig)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	f.FailAllocAfter(-1)
	d.Free(buf)

	recs := records(t, &out)
	require.Len(t, recs, 4)
	assert.Equal(t, "alloc failed", recs[1]["msg"])
	assert.Equal(t, "ERROR", recs[1]["level"])
	assert.Contains(t, recs[1]["error"], "out of memory")
	assert.Equal(t, "realloc failed", recs[2]["msg"])
	assert.Equal(t, "ERROR", recs[2]["level"])
}

func TestDebug_DoesNotChangeResults(t *testing.T) {
	plain := New(WithBackend(testutil.NewSkewedBackend(backend.NewHeap(), 24)))
	logged := NewDebug(New(WithBackend(testutil.NewSkewedBackend(backend.NewHeap(), 24))), "x",
		WithDebugLogger(NoopLogger()))

	run := func(a Allocator) []int {
		var sizes []int
		rng := testutil.NewRNG(3)
		for i := 0; i < 100; i++ {
			size, alignment := rng.Size(1, 5000), rng.Alignment(1024)
			buf, err := a.Allocate(size, alignment)
			require.NoError(t, err)
			require.True(t, mem.IsAligned(buf, alignment))

			buf, orig, err := a.Reallocate(buf, 2*size, alignment)
			require.NoError(t, err)
			require.True(t, mem.IsAligned(buf, alignment))

			sizes = append(sizes, len(buf), orig, a.Free(buf))
		}
		return sizes
	}

	assert.Equal(t, run(plain), run(logged))
}

func TestDebug_EventLimit(t *testing.T) {
	var out bytes.Buffer
	d := NewDebug(New(), "x", WithDebugLogger(jsonLogger(&out)), WithDebugEventLimit(0.001, 2))

	for i := 0; i < 10; i++ {
		buf, err := d.Allocate(16, 16)
		require.NoError(t, err)
		assert.Equal(t, 16, d.Free(buf))
	}

	assert.Len(t, records(t, &out), 2)
	assert.Equal(t, int64(18), d.Dropped())
}

func TestDebug_ForwardsScopes(t *testing.T) {
	var inner, outer bytes.Buffer
	d := NewDebug(NewDebug(New(), "inner", WithDebugLogger(jsonLogger(&inner))), "outer",
		WithDebugLogger(jsonLogger(&outer)))

	buf, err := d.AllocateScope(8, 8, ScopeInstance)
	require.NoError(t, err)
	d.Free(buf)

	assert.Equal(t, "instance", records(t, &inner)[0]["scope"])
	assert.Equal(t, "instance", records(t, &outer)[0]["scope"])
}

func TestScopeString(t *testing.T) {
	tests := map[Scope]string{
		ScopeCommand:     "command",
		ScopeObject:      "object",
		ScopeCache:       "cache",
		ScopeDevice:      "device",
		ScopeInstance:    "instance",
		ScopeUnspecified: "???",
		Scope(42):        "???",
	}
	for s, want := range tests {
		assert.Equal(t, want, s.String())
	}

	assert.Equal(t, "executable", InternalAllocationExecutable.String())
	assert.Equal(t, "???", InternalAllocationType(7).String())
}
