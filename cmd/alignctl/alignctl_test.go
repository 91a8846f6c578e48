package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/alignedalloc"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	return string(<-done), fnErr
}

func TestSelfTestCommand(t *testing.T) {
	tests := []struct {
		name     string
		backend  string
		fastPath int
		limit    int64
		wantErr  bool
	}{
		{name: "heap", backend: "heap", fastPath: -1},
		{name: "mmap", backend: "mmap", fastPath: -1},
		{name: "slow path only", backend: "heap", fastPath: 0},
		{name: "fast path everywhere", backend: "mmap", fastPath: 65536},
		{name: "budget too small", backend: "heap", fastPath: -1, limit: 4096, wantErr: true},
		{name: "unknown backend", backend: "tcmalloc", fastPath: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			backendName = tt.backend
			fastPathMax = tt.fastPath
			limitBytes = tt.limit
			jsonOut = true

			output, err := captureOutput(t, runSelfTest)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			var result selfTestResult
			require.NoError(t, json.Unmarshal([]byte(output), &result))
			assert.True(t, result.Passed)
			assert.Zero(t, result.Leaks)
			assert.Zero(t, result.Metrics.LiveBytes)
			assert.Positive(t, result.Metrics.Allocations)
		})
	}
}

func TestSelfTestCommand_SlowPathCounted(t *testing.T) {
	resetFlags()
	fastPathMax = 0
	jsonOut = true

	output, err := captureOutput(t, runSelfTest)
	require.NoError(t, err)

	var result selfTestResult
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Zero(t, result.Metrics.FastPath)
	assert.Positive(t, result.Metrics.SlowPath)
}

func TestSelfTestCommand_Text(t *testing.T) {
	resetFlags()

	output, err := captureOutput(t, runSelfTest)
	require.NoError(t, err)
	assert.Contains(t, output, "Self test (heap backend): PASS")
	assert.Contains(t, output, "slow path:")
}

func TestSelfTestResult_Finish(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		r := selfTestResult{}
		require.NoError(t, r.finish(nil))
		assert.True(t, r.Passed)
		assert.Empty(t, r.Error)
	})

	t.Run("leaked", func(t *testing.T) {
		r := selfTestResult{Leaks: 2}
		err := r.finish(nil)
		require.Error(t, err)
		assert.False(t, r.Passed)
		assert.Contains(t, r.Error, "leaked 2 buffers")

		out, jerr := json.Marshal(r)
		require.NoError(t, jerr)
		assert.Contains(t, string(out), `"passed":false`)
	})

	t.Run("failed", func(t *testing.T) {
		r := selfTestResult{Leaks: 1}
		failure := errors.New("misaligned buffer")
		assert.Equal(t, failure, r.finish(failure))
		assert.False(t, r.Passed)
		assert.Equal(t, "misaligned buffer", r.Error)
	})
}

func TestDemoCommand(t *testing.T) {
	for _, name := range []string{"heap", "mmap"} {
		t.Run(name, func(t *testing.T) {
			resetFlags()
			backendName = name
			jsonOut = true

			output, err := captureOutput(t, runDemo)
			require.NoError(t, err)

			var steps []demoStep
			require.NoError(t, json.Unmarshal([]byte(output), &steps))
			require.Len(t, steps, 3)

			sizes := []int{demoSize, 2 * demoSize, demoSize}
			for i, st := range steps {
				assert.Equal(t, sizes[i], st.Size)
				assert.True(t, st.Aligned)
				assert.Equal(t, demoText, st.Content)
			}
		})
	}
}

func TestDemoCommand_InjectedFailure(t *testing.T) {
	resetFlags()
	failAllocAfter = 1

	_, err := captureOutput(t, runDemo)
	assert.ErrorIs(t, err, alignedalloc.ErrOutOfMemory)
}

func TestStressCommand(t *testing.T) {
	resetFlags()
	jsonOut = true
	stressWorkers = 4
	stressConcurrent = 2
	stressOps = 300
	stressMaxSize = 8 << 10
	stressMaxAlignment = 1024
	stressSeed = 5

	output, err := captureOutput(t, func() error { return runStress(context.Background()) })
	require.NoError(t, err)

	var result stressResult
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Positive(t, result.Allocs)
	assert.Zero(t, result.Leaks)
	assert.Zero(t, result.Exhausted)
	assert.Equal(t, result.Allocs, result.Metrics.Allocations)
	assert.Zero(t, result.Metrics.LiveBytes)
}

func TestStressCommand_Budget(t *testing.T) {
	resetFlags()
	limitBytes = 64 << 10
	stressWorkers = 4
	stressConcurrent = 0
	stressOps = 500
	stressMaxSize = 32 << 10
	stressMaxAlignment = 4096
	stressSeed = 9

	output, err := captureOutput(t, func() error { return runStress(context.Background()) })
	require.NoError(t, err)
	assert.Contains(t, output, "Stress (heap backend, 4 workers, seed 9)")
	assert.NotContains(t, output, " 0 exhausted")
}

func TestStressCommand_InvalidAlignment(t *testing.T) {
	resetFlags()
	stressWorkers = 1
	stressOps = 10
	stressMaxAlignment = 3

	_, err := captureOutput(t, func() error { return runStress(context.Background()) })
	assert.Error(t, err)
}

func TestNewBackend(t *testing.T) {
	resetFlags()

	limitBytes = 1 << 20
	failAllocAfter = 0
	a, err := newAllocator(nil)
	require.NoError(t, err)

	_, err = a.Allocate(64, 64)
	assert.ErrorIs(t, err, alignedalloc.ErrOutOfMemory)

	resetFlags()
	backendName = "mmap"
	a, err = newAllocator(nil)
	require.NoError(t, err)
	assert.Equal(t, a.Backend().Alignment(), a.FastPathMaxAlignment())
}
