package backend

import (
	"fmt"
	"math"
	"runtime/debug"
	"runtime/metrics"
)

const (
	// HeapAlignment is the baseline alignment of Go heap byte slices larger
	// than the tiny-allocator threshold (16 bytes).
	HeapAlignment = 8

	// MaxHeapAlloc bounds a single heap request when the size of the
	// machine's memory cannot be determined.
	MaxHeapAlloc = 1 << 40

	// largeHeapRequest is the size above which Alloc also subtracts the live
	// heap from the cap before calling make.
	largeHeapRequest = 64 << 20
)

// Heap allocates from the Go heap.
//
// The Go runtime aborts the process when make cannot be satisfied, so Heap
// refuses requests that cannot fit instead: anything above physical memory
// plus swap, above the runtime memory limit, or (for large requests) above
// what is left after the live heap. Use Limited for a hard budget.
type Heap struct {
	maxAlloc int64
}

// NewHeap returns a Go heap backend.
func NewHeap() *Heap {
	return &Heap{maxAlloc: heapCap()}
}

// MaxAlloc returns the largest single request Alloc considers. The zero Heap
// uses MaxHeapAlloc.
func (h *Heap) MaxAlloc() int64 {
	if h.maxAlloc <= 0 {
		return MaxHeapAlloc
	}
	return h.maxAlloc
}

// Alloc implements Backend.
func (h *Heap) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	if !h.fits(int64(n)) {
		return nil, fmt.Errorf("%w: heap request of %d bytes", ErrExhausted, n)
	}
	return make([]byte, n), nil
}

func (h *Heap) fits(n int64) bool {
	limit := h.MaxAlloc()
	if n > limit {
		return false
	}
	if n < largeHeapRequest {
		return true
	}
	return n <= limit-heapInUse()
}

// heapCap is the smaller of the machine's memory and the runtime memory
// limit, or MaxHeapAlloc if neither is known.
func heapCap() int64 {
	limit := int64(MaxHeapAlloc)
	if total := physicalMemory(); total > 0 && total < uint64(limit) {
		limit = int64(total) //nolint:gosec // bounded by MaxHeapAlloc
	}
	if soft := debug.SetMemoryLimit(-1); soft < math.MaxInt64 && soft < limit {
		limit = soft
	}
	return limit
}

// heapInUse returns the bytes occupied by live and unswept heap objects.
func heapInUse() int64 {
	s := []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}
	metrics.Read(s)
	if s[0].Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return int64(s[0].Value.Uint64()) //nolint:gosec // heap size fits int64
}

// Resize implements Backend. The heap cannot grow a slice in place, so every
// resize relocates.
func (h *Heap) Resize(buf []byte, n int) ([]byte, error) {
	if n == len(buf) {
		return buf, nil
	}

	nb, err := h.Alloc(n)
	if err != nil {
		return nil, err
	}

	copy(nb, buf)
	return nb, nil
}

// Free implements Backend. The garbage collector reclaims the buffer once
// the caller drops its last reference.
func (h *Heap) Free([]byte) {}

// Alignment implements Backend.
func (h *Heap) Alignment() int {
	return HeapAlignment
}
