package alignedalloc

import (
	"sync/atomic"
)

// ReallocPath identifies how a Reallocate call was served.
type ReallocPath int

const (
	// PathAllocate: the input buffer was nil, the call allocated.
	PathAllocate ReallocPath = iota
	// PathFree: the new size was 0, the call freed.
	PathFree
	// PathFast: the backend resized the outer buffer and the inner offset held.
	PathFast
	// PathFastRealign: the backend resized the outer buffer and the payload
	// had to be shifted to a new aligned offset.
	PathFastRealign
	// PathSlow: a fresh buffer was allocated, filled and the original freed.
	PathSlow
)

func (p ReallocPath) String() string {
	switch p {
	case PathAllocate:
		return "allocate"
	case PathFree:
		return "free"
	case PathFast:
		return "fast"
	case PathFastRealign:
		return "fast-realign"
	case PathSlow:
		return "slow"
	default:
		return "unknown"
	}
}

// MetricsCollector defines an interface for collecting allocator metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    allocCounter prometheus.Counter
//	    liveBytes    prometheus.Gauge
//	}
//
//	func (p *PrometheusCollector) RecordAllocate(size, alignment int, err error) {
//	    p.allocCounter.Inc()
//	    if err == nil {
//	        p.liveBytes.Add(float64(size))
//	    }
//	}
type MetricsCollector interface {
	// RecordAllocate is called after each Allocate; err is nil if successful.
	RecordAllocate(size, alignment int, err error)

	// RecordReallocate is called after each Reallocate with the strategy that
	// served it, the size the buffer had and the size requested.
	RecordReallocate(path ReallocPath, oldSize, newSize int, err error)

	// RecordFree is called after each Free of a non-nil buffer.
	RecordFree(size int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAllocate(int, int, error)                {}
func (NoopMetricsCollector) RecordReallocate(ReallocPath, int, int, error) {}
func (NoopMetricsCollector) RecordFree(int)                                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AllocateCount    atomic.Int64
	AllocateErrors   atomic.Int64
	ReallocateCount  atomic.Int64
	ReallocateErrors atomic.Int64
	FastPathCount    atomic.Int64
	RealignCount     atomic.Int64
	SlowPathCount    atomic.Int64
	FreeCount        atomic.Int64
	LiveBytes        atomic.Int64
}

// RecordAllocate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAllocate(size, _ int, err error) {
	b.AllocateCount.Add(1)
	if err != nil {
		b.AllocateErrors.Add(1)
		return
	}
	b.LiveBytes.Add(int64(size))
}

// RecordReallocate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReallocate(path ReallocPath, oldSize, newSize int, err error) {
	b.ReallocateCount.Add(1)

	switch path {
	case PathFast:
		b.FastPathCount.Add(1)
	case PathFastRealign:
		b.FastPathCount.Add(1)
		b.RealignCount.Add(1)
	case PathSlow:
		b.SlowPathCount.Add(1)
	}

	if err != nil {
		b.ReallocateErrors.Add(1)
		return
	}
	b.LiveBytes.Add(int64(newSize) - int64(oldSize))
}

// RecordFree implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFree(size int) {
	b.FreeCount.Add(1)
	b.LiveBytes.Add(-int64(size))
}
