package alignedalloc

import (
	"github.com/hupe1980/alignedalloc/backend"
)

type options struct {
	backend              backend.Backend
	fastPathMaxAlignment int
	fastPathSet          bool
	metricsCollector     MetricsCollector
}

// Option configures an Aligned allocator.
type Option func(*options)

// WithBackend sets the unaligned primitive the allocator draws from.
//
// If nil is passed, the Go heap backend is used.
func WithBackend(b backend.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithFastPathMaxAlignment sets the largest alignment for which Reallocate
// resizes the outer buffer through the backend instead of allocating a fresh
// buffer and copying.
//
// The default is the backend's baseline alignment: below it every buffer the
// backend returns is already aligned, so the inner offset survives a moving
// resize. Larger values are still correct (a buffer that moved to a different
// residue is shifted into place) but may copy twice. A value <= 0 disables
// the fast path.
func WithFastPathMaxAlignment(n int) Option {
	return func(o *options) {
		o.fastPathMaxAlignment = n
		o.fastPathSet = true
	}
}

// WithMetricsCollector sets the collector notified after every operation.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}
