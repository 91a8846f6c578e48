package alignedalloc

import (
	"log/slog"

	"github.com/hupe1980/alignedalloc/internal/mem"
	"github.com/hupe1980/alignedalloc/internal/resource"
)

// ScopedAllocator is implemented by allocators that accept a diagnostic
// scope with each request.
type ScopedAllocator interface {
	AllocateScope(size, alignment int, scope Scope) ([]byte, error)
	ReallocateScope(buf []byte, size, alignment int, scope Scope) ([]byte, int, error)
}

// InternalObserver is implemented by allocators that want the host's
// notifications about memory it allocated on its own.
type InternalObserver interface {
	InternalAllocation(size int, typ InternalAllocationType, scope Scope)
	InternalFree(size int, typ InternalAllocationType, scope Scope)
}

// Debug logs every operation of the wrapped Allocator, tagged with a source
// string that identifies the call site. It does not change allocation
// behavior.
type Debug struct {
	next   Allocator
	logger *Logger
	rc     *resource.Controller
}

var (
	_ Allocator        = (*Debug)(nil)
	_ ScopedAllocator  = (*Debug)(nil)
	_ InternalObserver = (*Debug)(nil)
)

// DebugOption configures a Debug decorator.
type DebugOption func(*debugOptions)

type debugOptions struct {
	logger       *Logger
	eventsPerSec float64
	eventBurst   int
}

// WithDebugLogger sets the logger records are written to.
//
// If nil is passed, a text logger to stderr at debug level is used.
func WithDebugLogger(l *Logger) DebugOption {
	return func(o *debugOptions) {
		o.logger = l
	}
}

// WithDebugEventLimit caps the sustained rate of log records. Records over
// the limit are dropped and counted (see Dropped). perSec <= 0 is unlimited.
func WithDebugEventLimit(perSec float64, burst int) DebugOption {
	return func(o *debugOptions) {
		o.eventsPerSec = perSec
		o.eventBurst = burst
	}
}

// NewDebug wraps next. src is attached to every record; it should identify
// the call site, e.g. "renderer.go:42".
func NewDebug(next Allocator, src string, optFns ...DebugOption) *Debug {
	o := debugOptions{}
	for _, fn := range optFns {
		fn(&o)
	}

	if o.logger == nil {
		o.logger = NewTextLogger(slog.LevelDebug)
	}

	return &Debug{
		next:   next,
		logger: o.logger.WithSource(src),
		rc: resource.NewController(resource.Config{
			EventsPerSec: o.eventsPerSec,
			EventBurst:   o.eventBurst,
		}),
	}
}

// Allocate implements Allocator.
func (d *Debug) Allocate(size, alignment int) ([]byte, error) {
	return d.AllocateScope(size, alignment, ScopeUnspecified)
}

// AllocateScope implements ScopedAllocator.
func (d *Debug) AllocateScope(size, alignment int, scope Scope) ([]byte, error) {
	var (
		buf []byte
		err error
	)
	if s, ok := d.next.(ScopedAllocator); ok {
		buf, err = s.AllocateScope(size, alignment, scope)
	} else {
		buf, err = d.next.Allocate(size, alignment)
	}

	if d.rc.AllowEvent() {
		d.logger.LogAllocate(buf, size, alignment, scope, err)
	}
	return buf, err
}

// Reallocate implements Allocator.
func (d *Debug) Reallocate(buf []byte, size, alignment int) ([]byte, int, error) {
	return d.ReallocateScope(buf, size, alignment, ScopeUnspecified)
}

// ReallocateScope implements ScopedAllocator.
func (d *Debug) ReallocateScope(buf []byte, size, alignment int, scope Scope) ([]byte, int, error) {
	oldAddr := mem.Addr(buf)

	var (
		nb   []byte
		orig int
		err  error
	)
	if s, ok := d.next.(ScopedAllocator); ok {
		nb, orig, err = s.ReallocateScope(buf, size, alignment, scope)
	} else {
		nb, orig, err = d.next.Reallocate(buf, size, alignment)
	}

	if d.rc.AllowEvent() {
		d.logger.LogReallocate(oldAddr, nb, orig, size, alignment, scope, err)
	}
	return nb, orig, err
}

// Free implements Allocator.
func (d *Debug) Free(buf []byte) int {
	addr := mem.Addr(buf)
	size := d.next.Free(buf)

	if d.rc.AllowEvent() {
		d.logger.LogFree(addr, size)
	}
	return size
}

// InternalAllocation implements InternalObserver.
func (d *Debug) InternalAllocation(size int, typ InternalAllocationType, scope Scope) {
	if d.rc.AllowEvent() {
		d.logger.LogInternal("internal allocation", size, typ, scope)
	}
}

// InternalFree implements InternalObserver.
func (d *Debug) InternalFree(size int, typ InternalAllocationType, scope Scope) {
	if d.rc.AllowEvent() {
		d.logger.LogInternal("internal free", size, typ, scope)
	}
}

// Dropped returns the number of records suppressed by the event limit.
func (d *Debug) Dropped() int64 {
	return d.rc.DroppedEvents()
}
