package alignedalloc

import (
	"fmt"
	"math"

	"github.com/hupe1980/alignedalloc/backend"
	"github.com/hupe1980/alignedalloc/internal/header"
	"github.com/hupe1980/alignedalloc/internal/mem"
)

// HeaderSize is the number of bookkeeping bytes stored before every buffer.
const HeaderSize = header.Size

const (
	opAllocate   = "allocate"
	opReallocate = "reallocate"
	opFree       = "free"
)

// Allocator is an alignment-aware allocator.
//
// A nil or zero-capacity buffer stands for "no allocation": Allocate returns
// it for size 0, Reallocate treats it as Allocate, Free ignores it.
type Allocator interface {
	// Allocate returns a buffer of size bytes whose first element is aligned
	// to alignment, or nil for size 0. alignment must be a power of two.
	Allocate(size, alignment int) ([]byte, error)

	// Reallocate resizes buf, preserving its first min(old, size) bytes, and
	// reports the size buf was allocated with. buf must not be used after a
	// successful call. On error buf is unchanged and still owned by the caller.
	Reallocate(buf []byte, size, alignment int) (newBuf []byte, originalSize int, err error)

	// Free releases buf and reports the size it was allocated with.
	Free(buf []byte) (originalSize int)
}

// Aligned implements Allocator on top of a backend.Backend.
type Aligned struct {
	backend              backend.Backend
	fastPathMaxAlignment int
	metrics              MetricsCollector
}

var _ Allocator = (*Aligned)(nil)

// New creates an aligned allocator.
func New(optFns ...Option) *Aligned {
	o := options{}
	for _, fn := range optFns {
		fn(&o)
	}

	if o.backend == nil {
		o.backend = backend.NewHeap()
	}
	if !o.fastPathSet {
		o.fastPathMaxAlignment = o.backend.Alignment()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}

	return &Aligned{
		backend:              o.backend,
		fastPathMaxAlignment: o.fastPathMaxAlignment,
		metrics:              o.metricsCollector,
	}
}

// Backend returns the backend the allocator draws from.
func (a *Aligned) Backend() backend.Backend {
	return a.backend
}

// FastPathMaxAlignment returns the largest alignment served by the in-place
// reallocation strategy (<= 0 when disabled).
func (a *Aligned) FastPathMaxAlignment() int {
	return a.fastPathMaxAlignment
}

// Allocate implements Allocator.
func (a *Aligned) Allocate(size, alignment int) ([]byte, error) {
	checkArgs(opAllocate, size, alignment)

	buf, err := a.allocate(opAllocate, size, alignment)
	a.metrics.RecordAllocate(size, alignment, err)
	return buf, err
}

// Reallocate implements Allocator.
func (a *Aligned) Reallocate(buf []byte, size, alignment int) ([]byte, int, error) {
	checkArgs(opReallocate, size, alignment)

	if cap(buf) == 0 {
		nb, err := a.allocate(opReallocate, size, alignment)
		a.metrics.RecordReallocate(PathAllocate, 0, size, err)
		return nb, 0, err
	}

	if size == 0 {
		orig := a.free(opReallocate, buf)
		a.metrics.RecordReallocate(PathFree, orig, 0, nil)
		return nil, orig, nil
	}

	h, outer := lookup(opReallocate, buf)

	var (
		nb   []byte
		path ReallocPath
		err  error
	)
	if a.fastPathEligible(h, alignment) {
		nb, path, err = a.reallocateFast(h, outer, size, alignment)
	} else {
		path = PathSlow
		nb, err = a.reallocateSlow(h, outer, size, alignment)
	}

	a.metrics.RecordReallocate(path, h.Size, size, err)
	return nb, h.Size, err
}

// Free implements Allocator.
func (a *Aligned) Free(buf []byte) int {
	if cap(buf) == 0 {
		return 0
	}

	size := a.free(opFree, buf)
	a.metrics.RecordFree(size)
	return size
}

func (a *Aligned) allocate(op string, size, alignment int) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}

	total, err := outerLen(size, alignment)
	if err != nil {
		return nil, &AllocError{Op: op, Size: size, Alignment: alignment, cause: err}
	}

	outer, err := a.backend.Alloc(total)
	if err != nil {
		return nil, &AllocError{Op: op, Size: size, Alignment: alignment, cause: err}
	}

	return place(outer, mem.InnerOffset(outer, HeaderSize, alignment), size), nil
}

// fastPathEligible reports whether an in-place resize can serve the request.
// The old inner offset must fit the padding budget of the new outer buffer,
// otherwise the preserved bytes could fall outside it.
func (a *Aligned) fastPathEligible(h header.Header, alignment int) bool {
	return alignment <= a.fastPathMaxAlignment && h.Offset <= HeaderSize+alignment
}

// reallocateFast resizes the outer buffer through the backend. The backend
// preserves the outer bytes, so the payload sits at the old offset of the new
// buffer; if the new buffer has a different residue modulo alignment the
// payload is shifted to the new aligned offset.
func (a *Aligned) reallocateFast(h header.Header, outer []byte, size, alignment int) ([]byte, ReallocPath, error) {
	total, err := outerLen(size, alignment)
	if err != nil {
		return nil, PathFast, &AllocError{Op: opReallocate, Size: size, Alignment: alignment, cause: err}
	}

	newOuter, err := a.backend.Resize(outer, total)
	if err != nil {
		return nil, PathFast, &AllocError{Op: opReallocate, Size: size, Alignment: alignment, cause: err}
	}

	path := PathFast
	off := mem.InnerOffset(newOuter, HeaderSize, alignment)
	if off != h.Offset {
		n := min(h.Size, size)
		copy(newOuter[off:off+n], newOuter[h.Offset:h.Offset+n])
		path = PathFastRealign
	}

	nb := place(newOuter, off, size)
	if !mem.IsAligned(nb, alignment) {
		panic(fmt.Sprintf("alignedalloc: fast path produced %#x for alignment %d", mem.Addr(nb), alignment))
	}
	return nb, path, nil
}

// reallocateSlow allocates, copies and frees. The backend's resize is never
// used here: a resize that breaks alignment followed by a failed fallback
// allocation would leave no valid buffer to return.
func (a *Aligned) reallocateSlow(h header.Header, outer []byte, size, alignment int) ([]byte, error) {
	nb, err := a.allocate(opReallocate, size, alignment)
	if err != nil {
		return nil, err
	}

	copy(nb, outer[h.Offset:h.Offset+h.Size])

	header.Invalidate(outer[h.Offset-HeaderSize : h.Offset])
	a.backend.Free(outer)

	return nb, nil
}

func (a *Aligned) free(op string, buf []byte) int {
	h, outer := lookup(op, buf)

	header.Invalidate(outer[h.Offset-HeaderSize : h.Offset])
	a.backend.Free(outer)

	return h.Size
}

// lookup decodes the header before buf and rebuilds the outer buffer.
func lookup(op string, buf []byte) (header.Header, []byte) {
	h, err := header.Get(mem.Rebase(buf, HeaderSize, HeaderSize))
	if err != nil {
		panic(&ContractError{Op: op, Addr: mem.Addr(buf), cause: fmt.Errorf("%w: %w", ErrForeignBuffer, err)})
	}
	return h, mem.Rebase(buf, h.Offset, h.OuterLen)
}

// place writes the header for an inner buffer at off and returns the inner
// buffer, capped so the caller cannot reach past it.
func place(outer []byte, off, size int) []byte {
	header.Put(outer[off-HeaderSize:off], header.Header{
		Offset:   off,
		OuterLen: len(outer),
		Size:     size,
	})
	return outer[off : off+size : off+size]
}

// outerLen is the backend request for a buffer. Rounding up to alignment
// shifts the inner start by at most alignment-1 bytes, and the header is
// budgeted separately.
func outerLen(size, alignment int) (int, error) {
	if size > math.MaxInt-alignment-HeaderSize {
		return 0, errSizeOverflow
	}
	return alignment + HeaderSize + size, nil
}

func checkArgs(op string, size, alignment int) {
	if !mem.IsPowerOfTwo(alignment) {
		panic(&AlignmentError{Op: op, Alignment: alignment})
	}
	if size < 0 {
		panic(&ContractError{Op: op, cause: ErrNegativeSize})
	}
}
