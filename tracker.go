package alignedalloc

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/alignedalloc/internal/mem"
)

// Tracker records the address of every live buffer handed out by the wrapped
// Allocator. Reallocating or freeing a buffer it does not know panics with a
// ContractError, which catches double frees and foreign buffers even when the
// memory has been returned to the backend.
//
// Tracker is safe for concurrent use.
type Tracker struct {
	next Allocator

	mu   sync.Mutex
	live *roaring64.Bitmap
}

var _ Allocator = (*Tracker)(nil)

// NewTracker wraps next.
func NewTracker(next Allocator) *Tracker {
	return &Tracker{
		next: next,
		live: roaring64.New(),
	}
}

// Allocate implements Allocator.
func (t *Tracker) Allocate(size, alignment int) ([]byte, error) {
	buf, err := t.next.Allocate(size, alignment)
	if cap(buf) != 0 {
		t.add(buf)
	}
	return buf, err
}

// Reallocate implements Allocator.
func (t *Tracker) Reallocate(buf []byte, size, alignment int) ([]byte, int, error) {
	owned := cap(buf) != 0
	if owned {
		// Released before the call: the wrapped allocator may hand the same
		// address to another goroutine as soon as it frees buf.
		t.take(opReallocate, buf)
	}

	nb, orig, err := t.next.Reallocate(buf, size, alignment)
	if err != nil {
		if owned {
			t.add(buf)
		}
		return nil, orig, err
	}

	if cap(nb) != 0 {
		t.add(nb)
	}
	return nb, orig, nil
}

// Free implements Allocator.
func (t *Tracker) Free(buf []byte) int {
	if cap(buf) == 0 {
		return 0
	}

	t.take(opFree, buf)
	return t.next.Free(buf)
}

// Live returns the number of outstanding buffers.
func (t *Tracker) Live() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live.GetCardinality()
}

// Leaks returns the addresses of all outstanding buffers in ascending order.
func (t *Tracker) Leaks() []uintptr {
	t.mu.Lock()
	addrs := t.live.ToArray()
	t.mu.Unlock()

	leaks := make([]uintptr, len(addrs))
	for i, a := range addrs {
		leaks[i] = uintptr(a)
	}
	return leaks
}

func (t *Tracker) add(buf []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live.Add(uint64(mem.Addr(buf)))
}

// take removes buf from the live set or panics if it is not there.
func (t *Tracker) take(op string, buf []byte) {
	addr := mem.Addr(buf)

	t.mu.Lock()
	ok := t.live.CheckedRemove(uint64(addr))
	t.mu.Unlock()

	if !ok {
		panic(&ContractError{Op: op, Addr: addr, cause: ErrForeignBuffer})
	}
}
