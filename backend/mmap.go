package backend

import (
	"fmt"

	"github.com/hupe1980/alignedalloc/internal/mmap"
)

// Mmap allocates every buffer as its own anonymous mapping. Buffers live
// outside the garbage collector and must be released with Free.
type Mmap struct {
	pageSize int
}

// NewMmap returns an anonymous-mapping backend.
func NewMmap() *Mmap {
	return &Mmap{pageSize: mmap.PageSize()}
}

// Alloc implements Backend.
func (m *Mmap) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}

	b, err := mmap.MapAnon(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExhausted, err)
	}
	return b, nil
}

// Resize implements Backend.
func (m *Mmap) Resize(buf []byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}

	b, err := mmap.Remap(buf, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExhausted, err)
	}
	return b, nil
}

// Free implements Backend. Unmapping a buffer that is not a live mapping is a
// caller bug and panics.
func (m *Mmap) Free(buf []byte) {
	if err := mmap.Unmap(buf); err != nil {
		panic(fmt.Sprintf("backend: unmap failed: %v", err))
	}
}

// Alignment implements Backend.
func (m *Mmap) Alignment() int {
	return m.pageSize
}
