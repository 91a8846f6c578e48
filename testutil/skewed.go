package testutil

import (
	"sync"

	"github.com/hupe1980/alignedalloc/backend"
	"github.com/hupe1980/alignedalloc/internal/mem"
)

// SkewedBackend returns buffers that start skew bytes past an address aligned
// to 2*span, where span is the next power of two above skew. Alloc and Resize
// alternate between skew and 0, so every Resize lands at a different residue
// than the buffer it replaces.
//
// Alignment reports the largest power of two dividing skew (the true
// baseline), which lets callers configure fast paths above it on purpose.
type SkewedBackend struct {
	next backend.Backend
	skew int
	span int

	mu      sync.Mutex
	flip    bool
	parents map[uintptr][]byte // inner address -> backing buffer
}

// NewSkewedBackend wraps next. skew must be positive.
func NewSkewedBackend(next backend.Backend, skew int) *SkewedBackend {
	span := 1
	for span <= skew {
		span <<= 1
	}
	return &SkewedBackend{
		next:    next,
		skew:    skew,
		span:    span,
		parents: make(map[uintptr][]byte),
	}
}

// Alloc implements backend.Backend.
func (s *SkewedBackend) Alloc(n int) ([]byte, error) {
	s.mu.Lock()
	s.flip = !s.flip
	shift := 0
	if s.flip {
		shift = s.skew
	}
	s.mu.Unlock()

	align := 2 * s.span
	parent, err := s.next.Alloc(n + align + s.skew)
	if err != nil {
		return nil, err
	}

	off := mem.InnerOffset(parent, 0, align) + shift
	buf := parent[off : off+n : off+n]

	s.mu.Lock()
	s.parents[mem.Addr(buf)] = parent
	s.mu.Unlock()

	return buf, nil
}

// Resize implements backend.Backend. It always relocates.
func (s *SkewedBackend) Resize(buf []byte, n int) ([]byte, error) {
	nb, err := s.Alloc(n)
	if err != nil {
		return nil, err
	}
	copy(nb, buf)
	s.Free(buf)
	return nb, nil
}

// Free implements backend.Backend.
func (s *SkewedBackend) Free(buf []byte) {
	s.mu.Lock()
	parent, ok := s.parents[mem.Addr(buf)]
	delete(s.parents, mem.Addr(buf))
	s.mu.Unlock()

	if ok {
		s.next.Free(parent)
	}
}

// Alignment implements backend.Backend.
func (s *SkewedBackend) Alignment() int {
	return s.skew & -s.skew
}

// Outstanding returns the number of buffers not yet freed.
func (s *SkewedBackend) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.parents)
}
