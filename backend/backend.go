// Package backend provides the unaligned allocation primitives the aligned
// allocator is built on.
//
// A Backend hands out buffers with a fixed baseline alignment and knows
// nothing about caller alignment. Resize may move a buffer and gives no
// alignment guarantee for the new location beyond the baseline.
//
// # Implementations
//
//   - Heap: Go heap buffers, reclaimed by the garbage collector
//   - Mmap: anonymous OS mappings, page aligned, released explicitly
//   - Limited: a byte budget in front of any Backend
//   - Faulty: fault injection in front of any Backend
//
// # Exhaustion
//
// Every implementation reports exhaustion with an error wrapping
// ErrExhausted and leaves the input buffer untouched when Resize fails.
package backend

import (
	"errors"
)

var (
	// ErrExhausted is returned when a backend cannot satisfy a request.
	ErrExhausted = errors.New("backend: exhausted")
	// ErrInvalidSize is returned for a non-positive request size.
	ErrInvalidSize = errors.New("backend: invalid size")
)

// Backend is an unaligned allocate/resize/free primitive.
type Backend interface {
	// Alloc returns a buffer with len == cap == n.
	Alloc(n int) ([]byte, error)

	// Resize returns a buffer of length n holding the first min(len(buf), n)
	// bytes of buf. The buffer may move. On error buf remains valid.
	Resize(buf []byte, n int) ([]byte, error)

	// Free releases a buffer returned by Alloc or Resize.
	Free(buf []byte)

	// Alignment is the baseline alignment of every returned buffer.
	Alignment() int
}
