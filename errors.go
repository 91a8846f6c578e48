package alignedalloc

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory is returned when the backend cannot satisfy a request.
	// Any existing allocation involved in the call is left intact.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrForeignBuffer is the cause of a ContractError raised for a buffer
	// that was not returned by the allocator or was already released.
	ErrForeignBuffer = errors.New("foreign or released buffer")

	// ErrNegativeSize is the cause of a ContractError raised for a negative size.
	ErrNegativeSize = errors.New("negative size")

	errSizeOverflow = errors.New("size overflows the address space")
)

// AllocError reports a failed allocation. It matches ErrOutOfMemory with
// errors.Is; the backend failure can be accessed via errors.Unwrap.
type AllocError struct {
	Op        string
	Size      int
	Alignment int
	cause     error
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("%s %d bytes (alignment %d): %v: %v", e.Op, e.Size, e.Alignment, ErrOutOfMemory, e.cause)
}

func (e *AllocError) Unwrap() error { return e.cause }

// Is reports whether target is ErrOutOfMemory.
func (e *AllocError) Is(target error) bool { return target == ErrOutOfMemory }

// AlignmentError is the panic value for an alignment that is not a positive
// power of two. It indicates a bug in the caller.
type AlignmentError struct {
	Op        string
	Alignment int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("%s: alignment %d is not a power of two", e.Op, e.Alignment)
}

// ContractError is the panic value for a misuse of the allocator contract,
// such as releasing a foreign buffer. It indicates a bug in the caller.
//
// The original underlying error can be accessed via errors.Unwrap.
type ContractError struct {
	Op    string
	Addr  uintptr
	cause error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s %#x: %v", e.Op, e.Addr, e.cause)
}

func (e *ContractError) Unwrap() error { return e.cause }
