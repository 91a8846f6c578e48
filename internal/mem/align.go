package mem

import (
	"unsafe"
)

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// AlignUp rounds addr up to the next multiple of alignment.
// alignment must be a power of two.
func AlignUp(addr, alignment uintptr) uintptr {
	return (addr + alignment - 1) &^ (alignment - 1)
}

// Addr returns the address of the first byte of b, or 0 if b has no backing array.
func Addr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b))) //nolint:gosec // unsafe is required for memory alignment
}

// IsAligned reports whether b starts at an address divisible by alignment.
func IsAligned(b []byte, alignment int) bool {
	return Addr(b)&(uintptr(alignment)-1) == 0
}

// InnerOffset returns the smallest offset o >= reserve such that &outer[o] is
// a multiple of alignment. The caller guarantees the result lies inside outer.
func InnerOffset(outer []byte, reserve, alignment int) int {
	base := Addr(outer)
	return int(AlignUp(base+uintptr(reserve), uintptr(alignment)) - base) //nolint:gosec // offset is bounded by reserve+alignment
}

// Rebase returns the length-byte slice that starts back bytes before the
// first element of b. Both slices must belong to the same underlying
// allocation; walking outside it is undefined.
func Rebase(b []byte, back, length int) []byte {
	p := unsafe.Add(unsafe.Pointer(unsafe.SliceData(b)), -back) //nolint:gosec // unsafe is required to reach the header
	return unsafe.Slice((*byte)(p), length)
}
