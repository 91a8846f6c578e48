// Package mem provides alignment arithmetic and address helpers for raw byte
// buffers.
//
// # Aligned Offsets
//
// The allocator over-allocates an outer buffer and hands out a sub-slice that
// starts at an aligned address. InnerOffset computes where that sub-slice
// starts; Rebase walks back from an inner slice to the enclosing outer buffer.
package mem
