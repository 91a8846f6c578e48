// Package alignedalloc provides an aligned memory allocator built on top of
// an unaligned allocate/resize/free primitive.
//
// Many host APIs accept custom allocation hooks and demand that every buffer
// honors a caller-specified power-of-two alignment, that reallocation keeps
// both alignment and content, and that exhaustion is reported instead of
// aborting. Aligned implements that contract over any backend.Backend.
//
// # Quick Start
//
//	a := alignedalloc.New()
//
//	buf, err := a.Allocate(65536, 4096)      // 4 KiB aligned, 64 KiB long
//	if err != nil { ... }                   // errors.Is(err, alignedalloc.ErrOutOfMemory)
//
//	buf, orig, err := a.Reallocate(buf, 131072, 4096) // orig == 65536
//	size := a.Free(buf)                     // size == 131072
//
// # Layout
//
// Each allocation over-allocates an outer buffer from the backend and hands
// out an aligned sub-slice. A fixed-size header sits immediately before the
// sub-slice:
//
//	.---------.--------.----------------.---------.
//	| padding | header | requested size | padding |
//	'---------'--------'----------------'---------'
//	^                  ^
//	outer              inner (aligned, returned to the caller)
//
// The returned slice is capped at the requested size, so the header and the
// padding are never reachable through it.
//
// # Reallocation Strategies
//
// For alignments up to the configured fast-path bound (the backend's baseline
// alignment by default, see WithFastPathMaxAlignment) Reallocate resizes the
// outer buffer in place through the backend. Above the bound it allocates a
// fresh buffer, copies, and frees the original, so the original stays valid
// if the fresh allocation fails. Both strategies are observably equivalent.
//
// # Decorators
//
//   - Debug logs every operation with a source tag via log/slog
//   - Tracker records live buffers and panics on foreign or double frees
//   - Callbacks adapts any Allocator to a host hook table
//
// # Thread Safety
//
// Aligned is stateless and safe for concurrent use on distinct buffers.
// Concurrent Reallocate or Free of the same buffer is a caller bug.
package alignedalloc
