// Package mmap provides anonymous memory mappings for off-heap allocation.
//
// # Overview
//
// Anonymous mappings give the allocator buffers that live outside the Go
// garbage collector and start on a page boundary. They are released
// explicitly with Unmap.
//
// # Usage
//
//	b, err := mmap.MapAnon(1 << 20)
//	if err != nil { ... }
//	defer mmap.Unmap(b)
//
//	// Grow or shrink; the mapping may move.
//	b, err = mmap.Remap(b, 2 << 20)
//
// # Platform Support
//
//   - Linux: mmap(2), mremap(2) with MREMAP_MAYMOVE, munmap(2)
//   - Other Unix (macOS, BSD): mmap(2) and munmap(2); Remap maps, copies and unmaps
//   - Windows: VirtualAlloc/VirtualFree; Remap maps, copies and frees
//
// # Thread Safety
//
// All functions are safe for concurrent use on distinct mappings. A mapping
// must not be accessed after Unmap or a successful Remap returns.
package mmap
