//go:build windows

package mmap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func osMapAnon(size int) ([]byte, error) {
	// MEM_COMMIT is demand-paged: pages are backed by physical memory on first
	// touch, which avoids "paging file is too small" on small CI runners.
	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil //nolint:govet,gosec // VirtualAlloc memory is not Go-managed
}

func osUnmap(b []byte) error {
	// MEM_RELEASE frees the entire region.
	return windows.VirtualFree(uintptr(unsafe.Pointer(unsafe.SliceData(b))), 0, windows.MEM_RELEASE) //nolint:gosec // address of the region base
}
