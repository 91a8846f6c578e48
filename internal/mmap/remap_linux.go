//go:build linux

package mmap

import (
	"golang.org/x/sys/unix"
)

func osRemap(b []byte, size int) ([]byte, error) {
	return unix.Mremap(b, size, unix.MREMAP_MAYMOVE)
}
