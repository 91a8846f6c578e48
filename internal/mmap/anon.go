package mmap

import (
	"os"
)

// PageSize returns the operating system page size. Every mapping starts on a
// multiple of it.
func PageSize() int {
	return os.Getpagesize()
}

// MapAnon creates a private read-write anonymous mapping of size bytes.
// The returned slice has len == cap == size and is zero-filled.
func MapAnon(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return osMapAnon(size)
}

// Remap resizes the mapping b to size bytes. The mapping may move; the first
// min(len(b), size) bytes are preserved. On error b remains valid.
func Remap(b []byte, size int) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrNotMapped
	}
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	if size == len(b) {
		return b, nil
	}
	return osRemap(b, size)
}

// Unmap releases a mapping returned by MapAnon or Remap.
func Unmap(b []byte) error {
	if len(b) == 0 {
		return ErrNotMapped
	}
	return osUnmap(b)
}

// remapByCopy is the portable Remap: map, copy, unmap.
func remapByCopy(b []byte, size int) ([]byte, error) {
	nb, err := osMapAnon(size)
	if err != nil {
		return nil, err
	}

	copy(nb, b)

	if err := osUnmap(b); err != nil {
		_ = osUnmap(nb)
		return nil, err
	}

	return nb, nil
}
