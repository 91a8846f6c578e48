package mmap

import "errors"

var (
	// ErrInvalidSize is returned when a mapping size is not positive.
	ErrInvalidSize = errors.New("mmap: invalid mapping size")
	// ErrNotMapped is returned when an empty slice is passed where a mapping is expected.
	ErrNotMapped = errors.New("mmap: not a mapping")
)
