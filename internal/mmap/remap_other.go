//go:build !linux

package mmap

func osRemap(b []byte, size int) ([]byte, error) {
	return remapByCopy(b, size)
}
