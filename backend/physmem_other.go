//go:build !linux && !darwin

package backend

// physicalMemory is unknown here; Heap falls back to MaxHeapAlloc.
func physicalMemory() uint64 {
	return 0
}
