//go:build darwin

package backend

import (
	"golang.org/x/sys/unix"
)

// physicalMemory returns installed RAM in bytes, or 0 if unknown. Swap on
// darwin grows on demand and is not counted.
func physicalMemory() uint64 {
	total, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return 0
	}
	return total
}
