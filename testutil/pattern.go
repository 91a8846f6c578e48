package testutil

// patternByte is the byte at index i of the pattern for seed. Neighboring
// bytes differ, so a payload shifted by any offset does not match.
func patternByte(seed uint64, i int) byte {
	x := seed + uint64(i)*0x9E3779B97F4A7C15 //nolint:gosec // i is non-negative
	x ^= x >> 29
	return byte(x)
}

// FillPattern writes the pattern for seed into buf.
func FillPattern(buf []byte, seed uint64) {
	for i := range buf {
		buf[i] = patternByte(seed, i)
	}
}

// CheckPattern returns the index of the first byte of buf that does not match
// the pattern for seed, or -1 if all bytes match.
func CheckPattern(buf []byte, seed uint64) int {
	for i, b := range buf {
		if b != patternByte(seed, i) {
			return i
		}
	}
	return -1
}
