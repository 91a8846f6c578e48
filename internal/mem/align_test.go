package mem

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPowerOfTwo(t *testing.T) {
	for shift := 0; shift < 31; shift++ {
		assert.True(t, IsPowerOfTwo(1<<shift), "1<<%d", shift)
	}

	for _, n := range []int{0, -1, -8, 3, 6, 12, 65535, 65537} {
		assert.False(t, IsPowerOfTwo(n), "%d", n)
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		addr, alignment, want uintptr
	}{
		{0, 1, 0},
		{7, 1, 7},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{4095, 4096, 4096},
		{4097, 4096, 8192},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AlignUp(tt.addr, tt.alignment), "AlignUp(%d, %d)", tt.addr, tt.alignment)
	}
}

func TestInnerOffset(t *testing.T) {
	const reserve = 32

	for _, alignment := range []int{1, 2, 8, 64, 4096} {
		outer := make([]byte, reserve+alignment+16)
		off := InnerOffset(outer, reserve, alignment)

		assert.GreaterOrEqual(t, off, reserve)
		assert.Less(t, off, reserve+alignment)
		assert.True(t, IsAligned(outer[off:], alignment), "alignment %d", alignment)
	}
}

func TestRebase(t *testing.T) {
	outer := []byte("0123456789")
	inner := outer[4:6]

	back := Rebase(inner, 4, len(outer))
	require.Len(t, back, len(outer))
	assert.Equal(t, "0123456789", string(back))
	assert.Equal(t, Addr(outer), Addr(back))

	assert.Equal(t, "23", string(Rebase(inner, 2, 2)))
}

func TestAddr(t *testing.T) {
	assert.Equal(t, uintptr(0), Addr(nil))

	b := make([]byte, 8)
	assert.Equal(t, Addr(b)+3, Addr(b[3:]))
}

func BenchmarkInnerOffset(b *testing.B) {
	alignments := []int{8, 64, 4096}
	for _, alignment := range alignments {
		b.Run(fmt.Sprintf("alignment=%d", alignment), func(b *testing.B) {
			outer := make([]byte, 64+alignment)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = InnerOffset(outer, 32, alignment)
			}
		})
	}
}
