package alignedalloc

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/hupe1980/alignedalloc/internal/mem"
)

// ErrSelfTest is wrapped by every failure reported by SelfTest.
var ErrSelfTest = errors.New("self test failed")

const helloWorld = "Hello world"

// SelfTest runs a sanity suite against a and returns the first violation:
//
//   - a zero-size allocation is nil
//   - size 1 at every alignment from 1 to 65536 is aligned and frees with size 1
//   - sizes 65280..65792 at alignment 65536 are aligned and free with their size
//   - at alignments 1, 4, 8 and 4096 a 64 KiB buffer keeps "Hello world" across
//     a same-size, a doubling and a halving reallocation, with exact original
//     sizes reported throughout
//
// Buffers are released before SelfTest returns, also on failure.
func SelfTest(a Allocator) error {
	if buf, err := a.Allocate(0, 1); err != nil || buf != nil {
		return fmt.Errorf("%w: allocate(0, 1) = %v, %v; want nil, nil", ErrSelfTest, buf, err)
	}

	for alignment := 1; alignment <= 65536; alignment *= 2 {
		if err := checkAllocate(a, 1, alignment); err != nil {
			return err
		}
	}

	const alignment = 65536
	for size := alignment - 256; size <= alignment+256; size++ {
		if err := checkAllocate(a, size, alignment); err != nil {
			return err
		}
	}

	for _, alignment := range []int{1, 4, 8, 4096} {
		if err := checkRoundTrip(a, 65536, alignment); err != nil {
			return err
		}
	}

	return nil
}

func checkAllocate(a Allocator, size, alignment int) error {
	buf, err := a.Allocate(size, alignment)
	if err != nil {
		return fmt.Errorf("%w: allocate(%d, %d): %w", ErrSelfTest, size, alignment, err)
	}
	if len(buf) != size {
		a.Free(buf)
		return fmt.Errorf("%w: allocate(%d, %d) returned %d bytes", ErrSelfTest, size, alignment, len(buf))
	}
	if !mem.IsAligned(buf, alignment) {
		a.Free(buf)
		return fmt.Errorf("%w: allocate(%d, %d) returned misaligned %#x", ErrSelfTest, size, alignment, mem.Addr(buf))
	}

	for i := range buf {
		buf[i] = 0xff
	}

	if orig := a.Free(buf); orig != size {
		return fmt.Errorf("%w: free after allocate(%d, %d) reported size %d", ErrSelfTest, size, alignment, orig)
	}
	return nil
}

func checkRoundTrip(a Allocator, size, alignment int) (err error) {
	buf, err := a.Allocate(size, alignment)
	if err != nil {
		return fmt.Errorf("%w: allocate(%d, %d): %w", ErrSelfTest, size, alignment, err)
	}
	defer func() {
		if err != nil && buf != nil {
			a.Free(buf)
		}
	}()

	copy(buf, helloWorld)

	steps := []struct {
		size, wantOrig int
	}{
		{size, size},
		{2 * size, size},
		{size, 2 * size},
	}
	for _, st := range steps {
		nb, orig, rerr := a.Reallocate(buf, st.size, alignment)
		if rerr != nil {
			return fmt.Errorf("%w: reallocate(%d, %d): %w", ErrSelfTest, st.size, alignment, rerr)
		}
		buf = nb

		if orig != st.wantOrig {
			return fmt.Errorf("%w: reallocate(%d, %d) reported original size %d, want %d",
				ErrSelfTest, st.size, alignment, orig, st.wantOrig)
		}
		if !mem.IsAligned(buf, alignment) {
			return fmt.Errorf("%w: reallocate(%d, %d) returned misaligned %#x", ErrSelfTest, st.size, alignment, mem.Addr(buf))
		}
		if !bytes.HasPrefix(buf, []byte(helloWorld)) {
			return fmt.Errorf("%w: reallocate(%d, %d) lost content", ErrSelfTest, st.size, alignment)
		}
	}

	orig := a.Free(buf)
	buf = nil
	if orig != size {
		return fmt.Errorf("%w: free reported size %d, want %d", ErrSelfTest, orig, size)
	}
	return nil
}
