package mmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/alignedalloc/internal/mem"
)

func TestMapAnon(t *testing.T) {
	size := PageSize() + 100

	b, err := MapAnon(size)
	require.NoError(t, err)
	defer func() { require.NoError(t, Unmap(b)) }()

	assert.Len(t, b, size)
	assert.Equal(t, size, cap(b))
	assert.Equal(t, byte(0), b[0])
	assert.Equal(t, byte(0), b[size-1])

	// Page aligned and writable end to end.
	assert.Zero(t, mem.Addr(b)%uintptr(PageSize()))
	b[0], b[size-1] = 0xAA, 0xBB
}

func TestMapAnon_InvalidSize(t *testing.T) {
	_, err := MapAnon(0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = MapAnon(-1)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestRemap_PreservesContent(t *testing.T) {
	page := PageSize()

	b, err := MapAnon(page)
	require.NoError(t, err)
	copy(b, "Hello, Mmap!")

	grown, err := Remap(b, 4*page)
	require.NoError(t, err)
	assert.Len(t, grown, 4*page)
	assert.Equal(t, "Hello, Mmap!", string(grown[:12]))
	grown[4*page-1] = 1

	shrunk, err := Remap(grown, page)
	require.NoError(t, err)
	assert.Len(t, shrunk, page)
	assert.Equal(t, "Hello, Mmap!", string(shrunk[:12]))

	require.NoError(t, Unmap(shrunk))
}

func TestRemap_SameSize(t *testing.T) {
	b, err := MapAnon(PageSize())
	require.NoError(t, err)
	defer func() { require.NoError(t, Unmap(b)) }()

	same, err := Remap(b, len(b))
	require.NoError(t, err)
	assert.Equal(t, mem.Addr(b), mem.Addr(same))
}

func TestRemapByCopy(t *testing.T) {
	page := PageSize()

	b, err := MapAnon(page)
	require.NoError(t, err)
	copy(b, "data")

	nb, err := remapByCopy(b, 2*page)
	require.NoError(t, err)
	assert.Len(t, nb, 2*page)
	assert.Equal(t, "data", string(nb[:4]))

	require.NoError(t, Unmap(nb))
}

func TestUnmapRemap_Empty(t *testing.T) {
	assert.ErrorIs(t, Unmap(nil), ErrNotMapped)

	_, err := Remap(nil, 10)
	assert.ErrorIs(t, err, ErrNotMapped)

	b, err := MapAnon(PageSize())
	require.NoError(t, err)
	defer func() { require.NoError(t, Unmap(b)) }()

	_, err = Remap(b, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}
