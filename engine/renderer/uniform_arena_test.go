package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformArenaHandsOutDistinctAlignedSlots(t *testing.T) {
	a := newUniformArena(4)

	seen := map[uint32]bool{}
	for range 4 {
		offset, ok := a.Alloc()
		require.True(t, ok)
		assert.Zero(t, offset%uniformSlotStride)
		assert.False(t, seen[offset], "offset handed out twice")
		seen[offset] = true
	}

	// Capacity exhausted.
	_, ok := a.Alloc()
	assert.False(t, ok)
}

func TestUniformArenaReusesFreedSlots(t *testing.T) {
	a := newUniformArena(2)

	first, ok := a.Alloc()
	require.True(t, ok)
	second, ok := a.Alloc()
	require.True(t, ok)

	a.Free(first)
	reused, ok := a.Alloc()
	require.True(t, ok)
	assert.Equal(t, first, reused)
	assert.NotEqual(t, second, reused)
}

func TestUniformArenaGrowKeepsExistingOffsets(t *testing.T) {
	a := newUniformArena(1)

	first, ok := a.Alloc()
	require.True(t, ok)
	_, ok = a.Alloc()
	require.False(t, ok)

	a.Grow(2)
	second, ok := a.Alloc()
	require.True(t, ok)
	assert.NotEqual(t, first, second)

	// Growing never shrinks.
	a.Grow(1)
	assert.Equal(t, 2, a.Capacity())
}

func TestUniformArenaIgnoresBogusFrees(t *testing.T) {
	a := newUniformArena(2)

	offset, ok := a.Alloc()
	require.True(t, ok)

	// Misaligned and never-allocated offsets are dropped, so a stray free
	// can never hand the same slot to two meshes.
	a.Free(offset + 1)
	a.Free(uniformSlotStride * 10)

	next, ok := a.Alloc()
	require.True(t, ok)
	assert.NotEqual(t, offset, next)
}

func TestArenaByteSizeMatchesStride(t *testing.T) {
	assert.Equal(t, uint64(initialUniformSlots*uniformSlotStride), arenaByteSize(initialUniformSlots))
}
