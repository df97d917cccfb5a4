package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/segheap/internal/format"
)

// newFourBlocks returns an allocator holding four live 24-byte blocks
// (16, 40, 64, 88) followed by a free tail.
func newFourBlocks(t *testing.T) (*SegAllocator, [4]Ptr) {
	t.Helper()

	a, _ := newTestAllocator(t, 0)
	var p [4]Ptr
	for i := range p {
		var err error
		p[i], err = a.Alloc(16)
		require.NoError(t, err)
	}
	require.Equal(t, [4]Ptr{16, 40, 64, 88}, p)
	return a, p
}

func TestCoalesce_NeighborsAllocated(t *testing.T) {
	a, p := newFourBlocks(t)
	before := a.Stats()

	require.NoError(t, a.Free(p[1]))

	b := blockAt(t, a, p[1])
	assert.Equal(t, format.Block{Payload: 40, Size: 24}, b)
	assert.Equal(t, before.CoalesceForward, a.Stats().CoalesceForward)
	assert.Equal(t, before.CoalesceBackward, a.Stats().CoalesceBackward)
	assert.Equal(t, []int{40}, freeListOf(a, a.bucketFor(24)))
	assertInvariants(t, a)
}

func TestCoalesce_NextFree(t *testing.T) {
	a, p := newFourBlocks(t)

	require.NoError(t, a.Free(p[2]))
	before := a.Stats()
	require.NoError(t, a.Free(p[1]))

	assert.Equal(t, format.Block{Payload: 40, Size: 48}, blockAt(t, a, p[1]))
	assert.Equal(t, before.CoalesceForward+1, a.Stats().CoalesceForward)
	assert.Empty(t, freeListOf(a, a.bucketFor(24)), "p[2] left its list")
	assert.Equal(t, []int{40}, freeListOf(a, a.bucketFor(48)))
	assertInvariants(t, a)
}

func TestCoalesce_PrevFree(t *testing.T) {
	a, p := newFourBlocks(t)

	require.NoError(t, a.Free(p[0]))
	before := a.Stats()
	require.NoError(t, a.Free(p[1]))

	assert.Equal(t, format.Block{Payload: 16, Size: 48}, blockAt(t, a, p[0]))
	assert.Equal(t, before.CoalesceBackward+1, a.Stats().CoalesceBackward)
	assert.Equal(t, []int{16}, freeListOf(a, a.bucketFor(48)))
	assertInvariants(t, a)
}

func TestCoalesce_BothFree(t *testing.T) {
	a, p := newFourBlocks(t)

	require.NoError(t, a.Free(p[0]))
	require.NoError(t, a.Free(p[2]))
	require.Len(t, freeListOf(a, a.bucketFor(24)), 2)

	require.NoError(t, a.Free(p[1]))

	assert.Equal(t, format.Block{Payload: 16, Size: 72}, blockAt(t, a, p[0]))
	assert.Empty(t, freeListOf(a, a.bucketFor(24)))
	assert.Equal(t, []int{16}, freeListOf(a, a.bucketFor(72)))
	assertInvariants(t, a)
}

func TestCoalesce_WithTail(t *testing.T) {
	a, p := newFourBlocks(t)

	require.NoError(t, a.Free(p[3]))

	blocks := scanBlocks(t, a)
	last := blocks[len(blocks)-1]
	assert.Equal(t, 88, last.Payload)
	assert.Equal(t, uint32(format.ChunkSize-72), last.Size)
	assertInvariants(t, a)
}

func TestListRemove_MiddleOfList(t *testing.T) {
	a, p := newFourBlocks(t)

	// A third free 24-byte block, kept apart from the others by a guard.
	x, err := a.Alloc(16)
	require.NoError(t, err)
	_, err = a.Alloc(16)
	require.NoError(t, err)

	require.NoError(t, a.Free(p[0]))
	require.NoError(t, a.Free(p[2]))
	require.NoError(t, a.Free(x))
	list := a.bucketFor(24)
	require.Equal(t, []int{int(x), 64, 16}, freeListOf(a, list))

	// Freeing p[1] merges 16 (the tail) and 64 (the middle) out of the list.
	steps := a.Stats().ListScanSteps
	require.NoError(t, a.Free(p[1]))
	assert.Equal(t, []int{int(x)}, freeListOf(a, list))
	assert.Equal(t, format.Block{Payload: 16, Size: 72}, blockAt(t, a, p[0]))
	assert.Greater(t, a.Stats().ListScanSteps, steps)
	assertInvariants(t, a)
}
