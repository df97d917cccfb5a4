package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RoundsToPageSize(t *testing.T) {
	a := New(100)
	ps := PageSize()
	require.Positive(t, ps)
	assert.Equal(t, 0, a.Cap()%ps)
	assert.GreaterOrEqual(t, a.Cap(), 100)
	assert.Equal(t, 0, a.Size())
	assert.Equal(t, -1, a.Hi())
}

func TestPageSize_MatchesReservation(t *testing.T) {
	ps := PageSize()
	require.Positive(t, ps)
	assert.Equal(t, ps, New(1).Cap())
	assert.Equal(t, 2*ps, New(ps+1).Cap())
}

func TestNew_DefaultSize(t *testing.T) {
	a := New(0)
	assert.GreaterOrEqual(t, a.Cap(), DefaultMaxHeap)
}

func TestSbrk_ReturnsOldBreak(t *testing.T) {
	a := New(4096)

	old, err := a.Sbrk(16)
	require.NoError(t, err)
	assert.Equal(t, 0, old)

	old, err = a.Sbrk(256)
	require.NoError(t, err)
	assert.Equal(t, 16, old)

	assert.Equal(t, 0, a.Lo())
	assert.Equal(t, 271, a.Hi())
	assert.Len(t, a.Bytes(), 272)
}

func TestSbrk_Exhausted(t *testing.T) {
	a := New(4096)
	_, err := a.Sbrk(a.Cap() - 8)
	require.NoError(t, err)
	before := a.Size()

	_, err = a.Sbrk(16)
	require.ErrorIs(t, err, ErrHeapExhausted)
	assert.Equal(t, before, a.Size(), "failed sbrk must not move the break")

	_, err = a.Sbrk(8)
	require.NoError(t, err)
	assert.Equal(t, a.Cap(), a.Size())
}

func TestSbrk_Negative(t *testing.T) {
	a := New(4096)
	_, err := a.Sbrk(-8)
	require.ErrorIs(t, err, ErrNegativeGrow)
}

func TestBytes_StableAcrossGrowth(t *testing.T) {
	a := New(8192)
	_, err := a.Sbrk(64)
	require.NoError(t, err)
	first := a.Bytes()
	first[10] = 0xAB

	_, err = a.Sbrk(4096)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), a.Bytes()[10])

	first[11] = 0xCD
	assert.Equal(t, byte(0xCD), a.Bytes()[11], "earlier slices share the reservation")
	assert.Equal(t, len(first), cap(first), "capacity is clipped to the break")
}

func TestReset(t *testing.T) {
	a := New(4096)
	_, err := a.Sbrk(32)
	require.NoError(t, err)
	a.Bytes()[5] = 1

	a.Reset()
	assert.Equal(t, 0, a.Size())

	_, err = a.Sbrk(32)
	require.NoError(t, err)
	assert.Equal(t, byte(0), a.Bytes()[5], "reset zeroes the old heap")
}
