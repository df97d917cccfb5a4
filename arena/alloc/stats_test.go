package alloc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_Counters(t *testing.T) {
	a, _ := newTestAllocator(t, 0)

	p1, err := a.Alloc(16) // split from the initial chunk
	require.NoError(t, err)
	p2, err := a.Alloc(16)
	require.NoError(t, err)
	_, err = a.Alloc(1000) // needs growth
	require.NoError(t, err)

	require.NoError(t, a.Free(p1))
	require.NoError(t, a.Free(p2)) // backward merge with p1, next allocated
	_, err = a.Realloc(Nil, 8)
	require.NoError(t, err)

	s := a.Stats()
	assert.Equal(t, 2, s.GrowCalls)
	assert.Equal(t, 4, s.AllocCalls)
	assert.Equal(t, 3, s.AllocFastPath)
	assert.Equal(t, 1, s.AllocSlowPath)
	assert.Equal(t, 2, s.FreeCalls)
	assert.Equal(t, 1, s.ReallocCalls)
	assert.Equal(t, int64(48), s.BytesFreed)
	assert.GreaterOrEqual(t, s.CoalesceBackward, 2, "growth merged the tail, p2 merged into p1")
	assert.Positive(t, s.SplitCount)
	assert.Positive(t, s.FitScanSteps)
}

func TestFreeListLengths(t *testing.T) {
	a, _ := newTestAllocator(t, 0)

	lengths := a.FreeListLengths()
	require.Len(t, lengths, 25)
	assert.Equal(t, 1, lengths[8])

	total := 0
	for _, n := range lengths {
		total += n
	}
	assert.Equal(t, 1, total)
}

func TestPrintStats(t *testing.T) {
	a, _ := newTestAllocator(t, 0)
	for range 1500 {
		_, err := a.Alloc(100)
		require.NoError(t, err)
	}

	var out bytes.Buffer
	a.PrintStats(&out)

	s := out.String()
	assert.Contains(t, s, "ALLOCATOR STATISTICS (Classic)")
	// Grouped digits from the x/text printer.
	assert.Contains(t, s, "Alloc calls:        1,500 (fast: ")
	assert.Contains(t, s, "Bytes allocated:    168,")
	assert.Contains(t, s, "Free lists:")
}
