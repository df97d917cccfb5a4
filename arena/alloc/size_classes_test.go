package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClassTable_Classic(t *testing.T) {
	table := newSizeClassTable(ConfigClassic)
	require.Equal(t, 25, table.NumClasses())
	require.Equal(t, "Classic", table.String())

	tests := []struct {
		size uint32
		want int
	}{
		{1, 0},
		{2, 1},
		{16, 4},
		{17, 5},
		{24, 5},
		{32, 5},
		{33, 6},
		{256, 8},
		{257, 9},
		{4096, 12},
		{1 << 23, 23},
		{1<<23 + 8, 24},
		{1 << 31, 24},
		{^uint32(0) - 7, 24},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, table.getSizeClass(tt.size), "size %d", tt.size)
	}
}

func TestSizeClassTable_BoundsAreInclusive(t *testing.T) {
	table := newSizeClassTable(ConfigClassic)
	for i := 4; i < table.NumClasses()-1; i++ {
		upper := uint32(1) << i
		assert.Equal(t, i, table.getSizeClass(upper), "2^%d", i)
		assert.Equal(t, i+1, table.getSizeClass(upper+8), "2^%d+8", i)
	}
}

func TestSizeClassTable_SingleList(t *testing.T) {
	table := newSizeClassTable(ConfigSingleList)
	require.Equal(t, 1, table.NumClasses())
	for _, size := range []uint32{16, 1000, 1 << 30} {
		assert.Equal(t, 0, table.getSizeClass(size))
	}
}

func TestSizeClassTable_MaxLists(t *testing.T) {
	table := newSizeClassTable(Config{Name: "Max", ChunkSize: 256, NumLists: maxLists})
	assert.Equal(t, 30, table.getSizeClass(1<<30))
	assert.Equal(t, 31, table.getSizeClass(1<<30+8))
}
