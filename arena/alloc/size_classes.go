package alloc

import (
	"fmt"

	"github.com/joshuapare/segheap/internal/format"
)

// Config defines the heap growth and size class strategy.
type Config struct {
	// Name for this configuration (for benchmarking and reports)
	Name string

	// ChunkSize is the minimum number of bytes the heap grows by when no
	// free block fits. Must be a positive multiple of 8.
	ChunkSize uint32

	// NumLists is the number of segregated free lists. List i (i < NumLists-1)
	// holds free blocks with size in (2^(i-1), 2^i]; the last list holds
	// everything larger.
	NumLists int
}

// maxLists keeps every bucket boundary representable as a uint32 power of two.
const maxLists = 32

// Predefined configurations.
var (
	// ConfigClassic: 256-byte growth over 25 power-of-two lists.
	ConfigClassic = Config{
		Name:      "Classic",
		ChunkSize: format.ChunkSize,
		NumLists:  format.NumLists,
	}

	// ConfigPageChunk: grow a page at a time. Fewer Sbrk calls, larger heap.
	ConfigPageChunk = Config{
		Name:      "PageChunk",
		ChunkSize: 4096,
		NumLists:  format.NumLists,
	}

	// ConfigSingleList: one list, degenerating to a plain first-fit explicit list.
	ConfigSingleList = Config{
		Name:      "SingleList",
		ChunkSize: format.ChunkSize,
		NumLists:  1,
	}

	// Default configuration (used if none specified).
	DefaultConfig = ConfigClassic
)

func (c Config) validate() error {
	if c.ChunkSize == 0 || c.ChunkSize%format.Alignment != 0 {
		return fmt.Errorf("%w: chunk size %d must be a positive multiple of %d", ErrBadConfig, c.ChunkSize, format.Alignment)
	}
	if c.ChunkSize < format.MinBlockSize {
		return fmt.Errorf("%w: chunk size %d below the minimum block size %d", ErrBadConfig, c.ChunkSize, format.MinBlockSize)
	}
	if c.NumLists < 1 || c.NumLists > maxLists {
		return fmt.Errorf("%w: list count %d outside [1, %d]", ErrBadConfig, c.NumLists, maxLists)
	}
	return nil
}

// sizeClassTable holds the computed size class boundaries.
type sizeClassTable struct {
	config     Config
	boundaries []uint32 // Upper bound (inclusive) for each bounded class
	numClasses int      // Bounded classes plus the catch-all
}

// newSizeClassTable computes power-of-two class boundaries from config.
func newSizeClassTable(config Config) *sizeClassTable {
	table := &sizeClassTable{
		config:     config,
		boundaries: make([]uint32, 0, config.NumLists),
		numClasses: config.NumLists,
	}
	for i := 0; i < config.NumLists-1; i++ {
		table.boundaries = append(table.boundaries, uint32(1)<<i)
	}
	return table
}

// getSizeClass returns the smallest class index i with size <= 2^i.
// Returns the catch-all index (numClasses-1) for sizes above every boundary.
func (t *sizeClassTable) getSizeClass(size uint32) int {
	lo, hi := 0, len(t.boundaries)-1

	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= t.boundaries[mid] {
			if mid == 0 || size > t.boundaries[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}

	return t.numClasses - 1
}

// String returns a human-readable description of the size class table.
func (t *sizeClassTable) String() string {
	return t.config.Name
}

// NumClasses returns the number of size classes, including the catch-all.
func (t *sizeClassTable) NumClasses() int {
	return t.numClasses
}
