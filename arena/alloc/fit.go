package alloc

import "github.com/joshuapare/segheap/internal/format"

// findFit returns the first free block of at least asize bytes.
//
// The search starts at the class for asize and walks each list head to tail
// (most recently freed first), moving to the next larger class when a list
// has no block big enough.
func (a *SegAllocator) findFit(data []byte, asize uint32) (int, bool) {
	for i := a.bucketFor(asize); i < len(a.heads); i++ {
		for bp := a.heads[i]; bp != format.EndOfList; bp = format.Link(data, int(bp)) {
			a.stats.FitScanSteps++
			if format.BlockSize(data, int(bp)) >= asize {
				return int(bp), true
			}
		}
	}
	return 0, false
}
