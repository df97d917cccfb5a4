package alloc

import "github.com/joshuapare/segheap/internal/format"

// place allocates asize bytes at the start of the free block bp, splitting
// off the remainder as a new free block when it is at least the minimum
// block size.
func (a *SegAllocator) place(data []byte, bp int, asize uint32) {
	csize := format.BlockSize(data, bp)
	a.listRemove(data, bp)

	if csize-asize >= format.MinBlockSize {
		putTags(a.dt, data, bp, asize, true)
		rest := bp + int(asize)
		putTags(a.dt, data, rest, csize-asize, false)
		// Both neighbors of rest are allocated; this only files it.
		a.coalesce(data, rest)
		a.stats.SplitCount++
		return
	}

	putTags(a.dt, data, bp, csize, true)
}
