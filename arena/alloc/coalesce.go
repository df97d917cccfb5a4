package alloc

import "github.com/joshuapare/segheap/internal/format"

// coalesce merges the free, unlisted block at bp with whichever physical
// neighbors are free, inserts the result into its class list and returns
// the merged block's payload offset.
//
// Neighbor state comes from the boundary tags: the previous block's footer
// sits just below bp's header, the next block's header just past bp's footer.
// The prologue and epilogue are always allocated, so neither lookup leaves
// the heap.
func (a *SegAllocator) coalesce(data []byte, bp int) int {
	size := format.BlockSize(data, bp)
	prevAlloc := format.PrevAlloc(data, bp)
	next := format.NextBlock(data, bp)
	nextAlloc := format.IsAlloc(data, next)

	switch {
	case prevAlloc && nextAlloc:

	case prevAlloc && !nextAlloc:
		a.listRemove(data, next)
		size += format.BlockSize(data, next)
		putTags(a.dt, data, bp, size, false)
		a.stats.CoalesceForward++

	case !prevAlloc && nextAlloc:
		prev := format.PrevBlock(data, bp)
		a.listRemove(data, prev)
		size += format.BlockSize(data, prev)
		bp = prev
		putTags(a.dt, data, bp, size, false)
		a.stats.CoalesceBackward++

	default:
		prev := format.PrevBlock(data, bp)
		a.listRemove(data, prev)
		a.listRemove(data, next)
		size += format.BlockSize(data, prev) + format.BlockSize(data, next)
		bp = prev
		putTags(a.dt, data, bp, size, false)
		a.stats.CoalesceForward++
		a.stats.CoalesceBackward++
	}

	a.listInsert(data, bp)
	return bp
}
