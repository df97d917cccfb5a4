package alloc

import "github.com/joshuapare/segheap/internal/format"

// bucketFor returns the free-list index for a block of the given size.
func (a *SegAllocator) bucketFor(size uint32) int {
	return a.sizeTable.getSizeClass(size)
}

// listInsert pushes the free block at bp onto the head of its class list.
func (a *SegAllocator) listInsert(data []byte, bp int) {
	i := a.bucketFor(format.BlockSize(data, bp))
	putLink(a.dt, data, bp, a.heads[i])
	a.heads[i] = uint32(bp)
}

// listRemove unlinks the free block at bp from the list for its current size.
// The block's size must not have been rewritten since it was inserted.
// Removing a block that is not listed is a no-op.
func (a *SegAllocator) listRemove(data []byte, bp int) {
	i := a.bucketFor(format.BlockSize(data, bp))
	target := uint32(bp)

	if a.heads[i] == target {
		a.heads[i] = format.Link(data, bp)
		return
	}

	// Singly linked: scan for the predecessor and splice around bp.
	for prev := a.heads[i]; prev != format.EndOfList; {
		a.stats.ListScanSteps++
		next := format.Link(data, int(prev))
		if next == target {
			putLink(a.dt, data, int(prev), format.Link(data, bp))
			return
		}
		prev = next
	}
}

// listLen returns the number of blocks on list i.
func (a *SegAllocator) listLen(data []byte, i int) int {
	n := 0
	for bp := a.heads[i]; bp != format.EndOfList; bp = format.Link(data, int(bp)) {
		n++
	}
	return n
}
