package dirty

// DirtyTracker is the minimal interface for tracking modified byte ranges of a heap.
//
// Allocators call Add for every boundary tag and free-list link they write.
// They never read the tracker back.
type DirtyTracker interface {
	// Add marks a byte range as dirty.
	// off is the offset from the start of the heap, length is the number of bytes.
	Add(off, length int)
}
