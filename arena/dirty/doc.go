// Package dirty provides page-level tracking of heap modifications.
//
// # Overview
//
// An allocator reports every metadata write (boundary tags and free-list
// links) to a DirtyTracker. The Tracker in this package records those
// writes as byte ranges and, on demand, page-aligns, sorts and merges them.
// That answers two questions a heap workload cares about: how many bytes of
// metadata were written, and how many distinct pages those writes touched.
//
// # DirtyTracker Interface
//
// The interface has a single method:
//
//   - Add(offset, length): Mark a range as dirty
//
// # Usage
//
// Creating a tracker:
//
//	tracker := dirty.NewTracker(0) // OS-independent 4 KiB pages
//
// Handing it to an allocator:
//
//	a, err := alloc.New(arena.New(0), tracker, nil)
//
// Reading results:
//
//	pages := tracker.PagesTouched()
//	for _, r := range tracker.Ranges() {
//	    fmt.Printf("%#x+%d\n", r.Off, r.Len)
//	}
//
// Tracker is not thread-safe.
package dirty
