// Package alloc provides block allocation and free-list management over a
// growable byte heap.
//
// # Overview
//
// This package implements a segregated-fit allocator with boundary-tag
// coalescing. Every block carries identical 4-byte header and footer tags
// holding its size and an allocation bit, so a block can find both
// physical neighbors in O(1) and merge with them on free without any side
// index. Free blocks are filed on singly linked, size-segregated lists whose
// links live inside the free payloads themselves.
//
// # Allocator Interface
//
// The core abstraction is the Allocator interface, which supports:
//
//   - Alloc(size): Allocate a block with at least size payload bytes
//   - Free(p): Release a block for reuse
//   - Realloc(p, size): Move a payload to a block of a new size
//   - AllocZeroed(count, size): Allocate and zero count*size bytes
//   - Payload(p): The caller-owned bytes of a block
//
// # Implementations
//
// SegAllocator: Production allocator with segregated free lists
//
//   - 25 power-of-two size classes by default
//   - LIFO insertion, first-fit search in ascending class order
//   - Immediate coalescing of adjacent free blocks
//   - On-demand consistency checking (Check, CheckHeap)
//
// BumpAllocator: Append-only baseline
//
//   - Free only clears the allocation bit
//   - Used to measure how much heap a workload needs without reuse
//
// # Usage Example
//
//	dt := dirty.NewTracker(0)
//	a, err := alloc.New(arena.New(arena.DefaultMaxHeap), dt, nil)
//	if err != nil {
//	    return err
//	}
//
//	p, err := a.Alloc(100)
//	if err != nil {
//	    return err // errors.Is(err, alloc.ErrOutOfMemory)
//	}
//	copy(a.Payload(p), "hello")
//
//	// Later, free the block
//	err = a.Free(p)
//
// # Heap Layout
//
//	Offset  Contents
//	0       alignment pad
//	4       prologue header  (size 8, allocated)
//	8       prologue footer  (size 8, allocated)
//	12      first block header ... blocks ...
//	top-4   epilogue header  (size 0, allocated)
//
// Growing the heap turns the old epilogue header into the header of the new
// free block and writes a fresh epilogue at the new top.
//
// # Size Classes
//
// List i holds free blocks with size in (2^(i-1), 2^i]; the last list holds
// everything larger than the last bound:
//
//	List  4:        16 bytes (minimum block)
//	List  5:   17 -   32 bytes
//	List  6:   33 -   64 bytes
//	...
//	List 23:   4 -    8 MB
//	List 24:   8 MB+
//
// # Block References
//
// Ptr is a uint32 payload offset into the heap. Nil (0) is the null
// reference; offset 0 is the alignment pad and never a payload.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access
// externally or use one allocator (and one heap) per goroutine.
//
// # Debugging
//
// Set SEGHEAP_LOG_ALLOC=1 to log heap growth and large requests to stderr.
// Check validates the whole heap and returns the first violation;
// CheckHeap prints it and exits the process.
//
// # Related Packages
//
//   - github.com/joshuapare/segheap/arena: The heap memory provider
//   - github.com/joshuapare/segheap/arena/dirty: Tracks modified pages
//   - github.com/joshuapare/segheap/arena/verify: Raw heap validation
//   - github.com/joshuapare/segheap/internal/format: Block layout
package alloc
