package alloc

// Ptr is a block reference: the offset of a block's payload inside the heap.
type Ptr uint32

// Nil is the null reference. Offset 0 is the alignment pad, never a payload.
const Nil Ptr = 0

// Provider is the heap memory provider the allocators grow into.
// arena.Arena implements it.
//
// Offsets handed out by a Provider must stay below 1<<32 so they fit in a
// boundary tag.
type Provider interface {
	// Sbrk extends the heap contiguously by n bytes and returns the old top
	// offset. On failure the heap is unchanged.
	Sbrk(n int) (int, error)

	// Lo returns the offset of the first heap byte.
	Lo() int

	// Hi returns the offset of the last heap byte.
	Hi() int

	// Bytes returns the heap bytes [Lo, Hi].
	Bytes() []byte

	// Reset drops the heap back to empty.
	Reset()
}

// Allocator defines the interface for heap block allocation and deallocation.
//
// Implementations:
//   - SegAllocator: segregated free lists with boundary-tag coalescing
//   - BumpAllocator: append-only baseline, Free never makes memory reusable
type Allocator interface {
	// Alloc allocates a block with at least size payload bytes.
	// Alloc(0) yields a minimum-size block.
	Alloc(size uint32) (Ptr, error)

	// Free releases a block returned by Alloc, Realloc or AllocZeroed.
	// Free(Nil) is a no-op.
	Free(p Ptr) error

	// Realloc moves the block's payload to a block of the new size.
	// Realloc(p, 0) frees p and returns Nil; Realloc(Nil, n) is Alloc(n).
	Realloc(p Ptr, size uint32) (Ptr, error)

	// AllocZeroed allocates count*size bytes and zeroes the whole payload.
	AllocZeroed(count, size uint32) (Ptr, error)

	// Payload returns the caller-owned bytes of an allocated block, or nil
	// if p does not address a block.
	Payload(p Ptr) []byte

	// HeapSize returns the current heap size in bytes.
	HeapSize() int
}

// Checker is implemented by allocators that can validate their own heap.
type Checker interface {
	Check(lineno int) error
}
