package alloc

import (
	"fmt"

	"github.com/joshuapare/segheap/internal/buf"
	"github.com/joshuapare/segheap/internal/format"
)

// BumpAllocator is an append-only allocator over the same block layout as
// SegAllocator. It keeps no free lists: every allocation extends the heap
// by exactly its block size, and Free only clears the allocation bit.
//
// Key characteristics:
//   - O(1) allocation: one Sbrk, two tag writes, one epilogue write
//   - Zero metadata overhead beyond the boundary tags
//   - Freed blocks become dead space forever (no reuse, no coalescing)
//
// It exists as a utilization baseline: replaying a trace against it shows
// how much heap a workload needs when nothing is ever reused.
type BumpAllocator struct {
	p  Provider
	dt DirtyTracker
}

// NewBump creates a BumpAllocator and lays down an empty heap in p.
//
// Parameters:
//   - p: The heap memory provider to grow into (reset here)
//   - dt: Dirty tracker for metadata writes (can be nil)
func NewBump(p Provider, dt DirtyTracker) (*BumpAllocator, error) {
	if err := initHeap(p, dt); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitFailed, err)
	}
	return &BumpAllocator{p: p, dt: dt}, nil
}

// Alloc appends a block at the top of the heap.
func (ba *BumpAllocator) Alloc(size uint32) (Ptr, error) {
	asize, ok := format.AdjustedSize(uint64(size))
	if !ok {
		return Nil, fmt.Errorf("%w: request of %d bytes exceeds the largest block", ErrOutOfMemory, size)
	}

	old, err := ba.p.Sbrk(int(asize))
	if err != nil {
		return Nil, fmt.Errorf("%w: grow by %d bytes: %w", ErrOutOfMemory, asize, err)
	}

	// The old epilogue header becomes this block's header.
	data := ba.p.Bytes()
	bp := old
	putTags(ba.dt, data, bp, asize, true)
	putWord(ba.dt, data, format.HeaderOff(bp+int(asize)), format.Pack(0, true))
	return Ptr(bp), nil
}

// Free marks a block as free by clearing its allocation bit.
// The block becomes dead space; freeing an already free block is a no-op.
func (ba *BumpAllocator) Free(p Ptr) error {
	if p == Nil {
		return nil
	}
	data := ba.p.Bytes()
	if err := checkRef(data, p); err != nil {
		return err
	}
	bp := int(p)
	if !format.IsAlloc(data, bp) {
		return nil
	}
	putTags(ba.dt, data, bp, format.BlockSize(data, bp), false)
	return nil
}

// Realloc allocates a new block, copies min(old payload, size) bytes and
// frees p.
func (ba *BumpAllocator) Realloc(p Ptr, size uint32) (Ptr, error) {
	if size == 0 {
		return Nil, ba.Free(p)
	}
	if p == Nil {
		return ba.Alloc(size)
	}
	if err := checkRef(ba.p.Bytes(), p); err != nil {
		return Nil, err
	}

	np, err := ba.Alloc(size)
	if err != nil {
		return Nil, err
	}
	data := ba.p.Bytes()
	old := payload(data, p)
	n := min(len(old), int(size))
	copy(payload(data, np)[:n], old[:n])

	return np, ba.Free(p)
}

// AllocZeroed allocates count*size bytes and zeroes the entire payload.
func (ba *BumpAllocator) AllocZeroed(count, size uint32) (Ptr, error) {
	n, ok := buf.MulU32Safe(count, size)
	if !ok {
		return Nil, fmt.Errorf("%w: %d * %d", ErrSizeOverflow, count, size)
	}
	p, err := ba.Alloc(n)
	if err != nil {
		return Nil, err
	}
	clear(ba.Payload(p))
	return p, nil
}

// Payload returns the caller-owned bytes of the block at p, or nil.
func (ba *BumpAllocator) Payload(p Ptr) []byte {
	if p == Nil {
		return nil
	}
	return payload(ba.p.Bytes(), p)
}

// HeapSize returns the current heap size in bytes.
func (ba *BumpAllocator) HeapSize() int {
	return len(ba.p.Bytes())
}
