package alloc

import (
	"fmt"

	"github.com/joshuapare/segheap/arena/verify"
	"github.com/joshuapare/segheap/internal/format"
)

// Check validates the heap and free lists and returns the first violation
// found as a *verify.ValidationError (wrapped with lineno), or nil.
//
// In order it checks:
//  1. the provider's [Lo, Hi] bounds against the heap bytes, then the prologue
//  2. every listed block: inside [Lo, Hi], on the physical block chain
//     (found by a full walk from the first block), free, and filed under
//     the class for its size
//  3. every block in address order: header == footer, size, alignment,
//     no two adjacent free blocks, and each free block present on the
//     list for its size; then the epilogue
//
// lineno is a caller-chosen token (typically a source line or an operation
// index) carried into the error.
func (a *SegAllocator) Check(lineno int) error {
	if !a.ready {
		return fmt.Errorf("check (line %d): %w", lineno, ErrNotInitialized)
	}
	if err := a.check(a.p.Bytes(), a.p.Lo(), a.p.Hi()+1); err != nil {
		if verr, ok := err.(*verify.ValidationError); ok {
			if verr.Details == nil {
				verr.Details = map[string]interface{}{}
			}
			verr.Details["line"] = lineno
		}
		return fmt.Errorf("check (line %d): %w", lineno, err)
	}
	return nil
}

// CheckHeap runs Check and, on a violation, prints the diagnostic and
// terminates the process. It is a debugging instrument; never call it on a
// path that must survive corruption.
func (a *SegAllocator) CheckHeap(lineno int) {
	if err := a.Check(lineno); err != nil {
		fmt.Fprintf(a.diag, "segheap: heap check failed: %v\n", err)
		a.exit(1)
	}
}

func (a *SegAllocator) check(data []byte, lo, end int) error {
	if lo != 0 || end != len(data) {
		return &verify.ValidationError{
			Type:    "Bounds",
			Message: fmt.Sprintf("provider bounds [%d, %d) disagree with %d heap bytes", lo, end, len(data)),
			Offset:  -1,
			Details: map[string]interface{}{"lo": lo, "end": end, "size": len(data)},
		}
	}
	if err := verify.Prologue(data); err != nil {
		return err
	}

	// Every block is at least MinBlockSize, so a list longer than this has a cycle.
	maxEntries := len(data) / format.MinBlockSize
	listed := 0

	for i, head := range a.heads {
		n := 0
		for bp := head; bp != format.EndOfList; bp = format.Link(data, int(bp)) {
			if int(bp) < lo+format.FirstBlock || int(bp) >= end {
				return &verify.ValidationError{
					Type:    "FreeList",
					Message: fmt.Sprintf("list entry %d outside heap bounds [%d, %d)", bp, lo+format.FirstBlock, end),
					Offset:  int(bp),
					Details: map[string]interface{}{"list": i},
				}
			}
			if err := verify.Reachable(data, int(bp)); err != nil {
				if verr, ok := err.(*verify.ValidationError); ok {
					verr.Details = map[string]interface{}{"list": i}
				}
				return err
			}
			if format.IsAlloc(data, int(bp)) {
				return &verify.ValidationError{
					Type:    "FreeList",
					Message: fmt.Sprintf("allocated block on free list %d", i),
					Offset:  int(bp),
					Details: map[string]interface{}{"list": i},
				}
			}
			size := format.BlockSize(data, int(bp))
			if want := a.bucketFor(size); want != i {
				return &verify.ValidationError{
					Type:    "FreeList",
					Message: fmt.Sprintf("block of %d bytes on list %d, belongs on list %d", size, i, want),
					Offset:  int(bp),
					Details: map[string]interface{}{"list": i, "want": want, "size": size},
				}
			}
			n++
			if n > maxEntries {
				return &verify.ValidationError{
					Type:    "FreeList",
					Message: fmt.Sprintf("free list %d has a cycle", i),
					Offset:  int(head),
					Details: map[string]interface{}{"list": i},
				}
			}
		}
		listed += n
	}

	free := 0
	prevFree := false
	err := verify.Walk(data, func(b format.Block) error {
		if b.Allocated {
			prevFree = false
			return nil
		}
		if prevFree {
			return &verify.ValidationError{
				Type:    "Coalesce",
				Message: fmt.Sprintf("free block of %d bytes follows another free block", b.Size),
				Offset:  b.Payload,
			}
		}
		prevFree = true
		free++
		if i := a.bucketFor(b.Size); !a.listed(data, i, b.Payload) {
			return &verify.ValidationError{
				Type:    "FreeList",
				Message: fmt.Sprintf("free block of %d bytes missing from list %d", b.Size, i),
				Offset:  b.Payload,
				Details: map[string]interface{}{"list": i, "size": b.Size},
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if listed != free {
		return &verify.ValidationError{
			Type:    "FreeList",
			Message: fmt.Sprintf("%d list entries for %d free blocks", listed, free),
			Offset:  -1,
			Details: map[string]interface{}{"listed": listed, "free": free},
		}
	}

	return verify.Epilogue(data)
}

// listed reports whether bp is on list i. Lists were validated for cycles
// before this is called.
func (a *SegAllocator) listed(data []byte, i, bp int) bool {
	for p := a.heads[i]; p != format.EndOfList; p = format.Link(data, int(p)) {
		if int(p) == bp {
			return true
		}
	}
	return false
}
