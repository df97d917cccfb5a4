// Package verify provides validation functions for raw segheap heap images.
//
// # Overview
//
// The functions here read a heap as a plain byte slice (typically
// arena.Arena.Bytes) and check the structural invariants that hold between
// any two allocator operations. They know the block layout from
// internal/format but nothing about an allocator's free-list heads, so the
// allocator's own checker (alloc.SegAllocator.Check) builds its bucket
// cross-validation on top of them.
//
// Validation categories:
//   - Prologue: the 8-byte allocated sentinel block at offset 4
//   - Block: header == footer, size >= 16 and a multiple of 8, 8-byte
//     aligned payload, block fits inside the heap
//   - Coalesce: no two physically adjacent free blocks
//   - Epilogue: the last heap word is a zero-size allocated header
//   - FreeList: a listed block is reachable by a physical walk
//
// # Quick Start
//
//	if err := verify.Heap(a.Bytes()); err != nil {
//	    fmt.Printf("Validation failed: %v\n", err)
//	}
//
// Walk the blocks yourself:
//
//	err := verify.Walk(data, func(b format.Block) error {
//	    fmt.Printf("%#x %d %v\n", b.Payload, b.Size, b.Allocated)
//	    return nil
//	})
//
// # ValidationError
//
// All validation functions return *ValidationError on failure:
//
//	type ValidationError struct {
//	    Type    string                 // Error category (e.g., "Block")
//	    Message string                 // Human-readable description
//	    Offset  int                    // Heap offset where error occurred (-1 if N/A)
//	    Details map[string]interface{} // Additional context
//	    Err     error                  // Underlying format error, if any
//	}
//
// ValidationError unwraps to the format sentinel that triggered it, so
//
//	errors.Is(err, format.ErrTagMismatch)
//
// identifies a header/footer mismatch regardless of where it was found.
package verify
