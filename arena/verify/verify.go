// Package verify provides validation functions for raw segheap heap images.
// These helpers are used by the allocator's consistency checker and by tests
// to ensure heap invariants are maintained.
package verify

import (
	"errors"
	"fmt"

	"github.com/joshuapare/segheap/internal/format"
)

// ValidationError describes one broken heap invariant.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
	Err     error // underlying format error, if any
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Heap validates every structural invariant that can be checked without
// knowing the allocator's free-list heads: prologue, every block's tags,
// size and alignment, no two adjacent free blocks, and the epilogue.
// Returns the first error encountered, or nil if all checks pass.
func Heap(data []byte) error {
	if err := Prologue(data); err != nil {
		return err
	}
	prevFree := false
	err := Walk(data, func(b format.Block) error {
		if !b.Allocated && prevFree {
			return &ValidationError{
				Type:    "Coalesce",
				Message: fmt.Sprintf("free block of %d bytes follows another free block", b.Size),
				Offset:  b.Payload,
			}
		}
		prevFree = !b.Allocated
		return nil
	})
	if err != nil {
		return err
	}
	return Epilogue(data)
}

// Prologue validates the alignment pad and the permanently allocated
// prologue block at the start of the heap.
func Prologue(data []byte) error {
	if len(data) < format.InitialHeapSize {
		return &ValidationError{
			Type:    "Prologue",
			Message: fmt.Sprintf("heap too small: %d bytes (need %d)", len(data), format.InitialHeapSize),
			Offset:  -1,
		}
	}

	want := format.Pack(format.PrologueSize, true)
	hdr := format.ReadU32(data, format.PrologueHeaderOffset)
	ftr := format.ReadU32(data, format.PrologueFooterOffset)
	if hdr != want {
		return &ValidationError{
			Type:    "Prologue",
			Message: fmt.Sprintf("bad prologue header: got 0x%X, expected 0x%X", hdr, want),
			Offset:  format.PrologueHeaderOffset,
		}
	}
	if ftr != hdr {
		return &ValidationError{
			Type:    "Prologue",
			Message: fmt.Sprintf("prologue header/footer mismatch: 0x%X != 0x%X", hdr, ftr),
			Offset:  format.PrologueFooterOffset,
			Err:     format.ErrTagMismatch,
		}
	}
	return nil
}

// Epilogue validates that the last word of the heap is a zero-size allocated header.
func Epilogue(data []byte) error {
	if len(data) < format.InitialHeapSize {
		return &ValidationError{
			Type:    "Epilogue",
			Message: fmt.Sprintf("heap too small: %d bytes", len(data)),
			Offset:  -1,
		}
	}
	off := len(data) - format.WordSize
	if tag := format.ReadU32(data, off); tag != format.Pack(0, true) {
		return &ValidationError{
			Type:    "Epilogue",
			Message: fmt.Sprintf("bad epilogue header: got 0x%X, expected 0x%X", tag, format.Pack(0, true)),
			Offset:  off,
		}
	}
	return nil
}

// Walk visits every real block in address order, from the first block after
// the prologue up to the epilogue, validating each block's tags, size,
// alignment and bounds before calling fn. A non-nil error from fn stops the
// walk and is returned unchanged.
func Walk(data []byte, fn func(b format.Block) error) error {
	bp := format.FirstBlock
	for bp < len(data) {
		if format.BlockSize(data, bp) == 0 {
			return &ValidationError{
				Type:    "Epilogue",
				Message: fmt.Sprintf("zero-size header before end of heap (heap ends at 0x%X)", len(data)),
				Offset:  format.HeaderOff(bp),
			}
		}
		b, next, err := format.DecodeBlock(data, bp)
		if err != nil {
			return &ValidationError{
				Type:    "Block",
				Message: err.Error(),
				Offset:  bp,
				Err:     err,
			}
		}
		if fn != nil {
			if err := fn(b); err != nil {
				return err
			}
		}
		bp = next
	}
	if bp != len(data) {
		return &ValidationError{
			Type:    "Block",
			Message: fmt.Sprintf("walk overran heap end 0x%X", len(data)),
			Offset:  bp,
		}
	}
	return nil
}

// Reachable walks the heap from the first real block until it reaches bp.
// It reports an error if bp lies outside the heap or is not the start of a
// block on the physical chain.
func Reachable(data []byte, bp int) error {
	if bp < format.FirstBlock || bp >= len(data) {
		return &ValidationError{
			Type:    "FreeList",
			Message: fmt.Sprintf("listed block outside heap bounds [0x%X, 0x%X)", format.FirstBlock, len(data)),
			Offset:  bp,
		}
	}
	errFound := errors.New("found")
	err := Walk(data, func(b format.Block) error {
		if b.Payload == bp {
			return errFound
		}
		if b.Payload > bp {
			return &ValidationError{
				Type:    "FreeList",
				Message: "listed block is not on the physical block chain",
				Offset:  bp,
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, errFound):
		return nil
	case err != nil:
		return err
	}
	return &ValidationError{
		Type:    "FreeList",
		Message: "listed block not reached by heap walk",
		Offset:  bp,
	}
}

// Stats summarizes a heap walk.
type Stats struct {
	Blocks      int
	FreeBlocks  int
	FreeBytes   int
	AllocBytes  int
	LargestFree int
}

// Summarize walks the heap and counts blocks. It stops at the first
// structural error.
func Summarize(data []byte) (Stats, error) {
	var s Stats
	err := Walk(data, func(b format.Block) error {
		s.Blocks++
		if b.Allocated {
			s.AllocBytes += int(b.Size)
			return nil
		}
		s.FreeBlocks++
		s.FreeBytes += int(b.Size)
		if int(b.Size) > s.LargestFree {
			s.LargestFree = int(b.Size)
		}
		return nil
	})
	return s, err
}
