package alloc

import (
	"fmt"

	"github.com/joshuapare/segheap/internal/buf"
	"github.com/joshuapare/segheap/internal/format"
)

// Every metadata write goes through these helpers so the dirty tracker sees
// each tag and link the allocator touches. dt may be nil.

func putWord(dt DirtyTracker, data []byte, off int, v uint32) {
	format.PutU32(data, off, v)
	if dt != nil {
		dt.Add(off, format.WordSize)
	}
}

func putTags(dt DirtyTracker, data []byte, bp int, size uint32, allocated bool) {
	format.PutTags(data, bp, size, allocated)
	if dt != nil {
		dt.Add(format.HeaderOff(bp), format.WordSize)
		dt.Add(format.FooterOff(bp, size), format.WordSize)
	}
}

func putLink(dt DirtyTracker, data []byte, bp int, next uint32) {
	format.PutLink(data, bp, next)
	if dt != nil {
		dt.Add(bp, format.LinkSize)
	}
}

// initHeap resets p and lays down the alignment pad, the prologue block and
// the epilogue header.
func initHeap(p Provider, dt DirtyTracker) error {
	p.Reset()
	base, err := p.Sbrk(format.InitialHeapSize)
	if err != nil {
		return err
	}
	if base != 0 {
		return fmt.Errorf("provider break at %d after reset", base)
	}
	data := p.Bytes()
	putWord(dt, data, 0, 0)
	putWord(dt, data, format.PrologueHeaderOffset, format.Pack(format.PrologueSize, true))
	putWord(dt, data, format.PrologueFooterOffset, format.Pack(format.PrologueSize, true))
	putWord(dt, data, format.EpilogueInitOffset, format.Pack(0, true))
	return nil
}

// checkRef reports whether p can address a block inside data: aligned, past
// the prologue, with a plausible size whose footer and following header lie
// inside the heap. It does not check the allocation bit.
func checkRef(data []byte, p Ptr) error {
	bp := int(p)
	if !format.IsAligned(bp) || bp < format.FirstBlock || bp >= len(data) {
		return fmt.Errorf("%w: offset %#x (heap size %d)", ErrBadRef, bp, len(data))
	}
	size := format.BlockSize(data, bp)
	if size < format.MinBlockSize || !buf.Has(data, bp, int(size)) {
		return fmt.Errorf("%w: offset %#x has size %d", ErrBadRef, bp, size)
	}
	return nil
}

// payload returns the caller-visible bytes of the block at p, or nil.
func payload(data []byte, p Ptr) []byte {
	if checkRef(data, p) != nil {
		return nil
	}
	size := format.BlockSize(data, int(p))
	b, _ := buf.Slice(data, int(p), int(format.PayloadSize(size)))
	return b
}
