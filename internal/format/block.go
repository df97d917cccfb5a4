package format

import "fmt"

// Block is a decoded view of one heap block.
//
// Block layout (little-endian), bp = payload offset:
//
//	Offset      Size  Description
//	bp-4        4     Header: size | allocated bit
//	bp          ...   Payload. When free, the first 8 bytes hold the
//	                  successor link (payload offset or EndOfList).
//	bp+size-8   4     Footer: bit-identical copy of the header
type Block struct {
	Payload   int    // Payload offset (bp)
	Size      uint32 // Total size including header and footer
	Allocated bool
}

// Pack combines a block size and allocation bit into a boundary tag word.
func Pack(size uint32, allocated bool) uint32 {
	if allocated {
		return size | allocBit
	}
	return size
}

// TagSize extracts the size field of a tag word.
func TagSize(tag uint32) uint32 { return tag & sizeMask }

// TagAlloc extracts the allocation bit of a tag word.
func TagAlloc(tag uint32) bool { return tag&allocBit != 0 }

// HeaderOff returns the offset of the header word of the block at bp.
func HeaderOff(bp int) int { return bp - WordSize }

// FooterOff returns the offset of the footer word of a block of the given size.
func FooterOff(bp int, size uint32) int { return bp + int(size) - DoubleSize }

// Header reads the header word of the block at bp.
func Header(b []byte, bp int) uint32 { return ReadU32(b, bp-WordSize) }

// Footer reads the footer word of the block at bp, locating it through the header.
func Footer(b []byte, bp int) uint32 {
	return ReadU32(b, FooterOff(bp, TagSize(Header(b, bp))))
}

// BlockSize returns the size recorded in the header of the block at bp.
func BlockSize(b []byte, bp int) uint32 { return TagSize(Header(b, bp)) }

// IsAlloc reports the allocation bit recorded in the header of the block at bp.
func IsAlloc(b []byte, bp int) bool { return TagAlloc(Header(b, bp)) }

// PrevAlloc reports the allocation bit of the block physically before bp,
// read from that block's footer.
func PrevAlloc(b []byte, bp int) bool { return TagAlloc(ReadU32(b, bp-DoubleSize)) }

// NextBlock returns the payload offset of the block physically after bp.
func NextBlock(b []byte, bp int) int { return bp + int(BlockSize(b, bp)) }

// PrevBlock returns the payload offset of the block physically before bp.
func PrevBlock(b []byte, bp int) int { return bp - int(TagSize(ReadU32(b, bp-DoubleSize))) }

// PutTags writes identical header and footer tags for a block at bp.
func PutTags(b []byte, bp int, size uint32, allocated bool) {
	tag := Pack(size, allocated)
	PutU32(b, HeaderOff(bp), tag)
	PutU32(b, FooterOff(bp, size), tag)
}

// Link reads the successor link stored in the payload of a free block.
func Link(b []byte, bp int) uint32 { return uint32(ReadU64(b, bp)) }

// PutLink stores a successor link in the payload of a free block.
func PutLink(b []byte, bp int, next uint32) { PutU64(b, bp, uint64(next)) }

// PayloadSize returns the caller-visible payload bytes of a block of the given size.
func PayloadSize(size uint32) uint32 { return size - DoubleSize }

// DecodeBlock decodes the block at bp and validates its tags against the
// buffer bounds. It returns the block plus the payload offset of the next one.
func DecodeBlock(b []byte, bp int) (Block, int, error) {
	if bp < WordSize || bp > len(b) {
		return Block{}, 0, fmt.Errorf("block at %d: %w", bp, ErrTruncated)
	}
	if !IsAligned(bp) {
		return Block{}, 0, fmt.Errorf("block at %d: %w", bp, ErrMisaligned)
	}
	hdr := Header(b, bp)
	size := TagSize(hdr)
	if size < MinBlockSize {
		return Block{}, 0, fmt.Errorf("block at %d: size %d: %w", bp, size, ErrBlockTooSmall)
	}
	// The footer must end before the next header word.
	if FooterOff(bp, size)+2*WordSize > len(b) {
		return Block{}, 0, fmt.Errorf("block at %d: size %d: %w", bp, size, ErrTruncated)
	}
	if ftr := ReadU32(b, FooterOff(bp, size)); ftr != hdr {
		return Block{}, 0, fmt.Errorf("block at %d: header %#x footer %#x: %w", bp, hdr, ftr, ErrTagMismatch)
	}
	return Block{Payload: bp, Size: size, Allocated: TagAlloc(hdr)}, bp + int(size), nil
}
