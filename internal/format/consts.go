// Package format holds the boundary-tag block layout used by the segheap
// allocators. It is the only package that reads or writes raw heap words; the
// allocator, the verifier and the tests all go through these helpers so the
// on-heap encoding lives in one place.
package format

// Heap layout (byte offsets from the start of the arena):
//
//	Offset  Size  Description
//	0x00    4     Alignment padding (always zero)
//	0x04    4     Prologue header, Pack(8, allocated)
//	0x08    4     Prologue footer, Pack(8, allocated)
//	0x0C    4     Epilogue header, Pack(0, allocated); moves with every grow
//	0x10    ...   First real block payload
const (
	// WordSize is the size of a boundary tag (header or footer).
	WordSize = 4

	// DoubleSize is the combined size of a header and footer.
	DoubleSize = 2 * WordSize

	// Alignment is the required alignment of every payload and block size.
	Alignment = 8

	// AlignmentMask masks the low bits that must be clear in an aligned value.
	AlignmentMask = Alignment - 1

	// LinkSize is the width of the successor link stored in a free payload.
	LinkSize = 8

	// MinBlockSize is the smallest legal block: header, footer and one link.
	MinBlockSize = DoubleSize + LinkSize

	// NumLists is the default number of segregated free-list buckets.
	NumLists = 25

	// ChunkSize is the default number of bytes the heap grows by on a miss.
	ChunkSize = 1 << 8

	// InitialHeapSize covers the padding, prologue header/footer and epilogue.
	InitialHeapSize = 4 * WordSize

	// PrologueHeaderOffset is the offset of the prologue header word.
	PrologueHeaderOffset = WordSize

	// PrologueFooterOffset is the offset of the prologue footer word.
	PrologueFooterOffset = 2 * WordSize

	// EpilogueInitOffset is the offset of the epilogue header right after Init.
	EpilogueInitOffset = 3 * WordSize

	// PrologueSize is the fixed block size recorded in the prologue tags.
	PrologueSize = DoubleSize

	// ProloguePayload is the payload offset of the prologue sentinel.
	ProloguePayload = 2 * WordSize

	// FirstBlock is the payload offset of the first real block.
	FirstBlock = InitialHeapSize

	// MaxBlockSize is the largest size a 32-bit tag can record.
	MaxBlockSize = 1<<32 - Alignment

	// EndOfList terminates a free list. Offset 0 is the alignment pad, so it
	// never names a payload.
	EndOfList uint32 = 0
)

const (
	allocBit = 0x1
	sizeMask = ^uint32(AlignmentMask)
)
