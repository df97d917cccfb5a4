package format

// Align8 returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
//	Align8(16) = 16
func Align8(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// Align8U64 is Align8 for request sizes that may exceed the 32-bit tag range.
func Align8U64(n uint64) uint64 {
	return (n + AlignmentMask) &^ AlignmentMask
}

// IsAligned reports whether off sits on an 8-byte boundary.
func IsAligned(off int) bool {
	return off&AlignmentMask == 0
}

// AdjustedSize converts a requested payload size into a block size: room for
// the header and footer, rounded to the alignment, never below MinBlockSize.
// ok is false when the result cannot be recorded in a tag.
func AdjustedSize(request uint64) (size uint32, ok bool) {
	need := Align8U64(request + DoubleSize)
	if need < MinBlockSize {
		need = MinBlockSize
	}
	if need > MaxBlockSize {
		return 0, false
	}
	return uint32(need), true
}
