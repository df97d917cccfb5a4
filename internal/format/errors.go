package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrMisaligned indicates a payload offset that is not 8-byte aligned.
	ErrMisaligned = errors.New("format: misaligned block")
	// ErrTagMismatch indicates a block whose header and footer differ.
	ErrTagMismatch = errors.New("format: header/footer mismatch")
	// ErrBlockTooSmall indicates a block below the minimum block size.
	ErrBlockTooSmall = errors.New("format: block too small")
)
