package alloc

import "errors"

var (
	// ErrOutOfMemory indicates that no free block was large enough and growing the heap failed.
	// No existing block or free-list state is modified when it is returned.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrInitFailed indicates that laying down the initial heap failed.
	ErrInitFailed = errors.New("alloc: heap initialization failed")

	// ErrNotInitialized indicates an operation on an allocator whose last Init failed.
	ErrNotInitialized = errors.New("alloc: allocator not initialized")

	// ErrBadRef indicates a block reference that cannot address a block in the heap.
	ErrBadRef = errors.New("alloc: bad block reference")

	// ErrSizeOverflow indicates that count * size in AllocZeroed does not fit in 32 bits.
	ErrSizeOverflow = errors.New("alloc: size overflow")

	// ErrBadConfig indicates an invalid Config.
	ErrBadConfig = errors.New("alloc: invalid config")

	// ErrNoChecker indicates a heap check requested of an allocator that cannot check its heap.
	ErrNoChecker = errors.New("alloc: allocator cannot check its heap")
)
