package alloc

import (
	"fmt"
	"io"
	"os"

	"github.com/joshuapare/segheap/internal/buf"
	"github.com/joshuapare/segheap/internal/format"
)

// Debug flag - set to true to enable verbose logging (compile-time toggle).
const debugAlloc = false

// Runtime debug flag for allocation logging - controlled by SEGHEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("SEGHEAP_LOG_ALLOC") != ""

// largeRequest is the request size above which logAlloc reports an allocation.
const largeRequest = 1000

// SegAllocator is a segregated-fit allocator with boundary-tag coalescing.
//   - Power-of-two size classes, one singly linked free list each
//   - LIFO insertion, first-fit search in ascending class order
//   - Immediate coalescing with both physical neighbors on free
//   - Free-list links live in the first 8 bytes of each free payload
//
// NOT thread-safe. Wrap the whole allocator in one mutex, or give each
// goroutine its own allocator and arena.
type SegAllocator struct {
	p  Provider
	dt DirtyTracker // Dirty tracker notified of every tag and link write

	cfg       Config
	sizeTable *sizeClassTable

	// heads[i] is the payload offset of the first free block in class i,
	// or format.EndOfList.
	heads []uint32

	// ready is false until Init succeeds, and again after a failed Init.
	ready bool

	stats Stats

	// Test hook: called after each successful heap extension (nil in production)
	onGrow func(int)

	// CheckHeap diagnostics sink and exit function.
	diag io.Writer
	exit func(int)
}

// New creates a segregated-fit allocator over p and initializes its heap.
//
// Parameters:
//   - p: The heap memory provider to grow into (reset by Init)
//   - dt: Dirty tracker for metadata writes (can be nil)
//   - config: Growth and size class configuration (use nil for DefaultConfig)
func New(p Provider, dt DirtyTracker, config *Config) (*SegAllocator, error) {
	if config == nil {
		config = &DefaultConfig
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	sizeTable := newSizeClassTable(*config)

	a := &SegAllocator{
		p:         p,
		dt:        dt,
		cfg:       *config,
		sizeTable: sizeTable,
		heads:     make([]uint32, sizeTable.NumClasses()),
		diag:      os.Stderr,
		exit:      os.Exit,
	}
	if err := a.Init(); err != nil {
		return nil, err
	}
	return a, nil
}

// Init discards the current heap and lays down a fresh one: alignment pad,
// prologue, epilogue, and one free block of the configured chunk size.
//
// If the provider cannot supply either growth, Init returns ErrInitFailed
// and every later operation returns ErrNotInitialized until Init succeeds.
func (a *SegAllocator) Init() error {
	a.ready = false
	a.stats = Stats{}
	for i := range a.heads {
		a.heads[i] = format.EndOfList
	}

	if err := initHeap(a.p, a.dt); err != nil {
		return fmt.Errorf("%w: %w", ErrInitFailed, err)
	}
	if _, err := a.extendHeap(a.cfg.ChunkSize); err != nil {
		return fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	a.ready = true
	return nil
}

// Alloc allocates a block with at least size payload bytes and returns its
// payload offset.
func (a *SegAllocator) Alloc(size uint32) (Ptr, error) {
	if !a.ready {
		return Nil, ErrNotInitialized
	}
	a.stats.AllocCalls++

	if debugAlloc && a.stats.AllocCalls%25000 == 0 {
		a.PrintStats(os.Stderr)
	}

	asize, ok := format.AdjustedSize(uint64(size))
	if !ok {
		return Nil, fmt.Errorf("%w: request of %d bytes exceeds the largest block", ErrOutOfMemory, size)
	}

	if logAlloc && size > largeRequest {
		fmt.Fprintf(os.Stderr, "[ALLOC] Request: %d bytes → block of %d bytes\n", size, asize)
	}

	data := a.p.Bytes()
	if bp, found := a.findFit(data, asize); found {
		a.stats.AllocFastPath++
		a.place(data, bp, asize)
		a.stats.BytesAllocated += int64(format.BlockSize(data, bp))
		return Ptr(bp), nil
	}

	// No fit found. Get more memory and place the block.
	bp, err := a.extendHeap(max(asize, a.cfg.ChunkSize))
	if err != nil {
		debugLogf("Alloc(%d): grow failed: %v", size, err)
		return Nil, err
	}
	a.stats.AllocSlowPath++
	data = a.p.Bytes()
	a.place(data, bp, asize)
	a.stats.BytesAllocated += int64(format.BlockSize(data, bp))
	return Ptr(bp), nil
}

// Free releases the block at p and coalesces it with free neighbors.
// Free(Nil) is a no-op. A reference that cannot address a block returns
// ErrBadRef; double frees and foreign in-heap offsets are not detected.
func (a *SegAllocator) Free(p Ptr) error {
	if p == Nil {
		return nil
	}
	if !a.ready {
		return ErrNotInitialized
	}
	data := a.p.Bytes()
	if err := checkRef(data, p); err != nil {
		return err
	}
	a.stats.FreeCalls++

	bp := int(p)
	size := format.BlockSize(data, bp)
	a.stats.BytesFreed += int64(size)
	putTags(a.dt, data, bp, size, false)
	a.coalesce(data, bp)
	return nil
}

// Realloc allocates a block of the new size, copies min(old payload, size)
// bytes into it and frees p. If the allocation fails p is left untouched.
func (a *SegAllocator) Realloc(p Ptr, size uint32) (Ptr, error) {
	if !a.ready {
		return Nil, ErrNotInitialized
	}
	a.stats.ReallocCalls++

	if size == 0 {
		return Nil, a.Free(p)
	}
	if p == Nil {
		return a.Alloc(size)
	}

	if err := checkRef(a.p.Bytes(), p); err != nil {
		return Nil, err
	}
	np, err := a.Alloc(size)
	if err != nil {
		return Nil, err
	}

	// Alloc may have grown the heap; re-read the bytes.
	data := a.p.Bytes()
	old := payload(data, p)
	n := min(len(old), int(size))
	copy(payload(data, np)[:n], old[:n])

	if err := a.Free(p); err != nil {
		return Nil, err
	}
	return np, nil
}

// AllocZeroed allocates count*size bytes and zeroes the entire payload.
// A product that does not fit in 32 bits returns ErrSizeOverflow.
func (a *SegAllocator) AllocZeroed(count, size uint32) (Ptr, error) {
	n, ok := buf.MulU32Safe(count, size)
	if !ok {
		return Nil, fmt.Errorf("%w: %d * %d", ErrSizeOverflow, count, size)
	}
	p, err := a.Alloc(n)
	if err != nil {
		return Nil, err
	}
	clear(a.Payload(p))
	return p, nil
}

// Payload returns the caller-owned bytes of the block at p: its size minus
// the header and footer words. It returns nil if p does not address a block.
//
// The slice aliases the heap. It stays valid across heap growth but must not
// be used after p is freed.
func (a *SegAllocator) Payload(p Ptr) []byte {
	if p == Nil {
		return nil
	}
	return payload(a.p.Bytes(), p)
}

// HeapSize returns the current heap size in bytes.
func (a *SegAllocator) HeapSize() int {
	return len(a.p.Bytes())
}

// Config returns the configuration the allocator was built with.
func (a *SegAllocator) Config() Config {
	return a.cfg
}

// extendHeap grows the heap by size bytes (a multiple of 8), turns the new
// space into a free block and coalesces it with a free block before it.
// The old epilogue header becomes the new block's header.
// Returns the payload offset of the resulting free block.
func (a *SegAllocator) extendHeap(size uint32) (int, error) {
	old, err := a.p.Sbrk(int(size))
	if err != nil {
		return 0, fmt.Errorf("%w: grow by %d bytes: %w", ErrOutOfMemory, size, err)
	}
	a.stats.GrowCalls++
	a.stats.GrowBytes += int64(size)

	if logAlloc {
		fmt.Fprintf(
			os.Stderr,
			"[GROW] #%d: +%d bytes at %#x | heap now %d bytes\n",
			a.stats.GrowCalls,
			size,
			old,
			old+int(size),
		)
	}

	data := a.p.Bytes()
	bp := old
	putTags(a.dt, data, bp, size, false)
	putWord(a.dt, data, format.HeaderOff(format.NextBlock(data, bp)), format.Pack(0, true))

	if a.onGrow != nil {
		a.onGrow(int(size))
	}

	return a.coalesce(data, bp), nil
}

// debugLogf prints debug messages if debugAlloc is enabled.
func debugLogf(format string, args ...any) {
	if debugAlloc {
		fmt.Fprintf(os.Stderr, "[ALLOC] "+format+"\n", args...)
	}
}
