package alloc

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/segheap/arena"
	"github.com/joshuapare/segheap/arena/verify"
	"github.com/joshuapare/segheap/internal/format"
)

// ============================================================================
// Allocator Creation Utilities
// ============================================================================

// newTestAllocator creates an allocator over a fresh arena of maxHeap bytes
// (0 for the default) with the default config.
func newTestAllocator(t testing.TB, maxHeap int) (*SegAllocator, *arena.Arena) {
	t.Helper()

	ar := arena.New(maxHeap)
	a, err := New(ar, nil, nil)
	require.NoError(t, err, "failed to create allocator")
	return a, ar
}

// limitProvider wraps an arena and refuses to grow past limit bytes.
type limitProvider struct {
	*arena.Arena
	limit int
}

func (lp *limitProvider) Sbrk(n int) (int, error) {
	if lp.Size()+n > lp.limit {
		return 0, fmt.Errorf("limit %d: %w", lp.limit, arena.ErrHeapExhausted)
	}
	return lp.Arena.Sbrk(n)
}

// newLimitedAllocator creates an allocator whose heap can never exceed limit bytes.
func newLimitedAllocator(t testing.TB, limit int, dt DirtyTracker) (*SegAllocator, *limitProvider) {
	t.Helper()

	lp := &limitProvider{Arena: arena.New(0), limit: limit}
	a, err := New(lp, dt, nil)
	require.NoError(t, err, "failed to create allocator")
	return a, lp
}

// ============================================================================
// Invariant Checking
// ============================================================================

// assertInvariants runs the allocator's own checker and the raw verifier.
func assertInvariants(t testing.TB, a *SegAllocator) {
	t.Helper()

	require.NoError(t, a.Check(0), "allocator check failed")
	require.NoError(t, verify.Heap(a.p.Bytes()), "raw heap verification failed")
}

// scanBlocks returns every block in address order.
func scanBlocks(t testing.TB, a *SegAllocator) []format.Block {
	t.Helper()

	var blocks []format.Block
	err := verify.Walk(a.p.Bytes(), func(b format.Block) error {
		blocks = append(blocks, b)
		return nil
	})
	require.NoError(t, err, "heap walk failed")
	return blocks
}

// blockAt returns the block whose payload starts at p.
func blockAt(t testing.TB, a *SegAllocator, p Ptr) format.Block {
	t.Helper()

	for _, b := range scanBlocks(t, a) {
		if b.Payload == int(p) {
			return b
		}
	}
	require.Failf(t, "block not found", "no block at %#x", int(p))
	return format.Block{}
}

// freeListOf returns the offsets on list i, head first.
func freeListOf(a *SegAllocator, i int) []int {
	data := a.p.Bytes()
	var out []int
	for bp := a.heads[i]; bp != format.EndOfList; bp = format.Link(data, int(bp)) {
		out = append(out, int(bp))
	}
	return out
}

// snapshot copies the heap bytes and list heads.
func snapshot(a *SegAllocator) ([]byte, []uint32) {
	return bytes.Clone(a.p.Bytes()), append([]uint32(nil), a.heads...)
}

// ============================================================================
// Mock Dirty Tracker
// ============================================================================

// MockDirtyTracker records every Add call.
type MockDirtyTracker struct {
	Ranges []struct{ Off, Len int }
}

func (m *MockDirtyTracker) Add(off, length int) {
	m.Ranges = append(m.Ranges, struct{ Off, Len int }{off, length})
}

func (m *MockDirtyTracker) Reset() { m.Ranges = nil }

// Covers reports whether some recorded range covers [off, off+length).
func (m *MockDirtyTracker) Covers(off, length int) bool {
	for _, r := range m.Ranges {
		if off >= r.Off && off+length <= r.Off+r.Len {
			return true
		}
	}
	return false
}

// ============================================================================
// Grow Instrumentation
// ============================================================================

// setupGrowCounter installs an onGrow hook and returns a pointer to the count.
func setupGrowCounter(a *SegAllocator) *int {
	count := 0
	a.onGrow = func(int) { count++ }
	return &count
}

// fillPattern writes an id-derived byte pattern into the payload of p.
func fillPattern(a Allocator, p Ptr, id int) {
	b := a.Payload(p)
	for i := range b {
		b[i] = byte(id*31 + i)
	}
}

// checkPattern verifies the first n bytes written by fillPattern.
func checkPattern(t testing.TB, a Allocator, p Ptr, id, n int) {
	t.Helper()

	b := a.Payload(p)
	require.GreaterOrEqual(t, len(b), n)
	for i := 0; i < n; i++ {
		if b[i] != byte(id*31+i) {
			require.Failf(t, "payload corrupted", "block %#x id %d byte %d: got %#x", int(p), id, i, b[i])
		}
	}
}
