package arena

import (
	"fmt"
)

const (
	// DefaultMaxHeap is the reservation used when New is given a non-positive size.
	DefaultMaxHeap = 20 << 20

	// maxArenaSize keeps every offset representable in a 32-bit boundary tag.
	maxArenaSize = 0x7FFFFFFF
)

// Arena is a contiguous, grow-only byte range backed by a single reservation.
type Arena struct {
	mem []byte // full reservation; len(mem) is the capacity
	brk int    // current break, first byte past the heap
}

// New reserves maxSize bytes, rounded up to the OS page size.
// A non-positive maxSize selects DefaultMaxHeap.
func New(maxSize int) *Arena {
	return &Arena{mem: make([]byte, reserveSize(maxSize))}
}

// reserveSize applies the defaulting, page rounding and 32-bit cap.
func reserveSize(maxSize int) int {
	if maxSize <= 0 {
		maxSize = DefaultMaxHeap
	}
	if ps := PageSize(); ps > 0 {
		if r := maxSize % ps; r != 0 && maxSize <= maxArenaSize-(ps-r) {
			maxSize += ps - r
		}
	}
	if maxSize > maxArenaSize {
		maxSize = maxArenaSize
	}
	return maxSize
}

// Sbrk extends the heap by n bytes and returns the old break, which is the
// offset of the first new byte. On failure the break is unchanged.
func (a *Arena) Sbrk(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("sbrk %d: %w", n, ErrNegativeGrow)
	}
	if n > len(a.mem)-a.brk {
		return 0, fmt.Errorf("sbrk %d at break %d (capacity %d): %w", n, a.brk, len(a.mem), ErrHeapExhausted)
	}
	old := a.brk
	a.brk += n
	return old, nil
}

// Lo returns the offset of the first heap byte.
func (a *Arena) Lo() int { return 0 }

// Hi returns the offset of the last heap byte, or -1 for an empty heap.
func (a *Arena) Hi() int { return a.brk - 1 }

// Size returns the current heap size in bytes.
func (a *Arena) Size() int { return a.brk }

// Cap returns the reserved capacity in bytes.
func (a *Arena) Cap() int { return len(a.mem) }

// Bytes returns the heap bytes [Lo, Hi]. The slice's capacity is clipped to
// the break so appends cannot write past the heap.
func (a *Arena) Bytes() []byte { return a.mem[:a.brk:a.brk] }

// Reset zeroes the used range and moves the break back to 0.
func (a *Arena) Reset() {
	clear(a.mem[:a.brk])
	a.brk = 0
}
