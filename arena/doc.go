// Package arena provides the heap memory provider used by the allocators in
// arena/alloc.
//
// An Arena reserves its full capacity once, at construction, and then hands
// out that reservation from the bottom up through Sbrk, the same contract as
// the classic sbrk(2) break pointer: the heap only grows, and a growth request
// either succeeds completely or fails without changing anything.
//
// Reserving up front means a slice returned by Bytes stays valid (its backing
// array never moves) across later growth. Only the visible length changes.
//
// # Usage
//
//	a := arena.New(arena.DefaultMaxHeap)
//	old, err := a.Sbrk(4096)
//	if err != nil {
//	    // errors.Is(err, arena.ErrHeapExhausted)
//	}
//	heap := a.Bytes() // [a.Lo(), a.Hi()]
//
// Arena is not safe for concurrent use.
package arena
