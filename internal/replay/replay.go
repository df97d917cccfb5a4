// Package replay drives an allocator through an allocation trace and checks
// every block it hands out.
//
// For each returned block the runner verifies alignment, that the requested
// payload lies inside the heap, and that it overlaps no other live payload.
// Every live payload is filled with a byte pattern derived from its trace id;
// the pattern is verified on realloc and free, so an allocator that writes
// metadata into a live block is caught.
package replay

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/joshuapare/segheap/arena/alloc"
	"github.com/joshuapare/segheap/internal/buf"
	"github.com/joshuapare/segheap/internal/format"
	"github.com/joshuapare/segheap/internal/trace"
)

// Options configures a replay.
type Options struct {
	// Check runs the allocator's heap checker after every operation, passing
	// the op's trace line number. The allocator must implement alloc.Checker.
	Check bool

	// OnOp, if set, is called after each operation completes with the block
	// the op's id now holds (Nil after a free).
	OnOp func(i int, op trace.Op, p alloc.Ptr)
}

// Result summarizes a completed replay.
type Result struct {
	Trace       string
	Ops         int
	Allocs      int
	Reallocs    int
	Frees       int
	PeakLive    int64   // largest sum of requested payload bytes live at once
	LiveBytes   int64   // requested payload bytes still live when the replay stopped
	HeapSize    int     // heap size after the last op
	Utilization float64 // PeakLive / HeapSize
}

type block struct {
	p    alloc.Ptr
	size uint32
	live bool
}

// span is the half-open payload range [lo, hi) of a live block.
type span struct {
	lo, hi int
	id     int
}

type runner struct {
	a      alloc.Allocator
	chk    alloc.Checker
	blocks []block
	spans  []span // sorted by lo, pairwise disjoint
	live   int64
}

// Run replays tr against a. It stops at the first failing operation and
// returns the partial Result together with an *OpError. Cancellation of ctx
// is checked between operations.
func Run(ctx context.Context, tr *trace.Trace, a alloc.Allocator, opts Options) (Result, error) {
	res := Result{Trace: tr.Name}

	r := &runner{
		a:      a,
		blocks: make([]block, tr.NumIDs),
	}
	if opts.Check {
		chk, ok := a.(alloc.Checker)
		if !ok {
			return res, alloc.ErrNoChecker
		}
		r.chk = chk
	}

	for i, op := range tr.Ops {
		if err := ctx.Err(); err != nil {
			return r.finish(res), fmt.Errorf("replay interrupted at op %d: %w", i, err)
		}

		var err error
		switch op.Kind {
		case trace.Alloc:
			err = r.alloc(op)
			res.Allocs++
		case trace.Realloc:
			err = r.realloc(op)
			res.Reallocs++
		case trace.Free:
			err = r.free(op)
			res.Frees++
		}
		if err == nil && r.chk != nil {
			err = r.chk.Check(op.Line)
		}
		res.Ops++
		if err != nil {
			return r.finish(res), &OpError{Index: i, Op: op, Err: err}
		}

		res.PeakLive = max(res.PeakLive, r.live)
		if opts.OnOp != nil {
			opts.OnOp(i, op, r.blocks[op.ID].p)
		}
	}
	return r.finish(res), nil
}

func (r *runner) finish(res Result) Result {
	res.LiveBytes = r.live
	res.HeapSize = r.a.HeapSize()
	if res.HeapSize > 0 {
		res.Utilization = float64(res.PeakLive) / float64(res.HeapSize)
	}
	return res
}

func (r *runner) alloc(op trace.Op) error {
	b := &r.blocks[op.ID]
	if b.live {
		return ErrLiveID
	}
	p, err := r.a.Alloc(op.Size)
	if err != nil {
		return err
	}
	if err := r.adopt(op.ID, p, op.Size); err != nil {
		return err
	}
	fill(r.a.Payload(p)[:op.Size], op.ID)
	return nil
}

func (r *runner) realloc(op trace.Op) error {
	b := &r.blocks[op.ID]
	old := alloc.Nil
	if b.live {
		if err := r.verify(op.ID); err != nil {
			return err
		}
		old = b.p
	}
	oldSize := b.size

	// A failed realloc leaves the old block live and accounted for.
	p, err := r.a.Realloc(old, op.Size)
	if err != nil {
		return err
	}
	if old != alloc.Nil {
		r.drop(op.ID)
	}
	if op.Size == 0 {
		// Realloc to zero frees the block.
		*b = block{}
		return nil
	}
	if err := r.adopt(op.ID, p, op.Size); err != nil {
		return err
	}

	data := r.a.Payload(p)
	if old != alloc.Nil {
		if !holds(data[:min(oldSize, op.Size)], op.ID) {
			return fmt.Errorf("realloc of %d to %d moved payload to %d: %w", old, op.Size, p, ErrCorrupted)
		}
	}
	fill(data[:op.Size], op.ID)
	return nil
}

func (r *runner) free(op trace.Op) error {
	b := &r.blocks[op.ID]
	if !b.live {
		return ErrNotLive
	}
	if err := r.verify(op.ID); err != nil {
		return err
	}
	if err := r.a.Free(b.p); err != nil {
		return err
	}
	r.drop(op.ID)
	*b = block{}
	return nil
}

// adopt validates a freshly returned block and records it as live.
func (r *runner) adopt(id int, p alloc.Ptr, size uint32) error {
	if !format.IsAligned(int(p)) {
		return fmt.Errorf("block %d: %w", p, ErrMisaligned)
	}
	// A zero-byte request still occupies its first payload byte.
	n := int(max(size, 1))
	end, ok := buf.AddOverflowSafe(int(p), n)
	if !ok || p == alloc.Nil || end > r.a.HeapSize() || len(r.a.Payload(p)) < int(size) {
		return fmt.Errorf("block %d size %d (heap %d): %w", p, size, r.a.HeapSize(), ErrOutsideHeap)
	}

	s := span{lo: int(p), hi: end, id: id}
	i, _ := slices.BinarySearchFunc(r.spans, s.lo, func(e span, lo int) int { return cmp.Compare(e.lo, lo) })
	if i > 0 && r.spans[i-1].hi > s.lo {
		return fmt.Errorf("block %d overlaps id %d at [%d,%d): %w", p, r.spans[i-1].id, r.spans[i-1].lo, r.spans[i-1].hi, ErrOverlap)
	}
	if i < len(r.spans) && r.spans[i].lo < s.hi {
		return fmt.Errorf("block %d overlaps id %d at [%d,%d): %w", p, r.spans[i].id, r.spans[i].lo, r.spans[i].hi, ErrOverlap)
	}
	r.spans = slices.Insert(r.spans, i, s)

	r.blocks[id] = block{p: p, size: size, live: true}
	r.live += int64(size)
	return nil
}

// drop removes a live block's span and live-byte accounting.
func (r *runner) drop(id int) {
	b := r.blocks[id]
	i, found := slices.BinarySearchFunc(r.spans, int(b.p), func(e span, lo int) int { return cmp.Compare(e.lo, lo) })
	if found {
		r.spans = slices.Delete(r.spans, i, i+1)
	}
	r.live -= int64(b.size)
}

func (r *runner) verify(id int) error {
	b := r.blocks[id]
	data := r.a.Payload(b.p)
	if len(data) < int(b.size) || !holds(data[:b.size], id) {
		return fmt.Errorf("block %d (id %d, %d bytes): %w", b.p, id, b.size, ErrCorrupted)
	}
	return nil
}

func patternSeed(id int) byte { return byte(id*131 + 17) }

func fill(b []byte, id int) {
	seed := patternSeed(id)
	for i := range b {
		b[i] = seed + byte(i)
	}
}

func holds(b []byte, id int) bool {
	seed := patternSeed(id)
	for i := range b {
		if b[i] != seed+byte(i) {
			return false
		}
	}
	return true
}
