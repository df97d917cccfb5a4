package alloc

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/segheap/internal/format"
)

// Stats holds allocator counters for testing and instrumentation.
type Stats struct {
	GrowCalls        int   // Number of heap extensions
	GrowBytes        int64 // Total bytes added by heap extensions
	AllocCalls       int   // Total Alloc() calls
	AllocFastPath    int   // Allocations satisfied from a free list
	AllocSlowPath    int   // Allocations that required a heap extension
	FreeCalls        int   // Total Free() calls (Nil excluded)
	ReallocCalls     int   // Total Realloc() calls
	BytesAllocated   int64 // Total block bytes handed out (including tags)
	BytesFreed       int64 // Total block bytes released
	SplitCount       int   // Number of block splits
	CoalesceForward  int   // Merges with the following block
	CoalesceBackward int   // Merges with the preceding block
	FitScanSteps     int   // Free blocks inspected by the fit search
	ListScanSteps    int   // Predecessor steps taken by free-list removal
}

// Stats returns a snapshot of the allocator counters. Init resets them.
func (a *SegAllocator) Stats() Stats {
	return a.stats
}

// FreeListLengths returns the number of blocks on each free list.
func (a *SegAllocator) FreeListLengths() []int {
	data := a.p.Bytes()
	out := make([]int, len(a.heads))
	for i := range a.heads {
		out[i] = a.listLen(data, i)
	}
	return out
}

// PrintStats writes allocator statistics to w.
func (a *SegAllocator) PrintStats(w io.Writer) {
	s := a.stats
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "\n=== ALLOCATOR STATISTICS (%s) ===\n", a.sizeTable)
	p.Fprintf(w, "Heap size:          %d bytes\n", a.HeapSize())
	p.Fprintf(w, "Grow calls:         %d (%d bytes added)\n", s.GrowCalls, s.GrowBytes)
	p.Fprintf(w, "Alloc calls:        %d (fast: %d, slow: %d)\n", s.AllocCalls, s.AllocFastPath, s.AllocSlowPath)
	p.Fprintf(w, "Free calls:         %d\n", s.FreeCalls)
	p.Fprintf(w, "Realloc calls:      %d\n", s.ReallocCalls)
	p.Fprintf(w, "Bytes allocated:    %d\n", s.BytesAllocated)
	p.Fprintf(w, "Bytes freed:        %d\n", s.BytesFreed)
	p.Fprintf(w, "Net allocated:      %d\n", s.BytesAllocated-s.BytesFreed)
	p.Fprintf(w, "Block splits:       %d\n", s.SplitCount)
	p.Fprintf(w, "Coalesce fwd:       %d\n", s.CoalesceForward)
	p.Fprintf(w, "Coalesce back:      %d\n", s.CoalesceBackward)
	p.Fprintf(w, "Fit scan steps:     %d\n", s.FitScanSteps)
	p.Fprintf(w, "List scan steps:    %d\n", s.ListScanSteps)

	data := a.p.Bytes()
	totalFree := int64(0)
	totalBlocks := 0
	p.Fprintf(w, "\nFree lists:\n")
	for i, head := range a.heads {
		n := 0
		for bp := head; bp != format.EndOfList; bp = format.Link(data, int(bp)) {
			totalFree += int64(format.BlockSize(data, int(bp)))
			n++
		}
		if n > 0 {
			p.Fprintf(w, "  list[%2d]:         %d blocks\n", i, n)
		}
		totalBlocks += n
	}

	avg := int64(0)
	if totalBlocks > 0 {
		avg = totalFree / int64(totalBlocks)
	}
	p.Fprintf(w, "\nFragmentation:\n")
	p.Fprintf(w, "  Free blocks:      %d\n", totalBlocks)
	p.Fprintf(w, "  Free bytes:       %d\n", totalFree)
	p.Fprintf(w, "  Avg block size:   %d bytes\n", avg)
	if s.GrowBytes > 0 {
		p.Fprintf(w, "  Waste ratio:      %.1f%% (grow - net_alloc) / grow\n",
			100.0*float64(s.GrowBytes-(s.BytesAllocated-s.BytesFreed))/float64(s.GrowBytes))
	}
	p.Fprintf(w, "============================\n\n")
}
