package dirty

import (
	"sort"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64

	// standardPageSize is the page size used when NewTracker is given none.
	standardPageSize = 4096
)

// Range represents a dirty byte range (heap offsets).
type Range struct {
	Off int64
	Len int64
}

// Tracker accumulates dirty ranges and reports them page-aligned and merged.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	ranges   []Range // raw ranges, coalesced on demand
	pageSize int64
	writes   int
	bytes    int64
}

// NewTracker creates a dirty tracker with the given page size.
// A non-positive pageSize selects 4096.
func NewTracker(pageSize int) *Tracker {
	if pageSize <= 0 {
		pageSize = standardPageSize
	}
	return &Tracker{
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: int64(pageSize),
	}
}

// Add records a dirty range. Empty ranges are ignored.
//
// Adjacent writes to the same or the following byte extend the previous range
// in place, which keeps the range list short for the header/footer/link write
// pattern of a block update.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.writes++
	t.bytes += int64(length)

	if n := len(t.ranges); n > 0 {
		last := &t.ranges[n-1]
		if int64(off) >= last.Off && int64(off) <= last.Off+last.Len {
			if end := int64(off + length); end > last.Off+last.Len {
				last.Len = end - last.Off
			}
			return
		}
	}
	t.ranges = append(t.ranges, Range{
		Off: int64(off),
		Len: int64(length),
	})
}

// Writes returns the number of non-empty Add calls since the last Reset.
func (t *Tracker) Writes() int { return t.writes }

// BytesWritten returns the total length passed to Add since the last Reset.
func (t *Tracker) BytesWritten() int64 { return t.bytes }

// Ranges returns the page-aligned, sorted and merged dirty ranges.
func (t *Tracker) Ranges() []Range {
	return t.coalesce()
}

// PagesTouched returns the number of distinct pages covered by dirty ranges.
func (t *Tracker) PagesTouched() int {
	var n int64
	for _, r := range t.coalesce() {
		n += r.Len / t.pageSize
	}
	return int(n)
}

// Reset clears all tracked ranges and counters.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
	t.writes = 0
	t.bytes = 0
}

// DebugRanges returns the current raw ranges (for testing/debugging).
func (t *Tracker) DebugRanges() []Range {
	result := make([]Range, len(t.ranges))
	copy(result, t.ranges)
	return result
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping/adjacent ranges.
//
// Returns a new slice of non-overlapping, sorted ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize

		end := r.Off + r.Len
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}

		aligned[i] = Range{
			Off: start,
			Len: end - start,
		}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]

	for i := 1; i < len(aligned); i++ {
		next := aligned[i]

		if next.Off <= current.Off+current.Len {
			end := current.Off + current.Len
			nextEnd := next.Off + next.Len
			if nextEnd > end {
				end = nextEnd
			}
			current.Len = end - current.Off
		} else {
			merged = append(merged, current)
			current = next
		}
	}

	merged = append(merged, current)
	return merged
}
