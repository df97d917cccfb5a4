package replay

import (
	"errors"
	"fmt"

	"github.com/joshuapare/segheap/internal/trace"
)

var (
	// ErrMisaligned indicates a returned block that is not 8-byte aligned.
	ErrMisaligned = errors.New("replay: payload not aligned")

	// ErrOutsideHeap indicates a payload range that does not lie inside the heap.
	ErrOutsideHeap = errors.New("replay: payload outside heap")

	// ErrOverlap indicates a payload range that overlaps another live payload.
	ErrOverlap = errors.New("replay: payload overlaps a live block")

	// ErrCorrupted indicates a live payload whose contents changed behind the caller's back.
	ErrCorrupted = errors.New("replay: payload contents corrupted")

	// ErrNotLive indicates a free of an id that holds no block.
	ErrNotLive = errors.New("replay: id has no live block")

	// ErrLiveID indicates an alloc into an id that still holds a block.
	ErrLiveID = errors.New("replay: id already holds a live block")
)

// OpError reports the trace operation a replay failed on.
type OpError struct {
	Index int // position in Trace.Ops
	Op    trace.Op
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("op %d (line %d, %s id %d): %v", e.Index, e.Op.Line, e.Op.Kind, e.Op.ID, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
