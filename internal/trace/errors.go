package trace

import (
	"errors"
	"fmt"
)

var (
	// ErrBadHeader indicates a missing or non-numeric header value.
	ErrBadHeader = errors.New("trace: bad header")

	// ErrBadOp indicates an unknown operation letter or a wrong field count.
	ErrBadOp = errors.New("trace: bad operation")

	// ErrBadID indicates an id outside [0, NumIDs).
	ErrBadID = errors.New("trace: id out of range")

	// ErrBadSize indicates a size that is not a non-negative 32-bit integer.
	ErrBadSize = errors.New("trace: bad size")

	// ErrOpCount indicates the body does not hold exactly NumOps operations.
	ErrOpCount = errors.New("trace: operation count mismatch")
)

// ParseError records the 1-based input line a parse failure occurred on.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
