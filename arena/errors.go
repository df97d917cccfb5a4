package arena

import "errors"

var (
	// ErrHeapExhausted is returned by Sbrk when the reservation cannot cover the request.
	ErrHeapExhausted = errors.New("arena: heap exhausted")

	// ErrNegativeGrow is returned by Sbrk for a negative increment. The heap never shrinks.
	ErrNegativeGrow = errors.New("arena: negative growth")
)
