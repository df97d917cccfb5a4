package trace

const (
	// OpAlloc starts an allocation line: "a <id> <size>"
	OpAlloc = "a"

	// OpRealloc starts a reallocation line: "r <id> <size>"
	OpRealloc = "r"

	// OpFree starts a free line: "f <id>"
	OpFree = "f"

	// CommentPrefix marks a comment line
	CommentPrefix = "#"

	// headerFields is the number of leading integer header values:
	// suggested heap size, id count, op count, weight.
	headerFields = 4

	// ScannerMaxLineSize is the maximum line size for the trace scanner
	ScannerMaxLineSize = 64 * 1024

	// MaxIDs caps the id count a header may declare.
	MaxIDs = 1 << 24
)
