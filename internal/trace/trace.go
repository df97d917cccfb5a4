// Package trace reads allocation traces in the malloc-lab text format.
//
// A trace starts with four integer header lines, then one operation per line:
//
//	20000      suggested heap size (informational)
//	2          number of distinct block ids
//	3          number of operations
//	1          weight
//	a 0 512    allocate 512 bytes as block 0
//	r 0 640    resize block 0 to 640 bytes
//	f 0        free block 0
//
// Blank lines and lines starting with '#' are ignored.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// OpKind identifies a trace operation.
type OpKind uint8

const (
	Alloc OpKind = iota
	Realloc
	Free
)

func (k OpKind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Realloc:
		return "realloc"
	case Free:
		return "free"
	}
	return fmt.Sprintf("OpKind(%d)", uint8(k))
}

// Op is one trace operation. Size is zero for Free.
type Op struct {
	Kind OpKind
	ID   int
	Size uint32
	Line int // 1-based source line
}

// Trace is a parsed allocation trace.
type Trace struct {
	Name          string // file base name when read with ParseFile
	SuggestedHeap int
	NumIDs        int
	Weight        int
	Ops           []Op
}

// Counts returns the number of operations of each kind.
func (t *Trace) Counts() (allocs, reallocs, frees int) {
	for _, op := range t.Ops {
		switch op.Kind {
		case Alloc:
			allocs++
		case Realloc:
			reallocs++
		case Free:
			frees++
		}
	}
	return allocs, reallocs, frees
}

// ParseFile opens and parses the trace at path.
func ParseFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Name = filepath.Base(path)
	return t, nil
}

// Parse reads a trace from r. Every failure is a *ParseError wrapping one of
// the package's sentinel errors.
func Parse(r io.Reader) (*Trace, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), ScannerMaxLineSize)

	t := &Trace{}
	var header [headerFields]int
	nheader := 0
	numOps := 0
	lineno := 0

	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, CommentPrefix) {
			continue
		}

		if nheader < headerFields {
			v, err := strconv.Atoi(line)
			if err != nil || v < 0 {
				return nil, &ParseError{Line: lineno, Err: fmt.Errorf("%w: %q", ErrBadHeader, line)}
			}
			header[nheader] = v
			nheader++
			if nheader == headerFields {
				t.SuggestedHeap, t.NumIDs, numOps, t.Weight = header[0], header[1], header[2], header[3]
				if t.NumIDs > MaxIDs {
					return nil, &ParseError{Line: lineno, Err: fmt.Errorf("%w: %d ids", ErrBadHeader, t.NumIDs)}
				}
				t.Ops = make([]Op, 0, min(numOps, 1<<20))
			}
			continue
		}

		op, err := parseOp(line, t.NumIDs)
		if err != nil {
			return nil, &ParseError{Line: lineno, Err: err}
		}
		op.Line = lineno
		t.Ops = append(t.Ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Line: lineno + 1, Err: err}
	}

	if nheader < headerFields {
		return nil, &ParseError{Line: lineno, Err: fmt.Errorf("%w: %d of %d values", ErrBadHeader, nheader, headerFields)}
	}
	if len(t.Ops) != numOps {
		return nil, &ParseError{Line: lineno, Err: fmt.Errorf("%w: header says %d, found %d", ErrOpCount, numOps, len(t.Ops))}
	}
	return t, nil
}

func parseOp(line string, numIDs int) (Op, error) {
	fields := strings.Fields(line)

	var op Op
	want := 3
	switch fields[0] {
	case OpAlloc:
		op.Kind = Alloc
	case OpRealloc:
		op.Kind = Realloc
	case OpFree:
		op.Kind = Free
		want = 2
	default:
		return Op{}, fmt.Errorf("%w: unknown op %q", ErrBadOp, fields[0])
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("%w: %q wants %d fields, got %d", ErrBadOp, fields[0], want, len(fields))
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 || id >= numIDs {
		return Op{}, fmt.Errorf("%w: %q (ids 0..%d)", ErrBadID, fields[1], numIDs-1)
	}
	op.ID = id

	if op.Kind != Free {
		size, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return Op{}, fmt.Errorf("%w: %q", ErrBadSize, fields[2])
		}
		op.Size = uint32(size)
	}
	return op, nil
}
