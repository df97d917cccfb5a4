package trace

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Basic(t *testing.T) {
	in := "20000\n2\n3\n1\na 0 512\nr 0 640\nf 0\n"

	tr, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 20000, tr.SuggestedHeap)
	assert.Equal(t, 2, tr.NumIDs)
	assert.Equal(t, 1, tr.Weight)
	require.Len(t, tr.Ops, 3)

	assert.Equal(t, Op{Kind: Alloc, ID: 0, Size: 512, Line: 5}, tr.Ops[0])
	assert.Equal(t, Op{Kind: Realloc, ID: 0, Size: 640, Line: 6}, tr.Ops[1])
	assert.Equal(t, Op{Kind: Free, ID: 0, Line: 7}, tr.Ops[2])
}

func TestParse_BlankLinesAndComments(t *testing.T) {
	in := "# header follows\n\n100\n  1\n1\n1\n\n   a 0 0   \n"

	tr, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tr.Ops, 1)
	assert.Equal(t, uint32(0), tr.Ops[0].Size)
	assert.Equal(t, 8, tr.Ops[0].Line)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
		line int
	}{
		{"short header", "100\n2\n", ErrBadHeader, 2},
		{"non-numeric header", "100\nabc\n1\n1\n", ErrBadHeader, 2},
		{"negative header", "100\n-1\n1\n1\n", ErrBadHeader, 2},
		{"unknown op", "100\n1\n1\n1\nx 0 8\n", ErrBadOp, 5},
		{"alloc missing size", "100\n1\n1\n1\na 0\n", ErrBadOp, 5},
		{"free with size", "100\n1\n1\n1\nf 0 8\n", ErrBadOp, 5},
		{"id out of range", "100\n2\n1\n1\na 2 8\n", ErrBadID, 5},
		{"negative id", "100\n2\n1\n1\na -1 8\n", ErrBadID, 5},
		{"size too large", "100\n1\n1\n1\na 0 4294967296\n", ErrBadSize, 5},
		{"negative size", "100\n1\n1\n1\nr 0 -4\n", ErrBadSize, 5},
		{"too few ops", "100\n1\n2\n1\na 0 8\n", ErrOpCount, 5},
		{"too many ops", "100\n1\n1\n1\na 0 8\nf 0\n", ErrOpCount, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in))
			require.Error(t, err)
			require.ErrorIs(t, err, tt.want)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line)
			assert.Contains(t, err.Error(), "line ")
		})
	}
}

func TestParseFile_Testdata(t *testing.T) {
	tests := []struct {
		file   string
		ids    int
		ops    int
		allocs int
		reallc int
		frees  int
	}{
		{"short1.rep", 6, 12, 6, 0, 6},
		{"realloc.rep", 3, 9, 3, 3, 3},
		{"random.rep", 191, 464, 191, 82, 191},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			tr, err := ParseFile("testdata/" + tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.file, tr.Name)
			assert.Equal(t, tt.ids, tr.NumIDs)
			require.Len(t, tr.Ops, tt.ops)

			a, r, f := tr.Counts()
			assert.Equal(t, tt.allocs, a)
			assert.Equal(t, tt.reallc, r)
			assert.Equal(t, tt.frees, f)
		})
	}
}

func TestParseFile_BadOp(t *testing.T) {
	_, err := ParseFile("testdata/bad_op.rep")
	require.ErrorIs(t, err, ErrBadOp)
	assert.Contains(t, err.Error(), "testdata/bad_op.rep")
	assert.Contains(t, err.Error(), "line 6")
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile("testdata/does-not-exist.rep")
	require.Error(t, err)
}

func TestOpKind_String(t *testing.T) {
	assert.Equal(t, "alloc", Alloc.String())
	assert.Equal(t, "realloc", Realloc.String())
	assert.Equal(t, "free", Free.String())
	assert.Equal(t, "OpKind(9)", OpKind(9).String())
}
