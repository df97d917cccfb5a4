package alloc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/segheap/arena"
	"github.com/joshuapare/segheap/arena/verify"
	"github.com/joshuapare/segheap/internal/format"
)

// newCheckedAllocator returns an allocator with three live 24-byte blocks
// (16, 40, 64) and a free tail at 88.
func newCheckedAllocator(t *testing.T) (*SegAllocator, []Ptr) {
	t.Helper()

	a, _ := newTestAllocator(t, 0)
	var live []Ptr
	for range 3 {
		p, err := a.Alloc(16)
		require.NoError(t, err)
		live = append(live, p)
	}
	require.Equal(t, []Ptr{16, 40, 64}, live)
	assertInvariants(t, a)
	return a, live
}

func requireViolation(t *testing.T, err error, typ string) *verify.ValidationError {
	t.Helper()

	require.Error(t, err)
	var verr *verify.ValidationError
	require.True(t, errors.As(err, &verr), "want *verify.ValidationError, got %T: %v", err, err)
	require.Equal(t, typ, verr.Type, "violation: %v", err)
	return verr
}

func TestCheck_Clean(t *testing.T) {
	a, live := newCheckedAllocator(t)
	require.NoError(t, a.Free(live[1]))
	require.NoError(t, a.Check(42))
}

func TestCheck_CarriesLine(t *testing.T) {
	a, _ := newCheckedAllocator(t)
	format.PutU32(a.p.Bytes(), format.PrologueHeaderOffset, format.Pack(16, true))

	err := a.Check(1234)
	verr := requireViolation(t, err, "Prologue")
	assert.Equal(t, 1234, verr.Details["line"])
	assert.Contains(t, err.Error(), "line 1234")
}

func TestCheck_TagMismatch(t *testing.T) {
	a, live := newCheckedAllocator(t)
	data := a.p.Bytes()

	// Overrun: the payload of live[0] spills into its own footer.
	format.PutU32(data, format.FooterOff(int(live[0]), 24), 0xDEADBEE8)

	err := a.Check(0)
	requireViolation(t, err, "Block")
	require.ErrorIs(t, err, format.ErrTagMismatch)
}

func TestCheck_AdjacentFreeBlocks(t *testing.T) {
	a, live := newCheckedAllocator(t)
	require.NoError(t, a.Free(live[0]))

	// Mark live[1] free behind the allocator's back and list it.
	data := a.p.Bytes()
	format.PutTags(data, int(live[1]), 24, false)
	a.listInsert(data, int(live[1]))

	requireViolation(t, a.Check(0), "Coalesce")
}

func TestCheck_FreeBlockNotListed(t *testing.T) {
	a, live := newCheckedAllocator(t)

	format.PutTags(a.p.Bytes(), int(live[1]), 24, false)

	err := a.Check(0)
	requireViolation(t, err, "FreeList")
	assert.Contains(t, err.Error(), "missing from list")
}

func TestCheck_AllocatedBlockListed(t *testing.T) {
	a, live := newCheckedAllocator(t)

	a.listInsert(a.p.Bytes(), int(live[1]))

	err := a.Check(0)
	requireViolation(t, err, "FreeList")
	assert.Contains(t, err.Error(), "allocated block on free list")
}

func TestCheck_WrongList(t *testing.T) {
	a, live := newCheckedAllocator(t)
	require.NoError(t, a.Free(live[1]))

	// Move live[1] from list 5 to list 9.
	data := a.p.Bytes()
	a.listRemove(data, int(live[1]))
	format.PutLink(data, int(live[1]), a.heads[9])
	a.heads[9] = uint32(live[1])

	err := a.Check(0)
	verr := requireViolation(t, err, "FreeList")
	assert.Equal(t, 5, verr.Details["want"])
}

func TestCheck_ListEntryOutsideHeap(t *testing.T) {
	a, _ := newCheckedAllocator(t)
	a.heads[3] = uint32(a.HeapSize() + 64)

	err := a.Check(0)
	requireViolation(t, err, "FreeList")
	assert.Contains(t, err.Error(), "outside heap bounds")
}

// shortHi reports a last heap byte trim bytes below the arena's.
type shortHi struct {
	*arena.Arena
	trim int
}

func (s *shortHi) Hi() int { return s.Arena.Hi() - s.trim }

func TestCheck_ProviderBoundsDisagree(t *testing.T) {
	sp := &shortHi{Arena: arena.New(0), trim: 16}
	a, err := New(sp, nil, nil)
	require.NoError(t, err)
	_, err = a.Alloc(16)
	require.NoError(t, err)

	err = a.Check(7)
	verr := requireViolation(t, err, "Bounds")
	assert.Equal(t, a.HeapSize()-16, verr.Details["end"])

	sp.trim = 0
	require.NoError(t, a.Check(8))
}

func TestCheck_ListEntryPastHi(t *testing.T) {
	a, _ := newCheckedAllocator(t)
	a.heads[3] = uint32(a.p.Hi() + 1)

	err := a.Check(0)
	verr := requireViolation(t, err, "FreeList")
	assert.Equal(t, a.p.Hi()+1, verr.Offset)
	assert.Equal(t, 3, verr.Details["list"])
}

func TestCheck_ListEntryNotOnChain(t *testing.T) {
	a, live := newCheckedAllocator(t)
	a.heads[3] = uint32(live[1]) + 8

	err := a.Check(0)
	requireViolation(t, err, "FreeList")
}

func TestCheck_ListCycle(t *testing.T) {
	a, live := newCheckedAllocator(t)
	require.NoError(t, a.Free(live[1]))

	format.PutLink(a.p.Bytes(), int(live[1]), uint32(live[1]))

	err := a.Check(0)
	requireViolation(t, err, "FreeList")
	assert.Contains(t, err.Error(), "cycle")
}

func TestCheck_DuplicateListEntry(t *testing.T) {
	a, live := newCheckedAllocator(t)
	require.NoError(t, a.Free(live[1]))

	// Same block on two lists.
	data := a.p.Bytes()
	format.PutLink(data, int(live[1]), format.EndOfList)
	a.heads[9] = uint32(live[1])
	a.heads[5] = uint32(live[1])

	err := a.Check(0)
	require.Error(t, err)
}

func TestCheck_MissingEpilogue(t *testing.T) {
	a, _ := newCheckedAllocator(t)
	data := a.p.Bytes()
	format.PutU32(data, len(data)-format.WordSize, format.Pack(0, false))

	requireViolation(t, a.Check(0), "Epilogue")
}

func TestCheckHeap_ExitsOnViolation(t *testing.T) {
	a, live := newCheckedAllocator(t)

	var diag bytes.Buffer
	code := -1
	a.diag = &diag
	a.exit = func(c int) { code = c }

	a.CheckHeap(10)
	assert.Equal(t, -1, code, "clean heap must not exit")
	assert.Empty(t, diag.String())

	format.PutTags(a.p.Bytes(), int(live[2]), 24, false)
	a.CheckHeap(11)
	assert.Equal(t, 1, code)
	assert.Contains(t, diag.String(), "heap check failed")
	assert.Contains(t, diag.String(), "line 11")
}
