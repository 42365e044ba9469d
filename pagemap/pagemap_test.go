package pagemap_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/fcstate/migrator/pagemap"
)

func TestOpenSelfAndPresentReportsResidentStack(t *testing.T) {
	t.Parallel()

	r, err := pagemap.Open("self")
	require.NoError(t, err)

	defer r.Close()

	var x int

	addr := uint64(uintptr(unsafe.Pointer(&x)))
	addr -= addr % pagemap.PageSize

	present, err := r.Present(addr)
	require.NoError(t, err)
	require.True(t, present)
}

func TestScanRangeCoversWholeSpan(t *testing.T) {
	t.Parallel()

	r, err := pagemap.Open("self")
	require.NoError(t, err)

	defer r.Close()

	var buf [4 * pagemap.PageSize]byte

	base := uint64(uintptr(unsafe.Pointer(&buf[0])))
	base -= base % pagemap.PageSize

	resident, empty, err := r.ScanRange(base, 4*pagemap.PageSize)
	require.NoError(t, err)
	require.Equal(t, 4, len(resident)+len(empty))
}

func TestDirtyBitmapLengthMatchesPageCount(t *testing.T) {
	t.Parallel()

	r, err := pagemap.Open("self")
	require.NoError(t, err)

	defer r.Close()

	bitmap, err := r.DirtyBitmap(0, 130*pagemap.PageSize)
	require.NoError(t, err)

	// 130 pages need ceil(130/64) = 3 sixty-four-bit words.
	require.Len(t, bitmap, 3)
}

func TestReaderErrorsAfterClose(t *testing.T) {
	t.Parallel()

	r, err := pagemap.Open("self")
	require.NoError(t, err)

	require.NoError(t, r.Close())

	_, err = r.Present(0)
	require.ErrorIs(t, err, pagemap.ErrClosed)

	// Close is idempotent.
	require.NoError(t, r.Close())
}

func TestOpenNonexistentPidErrors(t *testing.T) {
	t.Parallel()

	_, err := pagemap.Open("999999999")
	require.Error(t, err)
}
