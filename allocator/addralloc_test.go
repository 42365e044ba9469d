package allocator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fcstate/migrator/allocator"
)

func TestAddressAllocatorFirstMatch(t *testing.T) {
	t.Parallel()

	a, err := allocator.NewAddressAllocator(0x1000, 0x1000)
	require.NoError(t, err)

	r, err := a.Allocate(0x100, 0x10, allocator.FirstMatch, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1000), r.Start)
	require.Equal(t, uint64(0x10ff), r.End)

	r2, err := a.Allocate(0x100, 0x10, allocator.FirstMatch, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1100), r2.Start)
}

func TestAddressAllocatorLastMatch(t *testing.T) {
	t.Parallel()

	a, err := allocator.NewAddressAllocator(0, 0x10000)
	require.NoError(t, err)

	r, err := a.Allocate(0x1000, 0x1000, allocator.LastMatch, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0xf000), r.Start)

	r2, err := a.Allocate(0x1000, 0x1000, allocator.LastMatch, 0)
	require.NoError(t, err)
	require.Less(t, r2.Start, r.Start)
}

func TestAddressAllocatorAllocateBelowRespectsCeiling(t *testing.T) {
	t.Parallel()

	a, err := allocator.NewAddressAllocator(0, 0x10000)
	require.NoError(t, err)

	// Reserve the top of the span first, the way Reconstruct reserves
	// VMGenID, then place a second range below it via AllocateBelow.
	reserved, err := a.Allocate(0x1000, 8, allocator.ExactMatch, 0xf000)
	require.NoError(t, err)

	r, err := a.AllocateBelow(0x1000, 8, reserved.Start-1)
	require.NoError(t, err)
	require.Less(t, r.End, reserved.Start)

	// The allocator's real span is untouched: a later plain LastMatch call
	// still sees the full [0, 0x10000) range, not the ceiling-bounded one.
	require.Equal(t, uint64(0x10000), a.Size())
}

func TestAddressAllocatorAllocateBelowOutOfSpace(t *testing.T) {
	t.Parallel()

	a, err := allocator.NewAddressAllocator(0x1000, 0x1000)
	require.NoError(t, err)

	_, err = a.AllocateBelow(0x100, 1, 0x1050)
	require.ErrorIs(t, err, allocator.ErrOutOfSpace)
}

func TestAddressAllocatorExactMatchRejectsOverlap(t *testing.T) {
	t.Parallel()

	a, err := allocator.NewAddressAllocator(0, 0x10000)
	require.NoError(t, err)

	_, err = a.Allocate(0x100, 1, allocator.ExactMatch, 0x500)
	require.NoError(t, err)

	_, err = a.Allocate(0x10, 1, allocator.ExactMatch, 0x550)
	require.Error(t, err)
}

func TestAddressAllocatorExactMatchOutOfRange(t *testing.T) {
	t.Parallel()

	a, err := allocator.NewAddressAllocator(0x1000, 0x1000)
	require.NoError(t, err)

	_, err = a.Allocate(0x10, 1, allocator.ExactMatch, 0x3000)
	require.Error(t, err)
}

func TestAddressAllocatorZeroSizeErrors(t *testing.T) {
	t.Parallel()

	_, err := allocator.NewAddressAllocator(0, 0)
	require.ErrorIs(t, err, allocator.ErrInvalidRange)

	a, err := allocator.NewAddressAllocator(0, 0x1000)
	require.NoError(t, err)

	_, err = a.Allocate(0, 1, allocator.FirstMatch, 0)
	require.ErrorIs(t, err, allocator.ErrInvalidRange)
}

func TestAddressAllocatorOutOfSpace(t *testing.T) {
	t.Parallel()

	a, err := allocator.NewAddressAllocator(0, 0x100)
	require.NoError(t, err)

	_, err = a.Allocate(0x100, 1, allocator.FirstMatch, 0)
	require.NoError(t, err)

	_, err = a.Allocate(1, 1, allocator.FirstMatch, 0)
	require.ErrorIs(t, err, allocator.ErrOutOfSpace)
}
