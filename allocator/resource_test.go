package allocator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fcstate/migrator/allocator"
)

func TestReconstructClassifiesLegacyAndMsiGSIs(t *testing.T) {
	t.Parallel()

	gsi5, gsi24 := uint32(5), uint32(24)

	ra, err := allocator.Reconstruct(allocator.DefaultX86Layout, allocator.ScanInput{
		Devices: []allocator.DeviceInfo{
			{GSI: &gsi5, Addr: 0xd0000000, Len: 0x1000},
			{GSI: &gsi24, Addr: 0xd0001000, Len: 0x1000},
		},
	})
	require.NoError(t, err)

	// legacy range starts at 5: 5 itself is used, the allocator must hand
	// back 6 next.
	got, err := ra.GsiLegacy.Allocate()
	require.NoError(t, err)
	require.Equal(t, uint32(6), got)

	gotMsi, err := ra.GsiMsi.Allocate()
	require.NoError(t, err)
	require.Equal(t, uint32(25), gotMsi)
}

func TestReconstructMarksMmioWindowsUsed(t *testing.T) {
	t.Parallel()

	ra, err := allocator.Reconstruct(allocator.DefaultX86Layout, allocator.ScanInput{
		Devices: []allocator.DeviceInfo{
			{Addr: allocator.DefaultX86Layout.Mmio32Start, Len: 0x1000},
		},
	})
	require.NoError(t, err)

	require.Len(t, ra.Mmio32.Allocated(), 1)
	require.Equal(t, allocator.DefaultX86Layout.Mmio32Start, ra.Mmio32.Allocated()[0].Start)
}

func TestReconstructDuplicateMmioAddressErrors(t *testing.T) {
	t.Parallel()

	_, err := allocator.Reconstruct(allocator.DefaultX86Layout, allocator.ScanInput{
		Devices: []allocator.DeviceInfo{
			{Addr: allocator.DefaultX86Layout.Mmio32Start, Len: 0x1000},
			{Addr: allocator.DefaultX86Layout.Mmio32Start, Len: 0x1000},
		},
	})
	require.Error(t, err)
}

func TestReconstructReservesVMGenIDAddress(t *testing.T) {
	t.Parallel()

	addr := uint64(0x2000)

	ra, err := allocator.Reconstruct(allocator.DefaultX86Layout, allocator.ScanInput{
		VMGenIDAddr: &addr,
	})
	require.NoError(t, err)

	require.Len(t, ra.SystemMemory.Allocated(), 1)
	require.Equal(t, addr, ra.SystemMemory.Allocated()[0].Start)

	// Reconstruct never shrinks the real system-memory span to fit VMGenID.
	require.Equal(t, allocator.DefaultX86Layout.SystemMemSize, ra.SystemMemory.Size())

	// a caller placing VmClock below the reserved VMGenID region uses
	// AllocateBelow rather than a plain LastMatch, which would otherwise
	// park it at the top of the real, full-size span above addr.
	r, err := ra.SystemMemory.AllocateBelow(allocator.VMGenIDRegionSize, 8, addr-1)
	require.NoError(t, err)
	require.Less(t, r.End, addr)
}

func TestReconstructEmptyScanYieldsFreshAllocator(t *testing.T) {
	t.Parallel()

	ra, err := allocator.Reconstruct(allocator.DefaultX86Layout, allocator.ScanInput{})
	require.NoError(t, err)

	got, err := ra.GsiLegacy.Allocate()
	require.NoError(t, err)
	require.Equal(t, allocator.DefaultX86Layout.GsiLegacyStart, got)
}

func TestIRQToGSI(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint32(0), allocator.IRQToGSI(5, 5))
	require.Equal(t, uint32(5), allocator.IRQToGSI(5, 0))
	require.Equal(t, uint32(8), allocator.IRQToGSI(40, 32))
	require.Equal(t, uint32(0), allocator.IRQToGSI(10, 32)) // saturates instead of underflowing
}
