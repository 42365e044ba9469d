package convert_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fcstate/migrator/allocator"
	"github.com/fcstate/migrator/convert"
	"github.com/fcstate/migrator/schema/vb"
	"github.com/fcstate/migrator/schema/vc"
)

func sampleVB(irq uint32) vb.MicrovmState {
	guid := [16]byte{1, 2, 3}

	return vb.MicrovmState{
		VMInfo:   vb.VMInfo{MemSizeMib: 256, SMTEnabled: false, TrackDirtyPages: true},
		KvmState: vb.KvmState{KvmCapModifiers: []vb.KvmCapability{{Cap: 1, Flags: 0}}},
		VmState: vb.VmState{X86: &vb.X86VmState{
			Memory: vb.GuestMemoryState{Regions: []vb.GuestMemoryRegionState{
				{BaseAddress: 0, Size: 1 << 20},
			}},
			PitState: []byte{1}, Clock: []byte{2}, PicMaster: []byte{3}, PicSlave: []byte{4}, IOAPIC: []byte{5},
		}},
		VcpuStates: []vb.VcpuState{{X86: &vb.X86VcpuState{Regs: []byte{9}}}},
		DeviceStates: vb.DeviceStates{
			BlockDevices: []vb.ConnectedDeviceState[vb.BlockState]{
				{
					DeviceID: "blk0",
					DeviceState: vb.BlockState{Virtio: &vb.VirtioBlockState{
						ID: "blk0", DiskPath: "/dev/null",
						VirtioState: vb.VirtioDeviceState{InterruptStatus: 3, DeviceType: 2},
					}},
					TransportState: vb.MmioTransportState{DeviceStatus: 7},
					DeviceInfo:     vb.MMIODeviceInfo{Addr: 0xd0000000, Len: 0x1000, Irq: &irq},
				},
			},
		},
		AcpiDevState: vb.ACPIDeviceManagerState{VMGenID: &vb.VMGenIDState{Addr: 0x1000, GUID: guid}},
	}
}

func TestVBToVCPromotesVMGenIDAndInterruptStatus(t *testing.T) {
	t.Parallel()

	old := sampleVB(5)

	got, err := convert.VBToVC(old, convert.ArchX86_64, allocator.DefaultX86Layout)
	require.NoError(t, err)

	require.Equal(t, old.AcpiDevState.VMGenID.Addr, got.DeviceStates.AcpiState.VMGenID.Addr)
	require.Equal(t, old.AcpiDevState.VMGenID.GUID, got.DeviceStates.AcpiState.VMGenID.GUID)

	// VMGenID occupies [0x1000, 0x1fff], so the only 4 KiB slot below it
	// starts at 0.
	require.Equal(t, uint64(0), got.DeviceStates.AcpiState.VmClock.GuestAddress)
	require.Less(t, got.DeviceStates.AcpiState.VmClock.GuestAddress, old.AcpiDevState.VMGenID.Addr)

	// The reconstructed allocator must report the real, caller-supplied
	// system-memory span, never one shrunk to wherever VMGenID happens to
	// sit in a given snapshot.
	require.NotNil(t, got.VmState.X86)
	gotSize := got.VmState.X86.ResourceAllocator.SystemMemory.Size
	require.Equal(t, allocator.DefaultX86Layout.SystemMemSize, gotSize)

	require.Len(t, got.DeviceStates.MmioState.BlockDevices, 1)
	blk := got.DeviceStates.MmioState.BlockDevices[0]
	require.Equal(t, uint32(3), blk.TransportState.InterruptStatus)
	require.NotNil(t, blk.DeviceInfo.Gsi)
	require.Equal(t, allocator.IRQToGSI(5, 0), *blk.DeviceInfo.Gsi)
}

func TestVBToVCMissingVMGenIDErrors(t *testing.T) {
	t.Parallel()

	old := sampleVB(5)
	old.AcpiDevState.VMGenID = nil

	_, err := convert.VBToVC(old, convert.ArchX86_64, allocator.DefaultX86Layout)
	require.ErrorIs(t, err, convert.ErrMissingVMGenID)
}

func u64ptr(v uint64) *uint64 { return &v }

func TestVBToVCBalloonStatsFieldMapping(t *testing.T) {
	t.Parallel()

	old := sampleVB(5)
	old.DeviceStates.BalloonDevice = &vb.ConnectedDeviceState[vb.BalloonState]{
		DeviceID: "balloon0",
		DeviceState: vb.BalloonState{
			StatsPollingIntervalS: 5,
			LatestStats: vb.BalloonStatsState{
				SwapIn: u64ptr(1), SwapOut: u64ptr(2), MajorFaults: u64ptr(3), MinorFaults: u64ptr(4),
				FreeMemory: u64ptr(5), TotalMemory: u64ptr(6), AvailableMemory: u64ptr(7),
				DiskCaches: u64ptr(8), HugetlbAllocations: u64ptr(9), HugetlbFailures: u64ptr(10),
			},
		},
		TransportState: vb.MmioTransportState{},
		DeviceInfo:     vb.MMIODeviceInfo{Addr: 0xd0001000, Len: 0x1000},
	}

	got, err := convert.VBToVC(old, convert.ArchX86_64, allocator.DefaultX86Layout)
	require.NoError(t, err)

	stats := got.DeviceStates.MmioState.BalloonDevice.DeviceState.Stats
	require.NotNil(t, stats.SwapIn)
	require.Equal(t, uint64(1), *stats.SwapIn)
	require.NotNil(t, stats.MajorFault)
	require.Equal(t, uint64(3), *stats.MajorFault)
	require.NotNil(t, stats.MinorFault)
	require.Equal(t, uint64(4), *stats.MinorFault)
	require.NotNil(t, stats.HugetlbAlloc)
	require.Equal(t, uint64(9), *stats.HugetlbAlloc)
	require.NotNil(t, stats.HugetlbFail)
	require.Equal(t, uint64(10), *stats.HugetlbFail)
	require.Nil(t, stats.OOMKill)

	hinting := got.DeviceStates.MmioState.BalloonDevice.DeviceState.Hinting
	require.NotNil(t, hinting)
	require.True(t, hinting.AcknowledgeOnFinish)
	require.Nil(t, hinting.GuestCmd)
}

func TestVBToVCArmRebasesGSIBySPIStart(t *testing.T) {
	t.Parallel()

	old := sampleVB(40) // 40 - 32 (SPI_START) = 8
	// sampleVB's block sits in the x86_64 MMIO window; move it into the
	// aarch64 one so Reconstruct can reserve it.
	old.DeviceStates.BlockDevices[0].DeviceInfo.Addr = allocator.DefaultARMLayout.Mmio32Start
	old.VmState = vb.VmState{Arm: &vb.ArmVmState{
		Memory: vb.GuestMemoryState{Regions: []vb.GuestMemoryRegionState{{BaseAddress: 0, Size: 1 << 20}}},
	}}
	old.VcpuStates = []vb.VcpuState{{Arm: &vb.ArmVcpuState{Regs: vc.Aarch64RegisterVec{}}}}

	got, err := convert.VBToVC(old, convert.ArchAARCH64, allocator.DefaultARMLayout)
	require.NoError(t, err)

	blk := got.DeviceStates.MmioState.BlockDevices[0]
	require.NotNil(t, blk.DeviceInfo.Gsi)
	require.Equal(t, uint32(8), *blk.DeviceInfo.Gsi)

	require.Zero(t, got.DeviceStates.AcpiState.VmClock.GuestAddress) // vmclock is x86_64-only; synthesized zero on arm
}
