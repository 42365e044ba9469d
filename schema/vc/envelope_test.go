package vc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fcstate/migrator/codec"
	"github.com/fcstate/migrator/schema/vc"
)

func sampleVC() vc.MicrovmState {
	guid := [16]byte{1, 2, 3, 4}
	irq := uint32(7)

	return vc.MicrovmState{
		VMInfo:   vc.VMInfo{MemSizeMib: 512, SMTEnabled: true, TrackDirtyPages: true},
		KvmState: vc.KvmState{KvmCapModifiers: []vc.KvmCapability{{Cap: 1, Flags: 2}}},
		VmState: vc.VmState{X86: &vc.X86VmState{
			Memory: vc.GuestMemoryState{Regions: []vc.GuestMemoryRegionState{{BaseAddress: 0, Size: 1 << 20}}},
			ResourceAllocator: vc.ResourceAllocatorState{
				GsiLegacy: vc.IDAllocatorState{Start: 5, End: 23, NextID: &irq},
				GsiMsi:    vc.IDAllocatorState{Start: 24, End: 1023},
				Mmio32:    vc.AddressAllocatorState{Base: 0xd0000000, Size: 0x10000000},
				Mmio64:    vc.AddressAllocatorState{Base: 1 << 35, Size: 1 << 35},
			},
			PitState: []byte{1}, Clock: []byte{2},
		}},
		VcpuStates: []vc.VcpuState{{X86: &vc.X86VcpuState{Regs: []byte{9}}}},
		DeviceStates: vc.DevicesState{
			MmioState: vc.MmioState{
				BlockDevices: []vc.ConnectedDeviceState[vc.BlockState]{
					{
						DeviceID: "blk0",
						DeviceState: vc.BlockState{Virtio: &vc.VirtioBlockState{
							ID: "blk0", DiskPath: "/dev/null",
							VirtioState: vc.VirtioDeviceState{DeviceType: 2},
						}},
						TransportState: vc.MmioTransportState{DeviceStatus: 7, InterruptStatus: 3},
						DeviceInfo:     vc.MMIODeviceInfo{Addr: 0xd0000000, Len: 0x1000, Gsi: &irq},
					},
				},
				Mmds: &vc.MmdsState{Version: vc.MmdsVersionV2, NetworkInterfaces: []string{"eth0"}, ImdsCompat: true},
			},
			AcpiState: vc.ACPIDeviceManagerState{
				VMGenID: vc.VMGenIDState{Addr: 0x1000, GUID: guid},
				VmClock: vc.VmClockState{GuestAddress: 0xf00, Inner: vc.VmClockAbi{Magic: 1, Size: 4096}},
			},
			PciState: vc.PciDevicesState{},
		},
	}
}

func TestMicrovmStateRoundTrip(t *testing.T) {
	t.Parallel()

	want := sampleVC()

	w := codec.NewWriter()
	want.Encode(w)

	got, err := vc.DecodeMicrovmState(codec.NewReader(w.Bytes()))
	require.NoError(t, err)

	require.Equal(t, want.VMInfo, got.VMInfo)
	require.Equal(t, want.KvmState, got.KvmState)
	require.NotNil(t, got.VmState.X86)
	require.Equal(t, want.VmState.X86.Memory, got.VmState.X86.Memory)
	require.Equal(t, want.VmState.X86.ResourceAllocator, got.VmState.X86.ResourceAllocator)

	require.Len(t, got.DeviceStates.MmioState.BlockDevices, 1)
	blk := got.DeviceStates.MmioState.BlockDevices[0]
	require.Equal(t, "blk0", blk.DeviceID)
	require.NotNil(t, blk.DeviceInfo.Gsi)
	require.Equal(t, uint32(7), *blk.DeviceInfo.Gsi)

	require.NotNil(t, got.DeviceStates.MmioState.Mmds)
	require.Equal(t, *want.DeviceStates.MmioState.Mmds, *got.DeviceStates.MmioState.Mmds)

	require.Equal(t, want.DeviceStates.AcpiState.VMGenID, got.DeviceStates.AcpiState.VMGenID)
	require.Equal(t, want.DeviceStates.AcpiState.VmClock.GuestAddress, got.DeviceStates.AcpiState.VmClock.GuestAddress)
}

func TestMicrovmStateArmVariantRoundTrip(t *testing.T) {
	t.Parallel()

	guid := [16]byte{9}

	want := vc.MicrovmState{
		VmState: vc.VmState{Arm: &vc.ArmVmState{
			Memory: vc.GuestMemoryState{Regions: []vc.GuestMemoryRegionState{{BaseAddress: 0, Size: 4096}}},
			Gic:    vc.GicState{},
		}},
		VcpuStates: []vc.VcpuState{{Arm: &vc.ArmVcpuState{Regs: vc.Aarch64RegisterVec{}, Mpidr: 3}}},
		DeviceStates: vc.DevicesState{
			AcpiState: vc.ACPIDeviceManagerState{VMGenID: vc.VMGenIDState{Addr: 0x2000, GUID: guid}},
		},
	}

	w := codec.NewWriter()
	want.Encode(w)

	got, err := vc.DecodeMicrovmState(codec.NewReader(w.Bytes()))
	require.NoError(t, err)

	require.NotNil(t, got.VmState.Arm)
	require.Equal(t, want.VmState.Arm.Memory, got.VmState.Arm.Memory)
	require.Len(t, got.VcpuStates, 1)
	require.NotNil(t, got.VcpuStates[0].Arm)
	require.Equal(t, uint64(3), got.VcpuStates[0].Arm.Mpidr)
}
