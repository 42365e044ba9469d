package vb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fcstate/migrator/codec"
	"github.com/fcstate/migrator/schema/vb"
)

func sampleVB() vb.MicrovmState {
	guid := [16]byte{5, 6, 7}
	irq := uint32(9)

	return vb.MicrovmState{
		VMInfo:   vb.VMInfo{MemSizeMib: 256, SMTEnabled: false, TrackDirtyPages: true},
		KvmState: vb.KvmState{KvmCapModifiers: []vb.KvmCapability{{Cap: 3, Flags: 0}}},
		VmState: vb.VmState{X86: &vb.X86VmState{
			Memory:   vb.GuestMemoryState{Regions: []vb.GuestMemoryRegionState{{BaseAddress: 0, Size: 1 << 21}}},
			PitState: []byte{1, 2}, Clock: []byte{3},
		}},
		VcpuStates: []vb.VcpuState{{X86: &vb.X86VcpuState{Regs: []byte{4}}}},
		DeviceStates: vb.DeviceStates{
			BlockDevices: []vb.ConnectedDeviceState[vb.BlockState]{
				{
					DeviceID: "blk0",
					DeviceState: vb.BlockState{Virtio: &vb.VirtioBlockState{
						ID: "blk0", DiskPath: "/dev/null",
						VirtioState: vb.VirtioDeviceState{DeviceType: 2, InterruptStatus: 1},
					}},
					TransportState: vb.MmioTransportState{DeviceStatus: 7},
					DeviceInfo:     vb.MMIODeviceInfo{Addr: 0xd0000000, Len: 0x1000, Irq: &irq},
				},
			},
			MmdsVersion: func() *vb.MmdsVersionState { v := vb.MmdsVersionStateV2; return &v }(),
		},
		AcpiDevState: vb.ACPIDeviceManagerState{
			VMGenID: &vb.VMGenIDState{Addr: 0x3000, GUID: guid},
		},
	}
}

func TestMicrovmStateRoundTrip(t *testing.T) {
	t.Parallel()

	want := sampleVB()

	w := codec.NewWriter()
	want.Encode(w)

	got, err := vb.DecodeMicrovmState(codec.NewReader(w.Bytes()))
	require.NoError(t, err)

	require.Equal(t, want.VMInfo, got.VMInfo)
	require.Equal(t, want.KvmState, got.KvmState)
	require.NotNil(t, got.VmState.X86)
	require.Equal(t, want.VmState.X86.Memory, got.VmState.X86.Memory)
	require.Equal(t, want.VmState.X86.PitState, got.VmState.X86.PitState)

	require.Len(t, got.DeviceStates.BlockDevices, 1)
	blk := got.DeviceStates.BlockDevices[0]
	require.Equal(t, "blk0", blk.DeviceID)
	require.NotNil(t, blk.DeviceState.Virtio)
	require.Equal(t, "/dev/null", blk.DeviceState.Virtio.DiskPath)
	require.NotNil(t, blk.DeviceInfo.Irq)
	require.Equal(t, uint32(9), *blk.DeviceInfo.Irq)

	require.NotNil(t, got.DeviceStates.MmdsVersion)
	require.Equal(t, vb.MmdsVersionStateV2, *got.DeviceStates.MmdsVersion)

	require.NotNil(t, got.AcpiDevState.VMGenID)
	require.Equal(t, want.AcpiDevState.VMGenID.Addr, got.AcpiDevState.VMGenID.Addr)
}

func TestMicrovmStateMissingVMGenIDRoundTrips(t *testing.T) {
	t.Parallel()

	want := sampleVB()
	want.AcpiDevState.VMGenID = nil

	w := codec.NewWriter()
	want.Encode(w)

	got, err := vb.DecodeMicrovmState(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Nil(t, got.AcpiDevState.VMGenID)
}

func TestMicrovmStateArmVariantRoundTrip(t *testing.T) {
	t.Parallel()

	want := vb.MicrovmState{
		VmState: vb.VmState{Arm: &vb.ArmVmState{
			Memory: vb.GuestMemoryState{Regions: []vb.GuestMemoryRegionState{{BaseAddress: 0, Size: 4096}}},
			Gic:    vb.GicState{},
		}},
		VcpuStates: []vb.VcpuState{{Arm: &vb.ArmVcpuState{Regs: vb.Aarch64RegisterVec{}, Mpidr: 2}}},
	}

	w := codec.NewWriter()
	want.Encode(w)

	got, err := vb.DecodeMicrovmState(codec.NewReader(w.Bytes()))
	require.NoError(t, err)

	require.NotNil(t, got.VmState.Arm)
	require.Equal(t, want.VmState.Arm.Memory, got.VmState.Arm.Memory)
	require.Len(t, got.VcpuStates, 1)
	require.NotNil(t, got.VcpuStates[0].Arm)
	require.Equal(t, uint64(2), got.VcpuStates[0].Arm.Mpidr)
}
