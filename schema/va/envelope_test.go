package va_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fcstate/migrator/codec"
	"github.com/fcstate/migrator/schema/va"
)

func sampleVA() va.MicrovmState {
	guid := [16]byte{1, 1, 1}

	return va.MicrovmState{
		VMInfo:      va.VMInfo{MemSizeMib: 128, SMTEnabled: true, TrackDirtyPages: false},
		MemoryState: va.GuestMemoryState{Regions: []va.GuestMemoryRegionState{{BaseAddress: 0, Size: 1 << 20, Offset: 4096}}},
		VmState: va.VmState{X86: &va.X86VmState{
			PitState:        []byte{1},
			Clock:           []byte{2},
			KvmCapModifiers: []va.KvmCapability{{Cap: 9, Flags: 1}},
		}},
		VcpuStates: []va.VcpuState{{X86: &va.X86VcpuState{Regs: []byte{3}}}},
		DeviceStates: va.DeviceStates{
			BlockDevices: []va.ConnectedDeviceState[va.BlockState]{
				{
					DeviceID: "blk0",
					DeviceState: va.BlockState{Virtio: &va.VirtioBlockState{
						ID: "blk0", DiskPath: "/dev/null",
					}},
					DeviceInfo: va.MMIODeviceInfo{Addr: 0xd0000000, Len: 0x1000, IRQs: []uint32{5, 6}},
				},
			},
		},
		AcpiDevState: va.ACPIDeviceManagerState{
			VMGenID: &va.VMGenIDState{Addr: 0x4000, GUID: guid},
		},
	}
}

func TestMicrovmStateRoundTrip(t *testing.T) {
	t.Parallel()

	want := sampleVA()

	w := codec.NewWriter()
	want.Encode(w)

	got, err := va.DecodeMicrovmState(codec.NewReader(w.Bytes()))
	require.NoError(t, err)

	require.Equal(t, want.VMInfo, got.VMInfo)
	require.Equal(t, want.MemoryState, got.MemoryState)

	require.NotNil(t, got.VmState.X86)
	require.Equal(t, want.VmState.X86.KvmCapModifiers, got.VmState.X86.KvmCapModifiers)

	require.Len(t, got.DeviceStates.BlockDevices, 1)
	blk := got.DeviceStates.BlockDevices[0]
	require.Equal(t, "blk0", blk.DeviceID)
	require.NotNil(t, blk.DeviceState.Virtio)
	require.Equal(t, "/dev/null", blk.DeviceState.Virtio.DiskPath)
	require.Equal(t, []uint32{5, 6}, blk.DeviceInfo.IRQs)

	require.NotNil(t, got.AcpiDevState.VMGenID)
	require.Equal(t, want.AcpiDevState.VMGenID.Addr, got.AcpiDevState.VMGenID.Addr)
}

func TestMicrovmStateEmptyIRQsRoundTrips(t *testing.T) {
	t.Parallel()

	want := sampleVA()
	want.DeviceStates.BlockDevices[0].DeviceInfo.IRQs = nil

	w := codec.NewWriter()
	want.Encode(w)

	got, err := va.DecodeMicrovmState(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Empty(t, got.DeviceStates.BlockDevices[0].DeviceInfo.IRQs)
}

func TestMicrovmStateArmVariantRoundTrip(t *testing.T) {
	t.Parallel()

	want := va.MicrovmState{
		VmState: va.VmState{Arm: &va.ArmVmState{
			Gic:             va.GicState{},
			KvmCapModifiers: []va.KvmCapability{{Cap: 1}},
		}},
		VcpuStates: []va.VcpuState{{Arm: &va.ArmVcpuState{Regs: va.Aarch64RegisterVec{}, Mpidr: 4}}},
	}

	w := codec.NewWriter()
	want.Encode(w)

	got, err := va.DecodeMicrovmState(codec.NewReader(w.Bytes()))
	require.NoError(t, err)

	require.NotNil(t, got.VmState.Arm)
	require.Equal(t, want.VmState.Arm.KvmCapModifiers, got.VmState.Arm.KvmCapModifiers)
	require.Len(t, got.VcpuStates, 1)
	require.NotNil(t, got.VcpuStates[0].Arm)
	require.Equal(t, uint64(4), got.VcpuStates[0].Arm.Mpidr)
}
