package convert_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fcstate/migrator/convert"
	"github.com/fcstate/migrator/schema/va"
)

func sampleVA(irqs []uint32) va.MicrovmState {
	guid := [16]byte{9, 8, 7}

	return va.MicrovmState{
		VMInfo: va.VMInfo{MemSizeMib: 128, SMTEnabled: true, TrackDirtyPages: false},
		MemoryState: va.GuestMemoryState{Regions: []va.GuestMemoryRegionState{
			{BaseAddress: 0, Size: 1 << 20, Offset: 0x2000},
		}},
		VmState: va.VmState{X86: &va.X86VmState{
			PitState: []byte{1}, Clock: []byte{2}, PicMaster: []byte{3}, PicSlave: []byte{4}, IOAPIC: []byte{5},
			KvmCapModifiers: []va.KvmCapability{{Cap: 7, Flags: 1}},
		}},
		VcpuStates: []va.VcpuState{{X86: &va.X86VcpuState{Regs: []byte{9}}}},
		DeviceStates: va.DeviceStates{
			BlockDevices: []va.ConnectedDeviceState[va.BlockState]{
				{
					DeviceID: "blk0",
					DeviceState: va.BlockState{Virtio: &va.VirtioBlockState{
						ID: "blk0", DiskPath: "/dev/null",
						VirtioState: va.VirtioDeviceState{InterruptStatus: 1, DeviceType: 2},
					}},
					TransportState: va.MmioTransportState{DeviceStatus: 3},
					DeviceInfo:     va.MMIODeviceInfo{Addr: 0xd0000000, Len: 0x1000, IRQs: irqs},
				},
			},
		},
		AcpiDevState: va.ACPIDeviceManagerState{VMGenID: &va.VMGenIDState{Addr: 0x3000, GUID: guid}},
	}
}

func TestVAToVBDropsRegionOffsetAndCollapsesIRQs(t *testing.T) {
	t.Parallel()

	old := sampleVA([]uint32{5, 6})

	got, err := convert.VAToVB(old)
	require.NoError(t, err)

	require.NotNil(t, got.VmState.X86)
	region := got.VmState.X86.Memory.Regions[0]
	require.Equal(t, old.MemoryState.Regions[0].BaseAddress, region.BaseAddress)
	require.Equal(t, old.MemoryState.Regions[0].Size, region.Size)

	blk := got.DeviceStates.BlockDevices[0]
	require.NotNil(t, blk.DeviceInfo.Irq)
	require.Equal(t, uint32(5), *blk.DeviceInfo.Irq)
}

func TestVAToVBRelocatesKvmCapModifiers(t *testing.T) {
	t.Parallel()

	old := sampleVA(nil)

	got, err := convert.VAToVB(old)
	require.NoError(t, err)

	require.Len(t, got.KvmState.KvmCapModifiers, 1)
	require.Equal(t, uint32(7), got.KvmState.KvmCapModifiers[0].Cap)
}

func TestVAToVBCarriesVMGenIDAndDeviceFields(t *testing.T) {
	t.Parallel()

	old := sampleVA(nil)

	got, err := convert.VAToVB(old)
	require.NoError(t, err)

	require.NotNil(t, got.AcpiDevState.VMGenID)
	require.Equal(t, old.AcpiDevState.VMGenID.Addr, got.AcpiDevState.VMGenID.Addr)
	require.Equal(t, old.AcpiDevState.VMGenID.GUID, got.AcpiDevState.VMGenID.GUID)

	blk := got.DeviceStates.BlockDevices[0]
	require.Equal(t, "blk0", blk.DeviceID)
	require.NotNil(t, blk.DeviceState.Virtio)
	require.Equal(t, uint32(1), blk.DeviceState.Virtio.VirtioState.InterruptStatus)
}

func TestVAToVBArmVariant(t *testing.T) {
	t.Parallel()

	old := sampleVA(nil)
	old.VmState = va.VmState{Arm: &va.ArmVmState{KvmCapModifiers: []va.KvmCapability{{Cap: 2, Flags: 0}}}}
	old.MemoryState = va.GuestMemoryState{Regions: []va.GuestMemoryRegionState{{BaseAddress: 0x10000, Size: 4096}}}

	got, err := convert.VAToVB(old)
	require.NoError(t, err)

	require.NotNil(t, got.VmState.Arm)
	require.Equal(t, old.MemoryState.Regions[0].BaseAddress, got.VmState.Arm.Memory.Regions[0].BaseAddress)
	require.Len(t, got.KvmState.KvmCapModifiers, 1)
	require.Equal(t, uint32(2), got.KvmState.KvmCapModifiers[0].Cap)
}

func TestVAToVBNeitherArchSetErrors(t *testing.T) {
	t.Parallel()

	old := sampleVA(nil)
	old.VmState = va.VmState{}

	_, err := convert.VAToVB(old)
	require.Error(t, err)
}
