// Package convert implements the step-wise upgrade of a decoded snapshot
// envelope from one Firecracker wire version to the next: V_A (4.0.0) to
// V_B (6.0.0), then V_B to V_C (8.0.0). Each step is grounded on the
// corresponding `From`/`TryFrom` impl in the original persist modules;
// the two steps never merge because skipping V_B would hide field
// changes (and the V_C allocator-reconstruction input) that only exist
// at that intermediate shape.
package convert

import (
	"github.com/pkg/errors"

	"github.com/fcstate/migrator/logging"
	"github.com/fcstate/migrator/schema/va"
	"github.com/fcstate/migrator/schema/vb"
)

// Arch distinguishes the two supported guest architectures, since several
// conversion steps (GSI rebasing, ResourceAllocator reconstruction, the
// VcpuState/VmState arm in use) depend on which one produced the
// snapshot.
type Arch int

const (
	ArchX86_64 Arch = iota
	ArchAARCH64
)

func mmioDeviceInfoVAToVB(old va.MMIODeviceInfo) vb.MMIODeviceInfo {
	var irq *uint32
	if len(old.IRQs) > 0 {
		v := old.IRQs[0]
		irq = &v
	}

	return vb.MMIODeviceInfo{Addr: old.Addr, Len: old.Len, Irq: irq}
}

func memoryRegionVAToVB(old va.GuestMemoryRegionState) vb.GuestMemoryRegionState {
	return vb.GuestMemoryRegionState{BaseAddress: old.BaseAddress, Size: old.Size}
}

func memoryStateVAToVB(old va.GuestMemoryState) vb.GuestMemoryState {
	regions := make([]vb.GuestMemoryRegionState, len(old.Regions))
	for i, r := range old.Regions {
		regions[i] = memoryRegionVAToVB(r)
	}

	return vb.GuestMemoryState{Regions: regions}
}

func connectedLegacyVAToVB(old va.ConnectedLegacyState) vb.ConnectedLegacyState {
	return vb.ConnectedLegacyState{Type: old.Type, DeviceInfo: mmioDeviceInfoVAToVB(old.DeviceInfo)}
}

func connectedBlockVAToVB(old va.ConnectedDeviceState[va.BlockState]) vb.ConnectedDeviceState[vb.BlockState] {
	return vb.ConnectedDeviceState[vb.BlockState]{
		DeviceID: old.DeviceID, DeviceState: old.DeviceState,
		TransportState: old.TransportState, DeviceInfo: mmioDeviceInfoVAToVB(old.DeviceInfo),
	}
}

func connectedNetVAToVB(old va.ConnectedDeviceState[va.NetState]) vb.ConnectedDeviceState[vb.NetState] {
	return vb.ConnectedDeviceState[vb.NetState]{
		DeviceID: old.DeviceID, DeviceState: old.DeviceState,
		TransportState: old.TransportState, DeviceInfo: mmioDeviceInfoVAToVB(old.DeviceInfo),
	}
}

func connectedVsockVAToVB(old va.ConnectedDeviceState[va.VsockState]) vb.ConnectedDeviceState[vb.VsockState] {
	return vb.ConnectedDeviceState[vb.VsockState]{
		DeviceID: old.DeviceID, DeviceState: old.DeviceState,
		TransportState: old.TransportState, DeviceInfo: mmioDeviceInfoVAToVB(old.DeviceInfo),
	}
}

func connectedBalloonVAToVB(old va.ConnectedDeviceState[va.BalloonState]) vb.ConnectedDeviceState[vb.BalloonState] {
	return vb.ConnectedDeviceState[vb.BalloonState]{
		DeviceID: old.DeviceID, DeviceState: old.DeviceState,
		TransportState: old.TransportState, DeviceInfo: mmioDeviceInfoVAToVB(old.DeviceInfo),
	}
}

func connectedEntropyVAToVB(old va.ConnectedDeviceState[va.EntropyState]) vb.ConnectedDeviceState[vb.EntropyState] {
	return vb.ConnectedDeviceState[vb.EntropyState]{
		DeviceID: old.DeviceID, DeviceState: old.DeviceState,
		TransportState: old.TransportState, DeviceInfo: mmioDeviceInfoVAToVB(old.DeviceInfo),
	}
}

func deviceStatesVAToVB(old va.DeviceStates) vb.DeviceStates {
	legacy := make([]vb.ConnectedLegacyState, len(old.LegacyDevices))
	for i, d := range old.LegacyDevices {
		legacy[i] = connectedLegacyVAToVB(d)
	}

	block := make([]vb.ConnectedDeviceState[vb.BlockState], len(old.BlockDevices))
	for i, d := range old.BlockDevices {
		block[i] = connectedBlockVAToVB(d)
	}

	net := make([]vb.ConnectedDeviceState[vb.NetState], len(old.NetDevices))
	for i, d := range old.NetDevices {
		net[i] = connectedNetVAToVB(d)
	}

	var vsock *vb.ConnectedDeviceState[vb.VsockState]
	if old.VsockDevice != nil {
		v := connectedVsockVAToVB(*old.VsockDevice)
		vsock = &v
	}

	var balloon *vb.ConnectedDeviceState[vb.BalloonState]
	if old.BalloonDevice != nil {
		v := connectedBalloonVAToVB(*old.BalloonDevice)
		balloon = &v
	}

	var entropy *vb.ConnectedDeviceState[vb.EntropyState]
	if old.EntropyDevice != nil {
		v := connectedEntropyVAToVB(*old.EntropyDevice)
		entropy = &v
	}

	return vb.DeviceStates{
		LegacyDevices: legacy, BlockDevices: block, NetDevices: net,
		VsockDevice: vsock, BalloonDevice: balloon, MmdsVersion: old.MmdsVersion,
		EntropyDevice: entropy,
	}
}

func vmStateVAToVB(old va.VmState) vb.VmState {
	switch {
	case old.X86 != nil:
		return vb.VmState{X86: &vb.X86VmState{
			PitState: old.X86.PitState, Clock: old.X86.Clock,
			PicMaster: old.X86.PicMaster, PicSlave: old.X86.PicSlave, IOAPIC: old.X86.IOAPIC,
		}}
	case old.Arm != nil:
		return vb.VmState{Arm: &vb.ArmVmState{Gic: old.Arm.Gic}}
	default:
		return vb.VmState{}
	}
}

func kvmCapModifiersOf(old va.VmState) []va.KvmCapability {
	switch {
	case old.X86 != nil:
		return old.X86.KvmCapModifiers
	case old.Arm != nil:
		return old.Arm.KvmCapModifiers
	default:
		return nil
	}
}

// VAToVB upgrades a decoded V_A (4.0.0) envelope to V_B (6.0.0). The
// guest-memory layout moves under VmState (GuestMemoryState gains no
// fields, but loses Offset, see memoryRegionVAToVB), the per-architecture
// KvmCapModifiers relocate out of VmState into a dedicated KvmState
// wrapper, and every MMIODeviceInfo's IRQs slice collapses to a single
// optional IRQ (the original comment on the Rust side notes that in
// practice a device never reported more than one, so taking the first
// entry is lossless for every snapshot Firecracker itself ever wrote).
func VAToVB(old va.MicrovmState) (vb.MicrovmState, error) {
	memory := memoryStateVAToVB(old.MemoryState)
	vmState := vmStateVAToVB(old.VmState)

	switch {
	case vmState.X86 != nil:
		vmState.X86.Memory = memory
	case vmState.Arm != nil:
		vmState.Arm.Memory = memory
	default:
		return vb.MicrovmState{}, errors.New("convert: V_A VmState has neither architecture arm set")
	}

	logging.Component("convert").WithField("step", "va->vb").
		WithField("block_devices", len(old.DeviceStates.BlockDevices)).
		WithField("net_devices", len(old.DeviceStates.NetDevices)).Debug("upgrading snapshot envelope")

	return vb.MicrovmState{
		VMInfo:       old.VMInfo,
		KvmState:     vb.KvmState{KvmCapModifiers: kvmCapModifiersOf(old.VmState)},
		VmState:      vmState,
		VcpuStates:   old.VcpuStates,
		DeviceStates: deviceStatesVAToVB(old.DeviceStates),
		AcpiDevState: old.AcpiDevState,
	}, nil
}
