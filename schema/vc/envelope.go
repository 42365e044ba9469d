package vc

import "github.com/fcstate/migrator/codec"

// MmioState is the device-manager's MMIO-attached device inventory. V_C
// adds empty pmem and virtio-mem slots (see PmemState, VirtioMemState)
// and replaces the single-field MmdsVersionState with the richer
// MmdsState.
type MmioState struct {
	LegacyDevices []ConnectedLegacyState
	BlockDevices  []ConnectedDeviceState[BlockState]
	NetDevices    []ConnectedDeviceState[NetState]
	VsockDevice   *ConnectedDeviceState[VsockState]
	BalloonDevice *ConnectedDeviceState[BalloonState]
	Mmds          *MmdsState
	EntropyDevice *ConnectedDeviceState[EntropyState]
	PmemDevices   []ConnectedDeviceState[PmemState]
	VirtioMemDevs []ConnectedDeviceState[VirtioMemState]
}

func (m MmioState) Encode(w *codec.Writer) {
	codec.WriteSlice(w, m.LegacyDevices, func(w *codec.Writer, v ConnectedLegacyState) { v.Encode(w) })
	codec.WriteSlice(w, m.BlockDevices, func(w *codec.Writer, v ConnectedDeviceState[BlockState]) {
		v.Encode(w, func(w *codec.Writer, b BlockState) { b.Encode(w) })
	})
	codec.WriteSlice(w, m.NetDevices, func(w *codec.Writer, v ConnectedDeviceState[NetState]) {
		v.Encode(w, func(w *codec.Writer, n NetState) { n.Encode(w) })
	})
	codec.WriteOptional(w, m.VsockDevice, func(w *codec.Writer, v ConnectedDeviceState[VsockState]) {
		v.Encode(w, func(w *codec.Writer, s VsockState) { s.Encode(w) })
	})
	codec.WriteOptional(w, m.BalloonDevice, func(w *codec.Writer, v ConnectedDeviceState[BalloonState]) {
		v.Encode(w, func(w *codec.Writer, b BalloonState) { b.Encode(w) })
	})
	codec.WriteOptional(w, m.Mmds, func(w *codec.Writer, v MmdsState) { v.Encode(w) })
	codec.WriteOptional(w, m.EntropyDevice, func(w *codec.Writer, v ConnectedDeviceState[EntropyState]) {
		v.Encode(w, func(w *codec.Writer, e EntropyState) { e.Encode(w) })
	})
	codec.WriteSlice(w, m.PmemDevices, func(w *codec.Writer, v ConnectedDeviceState[PmemState]) {
		v.Encode(w, func(w *codec.Writer, p PmemState) { p.Encode(w) })
	})
	codec.WriteSlice(w, m.VirtioMemDevs, func(w *codec.Writer, v ConnectedDeviceState[VirtioMemState]) {
		v.Encode(w, func(w *codec.Writer, vm VirtioMemState) { vm.Encode(w) })
	})
}

func DecodeMmioState(r *codec.Reader) (MmioState, error) {
	legacy, err := codec.ReadSlice(r, DecodeConnectedLegacyState)
	if err != nil {
		return MmioState{}, err
	}

	block, err := codec.ReadSlice(r, func(r *codec.Reader) (ConnectedDeviceState[BlockState], error) {
		return DecodeConnectedDeviceState(r, DecodeBlockState)
	})
	if err != nil {
		return MmioState{}, err
	}

	net, err := codec.ReadSlice(r, func(r *codec.Reader) (ConnectedDeviceState[NetState], error) {
		return DecodeConnectedDeviceState(r, DecodeNetState)
	})
	if err != nil {
		return MmioState{}, err
	}

	vsock, err := codec.ReadOptional(r, func(r *codec.Reader) (ConnectedDeviceState[VsockState], error) {
		return DecodeConnectedDeviceState(r, DecodeVsockState)
	})
	if err != nil {
		return MmioState{}, err
	}

	balloon, err := codec.ReadOptional(r, func(r *codec.Reader) (ConnectedDeviceState[BalloonState], error) {
		return DecodeConnectedDeviceState(r, DecodeBalloonState)
	})
	if err != nil {
		return MmioState{}, err
	}

	mmds, err := codec.ReadOptional(r, DecodeMmdsState)
	if err != nil {
		return MmioState{}, err
	}

	entropy, err := codec.ReadOptional(r, func(r *codec.Reader) (ConnectedDeviceState[EntropyState], error) {
		return DecodeConnectedDeviceState(r, DecodeEntropyState)
	})
	if err != nil {
		return MmioState{}, err
	}

	pmem, err := codec.ReadSlice(r, func(r *codec.Reader) (ConnectedDeviceState[PmemState], error) {
		return DecodeConnectedDeviceState(r, DecodePmemState)
	})
	if err != nil {
		return MmioState{}, err
	}

	vmem, err := codec.ReadSlice(r, func(r *codec.Reader) (ConnectedDeviceState[VirtioMemState], error) {
		return DecodeConnectedDeviceState(r, DecodeVirtioMemState)
	})
	if err != nil {
		return MmioState{}, err
	}

	return MmioState{
		LegacyDevices: legacy, BlockDevices: block, NetDevices: net, VsockDevice: vsock,
		BalloonDevice: balloon, Mmds: mmds, EntropyDevice: entropy,
		PmemDevices: pmem, VirtioMemDevs: vmem,
	}, nil
}

// DevicesState is the V_C device-manager envelope: MmioState folded
// together with the ACPI device manager state (top-level at V_A/V_B) and
// a PCI slot reserved for future use.
type DevicesState struct {
	MmioState MmioState
	AcpiState ACPIDeviceManagerState
	PciState  PciDevicesState
}

func (d DevicesState) Encode(w *codec.Writer) {
	d.MmioState.Encode(w)
	d.AcpiState.Encode(w)
	d.PciState.Encode(w)
}

func DecodeDevicesState(r *codec.Reader) (DevicesState, error) {
	mmio, err := DecodeMmioState(r)
	if err != nil {
		return DevicesState{}, err
	}

	acpi, err := DecodeACPIDeviceManagerState(r)
	if err != nil {
		return DevicesState{}, err
	}

	pci, err := DecodePciDevicesState(r)
	if err != nil {
		return DevicesState{}, err
	}

	return DevicesState{MmioState: mmio, AcpiState: acpi, PciState: pci}, nil
}

// MicrovmState is the top-level V_C snapshot envelope.
type MicrovmState struct {
	VMInfo       VMInfo
	KvmState     KvmState
	VmState      VmState
	VcpuStates   []VcpuState
	DeviceStates DevicesState
}

func (m MicrovmState) Encode(w *codec.Writer) {
	m.VMInfo.Encode(w)
	m.KvmState.Encode(w)
	m.VmState.Encode(w)
	codec.WriteSlice(w, m.VcpuStates, func(w *codec.Writer, v VcpuState) { v.Encode(w) })
	m.DeviceStates.Encode(w)
}

func DecodeMicrovmState(r *codec.Reader) (MicrovmState, error) {
	info, err := DecodeVMInfo(r)
	if err != nil {
		return MicrovmState{}, err
	}

	kvm, err := DecodeKvmState(r)
	if err != nil {
		return MicrovmState{}, err
	}

	vm, err := DecodeVmState(r)
	if err != nil {
		return MicrovmState{}, err
	}

	vcpus, err := codec.ReadSlice(r, DecodeVcpuState)
	if err != nil {
		return MicrovmState{}, err
	}

	devices, err := DecodeDevicesState(r)
	if err != nil {
		return MicrovmState{}, err
	}

	return MicrovmState{
		VMInfo: info, KvmState: kvm, VmState: vm, VcpuStates: vcpus, DeviceStates: devices,
	}, nil
}
