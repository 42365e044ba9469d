package va

import "github.com/fcstate/migrator/codec"

// DeviceStates is the V_A device-manager inventory: the same flat shape
// vb carries forward, built on this version's own MMIODeviceInfo.
type DeviceStates struct {
	LegacyDevices []ConnectedLegacyState
	BlockDevices  []ConnectedDeviceState[BlockState]
	NetDevices    []ConnectedDeviceState[NetState]
	VsockDevice   *ConnectedDeviceState[VsockState]
	BalloonDevice *ConnectedDeviceState[BalloonState]
	MmdsVersion   *MmdsVersionState
	EntropyDevice *ConnectedDeviceState[EntropyState]
}

func (d DeviceStates) Encode(w *codec.Writer) {
	codec.WriteSlice(w, d.LegacyDevices, func(w *codec.Writer, v ConnectedLegacyState) { v.Encode(w) })
	codec.WriteSlice(w, d.BlockDevices, func(w *codec.Writer, v ConnectedDeviceState[BlockState]) {
		v.Encode(w, func(w *codec.Writer, b BlockState) { b.Encode(w) })
	})
	codec.WriteSlice(w, d.NetDevices, func(w *codec.Writer, v ConnectedDeviceState[NetState]) {
		v.Encode(w, func(w *codec.Writer, n NetState) { n.Encode(w) })
	})
	codec.WriteOptional(w, d.VsockDevice, func(w *codec.Writer, v ConnectedDeviceState[VsockState]) {
		v.Encode(w, func(w *codec.Writer, s VsockState) { s.Encode(w) })
	})
	codec.WriteOptional(w, d.BalloonDevice, func(w *codec.Writer, v ConnectedDeviceState[BalloonState]) {
		v.Encode(w, func(w *codec.Writer, b BalloonState) { b.Encode(w) })
	})
	codec.WriteOptional(w, d.MmdsVersion, func(w *codec.Writer, v MmdsVersionState) { v.Encode(w) })
	codec.WriteOptional(w, d.EntropyDevice, func(w *codec.Writer, v ConnectedDeviceState[EntropyState]) {
		v.Encode(w, func(w *codec.Writer, e EntropyState) { e.Encode(w) })
	})
}

func DecodeDeviceStates(r *codec.Reader) (DeviceStates, error) {
	legacy, err := codec.ReadSlice(r, DecodeConnectedLegacyState)
	if err != nil {
		return DeviceStates{}, err
	}

	block, err := codec.ReadSlice(r, func(r *codec.Reader) (ConnectedDeviceState[BlockState], error) {
		return DecodeConnectedDeviceState(r, DecodeBlockState)
	})
	if err != nil {
		return DeviceStates{}, err
	}

	net, err := codec.ReadSlice(r, func(r *codec.Reader) (ConnectedDeviceState[NetState], error) {
		return DecodeConnectedDeviceState(r, DecodeNetState)
	})
	if err != nil {
		return DeviceStates{}, err
	}

	vsock, err := codec.ReadOptional(r, func(r *codec.Reader) (ConnectedDeviceState[VsockState], error) {
		return DecodeConnectedDeviceState(r, DecodeVsockState)
	})
	if err != nil {
		return DeviceStates{}, err
	}

	balloon, err := codec.ReadOptional(r, func(r *codec.Reader) (ConnectedDeviceState[BalloonState], error) {
		return DecodeConnectedDeviceState(r, DecodeBalloonState)
	})
	if err != nil {
		return DeviceStates{}, err
	}

	mmdsVersion, err := codec.ReadOptional(r, DecodeMmdsVersionState)
	if err != nil {
		return DeviceStates{}, err
	}

	entropy, err := codec.ReadOptional(r, func(r *codec.Reader) (ConnectedDeviceState[EntropyState], error) {
		return DecodeConnectedDeviceState(r, DecodeEntropyState)
	})
	if err != nil {
		return DeviceStates{}, err
	}

	return DeviceStates{
		LegacyDevices: legacy, BlockDevices: block, NetDevices: net, VsockDevice: vsock,
		BalloonDevice: balloon, MmdsVersion: mmdsVersion, EntropyDevice: entropy,
	}, nil
}

// MicrovmState is the top-level V_A snapshot envelope, the oldest this
// module accepts. MemoryState is a direct field here; vb and vc nest
// guest memory under VmState instead (see vb.X86VmState.Memory). There
// is no separate KvmState field: the x86_64 KVM capability modifiers
// live inline in VmState.X86 (see X86VmState.KvmCapModifiers).
type MicrovmState struct {
	VMInfo       VMInfo
	MemoryState  GuestMemoryState
	VmState      VmState
	VcpuStates   []VcpuState
	DeviceStates DeviceStates
	AcpiDevState ACPIDeviceManagerState
}

func (m MicrovmState) Encode(w *codec.Writer) {
	m.VMInfo.Encode(w)
	m.MemoryState.Encode(w)
	m.VmState.Encode(w)
	codec.WriteSlice(w, m.VcpuStates, func(w *codec.Writer, v VcpuState) { v.Encode(w) })
	m.DeviceStates.Encode(w)
	m.AcpiDevState.Encode(w)
}

func DecodeMicrovmState(r *codec.Reader) (MicrovmState, error) {
	info, err := DecodeVMInfo(r)
	if err != nil {
		return MicrovmState{}, err
	}

	memory, err := DecodeGuestMemoryState(r)
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

	devices, err := DecodeDeviceStates(r)
	if err != nil {
		return MicrovmState{}, err
	}

	acpi, err := DecodeACPIDeviceManagerState(r)
	if err != nil {
		return MicrovmState{}, err
	}

	return MicrovmState{
		VMInfo: info, MemoryState: memory, VmState: vm, VcpuStates: vcpus,
		DeviceStates: devices, AcpiDevState: acpi,
	}, nil
}
