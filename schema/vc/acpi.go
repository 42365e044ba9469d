package vc

import "github.com/fcstate/migrator/codec"

// VMGenIDState is the ACPI VM Generation ID device's saved state: the
// guest-physical address of the published GUID page and the 16-byte GUID
// itself. Required at V_C (see convert.ErrMissingVMGenID);
// optional at V_A/V_B.
type VMGenIDState struct {
	Addr uint64
	GUID [16]byte
}

func (v VMGenIDState) Encode(w *codec.Writer) {
	w.WriteUint64(v.Addr)
	w.WriteBytes(v.GUID[:])
}

func DecodeVMGenIDState(r *codec.Reader) (VMGenIDState, error) {
	addr, err := r.ReadUint64()
	if err != nil {
		return VMGenIDState{}, err
	}

	guid, err := r.ReadBytes()
	if err != nil {
		return VMGenIDState{}, err
	}

	var v VMGenIDState

	v.Addr = addr
	copy(v.GUID[:], guid)

	return v, nil
}

// VmClockAbi mirrors the guest-visible vmclock ABI page layout: the fields
// synthesized during reconstruction (Magic, Size, Version, ClockStatus,
// CounterID) plus the remaining reserved bytes, carried opaquely since
// nothing in this package ever inspects them.
type VmClockAbi struct {
	Magic       uint32
	Size        uint32
	Version     uint16
	ClockStatus uint8
	CounterID   uint64
	Reserved    []byte
}

func (v VmClockAbi) Encode(w *codec.Writer) {
	w.WriteUint32(v.Magic)
	w.WriteUint32(v.Size)
	w.WriteUint16(v.Version)
	w.WriteUint8(v.ClockStatus)
	w.WriteUint64(v.CounterID)
	w.WriteBytes(v.Reserved)
}

func DecodeVmClockAbi(r *codec.Reader) (VmClockAbi, error) {
	var v VmClockAbi

	var err error

	if v.Magic, err = r.ReadUint32(); err != nil {
		return VmClockAbi{}, err
	}

	if v.Size, err = r.ReadUint32(); err != nil {
		return VmClockAbi{}, err
	}

	if v.Version, err = r.ReadUint16(); err != nil {
		return VmClockAbi{}, err
	}

	if v.ClockStatus, err = r.ReadUint8(); err != nil {
		return VmClockAbi{}, err
	}

	if v.CounterID, err = r.ReadUint64(); err != nil {
		return VmClockAbi{}, err
	}

	if v.Reserved, err = r.ReadBytes(); err != nil {
		return VmClockAbi{}, err
	}

	return v, nil
}

// VmClockState is the x86_64 paravirtualized wall-clock device, new at
// V_C. It is always synthesized during migration (see package convert and
// package allocator's LastMatch allocation of its guest-physical page).
type VmClockState struct {
	GuestAddress uint64
	Inner        VmClockAbi
}

func (v VmClockState) Encode(w *codec.Writer) {
	w.WriteUint64(v.GuestAddress)
	v.Inner.Encode(w)
}

func DecodeVmClockState(r *codec.Reader) (VmClockState, error) {
	addr, err := r.ReadUint64()
	if err != nil {
		return VmClockState{}, err
	}

	inner, err := DecodeVmClockAbi(r)
	if err != nil {
		return VmClockState{}, err
	}

	return VmClockState{GuestAddress: addr, Inner: inner}, nil
}

// ACPIDeviceManagerState is the x86_64 ACPI device manager's saved state.
// At V_C, VMGenID becomes mandatory and VmClock is always present
// (synthesized); at V_A/V_B this is a top-level MicrovmState field, folded
// at V_C into DevicesState.
type ACPIDeviceManagerState struct {
	VMGenID VMGenIDState
	VmClock VmClockState
}

func (a ACPIDeviceManagerState) Encode(w *codec.Writer) {
	a.VMGenID.Encode(w)
	a.VmClock.Encode(w)
}

func DecodeACPIDeviceManagerState(r *codec.Reader) (ACPIDeviceManagerState, error) {
	vmgenid, err := DecodeVMGenIDState(r)
	if err != nil {
		return ACPIDeviceManagerState{}, err
	}

	vmclock, err := DecodeVmClockState(r)
	if err != nil {
		return ACPIDeviceManagerState{}, err
	}

	return ACPIDeviceManagerState{VMGenID: vmgenid, VmClock: vmclock}, nil
}
