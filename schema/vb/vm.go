package vb

import (
	"fmt"

	"github.com/fcstate/migrator/codec"
)

// X86VmState is the x86_64 hypervisor-wide state. No ResourceAllocator
// yet; that arrives at V_C and is reconstructed from this device
// inventory (see package allocator).
type X86VmState struct {
	Memory    GuestMemoryState
	PitState  []byte
	Clock     []byte
	PicMaster []byte
	PicSlave  []byte
	IOAPIC    []byte
}

func (x X86VmState) Encode(w *codec.Writer) {
	x.Memory.Encode(w)
	w.WriteBytes(x.PitState)
	w.WriteBytes(x.Clock)
	w.WriteBytes(x.PicMaster)
	w.WriteBytes(x.PicSlave)
	w.WriteBytes(x.IOAPIC)
}

func DecodeX86VmState(r *codec.Reader) (X86VmState, error) {
	memory, err := DecodeGuestMemoryState(r)
	if err != nil {
		return X86VmState{}, err
	}

	var x X86VmState

	x.Memory = memory

	for _, dst := range []*[]byte{&x.PitState, &x.Clock, &x.PicMaster, &x.PicSlave, &x.IOAPIC} {
		if *dst, err = r.ReadBytes(); err != nil {
			return X86VmState{}, err
		}
	}

	return x, nil
}

// ArmVmState is the aarch64 hypervisor-wide state.
type ArmVmState struct {
	Memory GuestMemoryState
	Gic    GicState
}

func (a ArmVmState) Encode(w *codec.Writer) {
	a.Memory.Encode(w)
	a.Gic.Encode(w)
}

func DecodeArmVmState(r *codec.Reader) (ArmVmState, error) {
	memory, err := DecodeGuestMemoryState(r)
	if err != nil {
		return ArmVmState{}, err
	}

	gic, err := DecodeGicState(r)
	if err != nil {
		return ArmVmState{}, err
	}

	return ArmVmState{Memory: memory, Gic: gic}, nil
}

// VmState is the architecture-tagged hypervisor-wide state wrapper.
type VmState struct {
	X86 *X86VmState
	Arm *ArmVmState
}

func (v VmState) Encode(w *codec.Writer) {
	switch {
	case v.X86 != nil:
		w.WriteUint32(vcpuArchX86)
		v.X86.Encode(w)
	case v.Arm != nil:
		w.WriteUint32(vcpuArchArm)
		v.Arm.Encode(w)
	default:
		panic("vb: VmState has neither architecture arm set")
	}
}

func DecodeVmState(r *codec.Reader) (VmState, error) {
	tag, err := r.ReadUint32()
	if err != nil {
		return VmState{}, err
	}

	switch tag {
	case vcpuArchX86:
		x, err := DecodeX86VmState(r)
		if err != nil {
			return VmState{}, err
		}

		return VmState{X86: &x}, nil
	case vcpuArchArm:
		a, err := DecodeArmVmState(r)
		if err != nil {
			return VmState{}, err
		}

		return VmState{Arm: &a}, nil
	default:
		return VmState{}, fmt.Errorf("vb: unknown VmState architecture discriminant %d", tag)
	}
}
