package vc

import (
	"fmt"

	"github.com/fcstate/migrator/codec"
)

// X86VmState is the x86_64 hypervisor-wide state: guest memory, the
// reconstructed resource allocator, and the opaque PIT/clock/PIC/IOAPIC
// device blobs carried unmodified since V_A.
type X86VmState struct {
	Memory            GuestMemoryState
	ResourceAllocator ResourceAllocatorState
	PitState          []byte
	Clock             []byte
	PicMaster         []byte
	PicSlave          []byte
	IOAPIC            []byte
}

func (x X86VmState) Encode(w *codec.Writer) {
	x.Memory.Encode(w)
	x.ResourceAllocator.Encode(w)
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

	allocator, err := DecodeResourceAllocatorState(r)
	if err != nil {
		return X86VmState{}, err
	}

	var x X86VmState

	x.Memory = memory
	x.ResourceAllocator = allocator

	for _, dst := range []*[]byte{&x.PitState, &x.Clock, &x.PicMaster, &x.PicSlave, &x.IOAPIC} {
		if *dst, err = r.ReadBytes(); err != nil {
			return X86VmState{}, err
		}
	}

	return x, nil
}

// ArmVmState is the aarch64 hypervisor-wide state: guest memory, the GIC
// distributor/vCPU state, and the reconstructed resource allocator.
type ArmVmState struct {
	Memory            GuestMemoryState
	Gic               GicState
	ResourceAllocator ResourceAllocatorState
}

func (a ArmVmState) Encode(w *codec.Writer) {
	a.Memory.Encode(w)
	a.Gic.Encode(w)
	a.ResourceAllocator.Encode(w)
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

	allocator, err := DecodeResourceAllocatorState(r)
	if err != nil {
		return ArmVmState{}, err
	}

	return ArmVmState{Memory: memory, Gic: gic, ResourceAllocator: allocator}, nil
}

// VmState is the architecture-tagged hypervisor-wide state wrapper.
// Exactly one of X86 or Arm is set.
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
		panic("vc: VmState has neither architecture arm set")
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
		return VmState{}, fmt.Errorf("vc: unknown VmState architecture discriminant %d", tag)
	}
}
