package va

import (
	"fmt"

	"github.com/fcstate/migrator/codec"
)

const (
	vcpuArchX86 uint32 = 0
	vcpuArchArm uint32 = 1
)

// X86VmState is the x86_64 hypervisor-wide state. KvmCapModifiers lives
// inline here rather than behind a separate KvmState wrapper; vb and vc
// pull it out into its own top-level MicrovmState field (see
// vb.KvmState), so package convert relocates it on the way forward.
type X86VmState struct {
	PitState        []byte
	Clock           []byte
	PicMaster       []byte
	PicSlave        []byte
	IOAPIC          []byte
	KvmCapModifiers []KvmCapability
}

func (x X86VmState) Encode(w *codec.Writer) {
	w.WriteBytes(x.PitState)
	w.WriteBytes(x.Clock)
	w.WriteBytes(x.PicMaster)
	w.WriteBytes(x.PicSlave)
	w.WriteBytes(x.IOAPIC)
	codec.WriteSlice(w, x.KvmCapModifiers, func(w *codec.Writer, v KvmCapability) { v.Encode(w) })
}

func DecodeX86VmState(r *codec.Reader) (X86VmState, error) {
	var x X86VmState

	var err error

	for _, dst := range []*[]byte{&x.PitState, &x.Clock, &x.PicMaster, &x.PicSlave, &x.IOAPIC} {
		if *dst, err = r.ReadBytes(); err != nil {
			return X86VmState{}, err
		}
	}

	mods, err := codec.ReadSlice(r, DecodeKvmCapability)
	if err != nil {
		return X86VmState{}, err
	}

	x.KvmCapModifiers = mods

	return x, nil
}

// ArmVmState is the aarch64 hypervisor-wide state. Memory lives at the
// top level of MicrovmState at this version, not here (compare
// vb.ArmVmState.Memory).
type ArmVmState struct {
	Gic             GicState
	KvmCapModifiers []KvmCapability
}

func (a ArmVmState) Encode(w *codec.Writer) {
	a.Gic.Encode(w)
	codec.WriteSlice(w, a.KvmCapModifiers, func(w *codec.Writer, v KvmCapability) { v.Encode(w) })
}

func DecodeArmVmState(r *codec.Reader) (ArmVmState, error) {
	gic, err := DecodeGicState(r)
	if err != nil {
		return ArmVmState{}, err
	}

	mods, err := codec.ReadSlice(r, DecodeKvmCapability)
	if err != nil {
		return ArmVmState{}, err
	}

	return ArmVmState{Gic: gic, KvmCapModifiers: mods}, nil
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
		panic("va: VmState has neither architecture arm set")
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
		return VmState{}, fmt.Errorf("va: unknown VmState architecture discriminant %d", tag)
	}
}
