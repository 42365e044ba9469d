package vb

import (
	"fmt"

	"github.com/fcstate/migrator/codec"
)

// ArmVcpuState is an aarch64 vCPU's saved register state. PvtimeIPA
// arrives at V_C (see vc.ArmVcpuState).
type ArmVcpuState struct {
	MPState []byte
	Regs    Aarch64RegisterVec
	Mpidr   uint64
	Kvi     []byte
}

func (a ArmVcpuState) Encode(w *codec.Writer) {
	w.WriteBytes(a.MPState)
	a.Regs.Encode(w)
	w.WriteUint64(a.Mpidr)
	w.WriteBytes(a.Kvi)
}

func DecodeArmVcpuState(r *codec.Reader) (ArmVcpuState, error) {
	mpstate, err := r.ReadBytes()
	if err != nil {
		return ArmVcpuState{}, err
	}

	regs, err := DecodeAarch64RegisterVec(r)
	if err != nil {
		return ArmVcpuState{}, err
	}

	mpidr, err := r.ReadUint64()
	if err != nil {
		return ArmVcpuState{}, err
	}

	kvi, err := r.ReadBytes()
	if err != nil {
		return ArmVcpuState{}, err
	}

	return ArmVcpuState{MPState: mpstate, Regs: regs, Mpidr: mpidr, Kvi: kvi}, nil
}

// VcpuState is the architecture-tagged vCPU state wrapper. x86_64 vCPU
// state is unchanged from vc (X86VcpuState is a straight alias); only the
// aarch64 arm differs (no PvtimeIPA yet).
type VcpuState struct {
	X86 *X86VcpuState
	Arm *ArmVcpuState
}

const (
	vcpuArchX86 uint32 = 0
	vcpuArchArm uint32 = 1
)

func (v VcpuState) Encode(w *codec.Writer) {
	switch {
	case v.X86 != nil:
		w.WriteUint32(vcpuArchX86)
		v.X86.Encode(w)
	case v.Arm != nil:
		w.WriteUint32(vcpuArchArm)
		v.Arm.Encode(w)
	default:
		panic("vb: VcpuState has neither architecture arm set")
	}
}

func DecodeVcpuState(r *codec.Reader) (VcpuState, error) {
	tag, err := r.ReadUint32()
	if err != nil {
		return VcpuState{}, err
	}

	switch tag {
	case vcpuArchX86:
		x, err := DecodeX86VcpuState(r)
		if err != nil {
			return VcpuState{}, err
		}

		return VcpuState{X86: &x}, nil
	case vcpuArchArm:
		a, err := DecodeArmVcpuState(r)
		if err != nil {
			return VcpuState{}, err
		}

		return VcpuState{Arm: &a}, nil
	default:
		return VcpuState{}, fmt.Errorf("vb: unknown VcpuState architecture discriminant %d", tag)
	}
}
