package vc

import (
	"fmt"

	"github.com/fcstate/migrator/codec"
)

// X86VcpuState is an x86_64 vCPU's saved register state. Every field
// below wraps a hypervisor-opaque KVM structure (cpuid table, MSR list,
// debug registers, LAPIC page, regs/sregs, vCPU events, XCRs, and the
// variable-length xsave area) as a raw byte blob; nothing in this package
// interprets their contents, matching how the upstream KVM bindings are
// carried end to end as unsafe byte copies.
type X86VcpuState struct {
	CPUID      []byte
	SavedMSRs  []byte
	DebugRegs  []byte
	LAPIC      []byte
	MPState    []byte
	Regs       []byte
	Sregs      []byte
	VcpuEvents []byte
	XCRs       []byte
	Xsave      []byte
	TscKhz     *uint32
}

func (x X86VcpuState) Encode(w *codec.Writer) {
	w.WriteBytes(x.CPUID)
	w.WriteBytes(x.SavedMSRs)
	w.WriteBytes(x.DebugRegs)
	w.WriteBytes(x.LAPIC)
	w.WriteBytes(x.MPState)
	w.WriteBytes(x.Regs)
	w.WriteBytes(x.Sregs)
	w.WriteBytes(x.VcpuEvents)
	w.WriteBytes(x.XCRs)
	w.WriteBytes(x.Xsave)
	codec.WriteOptional(w, x.TscKhz, func(w *codec.Writer, v uint32) { w.WriteUint32(v) })
}

func DecodeX86VcpuState(r *codec.Reader) (X86VcpuState, error) {
	var x X86VcpuState

	var err error

	for _, dst := range []*[]byte{
		&x.CPUID, &x.SavedMSRs, &x.DebugRegs, &x.LAPIC, &x.MPState,
		&x.Regs, &x.Sregs, &x.VcpuEvents, &x.XCRs, &x.Xsave,
	} {
		if *dst, err = r.ReadBytes(); err != nil {
			return X86VcpuState{}, err
		}
	}

	x.TscKhz, err = codec.ReadOptional(r, func(r *codec.Reader) (uint32, error) { return r.ReadUint32() })
	if err != nil {
		return X86VcpuState{}, err
	}

	return x, nil
}

// ArmVcpuState is an aarch64 vCPU's saved register state. V_C adds
// PvtimeIPA (always nil when reconstructed from V_A/V_B, since paravirt
// steal-time accounting postdates both).
type ArmVcpuState struct {
	MPState   []byte
	Regs      Aarch64RegisterVec
	Mpidr     uint64
	Kvi       []byte
	PvtimeIPA *uint64
}

func (a ArmVcpuState) Encode(w *codec.Writer) {
	w.WriteBytes(a.MPState)
	a.Regs.Encode(w)
	w.WriteUint64(a.Mpidr)
	w.WriteBytes(a.Kvi)
	codec.WriteOptional(w, a.PvtimeIPA, func(w *codec.Writer, v uint64) { w.WriteUint64(v) })
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

	pvtime, err := codec.ReadOptional(r, func(r *codec.Reader) (uint64, error) { return r.ReadUint64() })
	if err != nil {
		return ArmVcpuState{}, err
	}

	return ArmVcpuState{MPState: mpstate, Regs: regs, Mpidr: mpidr, Kvi: kvi, PvtimeIPA: pvtime}, nil
}

// VcpuState is the architecture-tagged vCPU state wrapper. Exactly one of
// X86 or Arm is set, selected by the Arch value passed explicitly by the
// caller (see package convert's Arch type), replacing the upstream
// compile-time target_arch gate with a runtime parameter.
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
		panic("vc: VcpuState has neither architecture arm set")
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
		return VcpuState{}, fmt.Errorf("vc: unknown VcpuState architecture discriminant %d", tag)
	}
}
