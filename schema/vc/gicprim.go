package vc

import "github.com/fcstate/migrator/codec"

// Aarch64RegisterVec is a heterogeneous aarch64 register dump: parallel
// arrays of register ids and their packed values. Identical across all
// three versions; the only aarch64 register container with custom framing
// (a pair of sequences rather than a single struct).
type Aarch64RegisterVec struct {
	IDs  []uint64
	Data []byte
}

func (v Aarch64RegisterVec) Encode(w *codec.Writer) {
	codec.WriteSlice(w, v.IDs, func(w *codec.Writer, id uint64) { w.WriteUint64(id) })
	w.WriteBytes(v.Data)
}

func DecodeAarch64RegisterVec(r *codec.Reader) (Aarch64RegisterVec, error) {
	ids, err := codec.ReadSlice(r, func(r *codec.Reader) (uint64, error) { return r.ReadUint64() })
	if err != nil {
		return Aarch64RegisterVec{}, err
	}

	data, err := r.ReadBytes()
	if err != nil {
		return Aarch64RegisterVec{}, err
	}

	return Aarch64RegisterVec{IDs: ids, Data: data}, nil
}

// GicRegState32 is a chunked GIC register dump over 32-bit registers
// (distributor state).
type GicRegState32 struct {
	Chunks []uint32
}

func (g GicRegState32) Encode(w *codec.Writer) {
	codec.WriteSlice(w, g.Chunks, func(w *codec.Writer, c uint32) { w.WriteUint32(c) })
}

func DecodeGicRegState32(r *codec.Reader) (GicRegState32, error) {
	chunks, err := codec.ReadSlice(r, func(r *codec.Reader) (uint32, error) { return r.ReadUint32() })

	return GicRegState32{Chunks: chunks}, err
}

// GicRegState64 is a chunked GIC register dump over 64-bit registers (ICC
// system registers).
type GicRegState64 struct {
	Chunks []uint64
}

func (g GicRegState64) Encode(w *codec.Writer) {
	codec.WriteSlice(w, g.Chunks, func(w *codec.Writer, c uint64) { w.WriteUint64(c) })
}

func DecodeGicRegState64(r *codec.Reader) (GicRegState64, error) {
	chunks, err := codec.ReadSlice(r, func(r *codec.Reader) (uint64, error) { return r.ReadUint64() })

	return GicRegState64{Chunks: chunks}, err
}

// VgicSysRegsState is a vCPU's GICv3 system-register file.
type VgicSysRegsState struct {
	MainICCRegs []GicRegState64
	APICCRegs   []*GicRegState64
}

func (v VgicSysRegsState) Encode(w *codec.Writer) {
	codec.WriteSlice(w, v.MainICCRegs, func(w *codec.Writer, g GicRegState64) { g.Encode(w) })
	codec.WriteSlice(w, v.APICCRegs, func(w *codec.Writer, g *GicRegState64) {
		codec.WriteOptional(w, g, func(w *codec.Writer, g GicRegState64) { g.Encode(w) })
	})
}

func DecodeVgicSysRegsState(r *codec.Reader) (VgicSysRegsState, error) {
	main, err := codec.ReadSlice(r, DecodeGicRegState64)
	if err != nil {
		return VgicSysRegsState{}, err
	}

	ap, err := codec.ReadSlice(r, func(r *codec.Reader) (*GicRegState64, error) {
		return codec.ReadOptional(r, DecodeGicRegState64)
	})
	if err != nil {
		return VgicSysRegsState{}, err
	}

	return VgicSysRegsState{MainICCRegs: main, APICCRegs: ap}, nil
}

// GicVcpuState is the per-vCPU slice of GIC redistributor + ICC state.
type GicVcpuState struct {
	Rdist []GicRegState32
	ICC   VgicSysRegsState
}

func (g GicVcpuState) Encode(w *codec.Writer) {
	codec.WriteSlice(w, g.Rdist, func(w *codec.Writer, r GicRegState32) { r.Encode(w) })
	g.ICC.Encode(w)
}

func DecodeGicVcpuState(r *codec.Reader) (GicVcpuState, error) {
	rdist, err := codec.ReadSlice(r, DecodeGicRegState32)
	if err != nil {
		return GicVcpuState{}, err
	}

	icc, err := DecodeVgicSysRegsState(r)
	if err != nil {
		return GicVcpuState{}, err
	}

	return GicVcpuState{Rdist: rdist, ICC: icc}, nil
}

// ItsRegisterState is the GICv3 Interrupt Translation Service register
// block, new at V_C. It is never populated by a migration from V_A or
// V_B (neither persisted ITS support); it round-trips as nil.
type ItsRegisterState struct {
	IIDR    uint64
	CBaser  uint64
	CReadr  uint64
	CWriter uint64
	Baser   [8]uint64
	Ctlr    uint64
}

func (i ItsRegisterState) Encode(w *codec.Writer) {
	w.WriteUint64(i.IIDR)
	w.WriteUint64(i.CBaser)
	w.WriteUint64(i.CReadr)
	w.WriteUint64(i.CWriter)

	for _, b := range i.Baser {
		w.WriteUint64(b)
	}

	w.WriteUint64(i.Ctlr)
}

func DecodeItsRegisterState(r *codec.Reader) (ItsRegisterState, error) {
	var i ItsRegisterState

	var err error

	if i.IIDR, err = r.ReadUint64(); err != nil {
		return ItsRegisterState{}, err
	}

	if i.CBaser, err = r.ReadUint64(); err != nil {
		return ItsRegisterState{}, err
	}

	if i.CReadr, err = r.ReadUint64(); err != nil {
		return ItsRegisterState{}, err
	}

	if i.CWriter, err = r.ReadUint64(); err != nil {
		return ItsRegisterState{}, err
	}

	for idx := range i.Baser {
		if i.Baser[idx], err = r.ReadUint64(); err != nil {
			return ItsRegisterState{}, err
		}
	}

	if i.Ctlr, err = r.ReadUint64(); err != nil {
		return ItsRegisterState{}, err
	}

	return i, nil
}

// GicState is the GIC distributor + per-vCPU state. V_C adds ItsState
// (always nil when reconstructed from V_A/V_B, since neither version
// persisted ITS support).
type GicState struct {
	Dist          []GicRegState32
	GicVcpuStates []GicVcpuState
	ItsState      *ItsRegisterState
}

func (g GicState) Encode(w *codec.Writer) {
	codec.WriteSlice(w, g.Dist, func(w *codec.Writer, r GicRegState32) { r.Encode(w) })
	codec.WriteSlice(w, g.GicVcpuStates, func(w *codec.Writer, v GicVcpuState) { v.Encode(w) })
	codec.WriteOptional(w, g.ItsState, func(w *codec.Writer, i ItsRegisterState) { i.Encode(w) })
}

func DecodeGicState(r *codec.Reader) (GicState, error) {
	dist, err := codec.ReadSlice(r, DecodeGicRegState32)
	if err != nil {
		return GicState{}, err
	}

	vcpus, err := codec.ReadSlice(r, DecodeGicVcpuState)
	if err != nil {
		return GicState{}, err
	}

	its, err := codec.ReadOptional(r, DecodeItsRegisterState)
	if err != nil {
		return GicState{}, err
	}

	return GicState{Dist: dist, GicVcpuStates: vcpus, ItsState: its}, nil
}
