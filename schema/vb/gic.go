package vb

import "github.com/fcstate/migrator/codec"

// GicState is the aarch64 GIC distributor + per-vCPU state. ItsState
// arrives only at V_C (see vc.GicState).
type GicState struct {
	Dist          []GicRegState32
	GicVcpuStates []GicVcpuState
}

func (g GicState) Encode(w *codec.Writer) {
	codec.WriteSlice(w, g.Dist, func(w *codec.Writer, r GicRegState32) { r.Encode(w) })
	codec.WriteSlice(w, g.GicVcpuStates, func(w *codec.Writer, v GicVcpuState) { v.Encode(w) })
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

	return GicState{Dist: dist, GicVcpuStates: vcpus}, nil
}
