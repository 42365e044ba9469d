package vb

import "github.com/fcstate/migrator/codec"

// GuestMemoryRegionState describes one guest-physical memory region. The
// V_A Offset field is already gone at this version; RegionType/Plugged
// arrive at V_C.
type GuestMemoryRegionState struct {
	BaseAddress uint64
	Size        uint64
}

func (g GuestMemoryRegionState) Encode(w *codec.Writer) {
	w.WriteUint64(g.BaseAddress)
	w.WriteUintptr(g.Size)
}

func DecodeGuestMemoryRegionState(r *codec.Reader) (GuestMemoryRegionState, error) {
	base, err := r.ReadUint64()
	if err != nil {
		return GuestMemoryRegionState{}, err
	}

	size, err := r.ReadUintptr()
	if err != nil {
		return GuestMemoryRegionState{}, err
	}

	return GuestMemoryRegionState{BaseAddress: base, Size: size}, nil
}

// GuestMemoryState is the ordered set of guest memory regions.
type GuestMemoryState struct {
	Regions []GuestMemoryRegionState
}

func (g GuestMemoryState) Encode(w *codec.Writer) {
	codec.WriteSlice(w, g.Regions, func(w *codec.Writer, r GuestMemoryRegionState) { r.Encode(w) })
}

func DecodeGuestMemoryState(r *codec.Reader) (GuestMemoryState, error) {
	regions, err := codec.ReadSlice(r, DecodeGuestMemoryRegionState)

	return GuestMemoryState{Regions: regions}, err
}
