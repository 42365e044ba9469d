package va

import "github.com/fcstate/migrator/codec"

// GuestMemoryRegionState describes one guest-physical memory region.
// Offset (the region's byte offset within the backing snapshot memory
// file) is dropped starting at v1.11, once the snapshot file layout
// became self-describing; package convert discards it when migrating
// forward.
type GuestMemoryRegionState struct {
	BaseAddress uint64
	Size        uint64
	Offset      uint64
}

func (g GuestMemoryRegionState) Encode(w *codec.Writer) {
	w.WriteUint64(g.BaseAddress)
	w.WriteUint64(g.Size)
	w.WriteUint64(g.Offset)
}

func DecodeGuestMemoryRegionState(r *codec.Reader) (GuestMemoryRegionState, error) {
	base, err := r.ReadUint64()
	if err != nil {
		return GuestMemoryRegionState{}, err
	}

	size, err := r.ReadUint64()
	if err != nil {
		return GuestMemoryRegionState{}, err
	}

	offset, err := r.ReadUint64()
	if err != nil {
		return GuestMemoryRegionState{}, err
	}

	return GuestMemoryRegionState{BaseAddress: base, Size: size, Offset: offset}, nil
}

// GuestMemoryState is the full guest memory layout. At this version it
// is a direct field of MicrovmState, not nested under VmState (compare
// vb.X86VmState.Memory / vb.ArmVmState.Memory).
type GuestMemoryState struct {
	Regions []GuestMemoryRegionState
}

func (g GuestMemoryState) Encode(w *codec.Writer) {
	codec.WriteSlice(w, g.Regions, func(w *codec.Writer, v GuestMemoryRegionState) { v.Encode(w) })
}

func DecodeGuestMemoryState(r *codec.Reader) (GuestMemoryState, error) {
	regions, err := codec.ReadSlice(r, DecodeGuestMemoryRegionState)
	if err != nil {
		return GuestMemoryState{}, err
	}

	return GuestMemoryState{Regions: regions}, nil
}
