package vc

import "github.com/fcstate/migrator/codec"

// GuestRegionType distinguishes a region backed by regular DRAM from one
// carved out for memory hotplug. New at V_C; always Dram on a migrated
// snapshot since neither V_A nor V_B supported hotplug.
type GuestRegionType uint32

const (
	GuestRegionDram GuestRegionType = 0
)

func (g GuestRegionType) Encode(w *codec.Writer) { w.WriteUint32(uint32(g)) }

func DecodeGuestRegionType(r *codec.Reader) (GuestRegionType, error) {
	v, err := r.ReadUint32()

	return GuestRegionType(v), err
}

// GuestMemoryRegionState describes one guest-physical memory region. V_C
// adds RegionType and Plugged over V_B (which had already dropped V_A's
// Offset field).
type GuestMemoryRegionState struct {
	BaseAddress uint64
	Size        uint64
	RegionType  GuestRegionType
	Plugged     []bool
}

func (g GuestMemoryRegionState) Encode(w *codec.Writer) {
	w.WriteUint64(g.BaseAddress)
	w.WriteUintptr(g.Size)
	g.RegionType.Encode(w)
	codec.WriteSlice(w, g.Plugged, func(w *codec.Writer, b bool) { w.WriteBool(b) })
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

	rt, err := DecodeGuestRegionType(r)
	if err != nil {
		return GuestMemoryRegionState{}, err
	}

	plugged, err := codec.ReadSlice(r, func(r *codec.Reader) (bool, error) { return r.ReadBool() })
	if err != nil {
		return GuestMemoryRegionState{}, err
	}

	return GuestMemoryRegionState{BaseAddress: base, Size: size, RegionType: rt, Plugged: plugged}, nil
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

// GuestRegionUffdMapping describes one guest-physical-to-host-virtual
// mapping exposed over userfaultfd (not persisted in a snapshot; included
// here because its shape is part of the monitor's external interface per
// spec.md section 6). pipeline.MemoryMappingsResponse carries its own
// GuestRegionUffdMapping type, without PageSizeKib, rather than this one.
type GuestRegionUffdMapping struct {
	BaseHostVirtAddr uint64
	Size             uint64
	Offset           uint64
	PageSizeKib      uint64
}
