package vc

import "github.com/fcstate/migrator/codec"

// IDAllocatorState is the wire shape of a sequential-ID allocator: the
// inclusive range it was created with and NextID, one past the highest ID
// currently allocated (nil if nothing has been allocated yet). Freed IDs
// below NextID are not tracked on the wire.
type IDAllocatorState struct {
	Start  uint32
	End    uint32
	NextID *uint32
}

func (i IDAllocatorState) Encode(w *codec.Writer) {
	w.WriteUint32(i.Start)
	w.WriteUint32(i.End)
	codec.WriteOptional(w, i.NextID, func(w *codec.Writer, v uint32) { w.WriteUint32(v) })
}

func DecodeIDAllocatorState(r *codec.Reader) (IDAllocatorState, error) {
	start, err := r.ReadUint32()
	if err != nil {
		return IDAllocatorState{}, err
	}

	end, err := r.ReadUint32()
	if err != nil {
		return IDAllocatorState{}, err
	}

	next, err := codec.ReadOptional(r, func(r *codec.Reader) (uint32, error) { return r.ReadUint32() })
	if err != nil {
		return IDAllocatorState{}, err
	}

	return IDAllocatorState{Start: start, End: end, NextID: next}, nil
}

// AddressRangeState is one allocated, inclusive address range held by an
// AddressAllocatorState.
type AddressRangeState struct {
	Start uint64
	End   uint64
}

func (a AddressRangeState) Encode(w *codec.Writer) {
	w.WriteUint64(a.Start)
	w.WriteUint64(a.End)
}

func DecodeAddressRangeState(r *codec.Reader) (AddressRangeState, error) {
	start, err := r.ReadUint64()
	if err != nil {
		return AddressRangeState{}, err
	}

	end, err := r.ReadUint64()
	if err != nil {
		return AddressRangeState{}, err
	}

	return AddressRangeState{Start: start, End: end}, nil
}

// AddressAllocatorState is the wire shape of a range allocator: its total
// span and the disjoint ranges currently allocated out of it, in
// allocation order (order matters for policy-faithful replay; see
// package allocator).
type AddressAllocatorState struct {
	Base      uint64
	Size      uint64
	Allocated []AddressRangeState
}

func (a AddressAllocatorState) Encode(w *codec.Writer) {
	w.WriteUint64(a.Base)
	w.WriteUint64(a.Size)
	codec.WriteSlice(w, a.Allocated, func(w *codec.Writer, r AddressRangeState) { r.Encode(w) })
}

func DecodeAddressAllocatorState(r *codec.Reader) (AddressAllocatorState, error) {
	base, err := r.ReadUint64()
	if err != nil {
		return AddressAllocatorState{}, err
	}

	size, err := r.ReadUint64()
	if err != nil {
		return AddressAllocatorState{}, err
	}

	allocated, err := codec.ReadSlice(r, DecodeAddressRangeState)
	if err != nil {
		return AddressAllocatorState{}, err
	}

	return AddressAllocatorState{Base: base, Size: size, Allocated: allocated}, nil
}

// ResourceAllocatorState is the full persisted allocator set, new at V_C.
// Never present in a V_A or V_B snapshot; package allocator reconstructs
// one from the device and ACPI state during migration (see spec.md's
// allocator-reconstruction algorithm).
type ResourceAllocatorState struct {
	GsiLegacy    IDAllocatorState
	GsiMsi       IDAllocatorState
	Mmio32       AddressAllocatorState
	Mmio64       AddressAllocatorState
	PastMmio64   AddressAllocatorState
	SystemMemory AddressAllocatorState
}

func (r ResourceAllocatorState) Encode(w *codec.Writer) {
	r.GsiLegacy.Encode(w)
	r.GsiMsi.Encode(w)
	r.Mmio32.Encode(w)
	r.Mmio64.Encode(w)
	r.PastMmio64.Encode(w)
	r.SystemMemory.Encode(w)
}

func DecodeResourceAllocatorState(r *codec.Reader) (ResourceAllocatorState, error) {
	gsiLegacy, err := DecodeIDAllocatorState(r)
	if err != nil {
		return ResourceAllocatorState{}, err
	}

	gsiMsi, err := DecodeIDAllocatorState(r)
	if err != nil {
		return ResourceAllocatorState{}, err
	}

	mmio32, err := DecodeAddressAllocatorState(r)
	if err != nil {
		return ResourceAllocatorState{}, err
	}

	mmio64, err := DecodeAddressAllocatorState(r)
	if err != nil {
		return ResourceAllocatorState{}, err
	}

	pastMmio64, err := DecodeAddressAllocatorState(r)
	if err != nil {
		return ResourceAllocatorState{}, err
	}

	systemMemory, err := DecodeAddressAllocatorState(r)
	if err != nil {
		return ResourceAllocatorState{}, err
	}

	return ResourceAllocatorState{
		GsiLegacy: gsiLegacy, GsiMsi: gsiMsi, Mmio32: mmio32,
		Mmio64: mmio64, PastMmio64: pastMmio64, SystemMemory: systemMemory,
	}, nil
}
