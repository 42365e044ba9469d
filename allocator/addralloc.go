package allocator

import "github.com/pkg/errors"

// AllocPolicy selects where AddressAllocator.Allocate places a new range
// within its free space, mirroring vm-allocator's AllocPolicy enum.
type AllocPolicy int

const (
	// FirstMatch places the range at the lowest free address that fits it.
	FirstMatch AllocPolicy = iota
	// LastMatch places the range at the highest free address that fits it.
	LastMatch
	// ExactMatch places the range at a caller-specified address, failing if
	// it overlaps an existing allocation.
	ExactMatch
)

// AddressRange is an inclusive allocated byte range.
type AddressRange struct {
	Start uint64
	End   uint64
}

// AddressAllocator hands out byte ranges from a fixed [base, base+size)
// span, tracking allocations as a list of disjoint inclusive ranges kept
// in allocation order.
type AddressAllocator struct {
	base, size uint64
	allocated  []AddressRange
}

// NewAddressAllocator creates an allocator over [base, base+size).
func NewAddressAllocator(base, size uint64) (*AddressAllocator, error) {
	if size == 0 {
		return nil, errors.Wrap(ErrInvalidRange, "zero-size address range")
	}

	return &AddressAllocator{base: base, size: size}, nil
}

func (a *AddressAllocator) overlaps(start, end uint64) bool {
	for _, r := range a.allocated {
		if start <= r.End && r.Start <= end {
			return true
		}
	}

	return false
}

// Allocate reserves a range of the given size (aligned to align, which
// must be a power of two) according to policy. For ExactMatch, addr gives
// the exact start address to reserve.
func (a *AddressAllocator) Allocate(size, align uint64, policy AllocPolicy, addr uint64) (AddressRange, error) {
	if size == 0 {
		return AddressRange{}, errors.Wrap(ErrInvalidRange, "zero-size allocation")
	}

	if align == 0 {
		align = 1
	}

	top := a.base + a.size - 1

	switch policy {
	case ExactMatch:
		end := addr + size - 1
		if addr < a.base || end > top || a.overlaps(addr, end) {
			return AddressRange{}, errors.Errorf("allocator: exact address 0x%x (len %d) unavailable", addr, size)
		}

		a.insert(AddressRange{Start: addr, End: end})

		return AddressRange{Start: addr, End: end}, nil

	case LastMatch:
		return a.lastMatchBelow(size, align, top)

	default: // FirstMatch
		for start := alignUp(a.base, align); start+size-1 <= top; start += align {
			end := start + size - 1
			if !a.overlaps(start, end) {
				a.insert(AddressRange{Start: start, End: end})

				return AddressRange{Start: start, End: end}, nil
			}
		}

		return AddressRange{}, errors.Wrapf(ErrOutOfSpace, "no room for %d bytes (FirstMatch)", size)
	}
}

func (a *AddressAllocator) lastMatchBelow(size, align, top uint64) (AddressRange, error) {
	for start := alignDown(top-size+1, align); ; start -= align {
		end := start + size - 1
		if start >= a.base && !a.overlaps(start, end) {
			a.insert(AddressRange{Start: start, End: end})

			return AddressRange{Start: start, End: end}, nil
		}

		if start < a.base+align {
			break
		}
	}

	return AddressRange{}, errors.Wrapf(ErrOutOfSpace, "no room for %d bytes (LastMatch)", size)
}

// AllocateBelow behaves like Allocate with LastMatch, except the search
// treats ceiling (inclusive) as the top of the allocator's span instead of
// its real top, without shrinking the allocator itself: every other
// allocation against a still sees the allocator's real, full-size span.
// Used to place a range below an already-reserved region (e.g. VmClock
// below VMGenID) without corrupting the allocator's persisted capacity.
func (a *AddressAllocator) AllocateBelow(size, align, ceiling uint64) (AddressRange, error) {
	if size == 0 {
		return AddressRange{}, errors.Wrap(ErrInvalidRange, "zero-size allocation")
	}

	if align == 0 {
		align = 1
	}

	top := a.base + a.size - 1
	if ceiling < top {
		top = ceiling
	}

	if top < a.base || top-a.base+1 < size {
		return AddressRange{}, errors.Wrapf(ErrOutOfSpace, "no room below 0x%x for %d bytes", ceiling, size)
	}

	return a.lastMatchBelow(size, align, top)
}

func (a *AddressAllocator) insert(r AddressRange) {
	a.allocated = append(a.allocated, r)
}

// Allocated returns the currently allocated ranges in allocation order.
func (a *AddressAllocator) Allocated() []AddressRange {
	out := make([]AddressRange, len(a.allocated))
	copy(out, a.allocated)

	return out
}

// Size returns the allocator's real, full span size, unaffected by any
// AllocateBelow ceiling a caller has used to bound a search.
func (a *AddressAllocator) Size() uint64 {
	return a.size
}

func alignDown(v, align uint64) uint64 {
	return v &^ (align - 1)
}

func alignUp(v, align uint64) uint64 {
	return alignDown(v+align-1, align)
}
