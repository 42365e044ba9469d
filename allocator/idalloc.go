// Package allocator reimplements the resource allocators Firecracker
// persists starting at snapshot format 8.0.0, and the reconstruction
// algorithm that synthesizes them from an older snapshot's device
// inventory when none were ever persisted. It is grounded on the Rust
// vm-allocator crate's IdAllocator/AddressAllocator and on
// ResourceAllocator::from in the v1.14 persist module.
package allocator

import (
	"github.com/pkg/errors"

	"github.com/fcstate/migrator/logging"
)

// ErrInvalidRange is returned when an allocator is constructed with an
// empty or inverted [start, end] range.
var ErrInvalidRange = errors.New("allocator: invalid range")

// ErrOutOfSpace is returned when no ID remains to allocate.
var ErrOutOfSpace = errors.New("allocator: out of space")

// ErrNotAllocated is returned when freeing an ID or range that the
// allocator never handed out.
var ErrNotAllocated = errors.New("allocator: not currently allocated")

// IDAllocator hands out sequential integer IDs from a fixed inclusive
// range, the way Firecracker's GSI allocators do. It always allocates the
// lowest free ID, so replaying N allocate calls against a fresh allocator
// reproduces the same IDs in the same order.
type IDAllocator struct {
	start, end uint32
	next       uint32
	allocated  map[uint32]struct{}
}

// NewIDAllocator creates an allocator over the inclusive range [start,
// end].
func NewIDAllocator(start, end uint32) (*IDAllocator, error) {
	if start > end {
		return nil, errors.Wrapf(ErrInvalidRange, "start %d > end %d", start, end)
	}

	return &IDAllocator{start: start, end: end, next: start, allocated: map[uint32]struct{}{}}, nil
}

// Allocate returns the next free ID, or ErrOutOfSpace once the range is
// exhausted.
func (a *IDAllocator) Allocate() (uint32, error) {
	for id := a.next; id <= a.end; id++ {
		if _, used := a.allocated[id]; !used {
			a.allocated[id] = struct{}{}
			a.next = id + 1

			return id, nil
		}
	}

	return 0, errors.Wrapf(ErrOutOfSpace, "range [%d, %d] exhausted", a.start, a.end)
}

// Free releases a previously allocated ID back to the pool.
func (a *IDAllocator) Free(id uint32) error {
	if _, ok := a.allocated[id]; !ok {
		return errors.Wrapf(ErrNotAllocated, "id %d", id)
	}

	delete(a.allocated, id)

	if id < a.next {
		a.next = id
	}

	return nil
}

// Highest reports the greatest currently allocated ID and whether
// anything is allocated at all.
func (a *IDAllocator) Highest() (uint32, bool) {
	var (
		max   uint32
		found bool
	)

	for id := range a.allocated {
		if !found || id > max {
			max, found = id, true
		}
	}

	return max, found
}

// ReconstructIDAllocator rebuilds an IDAllocator from the set of IDs a
// device scan observed in use: it sequentially allocates every ID from
// start up to the highest used one (mirroring IdAllocator's
// allocate-sequentially guarantee) and then frees whichever of those the
// scan never claimed, so the allocator's free/used bitmap matches what it
// would have been had the allocations really happened in order.
func ReconstructIDAllocator(start, end uint32, used []uint32) (*IDAllocator, error) {
	a, err := NewIDAllocator(start, end)
	if err != nil {
		return nil, err
	}

	if len(used) == 0 {
		return a, nil
	}

	usedSet := make(map[uint32]struct{}, len(used))

	var maxUsed uint32

	for i, id := range used {
		usedSet[id] = struct{}{}
		if i == 0 || id > maxUsed {
			maxUsed = id
		}
	}

	for id := start; id <= maxUsed; id++ {
		got, err := a.Allocate()
		if err != nil {
			return nil, err
		}

		if got != id {
			return nil, errors.Errorf("allocator: sequential allocation invariant violated: got %d, want %d", got, id)
		}
	}

	for id := start; id <= maxUsed; id++ {
		if _, ok := usedSet[id]; !ok {
			if err := a.Free(id); err != nil {
				return nil, err
			}
		}
	}

	logging.Component("allocator").WithField("range", [2]uint32{start, end}).
		WithField("reconstructed", len(used)).Debug("replayed sequential id allocator")

	return a, nil
}
