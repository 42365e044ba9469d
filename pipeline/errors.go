package pipeline

import "github.com/pkg/errors"

// ErrMissingVmGenID is returned when a V_B envelope has no VMGenID to
// promote: V_C requires one. Run returns this in place of
// convert.ErrMissingVMGenID, so callers only need to know this package's
// taxonomy.
var ErrMissingVmGenID = errors.New("pipeline: snapshot has no VMGenID")

// ErrSnapshottingNotSupported mirrors vc.ErrSnapshottingNotSupported
// (returned by VhostUserBlockState.Restore). Run does not return it: a
// vhost-user block record is carried through conversion unchanged.
var ErrSnapshottingNotSupported = errors.New("pipeline: snapshotting not supported for this device")

// DuplicateAddressError reports that a device scan tried to reserve an
// address already claimed by an earlier device, an unrecoverable
// inconsistency in the snapshot being migrated. Run does not return this
// type: a colliding MMIO address aborts the run with a wrapped error from
// package allocator instead.
type DuplicateAddressError struct {
	Addr uint64
}

func (e *DuplicateAddressError) Error() string {
	return errors.Errorf("pipeline: duplicate address 0x%x", e.Addr).Error()
}

// GsiOutOfRangeError reports a GSI that falls outside every configured
// legacy/MSI range for the target layout. Run does not return this type:
// allocator.Reconstruct leaves such a GSI out of both GSI allocators.
type GsiOutOfRangeError struct {
	Gsi uint32
}

func (e *GsiOutOfRangeError) Error() string {
	return errors.Errorf("pipeline: gsi %d out of range", e.Gsi).Error()
}

// AllocatorError wraps an error surfaced by package allocator. Run does
// not produce it: allocator failures reach Run's caller wrapped with
// github.com/pkg/errors only.
type AllocatorError struct {
	Err error
}

func (e *AllocatorError) Error() string { return "pipeline: allocator: " + e.Err.Error() }

func (e *AllocatorError) Unwrap() error { return e.Err }
