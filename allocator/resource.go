package allocator

import (
	"github.com/pkg/errors"

	"github.com/fcstate/migrator/logging"
)

// Layout is the host address-space partitioning a ResourceAllocator is
// built over: the legacy and MSI GSI ranges, the 32-bit and 64-bit MMIO
// windows, the window past all 64-bit MMIO, and the system (guest)
// memory range used for VMGenID/VmClock placement. DefaultX86Layout and
// DefaultARMLayout give one value set per architecture.
type Layout struct {
	GsiLegacyStart, GsiLegacyEnd    uint32
	GsiMsiStart, GsiMsiEnd          uint32
	Mmio32Start, Mmio32Size         uint64
	Mmio64Start, Mmio64Size         uint64
	PastMmio64Start, PastMmio64Size uint64
	SystemMemStart, SystemMemSize   uint64
}

// DefaultX86Layout is the x86_64 address-space layout: legacy GSIs 5-23
// (starting at the historical IRQ_BASE=5), MSI GSIs above that, the
// sub-4GiB MMIO hole, and the 64-bit MMIO region above guest RAM. The
// values are approximations in the right shape and order, not
// Firecracker's exact published constants.
var DefaultX86Layout = Layout{
	GsiLegacyStart: 5, GsiLegacyEnd: 23,
	GsiMsiStart: 24, GsiMsiEnd: 1023,
	Mmio32Start: 0xd0000000, Mmio32Size: 0x10000000,
	Mmio64Start: 1 << 35, Mmio64Size: 1 << 35,
	PastMmio64Start: 1 << 36, PastMmio64Size: 1 << 35,
	SystemMemStart: 0, SystemMemSize: 1 << 46,
}

// DefaultARMLayout is the aarch64 address-space layout: legacy GSIs are
// SPIs starting at 0 once rebased by IRQToGSI (the guest-visible SPI
// numbers start at 32), MSI GSIs follow. As with DefaultX86Layout, the
// values are approximations rather than Firecracker's exact constants.
var DefaultARMLayout = Layout{
	GsiLegacyStart: 0, GsiLegacyEnd: 31,
	GsiMsiStart: 32, GsiMsiEnd: 1023,
	Mmio32Start: 0x40000000, Mmio32Size: 0x10000000,
	Mmio64Start: 1 << 35, Mmio64Size: 1 << 35,
	PastMmio64Start: 1 << 36, PastMmio64Size: 1 << 35,
	SystemMemStart: 0, SystemMemSize: 1 << 46,
}

// VMGenIDRegionSize is the byte size of the VMGenID ACPI region, fixed by
// the VMGenID device spec (a 16-byte GUID plus alignment padding).
const VMGenIDRegionSize uint64 = 0x1000

// ResourceAllocator is the reconstructed v1.14-and-later allocator set:
// two sequential-ID allocators for GSIs and four address allocators for
// MMIO/system-memory windows.
type ResourceAllocator struct {
	GsiLegacy    *IDAllocator
	GsiMsi       *IDAllocator
	Mmio32       *AddressAllocator
	Mmio64       *AddressAllocator
	PastMmio64   *AddressAllocator
	SystemMemory *AddressAllocator
}

// New builds an empty ResourceAllocator over the given layout, the
// ResourceAllocator::new() equivalent.
func New(layout Layout) (*ResourceAllocator, error) {
	gsiLegacy, err := NewIDAllocator(layout.GsiLegacyStart, layout.GsiLegacyEnd)
	if err != nil {
		return nil, errors.Wrap(err, "gsi legacy allocator")
	}

	gsiMsi, err := NewIDAllocator(layout.GsiMsiStart, layout.GsiMsiEnd)
	if err != nil {
		return nil, errors.Wrap(err, "gsi msi allocator")
	}

	mmio32, err := NewAddressAllocator(layout.Mmio32Start, layout.Mmio32Size)
	if err != nil {
		return nil, errors.Wrap(err, "mmio32 allocator")
	}

	mmio64, err := NewAddressAllocator(layout.Mmio64Start, layout.Mmio64Size)
	if err != nil {
		return nil, errors.Wrap(err, "mmio64 allocator")
	}

	pastMmio64, err := NewAddressAllocator(layout.PastMmio64Start, layout.PastMmio64Size)
	if err != nil {
		return nil, errors.Wrap(err, "past-mmio64 allocator")
	}

	systemMem, err := NewAddressAllocator(layout.SystemMemStart, layout.SystemMemSize)
	if err != nil {
		return nil, errors.Wrap(err, "system memory allocator")
	}

	return &ResourceAllocator{
		GsiLegacy: gsiLegacy, GsiMsi: gsiMsi, Mmio32: mmio32,
		Mmio64: mmio64, PastMmio64: pastMmio64, SystemMemory: systemMem,
	}, nil
}

// DeviceInfo is the minimal per-device footprint the reconstruction
// algorithm needs: its GSI (already rebased by IRQToGSI, nil if the
// device had none) and its MMIO window.
type DeviceInfo struct {
	GSI       *uint32
	Addr, Len uint64
}

// ScanInput is every piece of device-inventory information
// ResourceAllocator reconstruction scans, gathered by package convert
// from a pre-V_C snapshot before it is discarded. VMGenIDGSI is a
// general-purpose optional GSI reservation: this schema's VMGenID has no
// GSI of its own, so callers converting from it leave this nil.
type ScanInput struct {
	Devices     []DeviceInfo
	VMGenIDAddr *uint64 // nil if the snapshot had no VMGenID
	VMGenIDGSI  *uint32
}

// Reconstruct rebuilds a ResourceAllocator from a device scan of a
// snapshot that predates resource-allocator persistence (V_A/V_B). It
// rebuilds the legacy and MSI GSI allocators via ReconstructIDAllocator
// (IDAllocator always allocates sequentially, so replaying up to the
// highest observed GSI and freeing the gaps reproduces the exact
// allocator state that would exist had the allocations happened for
// real), marks every in-range MMIO window as used with ExactMatch, and
// reserves the VMGenID region in system memory so a caller placing a
// later device below it (see package convert's VmClock placement) can
// rely on the reservation alone, over the allocator's real, unmodified
// span.
func Reconstruct(layout Layout, scan ScanInput) (*ResourceAllocator, error) {
	ra, err := New(layout)
	if err != nil {
		return nil, err
	}

	var legacyGSIs, msiGSIs []uint32

	for _, d := range scan.Devices {
		if d.GSI != nil {
			classifyGSI(*d.GSI, layout, &legacyGSIs, &msiGSIs)
		}

		if d.Addr >= layout.Mmio32Start {
			if _, err := ra.Mmio32.Allocate(d.Len, 1, ExactMatch, d.Addr); err != nil {
				return nil, errors.Wrapf(err, "duplicate/invalid mmio address 0x%x", d.Addr)
			}
		}
	}

	if scan.VMGenIDGSI != nil {
		classifyGSI(*scan.VMGenIDGSI, layout, &legacyGSIs, &msiGSIs)
	}

	ra.GsiLegacy, err = ReconstructIDAllocator(layout.GsiLegacyStart, layout.GsiLegacyEnd, legacyGSIs)
	if err != nil {
		return nil, errors.Wrap(err, "legacy gsi allocator")
	}

	ra.GsiMsi, err = ReconstructIDAllocator(layout.GsiMsiStart, layout.GsiMsiEnd, msiGSIs)
	if err != nil {
		return nil, errors.Wrap(err, "msi gsi allocator")
	}

	if scan.VMGenIDAddr != nil {
		if _, err := ra.SystemMemory.Allocate(VMGenIDRegionSize, 8, ExactMatch, *scan.VMGenIDAddr); err != nil {
			return nil, errors.Wrapf(err, "duplicate/invalid vmgenid address 0x%x", *scan.VMGenIDAddr)
		}
	}

	logging.Component("allocator").WithField("legacy_gsis", len(legacyGSIs)).
		WithField("msi_gsis", len(msiGSIs)).WithField("mmio32_devices", len(ra.Mmio32.Allocated())).
		Info("reconstructed resource allocator from device scan")

	return ra, nil
}

func classifyGSI(gsi uint32, layout Layout, legacy, msi *[]uint32) {
	switch {
	case gsi >= layout.GsiLegacyStart && gsi <= layout.GsiLegacyEnd:
		*legacy = append(*legacy, gsi)
	case gsi >= layout.GsiMsiStart && gsi <= layout.GsiMsiEnd:
		*msi = append(*msi, gsi)
	}
}

// IRQToGSI converts a legacy IRQ number to a 0-based GSI by subtracting
// the architecture's SPI/IRQ base, saturating at zero. x86_64 passes 0
// (its IRQ numbering already starts where the legacy GSI range starts);
// aarch64 passes 32 (the first SPI).
func IRQToGSI(irq, base uint32) uint32 {
	if irq < base {
		return 0
	}

	return irq - base
}
