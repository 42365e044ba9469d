package convert

import (
	"github.com/pkg/errors"

	"github.com/fcstate/migrator/allocator"
	"github.com/fcstate/migrator/logging"
	"github.com/fcstate/migrator/schema/vb"
	"github.com/fcstate/migrator/schema/vc"
)

// ErrMissingVMGenID is returned when a V_B snapshot has no VMGenID: V_C
// requires one, and nothing can be safely synthesized in its place (the
// GUID identifies the VM instance to the guest OS).
var ErrMissingVMGenID = errors.New("convert: snapshot has no VMGenID; cannot migrate to V_C")

// spiStart is the aarch64 SPI rebase offset IRQToGSI subtracts; x86_64
// legacy IRQ numbering already starts where GSI numbering starts, so its
// offset is 0.
const spiStart = 32

func virtioDeviceStateVBToVC(old vb.VirtioDeviceState) (vc.VirtioDeviceState, uint32) {
	return vc.VirtioDeviceState{
		DeviceType: old.DeviceType, AvailFeatures: old.AvailFeatures, AckedFeatures: old.AckedFeatures,
		Queues: old.Queues, Activated: old.Activated,
	}, old.InterruptStatus
}

func mmioTransportVBToVC(old vb.MmioTransportState, interruptStatus uint32) vc.MmioTransportState {
	return vc.MmioTransportState{
		FeaturesSelect: old.FeaturesSelect, AckedFeaturesSelect: old.AckedFeaturesSelect,
		QueueSelect: old.QueueSelect, DeviceStatus: old.DeviceStatus,
		ConfigGeneration: old.ConfigGeneration, InterruptStatus: interruptStatus,
	}
}

func mmioDeviceInfoVBToVC(old vb.MMIODeviceInfo, irqBase uint32) vc.MMIODeviceInfo {
	var gsi *uint32
	if old.Irq != nil {
		v := allocator.IRQToGSI(*old.Irq, irqBase)
		gsi = &v
	}

	return vc.MMIODeviceInfo{Addr: old.Addr, Len: old.Len, Gsi: gsi}
}

func virtioBlockVBToVC(old vb.VirtioBlockState) (vc.VirtioBlockState, uint32) {
	virtio, irq := virtioDeviceStateVBToVC(old.VirtioState)

	return vc.VirtioBlockState{
		ID: old.ID, PartUUID: old.PartUUID, CacheType: vc.CacheType(old.CacheType),
		RootDevice: old.RootDevice, DiskPath: old.DiskPath, VirtioState: virtio,
		RateLimiterState: vc.RateLimiterState(old.RateLimiterState),
		FileEngineType:   vc.FileEngineTypeState(old.FileEngineType),
	}, irq
}

func vhostUserBlockVBToVC(old vb.VhostUserBlockState) (vc.VhostUserBlockState, uint32) {
	virtio, irq := virtioDeviceStateVBToVC(old.VirtioState)

	return vc.VhostUserBlockState{
		ID: old.ID, PartUUID: old.PartUUID, CacheType: vc.CacheType(old.CacheType),
		RootDevice: old.RootDevice, SocketPath: old.SocketPath,
		VuAckedProtocolFeatures: old.VuAckedProtocolFeatures, ConfigSpace: old.ConfigSpace,
		VirtioState: virtio,
	}, irq
}

func blockStateVBToVC(old vb.BlockState) (vc.BlockState, uint32, error) {
	switch {
	case old.Virtio != nil:
		v, irq := virtioBlockVBToVC(*old.Virtio)

		return vc.BlockState{Virtio: &v}, irq, nil
	case old.VhostUser != nil:
		v, irq := vhostUserBlockVBToVC(*old.VhostUser)

		return vc.BlockState{VhostUser: &v}, irq, nil
	default:
		return vc.BlockState{}, 0, errors.New("convert: V_B BlockState has neither arm set")
	}
}

func netStateVBToVC(old vb.NetState) (vc.NetState, uint32) {
	virtio, irq := virtioDeviceStateVBToVC(old.VirtioState)

	var mmdsNS *vc.MmdsNetworkStackState
	if old.MmdsNS != nil {
		v := vc.MmdsNetworkStackState(*old.MmdsNS)
		mmdsNS = &v
	}

	return vc.NetState{
		ID: old.ID, TapIfName: old.TapIfName,
		RxRateLimiterState: vc.RateLimiterState(old.RxRateLimiterState),
		TxRateLimiterState: vc.RateLimiterState(old.TxRateLimiterState),
		MmdsNS:             mmdsNS, ConfigSpace: vc.NetConfigSpaceState(old.ConfigSpace),
		VirtioState: virtio, RxBuffersState: vc.RxBufferState(old.RxBuffersState),
	}, irq
}

func vsockStateVBToVC(old vb.VsockState) (vc.VsockState, uint32) {
	virtio, irq := virtioDeviceStateVBToVC(old.Frontend.VirtioState)

	return vc.VsockState{
		Backend: vc.VsockBackendState(old.Backend),
		Frontend: vc.VsockFrontendState{
			CID: old.Frontend.CID, VirtioState: virtio,
		},
	}, irq
}

func balloonStatsVBToVC(old vb.BalloonStatsState) vc.BalloonStatsState {
	return vc.BalloonStatsState{
		SwapIn: old.SwapIn, SwapOut: old.SwapOut, MajorFault: old.MajorFaults, MinorFault: old.MinorFaults,
		FreeMemory: old.FreeMemory, TotalMemory: old.TotalMemory, AvailableMemory: old.AvailableMemory,
		DiskCaches: old.DiskCaches, HugetlbAlloc: old.HugetlbAllocations, HugetlbFail: old.HugetlbFailures,
		// The sixteen new reclaim/compaction counters have no V_B analogue.
	}
}

// defaultHintingState is what a synthesized HintingState looks like on a
// snapshot migrated forward from before free-page hinting existed:
// nothing in flight, acknowledge-on-finish left at its documented
// default.
func defaultHintingState() vc.HintingState {
	return vc.HintingState{HostCmd: 0, LastCmdID: 0, GuestCmd: nil, AcknowledgeOnFinish: true}
}

func balloonStateVBToVC(old vb.BalloonState) (vc.BalloonState, uint32) {
	virtio, irq := virtioDeviceStateVBToVC(old.VirtioState)
	hinting := defaultHintingState()

	return vc.BalloonState{
		StatsPollingIntervalS: old.StatsPollingIntervalS, StatsDescIndex: old.StatsDescIndex,
		Stats: balloonStatsVBToVC(old.LatestStats), ConfigSpace: vc.BalloonConfigSpaceState(old.ConfigSpace),
		VirtioState: virtio, Hinting: &hinting,
	}, irq
}

func entropyStateVBToVC(old vb.EntropyState) (vc.EntropyState, uint32) {
	virtio, irq := virtioDeviceStateVBToVC(old.VirtioState)

	return vc.EntropyState{VirtioState: virtio, RateLimiterState: vc.RateLimiterState(old.RateLimiterState)}, irq
}

func connectedLegacyVBToVC(old vb.ConnectedLegacyState, irqBase uint32) vc.ConnectedLegacyState {
	return vc.ConnectedLegacyState{
		Type: vc.DeviceType(old.Type), DeviceInfo: mmioDeviceInfoVBToVC(old.DeviceInfo, irqBase),
	}
}

func memoryRegionVBToVC(old vb.GuestMemoryRegionState) vc.GuestMemoryRegionState {
	// v1.12 snapshots predate memory hotplug: every region is DRAM with a
	// single fully-plugged slot.
	return vc.GuestMemoryRegionState{
		BaseAddress: old.BaseAddress, Size: old.Size,
		RegionType: vc.GuestRegionDram, Plugged: []bool{true},
	}
}

func memoryStateVBToVC(old vb.GuestMemoryState) vc.GuestMemoryState {
	regions := make([]vc.GuestMemoryRegionState, len(old.Regions))
	for i, r := range old.Regions {
		regions[i] = memoryRegionVBToVC(r)
	}

	return vc.GuestMemoryState{Regions: regions}
}

func gicStateVBToVC(old vb.GicState) vc.GicState {
	dist := make([]vc.GicRegState32, len(old.Dist))
	for i, d := range old.Dist {
		dist[i] = vc.GicRegState32(d)
	}

	vcpus := make([]vc.GicVcpuState, len(old.GicVcpuStates))
	for i, v := range old.GicVcpuStates {
		vcpus[i] = gicVcpuStateVBToVC(v)
	}

	return vc.GicState{Dist: dist, GicVcpuStates: vcpus, ItsState: nil}
}

func gicVcpuStateVBToVC(old vb.GicVcpuState) vc.GicVcpuState {
	return vc.GicVcpuState(old)
}

func armVcpuStateVBToVC(old vb.ArmVcpuState) vc.ArmVcpuState {
	return vc.ArmVcpuState{
		MPState: old.MPState, Regs: vc.Aarch64RegisterVec(old.Regs), Mpidr: old.Mpidr,
		Kvi: old.Kvi, PvtimeIPA: nil,
	}
}

func vcpuStateVBToVC(old vb.VcpuState) vc.VcpuState {
	switch {
	case old.X86 != nil:
		x := vc.X86VcpuState(*old.X86)

		return vc.VcpuState{X86: &x}
	case old.Arm != nil:
		a := armVcpuStateVBToVC(*old.Arm)

		return vc.VcpuState{Arm: &a}
	default:
		return vc.VcpuState{}
	}
}

// scanDeviceStates walks a V_B device inventory and returns every
// device's GSI/MMIO footprint, already rebased to 0-based GSI numbers,
// for allocator.Reconstruct.
func scanDeviceStates(d vb.DeviceStates, irqBase uint32) []allocator.DeviceInfo {
	var infos []allocator.DeviceInfo

	record := func(info vb.MMIODeviceInfo) {
		var gsi *uint32
		if info.Irq != nil {
			v := allocator.IRQToGSI(*info.Irq, irqBase)
			gsi = &v
		}

		infos = append(infos, allocator.DeviceInfo{GSI: gsi, Addr: info.Addr, Len: info.Len})
	}

	for _, dev := range d.LegacyDevices {
		record(dev.DeviceInfo)
	}

	for _, dev := range d.BlockDevices {
		record(dev.DeviceInfo)
	}

	for _, dev := range d.NetDevices {
		record(dev.DeviceInfo)
	}

	if d.VsockDevice != nil {
		record(d.VsockDevice.DeviceInfo)
	}

	if d.BalloonDevice != nil {
		record(d.BalloonDevice.DeviceInfo)
	}

	if d.EntropyDevice != nil {
		record(d.EntropyDevice.DeviceInfo)
	}

	return infos
}

// deviceStatesVBToVC converts every device, binding the interrupt_status
// each device conversion returns into that device's rebuilt
// MmioTransportState at the same call site (VirtioDeviceState drops the
// field at V_C; see virtioDeviceStateVBToVC).
func deviceStatesVBToVC(old vb.DeviceStates, irqBase uint32) (vc.MmioState, error) {
	legacy := make([]vc.ConnectedLegacyState, len(old.LegacyDevices))
	for i, d := range old.LegacyDevices {
		legacy[i] = connectedLegacyVBToVC(d, irqBase)
	}

	block := make([]vc.ConnectedDeviceState[vc.BlockState], len(old.BlockDevices))

	for i, d := range old.BlockDevices {
		state, irq, err := blockStateVBToVC(d.DeviceState)
		if err != nil {
			return vc.MmioState{}, errors.Wrapf(err, "block device %q", d.DeviceID)
		}

		block[i] = vc.ConnectedDeviceState[vc.BlockState]{
			DeviceID: d.DeviceID, DeviceState: state,
			TransportState: mmioTransportVBToVC(d.TransportState, irq),
			DeviceInfo:     mmioDeviceInfoVBToVC(d.DeviceInfo, irqBase),
		}
	}

	net := make([]vc.ConnectedDeviceState[vc.NetState], len(old.NetDevices))
	for i, d := range old.NetDevices {
		state, irq := netStateVBToVC(d.DeviceState)
		net[i] = vc.ConnectedDeviceState[vc.NetState]{
			DeviceID: d.DeviceID, DeviceState: state,
			TransportState: mmioTransportVBToVC(d.TransportState, irq),
			DeviceInfo:     mmioDeviceInfoVBToVC(d.DeviceInfo, irqBase),
		}
	}

	var vsock *vc.ConnectedDeviceState[vc.VsockState]

	if old.VsockDevice != nil {
		state, irq := vsockStateVBToVC(old.VsockDevice.DeviceState)
		v := vc.ConnectedDeviceState[vc.VsockState]{
			DeviceID: old.VsockDevice.DeviceID, DeviceState: state,
			TransportState: mmioTransportVBToVC(old.VsockDevice.TransportState, irq),
			DeviceInfo:     mmioDeviceInfoVBToVC(old.VsockDevice.DeviceInfo, irqBase),
		}
		vsock = &v
	}

	var balloon *vc.ConnectedDeviceState[vc.BalloonState]

	if old.BalloonDevice != nil {
		state, irq := balloonStateVBToVC(old.BalloonDevice.DeviceState)
		v := vc.ConnectedDeviceState[vc.BalloonState]{
			DeviceID: old.BalloonDevice.DeviceID, DeviceState: state,
			TransportState: mmioTransportVBToVC(old.BalloonDevice.TransportState, irq),
			DeviceInfo:     mmioDeviceInfoVBToVC(old.BalloonDevice.DeviceInfo, irqBase),
		}
		balloon = &v
	}

	var entropy *vc.ConnectedDeviceState[vc.EntropyState]

	if old.EntropyDevice != nil {
		state, irq := entropyStateVBToVC(old.EntropyDevice.DeviceState)
		v := vc.ConnectedDeviceState[vc.EntropyState]{
			DeviceID: old.EntropyDevice.DeviceID, DeviceState: state,
			TransportState: mmioTransportVBToVC(old.EntropyDevice.TransportState, irq),
			DeviceInfo:     mmioDeviceInfoVBToVC(old.EntropyDevice.DeviceInfo, irqBase),
		}
		entropy = &v
	}

	var mmds *vc.MmdsState
	if old.MmdsVersion != nil {
		mmds = &vc.MmdsState{Version: vc.MmdsVersion(*old.MmdsVersion), ImdsCompat: false}
	}

	return vc.MmioState{
		LegacyDevices: legacy, BlockDevices: block, NetDevices: net, VsockDevice: vsock,
		BalloonDevice: balloon, Mmds: mmds, EntropyDevice: entropy,
		// pmem and virtio-mem devices postdate V_B; always empty here.
		PmemDevices: nil, VirtioMemDevs: nil,
	}, nil
}

// VBToVC upgrades a decoded V_B (6.0.0) envelope to V_C (8.0.0). Arch
// selects the GSI rebase offset and which VmState/VcpuState arm the
// envelope carries, replacing the Rust side's compile-time
// target_arch gate (see vc.VmState/vc.VcpuState).
func VBToVC(old vb.MicrovmState, arch Arch, layout allocator.Layout) (vc.MicrovmState, error) {
	irqBase := uint32(0)
	if arch == ArchAARCH64 {
		irqBase = spiStart
	}

	if old.AcpiDevState.VMGenID == nil {
		return vc.MicrovmState{}, ErrMissingVMGenID
	}

	// This schema's VMGenIDState is memory-mapped only (see vc.VMGenIDState);
	// it carries no IRQ/GSI of its own, so the scan only needs to reserve
	// its system-memory address, not classify a legacy GSI for it.
	scan := allocator.ScanInput{
		Devices:     scanDeviceStates(old.DeviceStates, irqBase),
		VMGenIDAddr: &old.AcpiDevState.VMGenID.Addr,
	}

	ra, err := allocator.Reconstruct(layout, scan)
	if err != nil {
		return vc.MicrovmState{}, errors.Wrap(err, "reconstructing resource allocator")
	}

	mmioState, err := deviceStatesVBToVC(old.DeviceStates, irqBase)
	if err != nil {
		return vc.MicrovmState{}, err
	}

	acpi, err := acpiStateVBToVC(*old.AcpiDevState.VMGenID, arch, ra)
	if err != nil {
		return vc.MicrovmState{}, errors.Wrap(err, "converting acpi device manager state")
	}

	vmState, err := vmStateVBToVC(old.VmState, arch, *ra, layout)
	if err != nil {
		return vc.MicrovmState{}, err
	}

	vcpus := make([]vc.VcpuState, len(old.VcpuStates))
	for i, v := range old.VcpuStates {
		vcpus[i] = vcpuStateVBToVC(v)
	}

	logging.Component("convert").WithField("step", "vb->vc").
		WithField("arch", arch).Debug("upgrading snapshot envelope")

	return vc.MicrovmState{
		VMInfo:     old.VMInfo,
		KvmState:   vc.KvmState(old.KvmState),
		VmState:    vmState,
		VcpuStates: vcpus,
		DeviceStates: vc.DevicesState{
			MmioState: mmioState, AcpiState: acpi, PciState: vc.PciDevicesState{},
		},
	}, nil
}

// acpiStateVBToVC converts the V_B ACPI device manager state (VMGenID
// already confirmed present by the caller) and synthesizes the x86_64
// VmClock device. It is placed below the already-reserved VMGenID region
// (AllocateBelow, ceiling one byte short of VMGenID's start) rather than
// a plain LastMatch over the whole system-memory span, mirroring the
// original reconstruction order (VMGenID's address is marked used before
// VmClock is placed) without touching the allocator's real, full-size
// span or the capacity it reports in the output envelope.
func acpiStateVBToVC(vmgenid vb.VMGenIDState, arch Arch, ra *allocator.ResourceAllocator) (vc.ACPIDeviceManagerState, error) {
	if arch != ArchX86_64 {
		return vc.ACPIDeviceManagerState{VMGenID: vc.VMGenIDState(vmgenid)}, nil
	}

	var ceiling uint64
	if vmgenid.Addr > 0 {
		ceiling = vmgenid.Addr - 1
	}

	rng, err := ra.SystemMemory.AllocateBelow(4096, 8, ceiling)
	if err != nil {
		return vc.ACPIDeviceManagerState{}, errors.Wrap(err, "allocating vmclock page")
	}

	return vc.ACPIDeviceManagerState{
		VMGenID: vc.VMGenIDState(vmgenid),
		VmClock: vc.VmClockState{
			GuestAddress: rng.Start,
			Inner: vc.VmClockAbi{
				Magic: 0x4b4c4356, Size: 4096, Version: 1, ClockStatus: 0, // 0 = unknown
				CounterID: ^uint64(0), // all-ones sentinel: invalid counter id
				Reserved:  make([]byte, 4096-4-4-2-1-8),
			},
		},
	}, nil
}

func vmStateVBToVC(old vb.VmState, arch Arch, ra allocator.ResourceAllocator, layout allocator.Layout) (vc.VmState, error) {
	resourceAllocatorState := resourceAllocatorStateOf(ra, layout)

	switch {
	case old.X86 != nil && arch == ArchX86_64:
		return vc.VmState{X86: &vc.X86VmState{
			Memory: memoryStateVBToVC(old.X86.Memory), ResourceAllocator: resourceAllocatorState,
			PitState: old.X86.PitState, Clock: old.X86.Clock,
			PicMaster: old.X86.PicMaster, PicSlave: old.X86.PicSlave, IOAPIC: old.X86.IOAPIC,
		}}, nil
	case old.Arm != nil && arch == ArchAARCH64:
		return vc.VmState{Arm: &vc.ArmVmState{
			Memory: memoryStateVBToVC(old.Arm.Memory), Gic: gicStateVBToVC(old.Arm.Gic),
			ResourceAllocator: resourceAllocatorState,
		}}, nil
	default:
		return vc.VmState{}, errors.New("convert: V_B VmState architecture does not match requested arch")
	}
}

func resourceAllocatorStateOf(ra allocator.ResourceAllocator, layout allocator.Layout) vc.ResourceAllocatorState {
	toIDState := func(a *allocator.IDAllocator, start, end uint32) vc.IDAllocatorState {
		var next *uint32
		if hi, ok := a.Highest(); ok {
			v := hi + 1

			next = &v
		}

		return vc.IDAllocatorState{Start: start, End: end, NextID: next}
	}

	toAddrState := func(a *allocator.AddressAllocator, base, size uint64) vc.AddressAllocatorState {
		ranges := a.Allocated()
		out := make([]vc.AddressRangeState, len(ranges))

		for i, r := range ranges {
			out[i] = vc.AddressRangeState{Start: r.Start, End: r.End}
		}

		return vc.AddressAllocatorState{Base: base, Size: size, Allocated: out}
	}

	return vc.ResourceAllocatorState{
		GsiLegacy:    toIDState(ra.GsiLegacy, layout.GsiLegacyStart, layout.GsiLegacyEnd),
		GsiMsi:       toIDState(ra.GsiMsi, layout.GsiMsiStart, layout.GsiMsiEnd),
		Mmio32:       toAddrState(ra.Mmio32, layout.Mmio32Start, layout.Mmio32Size),
		Mmio64:       toAddrState(ra.Mmio64, layout.Mmio64Start, layout.Mmio64Size),
		PastMmio64:   toAddrState(ra.PastMmio64, layout.PastMmio64Start, layout.PastMmio64Size),
		SystemMemory: toAddrState(ra.SystemMemory, layout.SystemMemStart, layout.SystemMemSize),
	}
}
