// Package va implements Firecracker snapshot-format version 4.0.0 (product
// release v1.10), the oldest version this module accepts. Per the
// canonical-source rule, every type unchanged since vb (equivalently vc)
// is aliased rather than redefined: va imports from vb and vc, never the
// reverse.
package va

import (
	"github.com/fcstate/migrator/schema/vb"
	"github.com/fcstate/migrator/schema/vc"
)

type (
	KvmCapability          = vc.KvmCapability
	VMInfo                 = vc.VMInfo
	MmioTransportState     = vb.MmioTransportState
	BlockState             = vb.BlockState
	VirtioBlockState       = vb.VirtioBlockState
	VhostUserBlockState    = vb.VhostUserBlockState
	NetState               = vb.NetState
	VsockState             = vb.VsockState
	VsockFrontendState     = vb.VsockFrontendState
	BalloonState           = vb.BalloonState
	BalloonStatsState      = vb.BalloonStatsState
	EntropyState           = vb.EntropyState
	MmdsVersionState       = vb.MmdsVersionState
	DeviceType             = vc.DeviceType
	VMGenIDState           = vc.VMGenIDState
	ACPIDeviceManagerState = vb.ACPIDeviceManagerState
	GicState               = vb.GicState
	VcpuState              = vb.VcpuState
	X86VcpuState           = vc.X86VcpuState
	ArmVcpuState           = vb.ArmVcpuState
	Aarch64RegisterVec     = vc.Aarch64RegisterVec
)

var (
	DecodeKvmCapability          = vc.DecodeKvmCapability
	DecodeVMInfo                 = vc.DecodeVMInfo
	DecodeMmioTransportState     = vb.DecodeMmioTransportState
	DecodeBlockState             = vb.DecodeBlockState
	DecodeVirtioBlockState       = vb.DecodeVirtioBlockState
	DecodeVhostUserBlockState    = vb.DecodeVhostUserBlockState
	DecodeNetState               = vb.DecodeNetState
	DecodeVsockState             = vb.DecodeVsockState
	DecodeVsockFrontendState     = vb.DecodeVsockFrontendState
	DecodeBalloonState           = vb.DecodeBalloonState
	DecodeBalloonStatsState      = vb.DecodeBalloonStatsState
	DecodeEntropyState           = vb.DecodeEntropyState
	DecodeMmdsVersionState       = vb.DecodeMmdsVersionState
	DecodeDeviceType             = vc.DecodeDeviceType
	DecodeVMGenIDState           = vc.DecodeVMGenIDState
	DecodeACPIDeviceManagerState = vb.DecodeACPIDeviceManagerState
	DecodeGicState               = vb.DecodeGicState
	DecodeVcpuState              = vb.DecodeVcpuState
	DecodeX86VcpuState           = vc.DecodeX86VcpuState
	DecodeArmVcpuState           = vb.DecodeArmVcpuState
	DecodeAarch64RegisterVec     = vc.DecodeAarch64RegisterVec
)
