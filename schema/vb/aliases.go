// Package vb implements Firecracker snapshot-format version 6.0.0 (product
// release v1.12). Every type that is structurally unchanged between this
// version and the canonical vc catalog is a straight alias into vc rather
// than a duplicate definition, per the canonical-source rule: vb imports
// from vc, never the reverse, so the two packages cannot drift into two
// silently-incompatible "same" types.
package vb

import "github.com/fcstate/migrator/schema/vc"

type (
	KvmCapability           = vc.KvmCapability
	VMInfo                  = vc.VMInfo
	CacheType               = vc.CacheType
	FileEngineTypeState     = vc.FileEngineTypeState
	RateLimiterState        = vc.RateLimiterState
	QueueState              = vc.QueueState
	NetConfigSpaceState     = vc.NetConfigSpaceState
	RxBufferState           = vc.RxBufferState
	MmdsNetworkStackState   = vc.MmdsNetworkStackState
	VsockBackendState       = vc.VsockBackendState
	BalloonConfigSpaceState = vc.BalloonConfigSpaceState
	DeviceType              = vc.DeviceType
	VMGenIDState            = vc.VMGenIDState
	KvmState                = vc.KvmState
	X86VcpuState            = vc.X86VcpuState
	Aarch64RegisterVec      = vc.Aarch64RegisterVec
	GicRegState32           = vc.GicRegState32
	GicRegState64           = vc.GicRegState64
	VgicSysRegsState        = vc.VgicSysRegsState
	GicVcpuState            = vc.GicVcpuState
)

var (
	DecodeKvmCapability           = vc.DecodeKvmCapability
	DecodeVMInfo                  = vc.DecodeVMInfo
	DecodeCacheType               = vc.DecodeCacheType
	DecodeFileEngineTypeState     = vc.DecodeFileEngineTypeState
	DecodeRateLimiterState        = vc.DecodeRateLimiterState
	DecodeQueueState              = vc.DecodeQueueState
	DecodeNetConfigSpaceState     = vc.DecodeNetConfigSpaceState
	DecodeRxBufferState           = vc.DecodeRxBufferState
	DecodeMmdsNetworkStackState   = vc.DecodeMmdsNetworkStackState
	DecodeVsockBackendState       = vc.DecodeVsockBackendState
	DecodeBalloonConfigSpaceState = vc.DecodeBalloonConfigSpaceState
	DecodeDeviceType              = vc.DecodeDeviceType
	DecodeVMGenIDState            = vc.DecodeVMGenIDState
	DecodeKvmState                = vc.DecodeKvmState
	DecodeX86VcpuState            = vc.DecodeX86VcpuState
	DecodeAarch64RegisterVec      = vc.DecodeAarch64RegisterVec
	DecodeGicRegState32           = vc.DecodeGicRegState32
	DecodeGicRegState64           = vc.DecodeGicRegState64
	DecodeVgicSysRegsState        = vc.DecodeVgicSysRegsState
	DecodeGicVcpuState            = vc.DecodeGicVcpuState
)
