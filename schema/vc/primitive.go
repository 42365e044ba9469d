// Package vc holds the V_C ("current") snapshot schema: the record shapes
// the running monitor keeps in memory today. Per the canonical-source rule
// (schema catalog, component C2), types that are byte-identical across all
// three snapshot versions are owned here and re-exported by schema/vb and
// schema/va as type aliases, so there is exactly one definition to keep in
// sync with the wire format.
package vc

import "github.com/fcstate/migrator/codec"

// KvmCapability records one hypervisor-capability modifier applied at VM
// creation. Identical across V_A, V_B and V_C.
type KvmCapability struct {
	Cap   uint32
	Flags uint32
}

func (k KvmCapability) Encode(w *codec.Writer) {
	w.WriteUint32(k.Cap)
	w.WriteUint32(k.Flags)
}

func DecodeKvmCapability(r *codec.Reader) (KvmCapability, error) {
	cap_, err := r.ReadUint32()
	if err != nil {
		return KvmCapability{}, err
	}

	flags, err := r.ReadUint32()
	if err != nil {
		return KvmCapability{}, err
	}

	return KvmCapability{Cap: cap_, Flags: flags}, nil
}

// VMInfo carries monitor-level metadata unrelated to hypervisor or device
// state; identical across all three versions.
type VMInfo struct {
	MemSizeMib      uint64
	SMTEnabled      bool
	TrackDirtyPages bool
}

func (v VMInfo) Encode(w *codec.Writer) {
	w.WriteUint64(v.MemSizeMib)
	w.WriteBool(v.SMTEnabled)
	w.WriteBool(v.TrackDirtyPages)
}

func DecodeVMInfo(r *codec.Reader) (VMInfo, error) {
	mem, err := r.ReadUint64()
	if err != nil {
		return VMInfo{}, err
	}

	smt, err := r.ReadBool()
	if err != nil {
		return VMInfo{}, err
	}

	dirty, err := r.ReadBool()
	if err != nil {
		return VMInfo{}, err
	}

	return VMInfo{MemSizeMib: mem, SMTEnabled: smt, TrackDirtyPages: dirty}, nil
}

// CacheType enumerates the block device page-cache discipline.
type CacheType uint32

const (
	CacheTypeUnsafe    CacheType = 0
	CacheTypeWriteback CacheType = 1
)

func (c CacheType) Encode(w *codec.Writer) { w.WriteUint32(uint32(c)) }

func DecodeCacheType(r *codec.Reader) (CacheType, error) {
	v, err := r.ReadUint32()

	return CacheType(v), err
}

// FileEngineTypeState enumerates the block backend's I/O engine.
type FileEngineTypeState uint32

const (
	FileEngineSync  FileEngineTypeState = 0
	FileEngineAsync FileEngineTypeState = 1
)

func (f FileEngineTypeState) Encode(w *codec.Writer) { w.WriteUint32(uint32(f)) }

func DecodeFileEngineTypeState(r *codec.Reader) (FileEngineTypeState, error) {
	v, err := r.ReadUint32()

	return FileEngineTypeState(v), err
}

// RateLimiterState is an opaque capture of a token-bucket rate limiter's
// runtime counters; the monitor never needs to interpret these bytes
// during migration, only preserve them.
type RateLimiterState struct {
	Blob []byte
}

func (r_ RateLimiterState) Encode(w *codec.Writer) { w.WriteBytes(r_.Blob) }

func DecodeRateLimiterState(r *codec.Reader) (RateLimiterState, error) {
	b, err := r.ReadBytes()

	return RateLimiterState{Blob: b}, err
}

// QueueState is a single virtqueue's negotiated geometry.
type QueueState struct {
	Size          uint16
	Ready         bool
	DescTableAddr uint64
	AvailRingAddr uint64
	UsedRingAddr  uint64
}

func (q QueueState) Encode(w *codec.Writer) {
	w.WriteUint16(q.Size)
	w.WriteBool(q.Ready)
	w.WriteUint64(q.DescTableAddr)
	w.WriteUint64(q.AvailRingAddr)
	w.WriteUint64(q.UsedRingAddr)
}

func DecodeQueueState(r *codec.Reader) (QueueState, error) {
	size, err := r.ReadUint16()
	if err != nil {
		return QueueState{}, err
	}

	ready, err := r.ReadBool()
	if err != nil {
		return QueueState{}, err
	}

	desc, err := r.ReadUint64()
	if err != nil {
		return QueueState{}, err
	}

	avail, err := r.ReadUint64()
	if err != nil {
		return QueueState{}, err
	}

	used, err := r.ReadUint64()
	if err != nil {
		return QueueState{}, err
	}

	return QueueState{
		Size: size, Ready: ready,
		DescTableAddr: desc, AvailRingAddr: avail, UsedRingAddr: used,
	}, nil
}

// NetConfigSpaceState is the virtio-net device's negotiated config space.
type NetConfigSpaceState struct {
	GuestMac [6]byte
}

func (n NetConfigSpaceState) Encode(w *codec.Writer) {
	for _, b := range n.GuestMac {
		w.WriteUint8(b)
	}
}

func DecodeNetConfigSpaceState(r *codec.Reader) (NetConfigSpaceState, error) {
	var n NetConfigSpaceState

	for i := range n.GuestMac {
		b, err := r.ReadUint8()
		if err != nil {
			return NetConfigSpaceState{}, err
		}

		n.GuestMac[i] = b
	}

	return n, nil
}

// RxBufferState is an opaque capture of the rx virtqueue's in-flight
// descriptor-chain bookkeeping.
type RxBufferState struct {
	Blob []byte
}

func (r_ RxBufferState) Encode(w *codec.Writer) { w.WriteBytes(r_.Blob) }

func DecodeRxBufferState(r *codec.Reader) (RxBufferState, error) {
	b, err := r.ReadBytes()

	return RxBufferState{Blob: b}, err
}

// MmdsNetworkStackState is an opaque capture of a net device's MMDS proxy
// bookkeeping, present only when the interface has MMDS enabled.
type MmdsNetworkStackState struct {
	Blob []byte
}

func (m MmdsNetworkStackState) Encode(w *codec.Writer) { w.WriteBytes(m.Blob) }

func DecodeMmdsNetworkStackState(r *codec.Reader) (MmdsNetworkStackState, error) {
	b, err := r.ReadBytes()

	return MmdsNetworkStackState{Blob: b}, err
}

// VsockBackendState identifies the vsock device's Unix-domain-socket
// backend.
type VsockBackendState struct {
	UdsPath string
}

func (v VsockBackendState) Encode(w *codec.Writer) { w.WriteString(v.UdsPath) }

func DecodeVsockBackendState(r *codec.Reader) (VsockBackendState, error) {
	s, err := r.ReadString()

	return VsockBackendState{UdsPath: s}, err
}

// BalloonConfigSpaceState is the balloon device's negotiated config space.
type BalloonConfigSpaceState struct {
	NumPages    uint32
	ActualPages uint32
}

func (b BalloonConfigSpaceState) Encode(w *codec.Writer) {
	w.WriteUint32(b.NumPages)
	w.WriteUint32(b.ActualPages)
}

func DecodeBalloonConfigSpaceState(r *codec.Reader) (BalloonConfigSpaceState, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return BalloonConfigSpaceState{}, err
	}

	a, err := r.ReadUint32()
	if err != nil {
		return BalloonConfigSpaceState{}, err
	}

	return BalloonConfigSpaceState{NumPages: n, ActualPages: a}, nil
}

// DeviceType enumerates aarch64 legacy (non-MMIO-transport) device kinds.
type DeviceType struct {
	Kind     uint32 // 0=Virtio, 1=Serial, 2=Rtc
	VirtioID uint32 // valid only when Kind == 0
}

const (
	DeviceTypeVirtio uint32 = 0
	DeviceTypeSerial uint32 = 1
	DeviceTypeRtc    uint32 = 2
)

func (d DeviceType) Encode(w *codec.Writer) {
	w.WriteUint32(d.Kind)
	w.WriteUint32(d.VirtioID)
}

func DecodeDeviceType(r *codec.Reader) (DeviceType, error) {
	kind, err := r.ReadUint32()
	if err != nil {
		return DeviceType{}, err
	}

	id, err := r.ReadUint32()
	if err != nil {
		return DeviceType{}, err
	}

	return DeviceType{Kind: kind, VirtioID: id}, nil
}
