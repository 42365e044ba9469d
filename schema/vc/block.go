package vc

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/fcstate/migrator/codec"
)

// VirtioBlockState is the virtio-backed block device's full state.
type VirtioBlockState struct {
	ID               string
	PartUUID         *string
	CacheType        CacheType
	RootDevice       bool
	DiskPath         string
	VirtioState      VirtioDeviceState
	RateLimiterState RateLimiterState
	FileEngineType   FileEngineTypeState
}

func (v VirtioBlockState) Encode(w *codec.Writer) {
	w.WriteString(v.ID)
	codec.WriteOptional(w, v.PartUUID, func(w *codec.Writer, s string) { w.WriteString(s) })
	v.CacheType.Encode(w)
	w.WriteBool(v.RootDevice)
	w.WriteString(v.DiskPath)
	v.VirtioState.Encode(w)
	v.RateLimiterState.Encode(w)
	v.FileEngineType.Encode(w)
}

func DecodeVirtioBlockState(r *codec.Reader) (VirtioBlockState, error) {
	id, err := r.ReadString()
	if err != nil {
		return VirtioBlockState{}, err
	}

	partuuid, err := codec.ReadOptional(r, func(r *codec.Reader) (string, error) { return r.ReadString() })
	if err != nil {
		return VirtioBlockState{}, err
	}

	cache, err := DecodeCacheType(r)
	if err != nil {
		return VirtioBlockState{}, err
	}

	root, err := r.ReadBool()
	if err != nil {
		return VirtioBlockState{}, err
	}

	path, err := r.ReadString()
	if err != nil {
		return VirtioBlockState{}, err
	}

	virtio, err := DecodeVirtioDeviceState(r)
	if err != nil {
		return VirtioBlockState{}, err
	}

	rl, err := DecodeRateLimiterState(r)
	if err != nil {
		return VirtioBlockState{}, err
	}

	engine, err := DecodeFileEngineTypeState(r)
	if err != nil {
		return VirtioBlockState{}, err
	}

	return VirtioBlockState{
		ID: id, PartUUID: partuuid, CacheType: cache, RootDevice: root, DiskPath: path,
		VirtioState: virtio, RateLimiterState: rl, FileEngineType: engine,
	}, nil
}

// ErrSnapshottingNotSupported is returned by VhostUserBlockState.Restore:
// upstream Firecracker never supports live snapshot/restore for
// vhost-user-backed block devices (see original_source's
// vhost_user/persist.rs, whose Persist impl returns this same rejection).
var ErrSnapshottingNotSupported = errors.New("vc: snapshotting not supported for vhost-user block devices")

// VhostUserBlockState is the vhost-user-backed block device's state. This
// type only exists so a restored snapshot that predates vhost-user
// support can still decode cleanly; Save/Restore below document why this
// migrator never constructs one from a live device.
type VhostUserBlockState struct {
	ID                      string
	PartUUID                *string
	CacheType               CacheType
	RootDevice              bool
	SocketPath              string
	VuAckedProtocolFeatures uint64
	ConfigSpace             []byte
	VirtioState             VirtioDeviceState
}

func (v VhostUserBlockState) Encode(w *codec.Writer) {
	w.WriteString(v.ID)
	codec.WriteOptional(w, v.PartUUID, func(w *codec.Writer, s string) { w.WriteString(s) })
	v.CacheType.Encode(w)
	w.WriteBool(v.RootDevice)
	w.WriteString(v.SocketPath)
	w.WriteUint64(v.VuAckedProtocolFeatures)
	w.WriteBytes(v.ConfigSpace)
	v.VirtioState.Encode(w)
}

func DecodeVhostUserBlockState(r *codec.Reader) (VhostUserBlockState, error) {
	id, err := r.ReadString()
	if err != nil {
		return VhostUserBlockState{}, err
	}

	partuuid, err := codec.ReadOptional(r, func(r *codec.Reader) (string, error) { return r.ReadString() })
	if err != nil {
		return VhostUserBlockState{}, err
	}

	cache, err := DecodeCacheType(r)
	if err != nil {
		return VhostUserBlockState{}, err
	}

	root, err := r.ReadBool()
	if err != nil {
		return VhostUserBlockState{}, err
	}

	socket, err := r.ReadString()
	if err != nil {
		return VhostUserBlockState{}, err
	}

	features, err := r.ReadUint64()
	if err != nil {
		return VhostUserBlockState{}, err
	}

	cfg, err := r.ReadBytes()
	if err != nil {
		return VhostUserBlockState{}, err
	}

	virtio, err := DecodeVirtioDeviceState(r)
	if err != nil {
		return VhostUserBlockState{}, err
	}

	return VhostUserBlockState{
		ID: id, PartUUID: partuuid, CacheType: cache, RootDevice: root, SocketPath: socket,
		VuAckedProtocolFeatures: features, ConfigSpace: cfg, VirtioState: virtio,
	}, nil
}

// Save mirrors the original device model's unimplemented!() Persist::save:
// a live vhost-user block device has no snapshot representation to capture.
func (VhostUserBlockState) Save() VhostUserBlockState {
	panic("vc: VhostUserBlockState.Save is unimplemented")
}

// Restore always fails with ErrSnapshottingNotSupported: a vhost-user
// block device cannot be reconstructed from saved state.
func (VhostUserBlockState) Restore() (VhostUserBlockState, error) {
	return VhostUserBlockState{}, ErrSnapshottingNotSupported
}

// BlockState is the two-arm block-device sum type.
type BlockState struct {
	Virtio    *VirtioBlockState
	VhostUser *VhostUserBlockState
}

const (
	blockArmVirtio    uint32 = 0
	blockArmVhostUser uint32 = 1
)

func (b BlockState) Encode(w *codec.Writer) {
	switch {
	case b.Virtio != nil:
		w.WriteUint32(blockArmVirtio)
		b.Virtio.Encode(w)
	case b.VhostUser != nil:
		w.WriteUint32(blockArmVhostUser)
		b.VhostUser.Encode(w)
	default:
		panic("vc: BlockState has neither arm set")
	}
}

func DecodeBlockState(r *codec.Reader) (BlockState, error) {
	tag, err := r.ReadUint32()
	if err != nil {
		return BlockState{}, err
	}

	switch tag {
	case blockArmVirtio:
		v, err := DecodeVirtioBlockState(r)
		if err != nil {
			return BlockState{}, err
		}

		return BlockState{Virtio: &v}, nil
	case blockArmVhostUser:
		v, err := DecodeVhostUserBlockState(r)
		if err != nil {
			return BlockState{}, err
		}

		return BlockState{VhostUser: &v}, nil
	default:
		return BlockState{}, fmt.Errorf("vc: unknown BlockState discriminant %d", tag)
	}
}
