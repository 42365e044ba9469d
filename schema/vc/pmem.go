package vc

import "github.com/fcstate/migrator/codec"

// PmemState is a virtio-pmem device's saved state. Empty slots for this
// device class exist at V_C; no V_A or V_B snapshot ever populates one,
// since persistent-memory support postdates both.
type PmemState struct {
	ID          string
	DiskPath    string
	VirtioState VirtioDeviceState
}

func (p PmemState) Encode(w *codec.Writer) {
	w.WriteString(p.ID)
	w.WriteString(p.DiskPath)
	p.VirtioState.Encode(w)
}

func DecodePmemState(r *codec.Reader) (PmemState, error) {
	id, err := r.ReadString()
	if err != nil {
		return PmemState{}, err
	}

	path, err := r.ReadString()
	if err != nil {
		return PmemState{}, err
	}

	virtio, err := DecodeVirtioDeviceState(r)
	if err != nil {
		return PmemState{}, err
	}

	return PmemState{ID: id, DiskPath: path, VirtioState: virtio}, nil
}

// VirtioMemState is a virtio-mem memory-hotplug device's saved state.
// Like PmemState, this slot exists at V_C and is always empty when
// reconstructed from an older snapshot.
type VirtioMemState struct {
	ID          string
	VirtioState VirtioDeviceState
	RegionAddr  uint64
	RegionSize  uint64
	BlockSize   uint64
	PluggedSize uint64
}

func (v VirtioMemState) Encode(w *codec.Writer) {
	w.WriteString(v.ID)
	v.VirtioState.Encode(w)
	w.WriteUint64(v.RegionAddr)
	w.WriteUint64(v.RegionSize)
	w.WriteUint64(v.BlockSize)
	w.WriteUint64(v.PluggedSize)
}

func DecodeVirtioMemState(r *codec.Reader) (VirtioMemState, error) {
	id, err := r.ReadString()
	if err != nil {
		return VirtioMemState{}, err
	}

	virtio, err := DecodeVirtioDeviceState(r)
	if err != nil {
		return VirtioMemState{}, err
	}

	addr, err := r.ReadUint64()
	if err != nil {
		return VirtioMemState{}, err
	}

	size, err := r.ReadUint64()
	if err != nil {
		return VirtioMemState{}, err
	}

	blockSize, err := r.ReadUint64()
	if err != nil {
		return VirtioMemState{}, err
	}

	plugged, err := r.ReadUint64()
	if err != nil {
		return VirtioMemState{}, err
	}

	return VirtioMemState{
		ID: id, VirtioState: virtio, RegionAddr: addr, RegionSize: size,
		BlockSize: blockSize, PluggedSize: plugged,
	}, nil
}

// PciDevicesState is a placeholder slot for PCI-attached devices. The
// snapshot formats this package reconstructs predate PCI device support
// in the migrated microVM; the slice is always empty. Kept as a typed
// slot (rather than omitted) so DevicesState's wire shape matches the
// current device-manager envelope and a future device kind has somewhere
// to attach without another schema revision.
type PciDevicesState struct {
	Devices []byte
}

func (p PciDevicesState) Encode(w *codec.Writer) { w.WriteBytes(p.Devices) }

func DecodePciDevicesState(r *codec.Reader) (PciDevicesState, error) {
	b, err := r.ReadBytes()

	return PciDevicesState{Devices: b}, err
}
