package vb

import "github.com/fcstate/migrator/codec"

// MMIODeviceInfo is the host-side MMIO bar assigned to a device. Irq is a
// single optional legacy interrupt line, still in IRQ-number space (not
// yet renumbered to a zero-based GSI; see allocator.IRQToGSI).
type MMIODeviceInfo struct {
	Addr uint64
	Len  uint64
	Irq  *uint32
}

func (m MMIODeviceInfo) Encode(w *codec.Writer) {
	w.WriteUint64(m.Addr)
	w.WriteUint64(m.Len)
	codec.WriteOptional(w, m.Irq, func(w *codec.Writer, v uint32) { w.WriteUint32(v) })
}

func DecodeMMIODeviceInfo(r *codec.Reader) (MMIODeviceInfo, error) {
	addr, err := r.ReadUint64()
	if err != nil {
		return MMIODeviceInfo{}, err
	}

	ln, err := r.ReadUint64()
	if err != nil {
		return MMIODeviceInfo{}, err
	}

	irq, err := codec.ReadOptional(r, func(r *codec.Reader) (uint32, error) { return r.ReadUint32() })
	if err != nil {
		return MMIODeviceInfo{}, err
	}

	return MMIODeviceInfo{Addr: addr, Len: ln, Irq: irq}, nil
}

// MmioTransportState is the virtio-over-MMIO transport front, without
// InterruptStatus (still owned by VirtioDeviceState at this version).
type MmioTransportState struct {
	FeaturesSelect      uint32
	AckedFeaturesSelect uint32
	QueueSelect         uint32
	DeviceStatus        uint32
	ConfigGeneration    uint32
}

func (m MmioTransportState) Encode(w *codec.Writer) {
	w.WriteUint32(m.FeaturesSelect)
	w.WriteUint32(m.AckedFeaturesSelect)
	w.WriteUint32(m.QueueSelect)
	w.WriteUint32(m.DeviceStatus)
	w.WriteUint32(m.ConfigGeneration)
}

func DecodeMmioTransportState(r *codec.Reader) (MmioTransportState, error) {
	var m MmioTransportState

	var err error

	if m.FeaturesSelect, err = r.ReadUint32(); err != nil {
		return MmioTransportState{}, err
	}

	if m.AckedFeaturesSelect, err = r.ReadUint32(); err != nil {
		return MmioTransportState{}, err
	}

	if m.QueueSelect, err = r.ReadUint32(); err != nil {
		return MmioTransportState{}, err
	}

	if m.DeviceStatus, err = r.ReadUint32(); err != nil {
		return MmioTransportState{}, err
	}

	if m.ConfigGeneration, err = r.ReadUint32(); err != nil {
		return MmioTransportState{}, err
	}

	return m, nil
}

// ConnectedDeviceState mirrors vc's generic wrapper, specialized to this
// version's MmioTransportState/MMIODeviceInfo shapes.
type ConnectedDeviceState[T any] struct {
	DeviceID       string
	DeviceState    T
	TransportState MmioTransportState
	DeviceInfo     MMIODeviceInfo
}

func (c ConnectedDeviceState[T]) Encode(w *codec.Writer, encDevice func(*codec.Writer, T)) {
	w.WriteString(c.DeviceID)
	encDevice(w, c.DeviceState)
	c.TransportState.Encode(w)
	c.DeviceInfo.Encode(w)
}

func DecodeConnectedDeviceState[T any](
	r *codec.Reader,
	decDevice func(*codec.Reader) (T, error),
) (ConnectedDeviceState[T], error) {
	id, err := r.ReadString()
	if err != nil {
		return ConnectedDeviceState[T]{}, err
	}

	dev, err := decDevice(r)
	if err != nil {
		return ConnectedDeviceState[T]{}, err
	}

	transport, err := DecodeMmioTransportState(r)
	if err != nil {
		return ConnectedDeviceState[T]{}, err
	}

	info, err := DecodeMMIODeviceInfo(r)
	if err != nil {
		return ConnectedDeviceState[T]{}, err
	}

	return ConnectedDeviceState[T]{
		DeviceID: id, DeviceState: dev, TransportState: transport, DeviceInfo: info,
	}, nil
}

// ConnectedLegacyState is an aarch64 legacy device's MMIO assignment.
type ConnectedLegacyState struct {
	Type       DeviceType
	DeviceInfo MMIODeviceInfo
}

func (c ConnectedLegacyState) Encode(w *codec.Writer) {
	c.Type.Encode(w)
	c.DeviceInfo.Encode(w)
}

func DecodeConnectedLegacyState(r *codec.Reader) (ConnectedLegacyState, error) {
	t, err := DecodeDeviceType(r)
	if err != nil {
		return ConnectedLegacyState{}, err
	}

	info, err := DecodeMMIODeviceInfo(r)
	if err != nil {
		return ConnectedLegacyState{}, err
	}

	return ConnectedLegacyState{Type: t, DeviceInfo: info}, nil
}
