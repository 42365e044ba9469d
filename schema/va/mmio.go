package va

import "github.com/fcstate/migrator/codec"

// MMIODeviceInfo is the host-side MMIO bar assigned to a device. At this
// version a device could in principle report more than one legacy
// interrupt line, so IRQs is a slice; v1.11 replaced it with a single
// optional IRQ (see vb.MMIODeviceInfo) and package convert takes the
// first entry when migrating forward.
type MMIODeviceInfo struct {
	Addr uint64
	Len  uint64
	IRQs []uint32
}

func (m MMIODeviceInfo) Encode(w *codec.Writer) {
	w.WriteUint64(m.Addr)
	w.WriteUint64(m.Len)
	codec.WriteSlice(w, m.IRQs, func(w *codec.Writer, v uint32) { w.WriteUint32(v) })
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

	irqs, err := codec.ReadSlice(r, func(r *codec.Reader) (uint32, error) { return r.ReadUint32() })
	if err != nil {
		return MMIODeviceInfo{}, err
	}

	return MMIODeviceInfo{Addr: addr, Len: ln, IRQs: irqs}, nil
}

// ConnectedDeviceState mirrors vb's generic wrapper, specialized to this
// version's MMIODeviceInfo shape (MmioTransportState is unchanged, so it
// is aliased straight from vb).
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
