package vb

import "github.com/fcstate/migrator/codec"

// VirtioDeviceState is the common virtio-device frontend state. Unlike
// vc, InterruptStatus still lives here; it moves to MmioTransportState at
// the vb -> vc boundary (see package convert).
type VirtioDeviceState struct {
	DeviceType      uint32
	AvailFeatures   uint64
	AckedFeatures   uint64
	Queues          []QueueState
	InterruptStatus uint32
	Activated       bool
}

func (v VirtioDeviceState) Encode(w *codec.Writer) {
	w.WriteUint32(v.DeviceType)
	w.WriteUint64(v.AvailFeatures)
	w.WriteUint64(v.AckedFeatures)
	codec.WriteSlice(w, v.Queues, func(w *codec.Writer, q QueueState) { q.Encode(w) })
	w.WriteUint32(v.InterruptStatus)
	w.WriteBool(v.Activated)
}

func DecodeVirtioDeviceState(r *codec.Reader) (VirtioDeviceState, error) {
	dt, err := r.ReadUint32()
	if err != nil {
		return VirtioDeviceState{}, err
	}

	avail, err := r.ReadUint64()
	if err != nil {
		return VirtioDeviceState{}, err
	}

	acked, err := r.ReadUint64()
	if err != nil {
		return VirtioDeviceState{}, err
	}

	queues, err := codec.ReadSlice(r, DecodeQueueState)
	if err != nil {
		return VirtioDeviceState{}, err
	}

	interrupt, err := r.ReadUint32()
	if err != nil {
		return VirtioDeviceState{}, err
	}

	activated, err := r.ReadBool()
	if err != nil {
		return VirtioDeviceState{}, err
	}

	return VirtioDeviceState{
		DeviceType: dt, AvailFeatures: avail, AckedFeatures: acked,
		Queues: queues, InterruptStatus: interrupt, Activated: activated,
	}, nil
}
