package vc

import "github.com/fcstate/migrator/codec"

// NetState is a virtio-net device's saved state: the frontend plus the
// config-space MAC, an optional MMDS network-stack snapshot, and the
// receive-buffer contents needed to replay in-flight frames. Unchanged
// since V_A.
type NetState struct {
	ID                 string
	TapIfName          string
	RxRateLimiterState RateLimiterState
	TxRateLimiterState RateLimiterState
	MmdsNS             *MmdsNetworkStackState
	ConfigSpace        NetConfigSpaceState
	VirtioState        VirtioDeviceState
	RxBuffersState     RxBufferState
}

func (n NetState) Encode(w *codec.Writer) {
	w.WriteString(n.ID)
	w.WriteString(n.TapIfName)
	n.RxRateLimiterState.Encode(w)
	n.TxRateLimiterState.Encode(w)
	codec.WriteOptional(w, n.MmdsNS, func(w *codec.Writer, m MmdsNetworkStackState) { m.Encode(w) })
	n.ConfigSpace.Encode(w)
	n.VirtioState.Encode(w)
	n.RxBuffersState.Encode(w)
}

func DecodeNetState(r *codec.Reader) (NetState, error) {
	id, err := r.ReadString()
	if err != nil {
		return NetState{}, err
	}

	tap, err := r.ReadString()
	if err != nil {
		return NetState{}, err
	}

	rxrl, err := DecodeRateLimiterState(r)
	if err != nil {
		return NetState{}, err
	}

	txrl, err := DecodeRateLimiterState(r)
	if err != nil {
		return NetState{}, err
	}

	mmds, err := codec.ReadOptional(r, DecodeMmdsNetworkStackState)
	if err != nil {
		return NetState{}, err
	}

	cfg, err := DecodeNetConfigSpaceState(r)
	if err != nil {
		return NetState{}, err
	}

	virtio, err := DecodeVirtioDeviceState(r)
	if err != nil {
		return NetState{}, err
	}

	rxbuf, err := DecodeRxBufferState(r)
	if err != nil {
		return NetState{}, err
	}

	return NetState{
		ID: id, TapIfName: tap, RxRateLimiterState: rxrl, TxRateLimiterState: txrl,
		MmdsNS: mmds, ConfigSpace: cfg, VirtioState: virtio, RxBuffersState: rxbuf,
	}, nil
}
