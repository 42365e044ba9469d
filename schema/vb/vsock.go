package vb

import "github.com/fcstate/migrator/codec"

// VsockFrontendState is the virtio-vsock frontend's saved state: the CID
// and the shared virtio transport.
type VsockFrontendState struct {
	CID         uint64
	VirtioState VirtioDeviceState
}

func (v VsockFrontendState) Encode(w *codec.Writer) {
	w.WriteUint64(v.CID)
	v.VirtioState.Encode(w)
}

func DecodeVsockFrontendState(r *codec.Reader) (VsockFrontendState, error) {
	cid, err := r.ReadUint64()
	if err != nil {
		return VsockFrontendState{}, err
	}

	virtio, err := DecodeVirtioDeviceState(r)
	if err != nil {
		return VsockFrontendState{}, err
	}

	return VsockFrontendState{CID: cid, VirtioState: virtio}, nil
}

// VsockState is a virtio-vsock device's full saved state.
type VsockState struct {
	Backend  VsockBackendState
	Frontend VsockFrontendState
}

func (v VsockState) Encode(w *codec.Writer) {
	v.Backend.Encode(w)
	v.Frontend.Encode(w)
}

func DecodeVsockState(r *codec.Reader) (VsockState, error) {
	backend, err := DecodeVsockBackendState(r)
	if err != nil {
		return VsockState{}, err
	}

	frontend, err := DecodeVsockFrontendState(r)
	if err != nil {
		return VsockState{}, err
	}

	return VsockState{Backend: backend, Frontend: frontend}, nil
}
