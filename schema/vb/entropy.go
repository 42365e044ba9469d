package vb

import "github.com/fcstate/migrator/codec"

// EntropyState is a virtio-rng device's saved state.
type EntropyState struct {
	VirtioState      VirtioDeviceState
	RateLimiterState RateLimiterState
}

func (e EntropyState) Encode(w *codec.Writer) {
	e.VirtioState.Encode(w)
	e.RateLimiterState.Encode(w)
}

func DecodeEntropyState(r *codec.Reader) (EntropyState, error) {
	virtio, err := DecodeVirtioDeviceState(r)
	if err != nil {
		return EntropyState{}, err
	}

	rl, err := DecodeRateLimiterState(r)
	if err != nil {
		return EntropyState{}, err
	}

	return EntropyState{VirtioState: virtio, RateLimiterState: rl}, nil
}
