package vc

import "github.com/fcstate/migrator/codec"

// EntropyState is a virtio-rng device's saved state. The device has no
// guest-visible configuration beyond rate limiting, so this wraps only
// the shared virtio frontend and its rate limiter.
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
