package vc

import "github.com/fcstate/migrator/codec"

// KvmState wraps the cross-architecture KVM capability modifiers that
// were applied when the microVM's KVM context was created. Split out of
// VmState at the V_A -> V_B boundary (see package convert); unchanged
// since.
type KvmState struct {
	KvmCapModifiers []KvmCapability
}

func (k KvmState) Encode(w *codec.Writer) {
	codec.WriteSlice(w, k.KvmCapModifiers, func(w *codec.Writer, c KvmCapability) { c.Encode(w) })
}

func DecodeKvmState(r *codec.Reader) (KvmState, error) {
	mods, err := codec.ReadSlice(r, DecodeKvmCapability)

	return KvmState{KvmCapModifiers: mods}, err
}
