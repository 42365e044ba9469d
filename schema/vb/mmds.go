package vb

import (
	"fmt"

	"github.com/fcstate/migrator/codec"
)

// MmdsVersionState is the per-device-manager MMDS protocol version flag.
// Restructured into vc.MmdsState (a richer struct with interface scoping)
// at V_C.
type MmdsVersionState uint32

const (
	MmdsVersionStateV1 MmdsVersionState = 0
	MmdsVersionStateV2 MmdsVersionState = 1
)

func (m MmdsVersionState) Encode(w *codec.Writer) { w.WriteUint32(uint32(m)) }

func DecodeMmdsVersionState(r *codec.Reader) (MmdsVersionState, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}

	switch MmdsVersionState(v) {
	case MmdsVersionStateV1, MmdsVersionStateV2:
		return MmdsVersionState(v), nil
	default:
		return 0, fmt.Errorf("vb: unknown MmdsVersionState %d", v)
	}
}
