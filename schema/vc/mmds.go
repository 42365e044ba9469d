package vc

import (
	"fmt"

	"github.com/fcstate/migrator/codec"
)

// MmdsVersion selects the instance-metadata-service wire protocol exposed
// over the device's network stack.
type MmdsVersion uint32

const (
	MmdsVersionV1 MmdsVersion = 0
	MmdsVersionV2 MmdsVersion = 1
)

func (m MmdsVersion) Encode(w *codec.Writer) { w.WriteUint32(uint32(m)) }

func DecodeMmdsVersion(r *codec.Reader) (MmdsVersion, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}

	switch MmdsVersion(v) {
	case MmdsVersionV1, MmdsVersionV2:
		return MmdsVersion(v), nil
	default:
		return 0, fmt.Errorf("vc: unknown MmdsVersion %d", v)
	}
}

// MmdsState is the global (not per-device) MMDS configuration: which
// protocol version is active, which network interfaces it is reachable
// through, and whether it also answers the IMDS-compatible path. New at
// V_C (replaces V_A/V_B's bare optional MmdsVersionState field);
// ImdsCompat is always false when synthesized from an older snapshot,
// since neither version's MMDS implementation had an IMDS-compatible
// mode to preserve.
type MmdsState struct {
	Version           MmdsVersion
	NetworkInterfaces []string
	ImdsCompat        bool
}

func (m MmdsState) Encode(w *codec.Writer) {
	m.Version.Encode(w)
	codec.WriteSlice(w, m.NetworkInterfaces, func(w *codec.Writer, s string) { w.WriteString(s) })
	w.WriteBool(m.ImdsCompat)
}

func DecodeMmdsState(r *codec.Reader) (MmdsState, error) {
	version, err := DecodeMmdsVersion(r)
	if err != nil {
		return MmdsState{}, err
	}

	ifaces, err := codec.ReadSlice(r, func(r *codec.Reader) (string, error) { return r.ReadString() })
	if err != nil {
		return MmdsState{}, err
	}

	compat, err := r.ReadBool()
	if err != nil {
		return MmdsState{}, err
	}

	return MmdsState{Version: version, NetworkInterfaces: ifaces, ImdsCompat: compat}, nil
}
