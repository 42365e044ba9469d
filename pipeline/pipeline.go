// Package pipeline drives the end-to-end snapshot upgrade: parse the wire
// header to find which version a snapshot was written in, then dispatch
// through however many of convert.VAToVB/convert.VBToVC steps are needed to
// reach V_C, re-encoding the result in the current wire format. Mirrors the
// dispatch loop in Firecracker's own snapshot-restore path, which walks the
// version chain one step at a time rather than special-casing every
// (from, to) pair.
package pipeline

import (
	"github.com/pkg/errors"

	"github.com/fcstate/migrator/allocator"
	"github.com/fcstate/migrator/codec"
	"github.com/fcstate/migrator/convert"
	"github.com/fcstate/migrator/logging"
	"github.com/fcstate/migrator/schema/va"
	"github.com/fcstate/migrator/schema/vb"
	"github.com/fcstate/migrator/schema/vc"
)

// Version identifies a snapshot's wire format, keyed off the version string
// Firecracker stamps in its snapshot header.
type Version string

const (
	VersionA Version = "4.0.0" // v1.10
	VersionB Version = "6.0.0" // v1.12
	VersionC Version = "8.0.0" // v1.14, current
)

// ErrUnknownVersion is returned when a header names a version string this
// migrator does not recognize.
var ErrUnknownVersion = errors.New("pipeline: unknown snapshot version")

// ParseVersion validates a version string read from a snapshot header.
func ParseVersion(s string) (Version, error) {
	switch Version(s) {
	case VersionA, VersionB, VersionC:
		return Version(s), nil
	default:
		return "", errors.Wrapf(ErrUnknownVersion, "%q", s)
	}
}

// Input is everything Run needs to locate and upgrade a snapshot: its
// declared version, the raw encoded envelope bytes, and the architecture
// the snapshot was taken on (see convert.Arch; the wire format carries no
// architecture tag of its own, so the caller supplies it).
type Input struct {
	Version Version
	Bytes   []byte
	Arch    convert.Arch
	Layout  allocator.Layout
}

// Run decodes Input.Bytes as Input.Version, upgrades it through however
// many steps are needed to reach V_C, and re-encodes the result. Any step
// failure aborts the whole run: no partial envelope is ever returned.
func Run(in Input) ([]byte, error) {
	log := logging.Component("pipeline").WithField("from_version", in.Version)

	state, err := decodeAndUpgrade(in)
	if err != nil {
		log.WithError(err).Warn("snapshot upgrade failed")

		return nil, err
	}

	w := codec.NewWriter()
	state.Encode(w)

	log.Info("snapshot upgraded to current version")

	return w.Bytes(), nil
}

func decodeAndUpgrade(in Input) (vc.MicrovmState, error) {
	switch in.Version {
	case VersionA:
		old, err := va.DecodeMicrovmState(codec.NewReader(in.Bytes))
		if err != nil {
			return vc.MicrovmState{}, errors.Wrap(err, "decoding V_A envelope")
		}

		mid, err := convert.VAToVB(old)
		if err != nil {
			return vc.MicrovmState{}, errors.Wrap(err, "V_A -> V_B")
		}

		return vbToCurrent(mid, in.Arch, in.Layout)

	case VersionB:
		old, err := vb.DecodeMicrovmState(codec.NewReader(in.Bytes))
		if err != nil {
			return vc.MicrovmState{}, errors.Wrap(err, "decoding V_B envelope")
		}

		return vbToCurrent(old, in.Arch, in.Layout)

	case VersionC:
		cur, err := vc.DecodeMicrovmState(codec.NewReader(in.Bytes))
		if err != nil {
			return vc.MicrovmState{}, errors.Wrap(err, "decoding V_C envelope")
		}

		return cur, nil

	default:
		return vc.MicrovmState{}, errors.Wrapf(ErrUnknownVersion, "%q", in.Version)
	}
}

func vbToCurrent(old vb.MicrovmState, arch convert.Arch, layout allocator.Layout) (vc.MicrovmState, error) {
	cur, err := convert.VBToVC(old, arch, layout)
	if err != nil {
		if errors.Is(err, convert.ErrMissingVMGenID) {
			return vc.MicrovmState{}, ErrMissingVmGenID
		}

		return vc.MicrovmState{}, errors.Wrap(err, "V_B -> V_C")
	}

	return cur, nil
}
