package pipeline

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/fcstate/migrator/allocator"
	"github.com/fcstate/migrator/convert"
)

// ErrHeaderTooShort is returned when a snapshot file is truncated before a
// complete header could be read.
var ErrHeaderTooShort = errors.New("pipeline: snapshot header truncated")

// headerLenPrefix is the fixed width of the version-string length prefix,
// the same len:u64 framing codec.Writer.WriteString uses elsewhere.
const headerLenPrefix = 8

// SplitHeader parses the leading `header || microvm_state_bytes` framing
// described by the wire format: an 8-byte little-endian length prefix
// followed by the UTF-8 version string, then the remaining bytes are the
// encoded envelope for that version.
func SplitHeader(raw []byte) (Version, []byte, error) {
	if len(raw) < headerLenPrefix {
		return "", nil, ErrHeaderTooShort
	}

	n := binary.LittleEndian.Uint64(raw[:headerLenPrefix])
	start := headerLenPrefix
	end := start + int(n)

	if uint64(len(raw)) < uint64(end) {
		return "", nil, ErrHeaderTooShort
	}

	v, err := ParseVersion(string(raw[start:end]))
	if err != nil {
		return "", nil, err
	}

	return v, raw[end:], nil
}

// JoinHeader prepends the version header to an already-encoded envelope,
// the inverse of SplitHeader.
func JoinHeader(v Version, envelope []byte) []byte {
	s := string(v)
	out := make([]byte, headerLenPrefix+len(s)+len(envelope))
	binary.LittleEndian.PutUint64(out[:headerLenPrefix], uint64(len(s)))
	copy(out[headerLenPrefix:], s)
	copy(out[headerLenPrefix+len(s):], envelope)

	return out
}

// RunFramed is the end-to-end entrypoint: split the header off a raw
// snapshot file, upgrade the envelope, and re-frame the result under the
// current version header. arch and layout are the convert.Arch/
// allocator.Layout the snapshot was taken under; the wire format itself
// carries no architecture tag.
func RunFramed(raw []byte, arch convert.Arch, layout allocator.Layout) ([]byte, error) {
	v, body, err := SplitHeader(raw)
	if err != nil {
		return nil, err
	}

	upgraded, err := Run(Input{Version: v, Bytes: body, Arch: arch, Layout: layout})
	if err != nil {
		return nil, err
	}

	return JoinHeader(VersionC, upgraded), nil
}
