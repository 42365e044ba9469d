// Package codec implements the stable, length-prefixed binary encoding used
// by every persisted snapshot schema version (V_A, V_B, V_C). The wire
// layout is positional and self-describing only to the extent each record
// declares: integers are fixed-width little-endian, booleans are a single
// 0/1 byte, byte strings are length-prefixed, optionals carry a presence
// tag, sequences carry a count, and tagged sums carry a discriminant ahead
// of their payload. Record fields are concatenated in schema-declared
// order; nothing here reorders or renames a field on its own.
package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer accumulates an encoded record into an in-memory buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated encoded buffer.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteUint8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) WriteUint16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) WriteUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteInt64 encodes a signed 64-bit integer with the same bit pattern an
// unsigned write would produce (two's complement little-endian); it exists
// so callers don't have to cast at every call site.
func (w *Writer) WriteInt64(v int64) { w.WriteUint64(uint64(v)) }

// WriteUintptr encodes usize-typed fields (e.g. guest memory region sizes)
// as a fixed 64-bit quantity, matching the host platform's pointer width
// assumption baked into the original on-disk format.
func (w *Writer) WriteUintptr(v uint64) { w.WriteUint64(v) }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

// WriteBytes writes a length-prefixed byte string: len:u64 || bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteUint64(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteString writes a length-prefixed UTF-8 string using the same framing
// as WriteBytes.
func (w *Writer) WriteString(s string) { w.WriteBytes([]byte(s)) }

// WriteLen writes a raw sequence/count prefix (len:u64) ahead of elements
// the caller encodes itself; used when the element encoder needs to stay
// un-generic (e.g. tagged sums written inline).
func (w *Writer) WriteLen(n int) { w.WriteUint64(uint64(n)) }

// Reader decodes a record previously produced by Writer, positionally.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps b for positional decoding. b is not copied; callers must
// not mutate it while decoding is in progress.
func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Remaining reports how many undecoded bytes are left.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("codec: %w: need %d bytes, have %d", io.ErrUnexpectedEOF, n, r.Remaining())
	}

	return nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}

	v := r.buf[r.pos]
	r.pos++

	return v, nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}

	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2

	return v, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}

	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4

	return v, nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}

	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8

	return v, nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()

	return int64(v), err
}

func (r *Reader) ReadUintptr() (uint64, error) { return r.ReadUint64() }

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint8()
	if err != nil {
		return false, err
	}

	if v > 1 {
		return false, fmt.Errorf("codec: invalid bool byte 0x%x", v)
	}

	return v == 1, nil
}

func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}

	if err := r.need(int(n)); err != nil {
		return nil, err
	}

	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)

	return b, nil
}

func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// ReadLen reads a raw sequence/count prefix written by WriteLen.
func (r *Reader) ReadLen() (int, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}

	return int(n), nil
}

// WriteOptional writes the tag:u8(0|1) || payload? framing for an optional
// value. When v is nil only the absent tag is written.
func WriteOptional[T any](w *Writer, v *T, enc func(*Writer, T)) {
	if v == nil {
		w.WriteUint8(0)

		return
	}

	w.WriteUint8(1)
	enc(w, *v)
}

// ReadOptional reads back a value written by WriteOptional.
func ReadOptional[T any](r *Reader, dec func(*Reader) (T, error)) (*T, error) {
	tag, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}

	switch tag {
	case 0:
		return nil, nil
	case 1:
		v, err := dec(r)
		if err != nil {
			return nil, err
		}

		return &v, nil
	default:
		return nil, fmt.Errorf("codec: invalid optional tag 0x%x", tag)
	}
}

// WriteSlice writes a homogeneous sequence: len:u64 || elements.
func WriteSlice[T any](w *Writer, s []T, enc func(*Writer, T)) {
	w.WriteLen(len(s))

	for _, e := range s {
		enc(w, e)
	}
}

// ReadSlice reads back a sequence written by WriteSlice.
func ReadSlice[T any](r *Reader, dec func(*Reader) (T, error)) ([]T, error) {
	n, err := r.ReadLen()
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, n)

	for i := 0; i < n; i++ {
		v, err := dec(r)
		if err != nil {
			return nil, fmt.Errorf("codec: element %d: %w", i, err)
		}

		out = append(out, v)
	}

	return out, nil
}
