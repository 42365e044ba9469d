package codec_test

import (
	"testing"

	"github.com/fcstate/migrator/codec"
)

func roundTrip(t *testing.T, write func(*codec.Writer), read func(*codec.Reader) error) {
	t.Helper()

	w := codec.NewWriter()
	write(w)

	r := codec.NewReader(w.Bytes())
	if err := read(r); err != nil {
		t.Fatalf("read: %v", err)
	}

	if r.Remaining() != 0 {
		t.Fatalf("leftover bytes: %d", r.Remaining())
	}
}

func TestUintRoundTrip(t *testing.T) {
	t.Parallel()

	roundTrip(t,
		func(w *codec.Writer) {
			w.WriteUint8(0xAB)
			w.WriteUint16(0x1234)
			w.WriteUint32(0xDEADBEEF)
			w.WriteUint64(0x0102030405060708)
		},
		func(r *codec.Reader) error {
			u8, err := r.ReadUint8()
			if err != nil || u8 != 0xAB {
				t.Fatalf("u8 = %x, err=%v", u8, err)
			}

			u16, err := r.ReadUint16()
			if err != nil || u16 != 0x1234 {
				t.Fatalf("u16 = %x, err=%v", u16, err)
			}

			u32, err := r.ReadUint32()
			if err != nil || u32 != 0xDEADBEEF {
				t.Fatalf("u32 = %x, err=%v", u32, err)
			}

			u64, err := r.ReadUint64()
			if err != nil || u64 != 0x0102030405060708 {
				t.Fatalf("u64 = %x, err=%v", u64, err)
			}

			return nil
		},
	)
}

func TestBoolRoundTrip(t *testing.T) {
	t.Parallel()

	for _, v := range []bool{true, false} {
		w := codec.NewWriter()
		w.WriteBool(v)

		r := codec.NewReader(w.Bytes())

		got, err := r.ReadBool()
		if err != nil {
			t.Fatalf("ReadBool: %v", err)
		}

		if got != v {
			t.Fatalf("got %v, want %v", got, v)
		}
	}
}

func TestBoolRejectsInvalidByte(t *testing.T) {
	t.Parallel()

	r := codec.NewReader([]byte{0x02})
	if _, err := r.ReadBool(); err == nil {
		t.Fatal("expected error for invalid bool byte")
	}
}

func TestBytesAndStringRoundTrip(t *testing.T) {
	t.Parallel()

	w := codec.NewWriter()
	w.WriteBytes([]byte{1, 2, 3})
	w.WriteString("hello, microvm")
	w.WriteBytes(nil)

	r := codec.NewReader(w.Bytes())

	b, err := r.ReadBytes()
	if err != nil || string(b) != "\x01\x02\x03" {
		t.Fatalf("ReadBytes = %v, err=%v", b, err)
	}

	s, err := r.ReadString()
	if err != nil || s != "hello, microvm" {
		t.Fatalf("ReadString = %q, err=%v", s, err)
	}

	empty, err := r.ReadBytes()
	if err != nil || len(empty) != 0 {
		t.Fatalf("ReadBytes(empty) = %v, err=%v", empty, err)
	}
}

func TestOptionalRoundTrip(t *testing.T) {
	t.Parallel()

	encU32 := func(w *codec.Writer, v uint32) { w.WriteUint32(v) }
	decU32 := func(r *codec.Reader) (uint32, error) { return r.ReadUint32() }

	w := codec.NewWriter()

	var present uint32 = 42

	codec.WriteOptional(w, &present, encU32)
	codec.WriteOptional[uint32](w, nil, encU32)

	r := codec.NewReader(w.Bytes())

	got, err := codec.ReadOptional(r, decU32)
	if err != nil {
		t.Fatalf("ReadOptional: %v", err)
	}

	if got == nil || *got != 42 {
		t.Fatalf("got %v, want pointer to 42", got)
	}

	gotNil, err := codec.ReadOptional(r, decU32)
	if err != nil {
		t.Fatalf("ReadOptional (nil): %v", err)
	}

	if gotNil != nil {
		t.Fatalf("got %v, want nil", gotNil)
	}
}

func TestSliceRoundTrip(t *testing.T) {
	t.Parallel()

	enc := func(w *codec.Writer, v uint32) { w.WriteUint32(v) }
	dec := func(r *codec.Reader) (uint32, error) { return r.ReadUint32() }

	w := codec.NewWriter()
	codec.WriteSlice(w, []uint32{5, 9, 10}, enc)

	r := codec.NewReader(w.Bytes())

	got, err := codec.ReadSlice(r, dec)
	if err != nil {
		t.Fatalf("ReadSlice: %v", err)
	}

	if len(got) != 3 || got[0] != 5 || got[1] != 9 || got[2] != 10 {
		t.Fatalf("got %v", got)
	}
}

func TestReadTruncatedBuffer(t *testing.T) {
	t.Parallel()

	r := codec.NewReader([]byte{0x01})
	if _, err := r.ReadUint64(); err == nil {
		t.Fatal("expected error reading past end of buffer")
	}
}
