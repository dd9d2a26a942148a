package binary

import (
	"errors"
	"strings"
	"testing"
)

func TestReaderScalars(t *testing.T) {
	w := NewWriter()
	w.WriteU8(0xAB)
	w.WriteU16(0x1234)
	w.WriteU32(0xDEADBEEF)
	w.WriteU64(0x0102030405060708)
	w.WriteI32(-42)
	w.WriteF32(1.5)
	w.WriteF64(-2.25)

	r := NewReader(w.Bytes())

	if v, err := r.ReadU8(); err != nil || v != 0xAB {
		t.Errorf("ReadU8 = %v, %v", v, err)
	}
	if v, err := r.ReadU16(); err != nil || v != 0x1234 {
		t.Errorf("ReadU16 = %v, %v", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 0xDEADBEEF {
		t.Errorf("ReadU32 = %v, %v", v, err)
	}
	if v, err := r.ReadU64(); err != nil || v != 0x0102030405060708 {
		t.Errorf("ReadU64 = %v, %v", v, err)
	}
	if v, err := r.ReadI32(); err != nil || v != -42 {
		t.Errorf("ReadI32 = %v, %v", v, err)
	}
	if v, err := r.ReadF32(); err != nil || v != 1.5 {
		t.Errorf("ReadF32 = %v, %v", v, err)
	}
	if v, err := r.ReadF64(); err != nil || v != -2.25 {
		t.Errorf("ReadF64 = %v, %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", r.Remaining())
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.ReadU32(); err == nil {
		t.Fatal("expected error reading u32 from 2 bytes")
	}
	// Position must not advance on a failed read.
	if r.Position() != 0 {
		t.Errorf("Position = %d after failed read, want 0", r.Position())
	}
	var pe *ParseError
	_, err := r.ReadU32()
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func TestReaderSeek(t *testing.T) {
	r := NewReader([]byte{0, 1, 2, 3, 4, 5, 6, 7})
	if err := r.Seek(4); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	v, err := r.ReadU32()
	if err != nil {
		t.Fatalf("ReadU32: %v", err)
	}
	if v != 0x07060504 {
		t.Errorf("ReadU32 after seek = %#x", v)
	}
	if err := r.Seek(9); err == nil {
		t.Error("expected error seeking past end")
	}
	if err := r.Seek(-1); err == nil {
		t.Error("expected error seeking before start")
	}
}

func TestWriteLabelPadding(t *testing.T) {
	w := NewWriter()
	w.WriteLabel("Tag")
	b := w.Bytes()
	if len(b) != 16 {
		t.Fatalf("label length = %d, want 16", len(b))
	}
	if string(b[:3]) != "Tag" {
		t.Errorf("label prefix = %q", b[:3])
	}
	for i := 3; i < 16; i++ {
		if b[i] != 0 {
			t.Errorf("byte %d = %#x, want NUL padding", i, b[i])
		}
	}
}

func TestParseErrorMessage(t *testing.T) {
	r := NewReader(nil)
	err := r.WrapError("struct table", errors.New("boom"))
	if !strings.Contains(err.Error(), "struct table") || !strings.Contains(err.Error(), "offset 0") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
