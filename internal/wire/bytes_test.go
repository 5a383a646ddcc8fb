package wire

import (
	"errors"
	"testing"
)

func TestBytesRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	w := NewBytesMut(buf)
	w.PutU8(0x12)
	w.PutI8(-5)
	w.PutU16(0xBEEF)
	w.PutI16(-1000)
	w.PutU32(0xDEADBEEF)
	w.PutF32(3.5)
	w.PutU64(0x0102030405060708)
	w.PutF64(2.25)

	r := NewBytes(buf[:w.Len()])
	if v, err := r.GetU8(); err != nil || v != 0x12 {
		t.Fatalf("GetU8 = %v, %v", v, err)
	}
	if v, err := r.GetI8(); err != nil || v != -5 {
		t.Fatalf("GetI8 = %v, %v", v, err)
	}
	if v, err := r.GetU16(); err != nil || v != 0xBEEF {
		t.Fatalf("GetU16 = %v, %v", v, err)
	}
	if v, err := r.GetI16(); err != nil || v != -1000 {
		t.Fatalf("GetI16 = %v, %v", v, err)
	}
	if v, err := r.GetU32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("GetU32 = %v, %v", v, err)
	}
	if v, err := r.GetF32(); err != nil || v != 3.5 {
		t.Fatalf("GetF32 = %v, %v", v, err)
	}
	if v, err := r.GetU64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("GetU64 = %v, %v", v, err)
	}
	if v, err := r.GetF64(); err != nil || v != 2.25 {
		t.Fatalf("GetF64 = %v, %v", v, err)
	}
}

func TestBytesUnderflow(t *testing.T) {
	r := NewBytes([]byte{0x01})
	_, err := r.GetU32()
	var underflow *ErrBufferUnderflow
	if !errors.As(err, &underflow) {
		t.Fatalf("expected ErrBufferUnderflow, got %v", err)
	}
	if underflow.Need != 4 || underflow.Have != 1 {
		t.Fatalf("unexpected underflow fields: %+v", underflow)
	}
}

func TestBytesMutOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on overflow")
		}
	}()
	w := NewBytesMut(make([]byte, 1))
	w.PutU16(1)
}
