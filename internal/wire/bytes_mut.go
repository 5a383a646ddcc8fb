package wire

import "math"

// BytesMut is a cursored mutable view over a borrowed byte slice used to
// serialize message payloads. It is an internal API, not an external
// protocol boundary: unlike Bytes it asserts (panics) on overflow instead
// of returning an error, since callers always size the backing slice from
// the message's own known encoded length.
type BytesMut struct {
	data []byte
	pos  int
}

// NewBytesMut wraps data for sequential little-endian writes.
func NewBytesMut(data []byte) *BytesMut {
	return &BytesMut{data: data}
}

// Len returns the number of bytes written so far.
func (b *BytesMut) Len() int { return b.pos }

func (b *BytesMut) checkRemaining(n int) {
	if len(b.data)-b.pos < n {
		panic("wire: BytesMut overflow")
	}
}

// PutBytes copies p into the buffer and advances the cursor.
func (b *BytesMut) PutBytes(p []byte) {
	b.checkRemaining(len(p))
	copy(b.data[b.pos:], p)
	b.pos += len(p)
}

// PutU8 writes one unsigned byte.
func (b *BytesMut) PutU8(v uint8) {
	b.checkRemaining(1)
	b.data[b.pos] = v
	b.pos++
}

// PutI8 writes one signed byte.
func (b *BytesMut) PutI8(v int8) { b.PutU8(uint8(v)) }

// PutU16 writes a little-endian uint16.
func (b *BytesMut) PutU16(v uint16) {
	b.checkRemaining(2)
	b.data[b.pos] = byte(v)
	b.data[b.pos+1] = byte(v >> 8)
	b.pos += 2
}

// PutI16 writes a little-endian int16.
func (b *BytesMut) PutI16(v int16) { b.PutU16(uint16(v)) }

// PutU32 writes a little-endian uint32.
func (b *BytesMut) PutU32(v uint32) {
	b.checkRemaining(4)
	b.data[b.pos] = byte(v)
	b.data[b.pos+1] = byte(v >> 8)
	b.data[b.pos+2] = byte(v >> 16)
	b.data[b.pos+3] = byte(v >> 24)
	b.pos += 4
}

// PutI32 writes a little-endian int32.
func (b *BytesMut) PutI32(v int32) { b.PutU32(uint32(v)) }

// PutU64 writes a little-endian uint64.
func (b *BytesMut) PutU64(v uint64) {
	b.checkRemaining(8)
	for i := 0; i < 8; i++ {
		b.data[b.pos+i] = byte(v >> (8 * uint(i)))
	}
	b.pos += 8
}

// PutI64 writes a little-endian int64.
func (b *BytesMut) PutI64(v int64) { b.PutU64(uint64(v)) }

// PutF32 writes a little-endian IEEE-754 float32.
func (b *BytesMut) PutF32(v float32) { b.PutU32(math.Float32bits(v)) }

// PutF64 writes a little-endian IEEE-754 float64.
func (b *BytesMut) PutF64(v float64) { b.PutU64(math.Float64bits(v)) }
