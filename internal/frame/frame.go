// Package frame implements the on-the-wire MAVLink frame representation
// (v1 and v2) and the resynchronizing codec that scans a byte stream for
// valid frames.
package frame

// Version selects the MAVLink wire format used to serialize a message.
type Version uint8

const (
	V1 Version = iota
	V2
)

// ReadVersion selects which STX byte(s) the codec accepts while scanning.
type ReadVersion struct {
	single  Version
	any     bool
	isSet   bool
}

// ReadAny accepts either v1 or v2 frames.
func ReadAny() ReadVersion { return ReadVersion{any: true} }

// ReadSingle accepts only frames of the given version.
func ReadSingle(v Version) ReadVersion { return ReadVersion{single: v, isSet: true} }

func (r ReadVersion) acceptsV1() bool { return r.any || (r.isSet && r.single == V1) }
func (r ReadVersion) acceptsV2() bool { return r.any || (r.isSet && r.single == V2) }

// Wire framing constants.
const (
	StartV1 byte = 0xFE
	StartV2 byte = 0xFD

	headerSizeV1 = 5 // len, seq, sys, comp, msgid
	headerSizeV2 = 9 // len, incompat, compat, seq, sys, comp, msgid(3)

	crcSize       = 2
	SignatureSize = 13 // link_id(1) + timestamp(6) + signature(6)

	MaxFrameSizeV1 = 263
	MaxFrameSizeV2 = 280
	MaxPayloadLen  = 255
)

// Incompatibility flag bits (v2 header). Unknown bits must cause the
// frame to be silently discarded.
const (
	IncompatFlagSigned    uint8 = 0x01
	SupportedIncompatMask uint8 = IncompatFlagSigned
)

// Header carries the sender identity and per-connection sequence number
// common to both wire versions.
type Header struct {
	SystemID    uint8
	ComponentID uint8
	Sequence    uint8
}

// DefaultHeader returns the conventional ground-station sender identity.
func DefaultHeader() Header {
	return Header{SystemID: 255, ComponentID: 0}
}

// Message is implemented by every generated per-message type.
type Message interface {
	MessageID() uint32
	MessageName() string
	Ser(version Version, payload []byte) int
}

// MessageSet resolves message ids to CRC_EXTRA bytes and parses payloads
// into typed messages for one dialect (the CodeEmitter's output).
type MessageSet interface {
	Parse(version Version, id uint32, payload []byte) (Message, error)
	ExtraCRC(id uint32) (uint8, bool)
}

// RawV1Frame is an owned, fixed-capacity v1 wire frame:
// STX | len | seq | sys | comp | msgid | payload(0..255) | crc(2).
type RawV1Frame struct {
	buf [MaxFrameSizeV1]byte
	n   int
}

// Bytes returns the full on-wire representation, STX through CRC.
func (f *RawV1Frame) Bytes() []byte { return f.buf[:f.n] }

func (f *RawV1Frame) PayloadLen() int       { return int(f.buf[1]) }
func (f *RawV1Frame) Sequence() uint8       { return f.buf[2] }
func (f *RawV1Frame) SystemID() uint8       { return f.buf[3] }
func (f *RawV1Frame) ComponentID() uint8    { return f.buf[4] }
func (f *RawV1Frame) MessageID() uint32     { return uint32(f.buf[5]) }
func (f *RawV1Frame) Payload() []byte       { n := f.PayloadLen(); return f.buf[6 : 6+n] }
func (f *RawV1Frame) Header() Header {
	return Header{SystemID: f.SystemID(), ComponentID: f.ComponentID(), Sequence: f.Sequence()}
}

func (f *RawV1Frame) CRC() uint16 {
	o := 6 + f.PayloadLen()
	return uint16(f.buf[o]) | uint16(f.buf[o+1])<<8
}

// HasValidCRC recomputes CRC-16/MCRF4XX over [len .. end_of_payload] seeded
// with extraCRC and compares it to the on-wire checksum.
func (f *RawV1Frame) HasValidCRC(extraCRC uint8) bool {
	n := f.PayloadLen()
	return ComputeCRC(f.buf[1:6+n], extraCRC) == f.CRC()
}

// fillFromHeader writes the v1 header fields; the caller fills payload+CRC.
func (f *RawV1Frame) fillFromHeader(header Header, msgID uint32, payloadLen int) {
	f.buf[0] = StartV1
	f.buf[1] = byte(payloadLen)
	f.buf[2] = header.Sequence
	f.buf[3] = header.SystemID
	f.buf[4] = header.ComponentID
	f.buf[5] = byte(msgID)
}

// BuildV1 serializes msg as a v1 frame. Fails with ErrMAVLink2Only if the
// message id does not fit in a single byte.
func BuildV1(header Header, msg Message, ms MessageSet) (*RawV1Frame, error) {
	if msg.MessageID() > 255 {
		return nil, ErrMAVLink2Only
	}
	var payloadBuf [MaxPayloadLen]byte
	n := msg.Ser(V1, payloadBuf[:])

	var f RawV1Frame
	f.fillFromHeader(header, msg.MessageID(), n)
	copy(f.buf[6:6+n], payloadBuf[:n])

	extraCRC, _ := ms.ExtraCRC(msg.MessageID())
	crc := ComputeCRC(f.buf[1:6+n], extraCRC)
	o := 6 + n
	f.buf[o] = byte(crc)
	f.buf[o+1] = byte(crc >> 8)
	f.n = o + crcSize
	return &f, nil
}

// RawV2Frame is an owned, fixed-capacity v2 wire frame:
// STX | len | incompat | compat | seq | sys | comp | msgid(3) |
// payload(0..255) | crc(2) | signature(13, if signed).
type RawV2Frame struct {
	buf [MaxFrameSizeV2]byte
	n   int
}

func (f *RawV2Frame) Bytes() []byte         { return f.buf[:f.n] }
func (f *RawV2Frame) PayloadLen() int       { return int(f.buf[1]) }
func (f *RawV2Frame) IncompatFlags() uint8  { return f.buf[2] }
func (f *RawV2Frame) CompatFlags() uint8    { return f.buf[3] }
func (f *RawV2Frame) Sequence() uint8       { return f.buf[4] }
func (f *RawV2Frame) SystemID() uint8       { return f.buf[5] }
func (f *RawV2Frame) ComponentID() uint8    { return f.buf[6] }
func (f *RawV2Frame) MessageID() uint32 {
	return uint32(f.buf[7]) | uint32(f.buf[8])<<8 | uint32(f.buf[9])<<16
}
func (f *RawV2Frame) Payload() []byte { n := f.PayloadLen(); return f.buf[10 : 10+n] }
func (f *RawV2Frame) Header() Header {
	return Header{SystemID: f.SystemID(), ComponentID: f.ComponentID(), Sequence: f.Sequence()}
}
func (f *RawV2Frame) Signed() bool { return f.IncompatFlags()&IncompatFlagSigned != 0 }

func (f *RawV2Frame) crcOffset() int { return 10 + f.PayloadLen() }

func (f *RawV2Frame) CRC() uint16 {
	o := f.crcOffset()
	return uint16(f.buf[o]) | uint16(f.buf[o+1])<<8
}

func (f *RawV2Frame) sigOffset() int { return f.crcOffset() + crcSize }

// LinkID returns the signature's link dimension (0 if unsigned).
func (f *RawV2Frame) LinkID() uint8 { return f.buf[f.sigOffset()] }

// SignatureTimestamp returns the 10-microsecond-tick timestamp carried in
// the signature trailer (0 if unsigned).
func (f *RawV2Frame) SignatureTimestamp() uint64 {
	o := f.sigOffset() + 1
	var v uint64
	for i := 5; i >= 0; i-- {
		v = v<<8 | uint64(f.buf[o+i])
	}
	return v
}

// SignatureValue returns the 6-byte truncated signature tag.
func (f *RawV2Frame) SignatureValue() []byte {
	o := f.sigOffset() + 7
	return f.buf[o : o+6]
}

// SignedPrefix returns everything that feeds the signature hash: STX
// through the signature's link_id+timestamp fields, i.e. every byte of
// the frame except the 6-byte signature tag itself.
func (f *RawV2Frame) SignedPrefix() []byte {
	return f.buf[:f.sigOffset()+7]
}

// SetLinkID overwrites the signature trailer's link id.
func (f *RawV2Frame) SetLinkID(id uint8) { f.buf[f.sigOffset()] = id }

// SetSignatureTimestamp overwrites the signature trailer's timestamp.
func (f *RawV2Frame) SetSignatureTimestamp(ts uint64) {
	o := f.sigOffset() + 1
	for i := 0; i < 6; i++ {
		f.buf[o+i] = byte(ts >> (8 * uint(i)))
	}
}

// SetSignatureValue overwrites the signature trailer's 6-byte tag.
func (f *RawV2Frame) SetSignatureValue(sig []byte) {
	copy(f.SignatureValue(), sig)
}

// HasValidCRC recomputes CRC-16/MCRF4XX over [len .. end_of_payload] seeded
// with extraCRC and compares it to the on-wire checksum.
func (f *RawV2Frame) HasValidCRC(extraCRC uint8) bool {
	n := f.PayloadLen()
	return ComputeCRC(f.buf[1:10+n], extraCRC) == f.CRC()
}

// PatchSequence overwrites the sequence byte and repatches the CRC in
// place, used by the routing layer to renumber forwarded frames without
// re-parsing them.
func (f *RawV2Frame) PatchSequence(seq uint8, extraCRC uint8) {
	f.buf[4] = seq
	n := f.PayloadLen()
	crc := ComputeCRC(f.buf[1:10+n], extraCRC)
	o := f.crcOffset()
	f.buf[o] = byte(crc)
	f.buf[o+1] = byte(crc >> 8)
}

func buildV2(header Header, msg Message, ms MessageSet, signed bool) *RawV2Frame {
	var payloadBuf [MaxPayloadLen]byte
	n := msg.Ser(V2, payloadBuf[:])
	// Payload truncation (v2 only): drop trailing zero bytes, keep >=1.
	for n > 1 && payloadBuf[n-1] == 0 {
		n--
	}

	var f RawV2Frame
	f.buf[0] = StartV2
	f.buf[1] = byte(n)
	if signed {
		f.buf[2] = IncompatFlagSigned
	}
	f.buf[3] = 0
	f.buf[4] = header.Sequence
	f.buf[5] = header.SystemID
	f.buf[6] = header.ComponentID
	id := msg.MessageID()
	f.buf[7] = byte(id)
	f.buf[8] = byte(id >> 8)
	f.buf[9] = byte(id >> 16)
	copy(f.buf[10:10+n], payloadBuf[:n])

	extraCRC, _ := ms.ExtraCRC(id)
	crc := ComputeCRC(f.buf[1:10+n], extraCRC)
	o := 10 + n
	f.buf[o] = byte(crc)
	f.buf[o+1] = byte(crc >> 8)
	total := o + crcSize
	if signed {
		total += SignatureSize
	}
	f.n = total
	return &f
}

// BuildV2 serializes msg as an unsigned v2 frame.
func BuildV2(header Header, msg Message, ms MessageSet) *RawV2Frame {
	return buildV2(header, msg, ms, false)
}

// BuildV2ForSigning serializes msg as a v2 frame with the SIGNED
// incompatibility bit set and a zeroed signature trailer, ready for a
// Signer to fill in.
func BuildV2ForSigning(header Header, msg Message, ms MessageSet) *RawV2Frame {
	return buildV2(header, msg, ms, true)
}

// ZeroExtend copies src into a buffer of length n, zero-padding any bytes
// beyond len(src). This lets shorter (older-dialect) and longer
// (newer-dialect, future-field) payloads both round-trip.
func ZeroExtend(src []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, src)
	return out
}
