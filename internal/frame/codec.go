package frame

import (
	"errors"
	"fmt"
	"io"

	"github.com/ampio/go-mavlink/internal/metrics"
	"github.com/ampio/go-mavlink/internal/peek"
)

// Verifier checks a v2 frame's trailing signature against link state,
// implemented by internal/signing.Signer. Kept as a narrow interface here
// so the codec doesn't depend on the signing package's configuration type.
type Verifier interface {
	Verify(f *RawV2Frame) bool
}

// Signable fills a v2 frame's zeroed signature trailer in place before it
// is written to the wire, implemented by internal/signing.Signer.
type Signable interface {
	Sign(f *RawV2Frame)
}

// Codec scans a byte stream for valid MAVLink frames, resynchronizing
// byte-by-byte past garbage, unsupported incompatibility flags, and CRC
// mismatches. It is stateful per connection and not safe for concurrent
// use; callers serialize access with a per-connection mutex.
type Codec struct {
	r                 *peek.Reader
	accept            ReadVersion
	verifier          Verifier
	requireSignedOnly bool
}

// NewCodec wraps r, scanning for frames of the versions accept allows.
func NewCodec(r io.Reader, accept ReadVersion) *Codec {
	return &Codec{r: peek.New(r), accept: accept}
}

// SetVerifier installs the signature verifier used for signed v2 frames.
// With no verifier installed, signed frames are accepted without
// signature verification. Unsigned frames are accepted unless
// SetRequireSignedOnly(true) is set.
func (c *Codec) SetVerifier(v Verifier) { c.verifier = v }

// SetRequireSignedOnly controls whether unsigned frames are discarded.
// v1 carries no signature at all, so in "any" mode with this set, v1
// frames are treated as unsigned and discarded.
func (c *Codec) SetRequireSignedOnly(require bool) { c.requireSignedOnly = require }

// SetAcceptVersion changes which STX byte(s) the codec scans for, letting
// a connection switch between a single negotiated version and accepting
// either.
func (c *Codec) SetAcceptVersion(accept ReadVersion) { c.accept = accept }

// ReadResult is the outcome of one ReadFrame call: exactly one of V1/V2
// is non-nil on success.
type ReadResult struct {
	V1 *RawV1Frame
	V2 *RawV2Frame
}

// ReadFrame scans the stream for the next frame that passes header
// validation, CRC, and (if applicable) signature verification,
// discarding one byte at a time past anything that doesn't.
// It returns io.EOF (or io.ErrUnexpectedEOF) once the underlying reader
// is exhausted mid-scan.
func (c *Codec) ReadFrame(ms MessageSet) (ReadResult, error) {
	for {
		if err := c.syncToStart(); err != nil {
			return ReadResult{}, err
		}
		stx, err := c.r.PeekExact(1)
		if err != nil {
			return ReadResult{}, err
		}
		switch stx[0] {
		case StartV1:
			if !c.accept.acceptsV1() {
				c.resync()
				continue
			}
			rf, ok, err := c.tryReadV1(ms)
			if err != nil {
				return ReadResult{}, err
			}
			if !ok {
				continue
			}
			metrics.IncDecoded("v1")
			return ReadResult{V1: rf}, nil
		case StartV2:
			if !c.accept.acceptsV2() {
				c.resync()
				continue
			}
			rf, ok, err := c.tryReadV2(ms)
			if err != nil {
				return ReadResult{}, err
			}
			if !ok {
				continue
			}
			metrics.IncDecoded("v2")
			return ReadResult{V2: rf}, nil
		default:
			c.resync()
		}
	}
}

// syncToStart discards bytes until the next buffered byte is a STX of an
// accepted version, or returns the peek error (typically EOF).
func (c *Codec) syncToStart() error {
	for {
		b, err := c.r.PeekExact(1)
		if err != nil {
			return err
		}
		if (b[0] == StartV1 && c.accept.acceptsV1()) || (b[0] == StartV2 && c.accept.acceptsV2()) {
			return nil
		}
		c.resync()
	}
}

// resync advances one byte and records it as a resynchronization event.
func (c *Codec) resync() {
	c.r.Consume(1)
	metrics.IncResync()
}

// tryReadV1 attempts to read one v1 frame at the current (already
// STX-aligned) cursor. ok is false if the frame failed CRC and the
// caller should resync and keep scanning.
func (c *Codec) tryReadV1(ms MessageSet) (*RawV1Frame, bool, error) {
	hdr, err := c.r.PeekExact(headerSizeV1 + 1)
	if err != nil {
		return nil, false, err
	}
	payloadLen := int(hdr[1])
	total := headerSizeV1 + 1 + payloadLen + crcSize
	full, err := c.r.PeekExact(total)
	if err != nil {
		return nil, false, err
	}

	var f RawV1Frame
	copy(f.buf[:total], full)
	f.n = total

	id := f.MessageID()
	extraCRC, known := ms.ExtraCRC(id)
	if !known {
		metrics.IncUnknownMessage()
		c.r.Consume(total)
		return nil, false, &UnknownMessageError{ID: id}
	}
	if !f.HasValidCRC(extraCRC) {
		metrics.IncCRCFailure()
		c.resync()
		return nil, false, nil
	}
	if c.requireSignedOnly {
		// v1 carries no signature trailer at all; treat it as unsigned.
		metrics.IncUnsignedDiscarded()
		c.r.Consume(total)
		return nil, false, nil
	}
	c.r.Consume(total)
	return &f, true, nil
}

// tryReadV2 attempts to read one v2 frame at the current (already
// STX-aligned) cursor, applying the incompatibility-flag gate and, when
// a verifier is installed, signature verification.
func (c *Codec) tryReadV2(ms MessageSet) (*RawV2Frame, bool, error) {
	hdr, err := c.r.PeekExact(headerSizeV2 + 1)
	if err != nil {
		return nil, false, err
	}
	incompat := hdr[2]
	if incompat&^SupportedIncompatMask != 0 {
		metrics.IncUnknownIncompat()
		c.resync()
		return nil, false, nil
	}
	payloadLen := int(hdr[1])
	total := headerSizeV2 + 1 + payloadLen + crcSize
	signed := incompat&IncompatFlagSigned != 0
	if signed {
		total += SignatureSize
	}
	full, err := c.r.PeekExact(total)
	if err != nil {
		return nil, false, err
	}

	var f RawV2Frame
	copy(f.buf[:total], full)
	f.n = total

	id := f.MessageID()
	extraCRC, known := ms.ExtraCRC(id)
	if !known {
		metrics.IncUnknownMessage()
		c.r.Consume(total)
		return nil, false, &UnknownMessageError{ID: id}
	}
	if !f.HasValidCRC(extraCRC) {
		metrics.IncCRCFailure()
		c.resync()
		return nil, false, nil
	}
	if signed {
		if c.verifier != nil && !c.verifier.Verify(&f) {
			// Signature rejected: the frame is well-formed and CRC-valid,
			// so commit it and restart scanning from the next byte rather
			// than resynchronizing one byte at a time.
			c.r.Consume(total)
			return nil, false, nil
		}
		if c.verifier != nil {
			metrics.IncSignatureAccepted()
		}
	} else if c.requireSignedOnly {
		metrics.IncUnsignedDiscarded()
		c.r.Consume(total)
		return nil, false, nil
	}
	c.r.Consume(total)
	return &f, true, nil
}

// ErrWriteShortWrite is returned when the underlying writer accepts fewer
// bytes than the frame's length without an error of its own.
var ErrWriteShortWrite = errors.New("frame: short write")

// WriteV1 serializes and writes msg as a v1 frame to w.
func WriteV1(w io.Writer, header Header, msg Message, ms MessageSet) error {
	f, err := BuildV1(header, msg, ms)
	if err != nil {
		return err
	}
	return writeAll(w, f.Bytes(), "v1")
}

// WriteV2 serializes and writes msg as an unsigned v2 frame to w.
func WriteV2(w io.Writer, header Header, msg Message, ms MessageSet) error {
	f := BuildV2(header, msg, ms)
	return writeAll(w, f.Bytes(), "v2")
}

// WriteV2Signed serializes msg as a v2 frame, signs it with signer, and
// writes it to w.
func WriteV2Signed(w io.Writer, header Header, msg Message, ms MessageSet, signer Signable) error {
	f := BuildV2ForSigning(header, msg, ms)
	signer.Sign(f)
	return writeAll(w, f.Bytes(), "v2")
}

func writeAll(w io.Writer, b []byte, version string) error {
	n, err := w.Write(b)
	if err != nil {
		return fmt.Errorf("frame: write: %w", err)
	}
	if n != len(b) {
		return ErrWriteShortWrite
	}
	metrics.IncEncoded(version)
	return nil
}
