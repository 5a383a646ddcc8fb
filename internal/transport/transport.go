// Package transport implements the MAVLink connection abstraction over
// TCP, UDP, serial, and file backends.
package transport

import (
	"errors"
	"sync/atomic"

	"github.com/ampio/go-mavlink/internal/frame"
	"github.com/ampio/go-mavlink/internal/metrics"
	"github.com/ampio/go-mavlink/internal/signing"
)

// Sentinel errors used for wrapping so callers can classify via errors.Is.
var (
	ErrListen      = errors.New("transport: listen")
	ErrAccept      = errors.New("transport: accept")
	ErrDial        = errors.New("transport: dial")
	ErrConnRead    = errors.New("transport: read")
	ErrConnWrite   = errors.New("transport: write")
	ErrConfig      = errors.New("transport: config")
	ErrEOF         = errors.New("transport: eof")
	ErrNotLearned  = errors.New("transport: peer address not yet learned")
	ErrClosed      = errors.New("transport: connection closed")
)

// Connection is the uniform interface every transport implements: typed
// send/recv, a raw path for the routing layer, version negotiation, and
// optional message signing.
type Connection interface {
	// Recv blocks for the next frame, parses its payload against ms, and
	// returns the sender header and the decoded message.
	Recv(ms frame.MessageSet) (frame.Header, frame.Message, error)
	// RecvRaw blocks for the next CRC-valid frame without parsing its
	// payload, for the routing layer's forward-without-decode path.
	RecvRaw(ms frame.MessageSet) (frame.ReadResult, error)
	// Send serializes msg under the connection's own sequence counter and
	// protocol version, signing it if signing is configured and enabled.
	Send(header frame.Header, msg frame.Message, ms frame.MessageSet) (int, error)
	// SendRaw transmits a raw v2 frame as-is, used by the routing layer.
	SendRaw(fr *frame.RawV2Frame) (int, error)

	ProtocolVersion() frame.Version
	SetAllowRecvAnyVersion(allow bool)
	SetupSigning(cfg *signing.Config)

	Close() error
}

// base holds the state shared by every Connection implementation: the
// resynchronizing codec, the outbound sequence counter, and the optional
// signer. Concrete transports embed it and supply their own io.Reader/
// io.Writer plumbing.
type base struct {
	codec     *frame.Codec
	writer    rawWriter
	protocol  frame.Version
	seq       atomic.Uint32 // wraps to uint8 on use
	signer    *signing.Signer
	transport string // metrics label: "tcp", "udp", "serial", "file"
}

// rawWriter is satisfied by every concrete transport's write path; file
// connections implement it as a no-op.
type rawWriter interface {
	writeFrameBytes(b []byte) (int, error)
}

func (b *base) nextSeq() uint8 {
	return uint8(b.seq.Add(1) - 1)
}

func (b *base) ProtocolVersion() frame.Version { return b.protocol }

func (b *base) SetAllowRecvAnyVersion(allow bool) {
	if allow {
		b.codec.SetAcceptVersion(frame.ReadAny())
	} else {
		b.codec.SetAcceptVersion(frame.ReadSingle(b.protocol))
	}
}

func (b *base) SetupSigning(cfg *signing.Config) {
	if cfg == nil {
		b.signer = nil
		b.codec.SetVerifier(nil)
		b.codec.SetRequireSignedOnly(false)
		return
	}
	b.signer = signing.New(*cfg)
	b.codec.SetVerifier(b.signer)
	b.codec.SetRequireSignedOnly(!cfg.AllowUnsigned)
}

func (b *base) Recv(ms frame.MessageSet) (frame.Header, frame.Message, error) {
	res, err := b.codec.ReadFrame(ms)
	if err != nil {
		return frame.Header{}, nil, err
	}
	if res.V1 != nil {
		metrics.IncTransportRx(b.transport)
		msg, err := ms.Parse(frame.V1, res.V1.MessageID(), res.V1.Payload())
		return res.V1.Header(), msg, err
	}
	metrics.IncTransportRx(b.transport)
	msg, err := ms.Parse(frame.V2, res.V2.MessageID(), res.V2.Payload())
	return res.V2.Header(), msg, err
}

func (b *base) RecvRaw(ms frame.MessageSet) (frame.ReadResult, error) {
	res, err := b.codec.ReadFrame(ms)
	if err == nil {
		metrics.IncTransportRx(b.transport)
	}
	return res, err
}

func (b *base) Send(header frame.Header, msg frame.Message, ms frame.MessageSet) (int, error) {
	header.Sequence = b.nextSeq()
	var fr *frame.RawV2Frame
	var v1 *frame.RawV1Frame
	var err error

	switch b.protocol {
	case frame.V1:
		v1, err = frame.BuildV1(header, msg, ms)
		if err != nil {
			return 0, err
		}
		return b.writer.writeFrameBytes(v1.Bytes())
	default:
		if b.signer != nil && b.signer.SignOutgoing() {
			fr = frame.BuildV2ForSigning(header, msg, ms)
			b.signer.Sign(fr)
		} else {
			fr = frame.BuildV2(header, msg, ms)
		}
		n, err := b.writer.writeFrameBytes(fr.Bytes())
		if err == nil {
			metrics.IncTransportTx(b.transport)
		}
		return n, err
	}
}

func (b *base) SendRaw(fr *frame.RawV2Frame) (int, error) {
	n, err := b.writer.writeFrameBytes(fr.Bytes())
	if err == nil {
		metrics.IncTransportTx(b.transport)
	}
	return n, err
}
