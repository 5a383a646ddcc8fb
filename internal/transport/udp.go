package transport

import (
	"bytes"
	"fmt"
	"net"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/ampio/go-mavlink/internal/frame"
)

// udpConn implements the three UDP connection kinds: in-mode
// binds and learns the sender of the first datagram as its peer; out-mode
// and broadcast-mode send to a fixed or learned peer address.
type udpConn struct {
	base
	pc   net.PacketConn
	mode Scheme

	mu   sync.Mutex
	peer net.Addr // learned (in-mode) or fixed (out/broadcast mode)

	// pendingR adapts the socket to io.Reader for the frame codec; see
	// datagramReader for how datagram boundaries are handled.
	pendingR *datagramReader
}

// datagramReader adapts PacketConn.ReadFrom (one-datagram-at-a-time) to
// io.Reader for the frame codec. Each Read returns at most len(p) bytes of
// one datagram and drops whatever part of it did not fit in p. Bytes
// already returned stay in the codec's peek buffer, so an unconsumed tail
// of one datagram is scanned together with the next datagram; datagram
// boundaries are not enforced.
type datagramReader struct {
	pc   net.PacketConn
	conn *udpConn
	buf  bytes.Buffer
}

func (d *datagramReader) Read(p []byte) (int, error) {
	if d.buf.Len() == 0 {
		raw := make([]byte, 65507)
		n, addr, err := d.pc.ReadFrom(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrConnRead, err)
		}
		d.conn.mu.Lock()
		if d.conn.mode == SchemeUDPIn && d.conn.peer == nil {
			d.conn.peer = addr
		}
		d.conn.mu.Unlock()
		d.buf.Reset()
		d.buf.Write(raw[:n])
	}
	n, _ := d.buf.Read(p)
	// Drop whatever part of this datagram did not fit in p.
	d.buf.Reset()
	return n, nil
}

func (u *udpConn) writeFrameBytes(b []byte) (int, error) {
	u.mu.Lock()
	peer := u.peer
	u.mu.Unlock()
	if peer == nil {
		return 0, ErrNotLearned
	}
	n, err := u.pc.WriteTo(b, peer)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrConnWrite, err)
	}
	return n, nil
}

func (u *udpConn) Close() error { return u.pc.Close() }

// ListenUDPIn binds addr and learns its peer from the first received
// datagram.
func ListenUDPIn(addr Address, accept frame.ReadVersion, protocol frame.Version) (Connection, error) {
	pc, err := net.ListenPacket("udp", addr.hostPort())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListen, err)
	}
	return newUDPConn(pc, SchemeUDPIn, nil, accept, protocol), nil
}

// DialUDPOut resolves addr as a fixed peer and sends from an ephemeral
// local port.
func DialUDPOut(addr Address, accept frame.ReadVersion, protocol frame.Version) (Connection, error) {
	pc, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListen, err)
	}
	peer, err := net.ResolveUDPAddr("udp", addr.hostPort())
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return newUDPConn(pc, SchemeUDPOut, peer, accept, protocol), nil
}

// DialUDPBroadcast behaves like DialUDPOut but sets SO_BROADCAST on the
// socket so the fixed peer may be a broadcast address.
func DialUDPBroadcast(addr Address, accept frame.ReadVersion, protocol frame.Version) (Connection, error) {
	pc, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListen, err)
	}
	udpPC, ok := pc.(*net.UDPConn)
	if !ok {
		_ = pc.Close()
		return nil, fmt.Errorf("%w: unexpected packet conn type", ErrConfig)
	}
	rawConn, err := udpPC.SyscallConn()
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	var sockErr error
	ctrlErr := rawConn.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if ctrlErr != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("%w: %v", ErrConfig, ctrlErr)
	}
	if sockErr != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("%w: SO_BROADCAST: %v", ErrConfig, sockErr)
	}
	peer, err := net.ResolveUDPAddr("udp4", addr.hostPort())
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return newUDPConn(pc, SchemeUDPCast, peer, accept, protocol), nil
}

func newUDPConn(pc net.PacketConn, mode Scheme, peer net.Addr, accept frame.ReadVersion, protocol frame.Version) *udpConn {
	u := &udpConn{pc: pc, mode: mode, peer: peer}
	dr := &datagramReader{pc: pc, conn: u}
	u.pendingR = dr
	u.base = base{
		codec:     frame.NewCodec(dr, accept),
		protocol:  protocol,
		transport: "udp",
	}
	u.base.writer = u
	return u
}
