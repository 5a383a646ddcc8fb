package transport

import (
	"fmt"
	"net"
	"sync"

	"github.com/ampio/go-mavlink/internal/frame"
)

// tcpConn is shared by both tcp-in (listener accepts one client) and
// tcp-out (dials) once the net.Conn is established.
type tcpConn struct {
	base
	conn net.Conn
	ln   net.Listener // nil for tcpout
	wMu  sync.Mutex
}

func (t *tcpConn) writeFrameBytes(b []byte) (int, error) {
	t.wMu.Lock()
	defer t.wMu.Unlock()
	n, err := t.conn.Write(b)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrConnWrite, err)
	}
	return n, nil
}

func (t *tcpConn) Close() error {
	err := t.conn.Close()
	if t.ln != nil {
		_ = t.ln.Close()
	}
	return err
}

// DialTCPOut connects out to addr.Host:addr.Port.
func DialTCPOut(addr Address, accept frame.ReadVersion, protocol frame.Version) (Connection, error) {
	conn, err := net.Dial("tcp", addr.hostPort())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDial, err)
	}
	return newTCPConn(conn, nil, accept, protocol), nil
}

// ListenTCPIn accepts exactly one inbound client on addr.Host:addr.Port
//, blocking until one connects.
func ListenTCPIn(addr Address, accept frame.ReadVersion, protocol frame.Version) (Connection, error) {
	ln, err := net.Listen("tcp", addr.hostPort())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListen, err)
	}
	conn, err := ln.Accept()
	if err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("%w: %v", ErrAccept, err)
	}
	return newTCPConn(conn, ln, accept, protocol), nil
}

func newTCPConn(conn net.Conn, ln net.Listener, accept frame.ReadVersion, protocol frame.Version) *tcpConn {
	t := &tcpConn{conn: conn, ln: ln}
	t.base = base{
		codec:     frame.NewCodec(conn, accept),
		protocol:  protocol,
		transport: "tcp",
	}
	t.base.writer = t
	return t
}
