package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/ampio/go-mavlink/internal/frame"
	"github.com/ampio/go-mavlink/internal/serial"
)

// serialConn wires internal/serial.Port (tarm/serial) into the Connection
// abstraction: 8N1 at a configurable baud, no flow control.
type serialConn struct {
	base
	port serial.Port
	wMu  sync.Mutex
}

func (s *serialConn) writeFrameBytes(b []byte) (int, error) {
	s.wMu.Lock()
	defer s.wMu.Unlock()
	n, err := s.port.Write(b)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrConnWrite, err)
	}
	return n, nil
}

func (s *serialConn) Close() error { return s.port.Close() }

// OpenSerial opens addr.Device at addr.Baud with a short read timeout so
// the codec's blocking peek loop still observes context cancellation at
// the connection-manager level.
func OpenSerial(addr Address, accept frame.ReadVersion, protocol frame.Version) (Connection, error) {
	port, err := serial.Open(addr.Device, addr.Baud, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	s := &serialConn{port: port}
	s.base = base{
		codec:     frame.NewCodec(port, accept),
		protocol:  protocol,
		transport: "serial",
	}
	s.base.writer = s
	return s, nil
}
