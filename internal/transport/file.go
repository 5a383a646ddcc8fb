package transport

import (
	"fmt"
	"os"

	"github.com/ampio/go-mavlink/internal/frame"
)

// fileConn replays a previously captured frame stream from disk. Send is a
// no-op returning 0; the connection manager sees an ordinary EOF once the
// file is exhausted.
type fileConn struct {
	base
	f *os.File
}

func (fc *fileConn) writeFrameBytes(b []byte) (int, error) { return 0, nil }

// Send overrides base.Send: file playback never transmits, so this skips
// serialization entirely rather than building a frame just to discard it.
func (fc *fileConn) Send(header frame.Header, msg frame.Message, ms frame.MessageSet) (int, error) {
	return 0, nil
}

func (fc *fileConn) Close() error { return fc.f.Close() }

// OpenFile opens addr.Path for read-only playback.
func OpenFile(addr Address, accept frame.ReadVersion, protocol frame.Version) (Connection, error) {
	f, err := os.Open(addr.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	fc := &fileConn{f: f}
	fc.base = base{
		codec:     frame.NewCodec(f, accept),
		protocol:  protocol,
		transport: "file",
	}
	fc.base.writer = fc
	return fc, nil
}
