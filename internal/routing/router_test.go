package routing

import (
	"context"
	"testing"
	"time"

	"github.com/ampio/go-mavlink/internal/frame"
	"github.com/ampio/go-mavlink/internal/signing"
)

// fakeConn is a minimal transport.Connection that records every raw frame
// sent to it, for asserting on the router's forwarding behavior without a
// real socket.
type fakeConn struct {
	sent chan *frame.RawV2Frame
}

func newFakeConn(buf int) *fakeConn { return &fakeConn{sent: make(chan *frame.RawV2Frame, buf)} }

func (f *fakeConn) Recv(frame.MessageSet) (frame.Header, frame.Message, error) {
	return frame.Header{}, nil, nil
}
func (f *fakeConn) RecvRaw(frame.MessageSet) (frame.ReadResult, error) { return frame.ReadResult{}, nil }
func (f *fakeConn) Send(frame.Header, frame.Message, frame.MessageSet) (int, error) { return 0, nil }
func (f *fakeConn) SendRaw(fr *frame.RawV2Frame) (int, error) {
	cp := *fr
	select {
	case f.sent <- &cp:
	default:
	}
	return len(fr.Bytes()), nil
}
func (f *fakeConn) ProtocolVersion() frame.Version { return frame.V2 }
func (f *fakeConn) SetAllowRecvAnyVersion(bool)    {}
func (f *fakeConn) SetupSigning(*signing.Config)   {}
func (f *fakeConn) Close() error                   { return nil }

type fakeHeartbeat struct{}

func (fakeHeartbeat) MessageID() uint32   { return 0 }
func (fakeHeartbeat) MessageName() string { return "HEARTBEAT" }
func (fakeHeartbeat) Ser(frame.Version, []byte) int { return 9 }

type fakeMS struct{}

func (fakeMS) Parse(frame.Version, uint32, []byte) (frame.Message, error) { return fakeHeartbeat{}, nil }
func (fakeMS) ExtraCRC(id uint32) (uint8, bool) {
	if id == 0 {
		return 50, true
	}
	return 0, false
}

func TestForwardRewritesSequenceAndRepatchesCRC(t *testing.T) {
	r := New(PolicyDrop, 8)
	ctx := context.Background()

	a := newFakeConn(4)
	b := newFakeConn(4)
	r.AddLink(ctx, "a", a)
	r.AddLink(ctx, "b", b)

	hdr := frame.DefaultHeader()
	hdr.Sequence = 200 // original sender's sequence; routing must overwrite this
	fr := frame.BuildV2(hdr, fakeHeartbeat{}, fakeMS{})

	extraCRC, _ := fakeMS{}.ExtraCRC(0)
	r.Forward("a", fr, extraCRC)

	select {
	case got := <-b.sent:
		if got.Sequence() == 200 {
			t.Fatal("sequence was not rewritten for the destination link")
		}
		if !got.HasValidCRC(extraCRC) {
			t.Fatal("CRC was not repatched after sequence rewrite")
		}
		if got.SystemID() != hdr.SystemID || got.ComponentID() != hdr.ComponentID {
			t.Fatal("sender identity must survive forwarding")
		}
	case <-time.After(time.Second):
		t.Fatal("link b never received the forwarded frame")
	}

	select {
	case <-a.sent:
		t.Fatal("frame must not be forwarded back to its source link")
	default:
	}

	r.RemoveLink("a")
	r.RemoveLink("b")
}

func TestForwardAssignsConsecutiveSequencesPerLink(t *testing.T) {
	r := New(PolicyDrop, 8)
	ctx := context.Background()

	b := newFakeConn(4)
	r.AddLink(ctx, "a", &fakeConn{sent: make(chan *frame.RawV2Frame, 1)})
	r.AddLink(ctx, "b", b)

	fr := frame.BuildV2(frame.DefaultHeader(), fakeHeartbeat{}, fakeMS{})
	extraCRC, _ := fakeMS{}.ExtraCRC(0)

	r.Forward("a", fr, extraCRC)
	r.Forward("a", fr, extraCRC)

	first := <-b.sent
	second := <-b.sent
	if second.Sequence() != first.Sequence()+1 {
		t.Fatalf("expected consecutive per-link sequence numbers, got %d then %d", first.Sequence(), second.Sequence())
	}
}
