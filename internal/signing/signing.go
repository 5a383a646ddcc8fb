// Package signing implements MAVLink 2 message signing
// (https://mavlink.io/en/guide/message_signing.html): sha256-truncated
// signatures seeded by a shared secret, with per-stream timestamp replay
// protection.
package signing

import (
	"crypto/sha256"
	"sync"
	"time"

	"github.com/ampio/go-mavlink/internal/frame"
	"github.com/ampio/go-mavlink/internal/metrics"
)

// epochOffsetSeconds is 2015-01-01T00:00:00Z expressed as a Unix offset;
// the signing timestamp counts 10-microsecond ticks from this instant.
const epochOffsetSeconds = 1420070400

// Config carries the immutable signing policy for one connection.
type Config struct {
	SecretKey     [32]byte
	SignOutgoing  bool
	AllowUnsigned bool
}

type streamKey struct {
	linkID uint8
	sysID  uint8
	compID uint8
}

// Signer tracks the mutable per-connection signing state: the monotonic
// timestamp clock, this endpoint's link id, and the last-seen timestamp
// per (link_id, sysid, compid) stream for replay rejection.
type Signer struct {
	cfg Config

	mu        sync.Mutex
	timestamp uint64
	linkID    uint8
	streams   map[streamKey]uint64

	// nowTicks is overridable in tests; defaults to the wall clock.
	nowTicks func() uint64
}

// New creates a Signer bound to cfg, with link id 0 (the only link id
// this implementation currently issues outgoing signatures under).
func New(cfg Config) *Signer {
	return &Signer{
		cfg:      cfg,
		streams:  make(map[streamKey]uint64),
		nowTicks: currentTimestamp,
	}
}

// AllowUnsigned reports whether unsigned v2 frames are accepted.
func (s *Signer) AllowUnsigned() bool { return s.cfg.AllowUnsigned }

// SignOutgoing reports whether this connection should sign frames it sends.
func (s *Signer) SignOutgoing() bool { return s.cfg.SignOutgoing }

// Verify implements frame.Verifier. It validates the sha256_48 signature
// and rejects replayed or implausibly old timestamps, per mavlink-core's
// SigningData::verify_signature.
func (s *Signer) Verify(f *frame.RawV2Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timestamp = max(s.timestamp, s.nowTicks())

	ts := f.SignatureTimestamp()
	key := streamKey{linkID: f.LinkID(), sysID: f.SystemID(), compID: f.ComponentID()}

	if last, ok := s.streams[key]; ok {
		if ts <= last {
			metrics.IncSignatureRejected("replay")
			return false
		}
	} else if ts+60*1000*100 < s.timestamp {
		// A brand new stream claiming a timestamp more than a minute
		// older than anything we've seen is rejected outright.
		metrics.IncSignatureRejected("stale_stream")
		return false
	}

	want := s.calculateSignature(f)
	if !hmacEqual(want, f.SignatureValue()) {
		metrics.IncSignatureRejected("mismatch")
		return false
	}

	s.streams[key] = ts
	s.timestamp = max(s.timestamp, ts)
	return true
}

// Sign implements frame.Signable: it fills in the timestamp, link id, and
// signature value of a v2 frame built with BuildV2ForSigning.
func (s *Signer) Sign(f *frame.RawV2Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timestamp = max(s.timestamp, s.nowTicks())
	f.SetSignatureTimestamp(s.timestamp)
	f.SetLinkID(s.linkID)

	sig := s.calculateSignature(f)
	f.SetSignatureValue(sig)
	s.timestamp++
}

// calculateSignature computes SHA-256(secret || frame.SignedPrefix())
// truncated to 6 bytes.
func (s *Signer) calculateSignature(f *frame.RawV2Frame) []byte {
	h := sha256.New()
	h.Write(s.cfg.SecretKey[:])
	h.Write(f.SignedPrefix())
	sum := h.Sum(nil)
	return sum[:6]
}

// currentTimestamp returns the number of 10-microsecond ticks since
// 2015-01-01T00:00:00Z, falling back to 0 if the wall clock reads before
// that epoch.
func currentTimestamp() uint64 {
	micros := time.Now().UnixMicro() - epochOffsetSeconds*1_000_000
	if micros < 0 {
		return 0
	}
	return uint64(micros) / 10
}

func hmacEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
