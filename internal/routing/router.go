// Package routing implements raw-frame MAVLink forwarding: per-link
// sequence rewriting and CRC repatching without parsing message payloads.
package routing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ampio/go-mavlink/internal/frame"
	"github.com/ampio/go-mavlink/internal/logging"
	"github.com/ampio/go-mavlink/internal/metrics"
	"github.com/ampio/go-mavlink/internal/transport"
)

// BackpressurePolicy controls what happens to a slow link's outbound queue
// once it fills.
type BackpressurePolicy int

const (
	// PolicyDrop silently discards the frame that would overflow the queue.
	PolicyDrop BackpressurePolicy = iota
	// PolicyKick removes the link from the router and stops its async
	// writer. The link's connection is not closed here and is not
	// reconnected.
	PolicyKick
)

// Link is one registered connection participating in routing.
type Link struct {
	ID   string
	conn transport.Connection
	tx   *transport.AsyncTx
	seq  atomic.Uint32

	closed chan struct{}
	once   sync.Once
}

func (l *Link) close() {
	l.once.Do(func() { close(l.closed) })
}

func (l *Link) nextSeq() uint8 { return uint8(l.seq.Add(1) - 1) }

// Router fans a frame received on one link out to every other registered
// link, rewriting the outbound sequence number and repatching the CRC in
// place so the original sender identity (sys/comp) is preserved while
// per-link sequence counters stay independent.
type Router struct {
	mu      sync.RWMutex
	links   map[string]*Link
	Policy  BackpressurePolicy
	BufSize int
}

// New creates a Router with the given backpressure policy and per-link
// outbound buffer size.
func New(policy BackpressurePolicy, bufSize int) *Router {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &Router{links: make(map[string]*Link), Policy: policy, BufSize: bufSize}
}

// AddLink registers conn under id and starts its async writer goroutine.
func (r *Router) AddLink(ctx context.Context, id string, conn transport.Connection) *Link {
	l := &Link{ID: id, conn: conn, closed: make(chan struct{})}
	l.tx = transport.NewAsyncTx(ctx, r.BufSize, func(fr *frame.RawV2Frame) error {
		_, err := conn.SendRaw(fr)
		return err
	}, transport.Hooks{
		OnError: func(err error) { metrics.IncError(metrics.ErrRouting) },
		OnDrop:  func() error { return errors.New("routing: link queue full") },
	})

	r.mu.Lock()
	prev := len(r.links)
	r.links[id] = l
	cur := len(r.links)
	r.mu.Unlock()
	metrics.SetRoutingActiveLinks(cur)
	if prev == 0 && cur == 1 {
		logging.L().Info("routing_first_link_added")
	}
	return l
}

// RemoveLink unregisters and closes the link's async writer; safe to call
// more than once.
func (r *Router) RemoveLink(id string) {
	r.mu.Lock()
	l, ok := r.links[id]
	if ok {
		delete(r.links, id)
	}
	cur := len(r.links)
	r.mu.Unlock()
	if !ok {
		return
	}
	l.close()
	l.tx.Close()
	metrics.SetRoutingActiveLinks(cur)
}

// snapshot returns every currently registered link except excludeID.
func (r *Router) snapshot(excludeID string) []*Link {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Link, 0, len(r.links))
	for id, l := range r.links {
		if id == excludeID {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Forward rewrites fr's sequence number for each destination link and
// repatches its CRC before enqueuing it on that link's async writer,
// honoring the router's backpressure policy when a link's queue is full.
// fr is read for every destination, so callers must not mutate it
// concurrently with Forward.
func (r *Router) Forward(fromID string, fr *frame.RawV2Frame, extraCRC uint8) {
	dests := r.snapshot(fromID)
	if len(dests) == 0 {
		return
	}

	maxDepth, sumDepth := 0, 0
	for _, l := range dests {
		copyFr := *fr
		copyFr.PatchSequence(l.nextSeq(), extraCRC)

		if err := l.tx.SendFrame(&copyFr); err != nil {
			switch r.Policy {
			case PolicyKick:
				metrics.IncRoutingKick()
				r.RemoveLink(l.ID)
			default:
				metrics.IncRoutingDrop()
			}
		}
		if d := l.tx.Len(); d > maxDepth {
			maxDepth = d
		}
		sumDepth += l.tx.Len()
	}
	metrics.SetQueueDepth(maxDepth, avg(sumDepth, len(dests)))
}

func avg(sum, n int) int {
	if n == 0 {
		return 0
	}
	return sum / n
}

// RunIngest reads raw frames from src's connection forever, forwarding
// each to every other registered link, until ctx is cancelled or the
// connection returns a fatal error. It also appends a dialect
// MessageSet lookup for the CRC_EXTRA byte needed to repatch each
// forwarded frame's checksum.
func (r *Router) RunIngest(ctx context.Context, srcID string, conn transport.Connection, ms frame.MessageSet) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res, err := conn.RecvRaw(ms)
		if err != nil {
			return err
		}
		if res.V2 == nil {
			// v1 frames carry no forward-safe sequence/CRC story worth
			// repatching in place; routing only moves v2 traffic.
			continue
		}
		extraCRC, ok := ms.ExtraCRC(res.V2.MessageID())
		if !ok {
			continue
		}
		r.Forward(srcID, res.V2, extraCRC)
	}
}
