package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/ampio/go-mavlink/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters
var (
	FramesDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mavlink_frames_decoded_total",
		Help: "Total frames successfully decoded, by protocol version.",
	}, []string{"version"})
	FramesEncoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mavlink_frames_encoded_total",
		Help: "Total frames successfully encoded, by protocol version.",
	}, []string{"version"})
	CRCFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavlink_crc_failures_total",
		Help: "Total frames discarded due to CRC mismatch.",
	})
	ResyncEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavlink_resync_events_total",
		Help: "Total single-byte advances performed while resynchronizing on a stream.",
	})
	UnknownIncompatFlags = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavlink_unknown_incompat_flags_total",
		Help: "Total v2 frames discarded due to unknown incompatibility flag bits.",
	})
	UnknownMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavlink_unknown_messages_total",
		Help: "Total frames whose message id is not part of the active dialect.",
	})
	SignaturesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavlink_signatures_accepted_total",
		Help: "Total v2 frames whose signature verified successfully.",
	})
	SignaturesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mavlink_signatures_rejected_total",
		Help: "Total v2 frames rejected by the signer, by reason.",
	}, []string{"reason"})
	UnsignedDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavlink_unsigned_discarded_total",
		Help: "Total unsigned v2 frames discarded because signing policy disallows them.",
	})
	RoutingDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavlink_routing_drops_total",
		Help: "Total frames dropped by the router due to a full link queue.",
	})
	RoutingKicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavlink_routing_kicks_total",
		Help: "Total links disconnected by the router's kick backpressure policy.",
	})
	RoutingActiveLinks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mavlink_routing_active_links",
		Help: "Current number of links registered with the router.",
	})
	RoutingQueueDepthMax = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mavlink_routing_queue_depth_max",
		Help: "Observed max queued frames among links since the last sample window.",
	})
	RoutingQueueDepthAvg = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mavlink_routing_queue_depth_avg",
		Help: "Approximate average queued frames per link in the last sample window.",
	})
	TransportRx = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mavlink_transport_rx_frames_total",
		Help: "Total frames received, by transport kind.",
	}, []string{"transport"})
	TransportTx = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mavlink_transport_tx_frames_total",
		Help: "Total frames sent, by transport kind.",
	}, []string{"transport"})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality)
const (
	ErrTCPRead     = "tcp_read"
	ErrTCPWrite    = "tcp_write"
	ErrUDPRead     = "udp_read"
	ErrUDPWrite    = "udp_write"
	ErrSerialRead  = "serial_read"
	ErrSerialWrite = "serial_write"
	ErrFileRead    = "file_read"
	ErrRouting     = "routing"
)

// StartHTTP serves Prometheus metrics at /metrics and the readiness probe
// at /ready on a new mux listening on addr, and returns the server.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters for easy logging (avoid Prometheus scraping in-process)
var (
	localResync      uint64
	localCRCFail     uint64
	localUnknownMsg  uint64
	localErrors      uint64
	localRoutingDrop uint64
	localRoutingKick uint64
	localLinks       uint64
	localQDMax       uint64
	localQDAvg       uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	Resync         uint64
	CRCFailures    uint64
	UnknownMessage uint64
	Errors         uint64
	RoutingDrops   uint64
	RoutingKicks   uint64
	ActiveLinks    uint64
	QueueDepthMax  uint64
	QueueDepthAvg  uint64
}

func Snap() Snapshot {
	return Snapshot{
		Resync:         atomic.LoadUint64(&localResync),
		CRCFailures:    atomic.LoadUint64(&localCRCFail),
		UnknownMessage: atomic.LoadUint64(&localUnknownMsg),
		Errors:         atomic.LoadUint64(&localErrors),
		RoutingDrops:   atomic.LoadUint64(&localRoutingDrop),
		RoutingKicks:   atomic.LoadUint64(&localRoutingKick),
		ActiveLinks:    atomic.LoadUint64(&localLinks),
		QueueDepthMax:  atomic.LoadUint64(&localQDMax),
		QueueDepthAvg:  atomic.LoadUint64(&localQDAvg),
	}
}

// IncResync records one resynchronization advance.
func IncResync() {
	ResyncEvents.Inc()
	atomic.AddUint64(&localResync, 1)
}

// IncCRCFailure records one CRC mismatch.
func IncCRCFailure() {
	CRCFailures.Inc()
	atomic.AddUint64(&localCRCFail, 1)
}

// IncUnknownIncompat records one v2 frame dropped for an unknown
// incompatibility flag bit.
func IncUnknownIncompat() { UnknownIncompatFlags.Inc() }

// IncUnknownMessage records one frame whose message id was not recognized.
func IncUnknownMessage() {
	UnknownMessages.Inc()
	atomic.AddUint64(&localUnknownMsg, 1)
}

// IncDecoded records one successfully decoded frame of the given version.
func IncDecoded(version string) { FramesDecoded.WithLabelValues(version).Inc() }

// IncEncoded records one successfully encoded frame of the given version.
func IncEncoded(version string) { FramesEncoded.WithLabelValues(version).Inc() }

// IncSignatureAccepted records one accepted signature verification.
func IncSignatureAccepted() { SignaturesAccepted.Inc() }

// IncSignatureRejected records one rejected signature verification, by reason.
func IncSignatureRejected(reason string) { SignaturesRejected.WithLabelValues(reason).Inc() }

// IncUnsignedDiscarded records one unsigned frame discarded by policy.
func IncUnsignedDiscarded() { UnsignedDiscarded.Inc() }

func IncRoutingDrop() {
	RoutingDrops.Inc()
	atomic.AddUint64(&localRoutingDrop, 1)
}

func IncRoutingKick() {
	RoutingKicks.Inc()
	atomic.AddUint64(&localRoutingKick, 1)
}

func SetRoutingActiveLinks(n int) {
	RoutingActiveLinks.Set(float64(n))
	atomic.StoreUint64(&localLinks, uint64(n))
}

// SetQueueDepth records a snapshot of max and avg link queue depth.
func SetQueueDepth(max, avg int) {
	RoutingQueueDepthMax.Set(float64(max))
	RoutingQueueDepthAvg.Set(float64(avg))
	atomic.StoreUint64(&localQDMax, uint64(max))
	atomic.StoreUint64(&localQDAvg, uint64(avg))
}

// IncTransportRx records one frame received over the named transport kind.
func IncTransportRx(transport string) { TransportRx.WithLabelValues(transport).Inc() }

// IncTransportTx records one frame sent over the named transport kind.
func IncTransportTx(transport string) { TransportTx.WithLabelValues(transport).Inc() }

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	// Pre-register common error label series so the first error doesn't pay registration latency.
	for _, lbl := range []string{
		ErrTCPRead, ErrTCPWrite, ErrUDPRead, ErrUDPWrite,
		ErrSerialRead, ErrSerialWrite, ErrFileRead, ErrRouting,
	} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil { // if not set yet, treat as ready so metrics endpoint doesn't flap
		return true
	}
	return fn()
}

// Ready is a concise alias used at call sites.
func Ready() bool { return IsReady() }
