package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	bytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "indictl",
			Subsystem: "wire",
			Name:      "bytes_total",
			Help:      "Bytes moved over the INDI connection.",
		},
		[]string{"direction"},
	)
	framesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "indictl",
			Subsystem: "wire",
			Name:      "frames_total",
			Help:      "Complete top-level elements produced by the framer.",
		},
	)
	framerResyncs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "indictl",
			Subsystem: "wire",
			Name:      "framer_resyncs_total",
			Help:      "Malformed elements discarded by the framer.",
		},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "indictl",
			Subsystem: "decoder",
			Name:      "errors_total",
			Help:      "Elements rejected by the event decoder.",
		},
		[]string{"tag"},
	)
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "indictl",
			Subsystem: "decoder",
			Name:      "events_total",
			Help:      "Events delivered to the client handler.",
		},
		[]string{"type"},
	)
	sessionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "indictl",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session lifecycle transitions (connect attempts, failures, liveness closes).",
		},
		[]string{"kind"},
	)
	connectedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "indictl",
			Subsystem: "session",
			Name:      "connected",
			Help:      "1 while a session is connected.",
		},
	)
)

const (
	SessionConnectAttempt = "connect_attempt"
	SessionConnectFailed  = "connect_failed"
	SessionConnected      = "connected"
	SessionLost           = "lost"
	SessionLivenessClose  = "liveness_close"
	SessionVectorTimeout  = "vector_timeout"
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			bytesTotal,
			framesTotal,
			framerResyncs,
			decodeErrors,
			eventsTotal,
			sessionEvents,
			connectedGauge,
		)
	})
}

func RecordBytesRead(n int) {
	RegisterMetrics()
	bytesTotal.WithLabelValues("rx").Add(float64(n))
}

func RecordBytesWritten(n int) {
	RegisterMetrics()
	bytesTotal.WithLabelValues("tx").Add(float64(n))
}

func RecordFrame() {
	RegisterMetrics()
	framesTotal.Inc()
}

func RecordFramerResync() {
	RegisterMetrics()
	framerResyncs.Inc()
}

func RecordDecodeError(tag string) {
	RegisterMetrics()
	decodeErrors.WithLabelValues(tag).Inc()
}

func RecordEvent(eventType string) {
	RegisterMetrics()
	eventsTotal.WithLabelValues(eventType).Inc()
}

func RecordSession(kind string) {
	RegisterMetrics()
	sessionEvents.WithLabelValues(kind).Inc()
}

func SetConnected(connected bool) {
	RegisterMetrics()
	if connected {
		connectedGauge.Set(1)
		return
	}
	connectedGauge.Set(0)
}
