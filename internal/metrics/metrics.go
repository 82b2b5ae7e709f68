// Package metrics defines Prometheus collectors for the orchestrator and its
// surrounding HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session lifecycle metrics
var (
	// SessionsCreated tracks sessions created since process start
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autofill_sessions_created_total",
			Help: "Total autofill sessions created",
		},
	)

	// SessionTransitions tracks lifecycle transitions by resulting status
	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autofill_session_transitions_total",
			Help: "Session lifecycle transitions by resulting status",
		},
		[]string{"status"},
	)

	// TransitionDuration tracks lifecycle transition latency in seconds
	TransitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autofill_transition_duration_seconds",
			Help:    "Lifecycle transition duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"transition"},
	)

	// ProvisionFailures tracks swallowed browser provisioning failures
	ProvisionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autofill_provision_failures_total",
			Help: "Browser launch/navigate failures during the go transition",
		},
	)
)

// Browser / frame streaming metrics
var (
	// ActiveBrowserHandles tracks live browser handles in the registry
	ActiveBrowserHandles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "browser_handles_active",
			Help: "Live browser handles currently held in the session registry",
		},
	)

	// FramesSent tracks frames pushed to viewers
	FramesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "frame_stream_frames_sent_total",
			Help: "Total screenshot frames pushed to viewers",
		},
	)

	// CaptureErrors tracks transient screenshot capture failures
	CaptureErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "frame_stream_capture_errors_total",
			Help: "Transient screenshot capture failures",
		},
	)

	// StreamViewers tracks currently connected frame stream viewers
	StreamViewers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "frame_stream_viewers_current",
			Help: "Currently connected frame stream viewers",
		},
	)
)

// Messaging metrics
var (
	// MessagesBroadcast tracks thread messages fanned out to subscribers
	MessagesBroadcast = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_broadcasts_total",
			Help: "Thread messages fanned out to websocket subscribers",
		},
	)

	// MessagingClients tracks currently connected thread subscribers
	MessagingClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "messaging_clients_current",
			Help: "Currently connected thread websocket subscribers",
		},
	)
)

// Database metrics
var (
	// DBQueryDuration tracks database query latency in seconds
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal tracks database errors by operation
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Database errors by operation",
		},
		[]string{"operation"},
	)
)
