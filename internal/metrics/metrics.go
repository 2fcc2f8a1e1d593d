package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CreationsTotal counts creation runs by origin and status
	CreationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_creations_total",
			Help: "Total number of account creation runs",
		},
		[]string{"origin", "status"},
	)

	// CreationDuration tracks creation run processing time
	CreationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "factory_creation_duration_seconds",
			Help:    "Creation run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"origin"},
	)

	// NextSequence tracks the next allocatable local account sequence
	NextSequence = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "factory_next_sequence",
			Help: "Next allocatable local account sequence",
		},
	)

	// RemoteRequestsTotal counts gateway request processing by status
	RemoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_remote_requests_total",
			Help: "Total number of processed remote creation requests",
		},
		[]string{"status"},
	)

	// PendingRemoteRequests tracks queued remote creation requests
	PendingRemoteRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "factory_pending_remote_requests",
			Help: "Number of queued remote creation requests",
		},
	)

	// ErrorsTotal counts errors by component and type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)
