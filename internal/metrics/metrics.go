// Package metrics holds the Prometheus collectors exported by the pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Collaborator metrics
	CollaboratorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumos_collaborator_requests_total",
			Help: "Calls made to external collaborators by outcome",
		},
		[]string{"collaborator", "provider", "outcome"},
	)

	CollaboratorLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lumos_collaborator_request_duration_seconds",
			Help:    "Latency of external collaborator calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collaborator", "provider"},
	)

	// Pipeline metrics
	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumos_documents_processed_total",
			Help: "Documents processed by final status",
		},
		[]string{"status"},
	)

	DocumentsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lumos_documents_in_flight",
		Help: "Documents currently being processed",
	})

	Redactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumos_redactions_total",
			Help: "Tokens replaced by a redaction placeholder",
		},
		[]string{"category"},
	)

	Verdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumos_verdicts_total",
			Help: "Document verdicts produced",
		},
		[]string{"verdict"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumos_cache_hits_total",
			Help: "Number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumos_cache_misses_total",
			Help: "Number of cache misses",
		},
		[]string{"cache_type"},
	)
)

// ObserveCall records the outcome and latency of one collaborator call.
func ObserveCall(collaborator, provider string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	CollaboratorRequests.WithLabelValues(collaborator, provider, outcome).Inc()
	CollaboratorLatency.WithLabelValues(collaborator, provider).Observe(time.Since(start).Seconds())
}
