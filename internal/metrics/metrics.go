// Package metrics provides Prometheus metrics for the quote relay.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotebot_pipeline_runs_total",
			Help: "Pipeline runs by terminal state",
		},
		[]string{"state"},
	)

	CollaboratorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotebot_collaborator_calls_total",
			Help: "Calls to external collaborators (sheets, ledger, messaging, assistant)",
		},
		[]string{"call", "status"},
	)

	CollaboratorCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quotebot_collaborator_call_duration_seconds",
			Help:    "Duration of calls to external collaborators",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"call"},
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotebot_webhook_events_total",
			Help: "Inbound webhook events by handling result",
		},
		[]string{"result"},
	)
)

// ObserveCall records one collaborator call.
func ObserveCall(call string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	CollaboratorCalls.WithLabelValues(call, status).Inc()
	CollaboratorCallDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())
}
