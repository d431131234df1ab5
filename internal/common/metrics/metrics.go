// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HookInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hook_invocations_total",
			Help: "Total number of after-calculation hook invocations by outcome",
		},
		[]string{"hook", "outcome"},
	)

	HookFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hook_failures_total",
			Help: "Total number of hook invocations that cancelled the calculation",
		},
		[]string{"hook", "error_code"},
	)

	HookDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hook_duration_seconds",
			Help:    "Duration of hook processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"hook"},
	)

	HookInvocationsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hook_invocations_active",
			Help: "Number of in-flight invocations per hook",
		},
		[]string{"hook"},
	)

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of payment provider calls by operation and status",
		},
		[]string{"operation", "status"},
	)
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeCancel  = "cancel"
)
