// Package metrics exposes Prometheus metrics on a dedicated registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "haven"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is always 1; the build lives in its labels.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit"},
)

// Billing metrics
var (
	// WebhookEventsTotal counts Stripe events by type and outcome
	WebhookEventsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Total number of Stripe webhook events received",
		},
		[]string{"type", "outcome"}, // outcome: applied|ignored|rejected|error
	)

	// TierMappingMisses counts subscription prices that mapped to no tier
	TierMappingMisses = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tier_mapping_misses_total",
			Help:      "Subscription events whose price could not be mapped to a tier",
		},
	)
)

// Notification metrics
var (
	// EmailsTotal counts email deliveries by kind and outcome
	EmailsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Total number of email delivery attempts",
		},
		[]string{"kind", "outcome"}, // outcome: sent|retry|failed
	)

	// JobDuration records how long background jobs take
	JobDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Background job duration in seconds",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"type"},
	)
)

// Init registers runtime collectors and sets version information
func Init(version, commit string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	AppInfo.WithLabelValues(version, commit).Set(1)
}
