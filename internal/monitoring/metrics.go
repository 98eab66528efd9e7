// Package monitoring exposes prometheus metrics for the gate's two hot
// paths: scanner authentication and ticket validation.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_validations_total",
			Help: "Total ticket validation attempts by verdict",
		},
		[]string{"result"},
	)

	scannerAuth = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_auth_total",
			Help: "Total scanner authentication attempts by outcome",
		},
		[]string{"result"},
	)

	validationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticket_validation_duration_seconds",
			Help:    "Duration of ticket validation calls",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

// RecordValidation counts one validation attempt and its latency.
func RecordValidation(result string, d time.Duration) {
	ticketValidations.WithLabelValues(result).Inc()
	validationDuration.Observe(d.Seconds())
}

// RecordAuth counts one scanner authentication attempt.
func RecordAuth(result string) {
	scannerAuth.WithLabelValues(result).Inc()
}
