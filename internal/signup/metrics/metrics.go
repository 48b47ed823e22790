// Package metrics holds the Prometheus instruments for the signup flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts registration outcomes and upload volume.
type Metrics struct {
	RegistrationsStarted   prometheus.Counter
	RegistrationsSucceeded prometheus.Counter
	RegistrationsFailed    *prometheus.CounterVec
	DuplicatePhoneBlocked  prometheus.Counter
	DocumentsUploaded      prometheus.Counter
	SubmitDuration         prometheus.Histogram
}

// New creates and registers all signup metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "jiran_registrations_started_total",
			Help: "Registration submissions handed to the orchestrator.",
		}),
		RegistrationsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "jiran_registrations_succeeded_total",
			Help: "Registrations that provisioned a full identity set.",
		}),
		RegistrationsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jiran_registrations_failed_total",
			Help: "Registration failures by orchestration stage.",
		}, []string{"stage"}),
		DuplicatePhoneBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "jiran_duplicate_phone_blocked_total",
			Help: "Step-1 transitions blocked by the duplicate-phone lookup.",
		}),
		DocumentsUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "jiran_documents_uploaded_total",
			Help: "Registration documents uploaded to object storage.",
		}),
		SubmitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "jiran_registration_submit_duration_seconds",
			Help:    "Wall time of the full registration write sequence.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
