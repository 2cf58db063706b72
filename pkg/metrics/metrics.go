package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records admin login attempts by result (success|failure|locked).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseintake_auth_attempts_total",
			Help: "Total number of admin authentication attempts",
		},
		[]string{"result"},
	)

	// LeadsSubmitted counts leads created through the public intake.
	LeadsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "caseintake_leads_submitted_total",
			Help: "Total number of submitted leads",
		},
	)

	// ResumeUploads counts resume uploads by result (success|rejected|failure).
	ResumeUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseintake_resume_uploads_total",
			Help: "Total number of resume uploads",
		},
		[]string{"result"},
	)

	// LeadStatusChanges counts admin status transitions by target status.
	LeadStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseintake_lead_status_changes_total",
			Help: "Total number of lead status updates",
		},
		[]string{"status"},
	)

	// LeadsByStatus is refreshed periodically by the maintenance reporter.
	LeadsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "caseintake_leads_by_status",
			Help: "Number of stored leads per status",
		},
		[]string{"status"},
	)

	// StalePendingLeads counts pending leads older than the configured threshold.
	StalePendingLeads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "caseintake_stale_pending_leads",
			Help: "Number of pending leads not reached out to within the threshold",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "caseintake_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
