// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntakeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_requests_total",
			Help: "Total number of intake requests by outcome",
		},
		[]string{"outcome"},
	)

	IntakeRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "intake_request_duration_seconds",
			Help: "Duration of intake request handling in seconds",
		},
	)

	CRMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_requests_total",
			Help: "Total number of outbound CRM requests by operation and status",
		},
		[]string{"operation", "status"},
	)

	PhotoUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_uploads_total",
			Help: "Total number of photo uploads by result",
		},
		[]string{"result"},
	)

	NotesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notes_created_total",
			Help: "Total number of CRM notes created for photo attachments",
		},
	)
)
