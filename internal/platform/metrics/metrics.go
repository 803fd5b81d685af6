package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	DocumentsUploaded   prometheus.Counter
	DocumentsVerified   prometheus.Counter
	DocumentsExpired    prometheus.Counter
	ScansTotal          prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DocumentsUploaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "buildsync_documents_uploaded_total",
			Help: "Total number of compliance documents uploaded",
		}),
		DocumentsVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "buildsync_documents_verified_total",
			Help: "Total number of successful verification transitions",
		}),
		DocumentsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "buildsync_documents_expired_total",
			Help: "Total number of documents transitioned to expired by the scanner",
		}),
		ScansTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "buildsync_expiration_scans_total",
			Help: "Total number of expiration scans started",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "buildsync_notifications_sent_total",
			Help: "Total number of expiration notifications delivered",
		}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "buildsync_notifications_failed_total",
			Help: "Total number of expiration notifications that failed to send",
		}),
	}
}
