package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwallet_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagwallet_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwallet_transfers_total",
			Help: "Transfers by payment type and final orchestrator state",
		},
		[]string{"payment_type", "state"},
	)

	TransferVolume = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwallet_transfer_volume_minor_total",
			Help: "Settled transfer amount in minor currency units",
		},
		[]string{"payment_type"},
	)

	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwallet_jobs_total",
			Help: "Job attempts by queue and result",
		},
		[]string{"queue", "result"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagwallet_job_duration_seconds",
			Help:    "Job handler duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"queue"},
	)

	ReconciledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagwallet_reconciled_total",
			Help: "Pending transfers resolved by the reconciler",
		},
		[]string{"status"},
	)
)

func RecordHTTPRequest(method, route, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
}

func RecordTransfer(paymentType, state string, amount int64, settled bool) {
	TransfersTotal.WithLabelValues(paymentType, state).Inc()
	if settled {
		TransferVolume.WithLabelValues(paymentType).Add(float64(amount))
	}
}

func RecordJob(queue, result string, duration float64) {
	JobsTotal.WithLabelValues(queue, result).Inc()
	JobDuration.WithLabelValues(queue).Observe(duration)
}

func RecordReconciled(status string) {
	ReconciledTotal.WithLabelValues(status).Inc()
}
