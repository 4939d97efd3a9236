package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scantrack",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	scansAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scantrack",
			Name:      "scans_accepted_total",
			Help:      "Scans accepted by path (online or offline).",
		},
		[]string{"path"},
	)

	scansSynced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scantrack",
			Name:      "scans_synced_total",
			Help:      "Queued scans acknowledged during drains.",
		},
	)

	drainFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scantrack",
			Name:      "drain_failures_total",
			Help:      "Drain halts by reason (transport or domain_reject).",
		},
		[]string{"reason"},
	)

	scansRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scantrack",
			Name:      "scans_rejected_total",
			Help:      "Server-side scan rejections by reason.",
		},
		[]string{"reason"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, scansAccepted, scansSynced, drainFailures, scansRejected)
	})
}

func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

func IncScansAccepted(path string) {
	scansAccepted.WithLabelValues(path).Inc()
}

func IncScansSynced() {
	scansSynced.Inc()
}

func IncDrainFailure(reason string) {
	drainFailures.WithLabelValues(reason).Inc()
}

func IncScanRejected(reason string) {
	scansRejected.WithLabelValues(reason).Inc()
}
