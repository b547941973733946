// Package metrics holds the application's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the application-specific Prometheus collectors.
var Registry = prometheus.NewRegistry()

var (
	// HTTPRequests counts handled HTTP requests by method, route and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "biomarkers",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPDuration observes request latency by method and route.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "biomarkers",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	// DeviceSyncs counts device sync runs by vendor and outcome.
	DeviceSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "biomarkers",
			Subsystem: "sync",
			Name:      "device_syncs_total",
			Help:      "Total number of device sync attempts.",
		},
		[]string{"vendor", "success"},
	)

	// ReadingsIngested counts readings persisted by sync, per biomarker kind.
	ReadingsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "biomarkers",
			Subsystem: "sync",
			Name:      "readings_ingested_total",
			Help:      "Total number of readings ingested from devices.",
		},
		[]string{"kind"},
	)

	// AlertsRaised counts alerts created from anomalies, per priority.
	AlertsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "biomarkers",
			Subsystem: "alerts",
			Name:      "raised_total",
			Help:      "Total number of alerts raised.",
		},
		[]string{"priority"},
	)
)

func init() {
	Registry.MustRegister(
		HTTPRequests,
		HTTPDuration,
		DeviceSyncs,
		ReadingsIngested,
		AlertsRaised,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
