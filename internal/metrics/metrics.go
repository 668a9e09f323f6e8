// Package metrics defines the Prometheus collectors exported by hermes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hermes"

// Metrics groups every collector the service updates.
type Metrics struct {
	// Geocoding worker.
	TaskProcessed  *prometheus.CounterVec
	APIErrors      prometheus.Counter
	RequestSeconds *prometheus.HistogramVec
	ActiveWorkers  prometheus.Gauge
	CacheLookups   *prometheus.CounterVec

	// Route planning.
	ClusteringRuns    *prometheus.CounterVec
	ClusteringSeconds prometheus.Histogram
	ClustersFormed    prometheus.Histogram
	PointsClustered   prometheus.Counter

	// HTTP API.
	HTTPRequestSeconds *prometheus.HistogramVec
}

// New registers the hermes collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TaskProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocoding_tasks_processed_total",
			Help:      "Total number of processed geocoding tasks.",
		}, []string{"status"}),
		APIErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocoding_provider_api_errors_total",
			Help:      "Total number of errors received from the geocoding provider API.",
		}),
		RequestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocoding_provider_request_duration_seconds",
			Help:      "Duration of requests to the geocoding provider API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocoding_active_workers",
			Help:      "Current number of active workers processing tasks.",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocoding_cache_lookups_total",
			Help:      "Geocode cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		ClusteringRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clustering_runs_total",
			Help:      "Number of clustering runs by point source.",
		}, []string{"source"}),
		ClusteringSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clustering_duration_seconds",
			Help:      "Time spent clustering points into routes.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		ClustersFormed: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clusters_formed",
			Help:      "Number of routes produced per clustering run.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		PointsClustered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_clustered_total",
			Help:      "Total number of stops assigned to routes.",
		}),
		HTTPRequestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}
