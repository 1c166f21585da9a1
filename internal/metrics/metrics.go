// Package metrics holds Prometheus instruments that are used across the
// host.  All collectors are registered with the global registry, so
// mounting promhttp.Handler() on /metrics is enough to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SPAResolutions counts Static Resolver outcomes by kind
	// (file, index, rejected, not_found, unavailable).
	SPAResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spa_resolutions_total",
			Help: "Static path resolutions by outcome.",
		}, []string{"outcome"})

	// ProbeResults counts health probe results by probe and result
	// (healthy, unhealthy).
	ProbeResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_probe_results_total",
			Help: "Health probe results by probe and result.",
		}, []string{"probe", "result"})

	ProbeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "health_probe_duration_seconds",
			Help:    "Health probe latency.",
			Buckets: []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"probe"})

	StoreOpenErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "store_open_errors_total",
			Help: "Cumulative number of failed storage pool opens.",
		})
)

func init() {
	prometheus.MustRegister(
		SPAResolutions,
		ProbeResults,
		ProbeDuration,
		StoreOpenErrorsTotal,
	)
}
