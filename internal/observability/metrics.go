package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// Upstream call rate by endpoint (current, icon, history, geolocation). Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// Upstream latency per request. A lookup runs up to 7 of these back to back.
	WeatherAPIDuration *prometheus.HistogramVec

	// Time spent waiting on the outbound limiter before a call is sent.
	RateLimitWaitSeconds prometheus.Histogram

	// User-triggered operations by outcome (success, validation, not_found, error).
	LookupsTotal *prometheus.CounterVec

	// Trailing days for which the history endpoint returned no temperature.
	ChartDaysMissingTotal prometheus.Counter

	// Current number of entries in the recent-searches list.
	HistorySize prometheus.Gauge

	// Requests to the local status server (/health, /history, /metrics).
	HTTPRequestsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of upstream API calls",
		},
		[]string{"endpoint", "status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "Upstream API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)
	RateLimitWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rateLimitWaitSeconds",
			Help:    "Time spent waiting for the outbound rate limiter",
			Buckets: []float64{.001, .01, .1, .5, 1, 5},
		},
	)
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookupsTotal",
			Help: "Total number of user-triggered operations by outcome",
		},
		[]string{"operation", "outcome"},
	)
	ChartDaysMissingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chartDaysMissingTotal",
			Help: "Trailing days skipped because no temperature was returned",
		},
	)
	HistorySize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "historySize",
			Help: "Number of entries in the recent searches list",
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of requests to the local metrics server",
		},
		[]string{"route", "status"},
	)

	registry.MustRegister(
		WeatherAPICallsTotal, WeatherAPIDuration, RateLimitWaitSeconds,
		LookupsTotal, ChartDaysMissingTotal, HistorySize, HTTPRequestsTotal,
	)
}

// RecordLookup counts one user-triggered operation.
func RecordLookup(operation, outcome string) {
	LookupsTotal.WithLabelValues(operation, outcome).Inc()
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
