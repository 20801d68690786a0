package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	SignIns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_sign_ins_total",
			Help: "Sign-in attempts by outcome.",
		},
		[]string{"outcome"},
	)
	GatedSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_gated_sessions_total",
			Help: "Sessions ended because the account is not approved.",
		},
		[]string{"status"},
	)
	Reviews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_reviews_total",
			Help: "Admin decisions on requests and profiles.",
		},
		[]string{"subject", "decision"},
	)
	ActiveClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_active_clients",
			Help: "Portal clients currently held in memory.",
		},
	)
)

func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RequestCount, RequestDuration, SignIns, GatedSessions, Reviews, ActiveClients,
	)
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
