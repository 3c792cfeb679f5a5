package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pcap_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pcap_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: []float64{.01, .05, .1, .5, 1, 2, 2.5, 5, 10},
	}, []string{"method", "route"})
	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pcap_http_requests_in_flight",
		Help: "Number of HTTP requests currently being served",
	})
	analysesCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pcap_analyses_created_total",
		Help: "Total number of stored analyses by prediction label",
	}, []string{"prediction"})
	iocsObservedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pcap_iocs_observed_total",
		Help: "Total number of IOCs reported by threat level",
	}, []string{"level"})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,
		analysesCreatedTotal,
		iocsObservedTotal,
	)
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route string, status int, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// IncInFlight / DecInFlight track requests being served.
func IncInFlight() { httpRequestsInFlight.Inc() }
func DecInFlight() { httpRequestsInFlight.Dec() }

// ObserveAnalysis counts a stored analysis and its IOCs by threat level.
func ObserveAnalysis(a *domain.Analysis) {
	analysesCreatedTotal.WithLabelValues(a.Prediction).Inc()
	for _, ioc := range a.IOCs {
		iocsObservedTotal.WithLabelValues(domain.ThreatLevel(ioc.ThreatScore)).Inc()
	}
}
