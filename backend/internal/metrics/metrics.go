package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "suitemate"

// Metrics holds all Prometheus metrics for the matching service
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Population metrics
	UsersLoaded     prometheus.Gauge
	Communities     prometheus.Gauge
	GraphEdges      *prometheus.GaugeVec
	NetworkSeedTime prometheus.Histogram

	// Matching metrics
	MatchQueries *prometheus.CounterVec
	MatchResults *prometheus.HistogramVec
	Transitions  *prometheus.CounterVec

	// Store metrics
	StoreErrors *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. Passing a fresh
// registry keeps tests and multiple instances independent.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"route"},
		),

		UsersLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "users_loaded",
				Help:      "Number of users in the preference tree",
			},
		),
		Communities: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "match_communities",
				Help:      "Number of connected components of the match graph",
			},
		),
		GraphEdges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_edges",
				Help:      "Number of social graph edges by relation",
			},
			[]string{"relation"},
		),
		NetworkSeedTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "network_seed_duration_seconds",
				Help:      "Time spent building the tree and seeding the social graph",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),

		MatchQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "match_queries_total",
				Help:      "Total number of match lookups by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		MatchResults: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "match_results",
				Help:      "Number of candidates returned per lookup",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"kind"},
		),
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_transitions_total",
				Help:      "Total number of suggestion, request and accept transitions by outcome",
			},
			[]string{"transition", "outcome"},
		),

		StoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Total number of Neo4j store failures by operation",
			},
			[]string{"operation"},
		),
	}
}

// RecordRequest records one HTTP request
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordQuery records a match lookup and the number of candidates it found
func (m *Metrics) RecordQuery(kind string, results int, err error) {
	if err != nil {
		m.MatchQueries.WithLabelValues(kind, "error").Inc()
		return
	}
	m.MatchQueries.WithLabelValues(kind, "ok").Inc()
	m.MatchResults.WithLabelValues(kind).Observe(float64(results))
}

// RecordTransition records a graph state change attempt
func (m *Metrics) RecordTransition(transition string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	m.Transitions.WithLabelValues(transition, outcome).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
