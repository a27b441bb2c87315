// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCRetries     *prometheus.CounterVec
	RPCErrors      *prometheus.CounterVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Analysis metrics
	AnalysisRunsTotal *prometheus.CounterVec
	AnalysisDuration  *prometheus.HistogramVec
	EventsReconciled  prometheus.Counter
	WalletsAggregated prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Monitor metrics
	MonitorSessions      prometheus.Gauge
	MonitorEventsEmitted prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solinsidefinder"
	}

	return &Metrics{
		// RPC metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_retries_total",
			Help:      "Total number of RPC retries by method",
		}, []string{"method"}),
		RPCErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_errors_total",
			Help:      "Total number of RPC errors by method and kind",
		}, []string{"method", "kind"}),

		// Cache metrics
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits by namespace",
		}, []string{"namespace"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses by namespace",
		}, []string{"namespace"}),

		// Analysis metrics
		AnalysisRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by endpoint and status",
		}, []string{"endpoint", "status"}),
		AnalysisDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis pipeline duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"endpoint"}),
		EventsReconciled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "events_reconciled_total",
			Help:      "Total number of transfer events reconciled",
		}),
		WalletsAggregated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "wallets_aggregated_total",
			Help:      "Total number of wallet states aggregated",
		}),

		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by path and status",
		}, []string{"path", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),

		// Monitor metrics
		MonitorSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "sessions",
			Help:      "Number of active monitor SSE sessions",
		}),
		MonitorEventsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "events_emitted_total",
			Help:      "Total number of monitor events pushed to clients",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordRPCRetry increments the retry counter for a method.
func RecordRPCRetry(method string) {
	DefaultMetrics.RPCRetries.WithLabelValues(method).Inc()
}

// RecordRPCError records an RPC error by kind.
func RecordRPCError(method, kind string) {
	DefaultMetrics.RPCErrors.WithLabelValues(method, kind).Inc()
}

// RecordCacheLookup records a cache hit or miss for a key namespace.
func RecordCacheLookup(namespace string, hit bool) {
	if hit {
		DefaultMetrics.CacheHits.WithLabelValues(namespace).Inc()
	} else {
		DefaultMetrics.CacheMisses.WithLabelValues(namespace).Inc()
	}
}

// RecordAnalysisRun records one analysis pipeline run.
func RecordAnalysisRun(endpoint, status string, durationSeconds float64) {
	DefaultMetrics.AnalysisRunsTotal.WithLabelValues(endpoint, status).Inc()
	DefaultMetrics.AnalysisDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordReconciled adds to the reconciled events and aggregated wallets
// counters.
func RecordReconciled(events, wallets int) {
	DefaultMetrics.EventsReconciled.Add(float64(events))
	DefaultMetrics.WalletsAggregated.Add(float64(wallets))
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(path, status string, seconds float64) {
	DefaultMetrics.HTTPRequestsTotal.WithLabelValues(path, status).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(path).Observe(seconds)
}

// MonitorSessionStarted marks a new SSE session.
func MonitorSessionStarted() {
	DefaultMetrics.MonitorSessions.Inc()
}

// MonitorSessionEnded marks an SSE session teardown.
func MonitorSessionEnded() {
	DefaultMetrics.MonitorSessions.Dec()
}

// RecordMonitorEvents adds to the emitted monitor events counter.
func RecordMonitorEvents(n int) {
	DefaultMetrics.MonitorEventsEmitted.Add(float64(n))
}
