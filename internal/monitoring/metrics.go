package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "gateway"

// Metrics holds every Prometheus series the pipeline drives (component
// C). It's constructed once per process and threaded into the pipeline
// so a fresh Pipeline built for a test gets its own registry instead of
// contending on the global default one.
//
// Grounded on jinterlante1206-AleutianLocal's observability.StreamingMetrics:
// promauto-registered CounterVec/HistogramVec/GaugeVec fields, specialised
// to the pipeline's own label set (method, outcome, result, type,
// reason, category).
type Metrics struct {
	registry *prometheus.Registry

	InvocationsTotal   *prometheus.CounterVec
	InvocationDuration *prometheus.HistogramVec
	CacheHitsTotal     *prometheus.CounterVec
	RateLimitHitsTotal *prometheus.CounterVec
	RetriesTotal       *prometheus.CounterVec
	BreakerTripsTotal  prometheus.Counter
	BreakerState       prometheus.Gauge
	ErrorsTotal        *prometheus.CounterVec
}

// NewMetrics builds and registers a fresh metrics set against its own
// registry, so concurrent tests never collide on duplicate registration
// with the process-wide default registerer.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		InvocationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "invocations_total",
			Help:      "Total pipeline invocations by method and outcome",
		}, []string{"method", "outcome"}),

		InvocationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "invocation_duration_seconds",
			Help:      "End-to-end invocation latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),

		CacheHitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_hits_total",
			Help:      "Cache lookups by method and hit/miss",
		}, []string{"method", "result"}),

		RateLimitHitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limit_hits_total",
			Help:      "Rate limit refusals by limiter type",
		}, []string{"type"}),

		RetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "retries_total",
			Help:      "Retry attempts by reason",
		}, []string{"reason"}),

		BreakerTripsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "breaker_trips_total",
			Help:      "Number of times the circuit breaker has opened",
		}),

		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "breaker_state",
			Help:      "Current breaker phase: 0=closed, 1=half-open, 2=open",
		}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Failed invocations by error category",
		}, []string{"category"}),
	}
	return m
}

// Handler returns the Prometheus text-exposition HTTP handler for
// GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
