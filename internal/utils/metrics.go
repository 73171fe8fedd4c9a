package utils

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tracks performance metrics across the system
type MetricsCollector struct {
	registry *prometheus.Registry

	requests  prometheus.Counter
	errors    *prometheus.CounterVec
	latencies *prometheus.HistogramVec
	events    *prometheus.CounterVec
	online    prometheus.Gauge

	systemStartTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mentorlink",
			Name:      "requests_total",
			Help:      "Handled API requests.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorlink",
			Name:      "errors_total",
			Help:      "Failures by origin.",
		}, []string{"origin"}),
		latencies: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mentorlink",
			Name:      "operation_duration_seconds",
			Help:      "Latency of messaging operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorlink",
			Name:      "realtime_events_total",
			Help:      "Realtime events by name and outcome.",
		}, []string{"event", "outcome"}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mentorlink",
			Name:      "online_accounts",
			Help:      "Accounts holding a registered realtime connection.",
		}),
		systemStartTime: time.Now(),
	}
	mc.registry.MustRegister(
		mc.requests,
		mc.errors,
		mc.latencies,
		mc.events,
		mc.online,
		collectors.NewGoCollector(),
	)
	return mc
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.requests.Inc()
}

// IncrementErrors counts a failure attributed to origin (an operation or hook name).
func (mc *MetricsCollector) IncrementErrors(origin string) {
	mc.errors.WithLabelValues(origin).Inc()
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.latencies.WithLabelValues(operationName).Observe(duration.Seconds())
}

// RecordEvent counts a realtime event; outcome is "delivered", "dropped" or "relayed".
func (mc *MetricsCollector) RecordEvent(event, outcome string) {
	mc.events.WithLabelValues(event, outcome).Inc()
}

func (mc *MetricsCollector) SetOnlineAccounts(n int) {
	mc.online.Set(float64(n))
}

func (mc *MetricsCollector) Uptime() time.Duration {
	return time.Since(mc.systemStartTime)
}

// Handler exposes the collector in the Prometheus text format.
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}
