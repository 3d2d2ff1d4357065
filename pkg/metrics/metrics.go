package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "asset_gateway"

// Metrics holds the gateway collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	sessionsOpened     prometheus.Counter
	sessionsClosed     prometheus.Counter
	sessionsActive     prometheus.Gauge
	invocations        *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	caOperations       *prometheus.CounterVec
	requestErrors      *prometheus.CounterVec
}

// New creates collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Gateway sessions opened.",
		}),
		sessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Gateway sessions released.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Gateway sessions currently open.",
		}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contract_invocations_total",
			Help:      "Contract submit/evaluate calls by operation and outcome.",
		}, []string{"operation", "kind", "outcome"}),
		invocationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "contract_invocation_duration_seconds",
			Help:      "Latency of contract submit/evaluate calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "kind"}),
		caOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ca_operations_total",
			Help:      "Certificate authority enroll/register calls by outcome.",
		}, []string{"operation", "outcome"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "Requests that failed, by error kind.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sessionsOpened,
		m.sessionsClosed,
		m.sessionsActive,
		m.invocations,
		m.invocationDuration,
		m.caOperations,
		m.requestErrors,
	)
	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsOpened.Inc()
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsClosed.Inc()
	m.sessionsActive.Dec()
}

func (m *Metrics) ObserveInvocation(operation, kind string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(operation, kind, outcome(err)).Inc()
	m.invocationDuration.WithLabelValues(operation, kind).Observe(elapsed.Seconds())
}

func (m *Metrics) CAOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.caOperations.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) RequestError(kind string) {
	if m == nil {
		return
	}
	m.requestErrors.WithLabelValues(kind).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
