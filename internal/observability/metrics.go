package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects request and domain counters in a Prometheus registry.
type Metrics struct {
	registry         *prometheus.Registry
	requests         *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec
	errors           *prometheus.CounterVec
	entitiesCreated  *prometheus.CounterVec
	lifecycle        *prometheus.CounterVec
	notesSigned      prometheus.Counter
	exports          prometheus.Counter
	upstreamFailures *prometheus.CounterVec
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deliverynote_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deliverynote_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deliverynote_http_errors_total",
			Help: "Error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		entitiesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deliverynote_entities_created_total",
			Help: "Created records by entity.",
		}, []string{"entity"}),
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deliverynote_lifecycle_transitions_total",
			Help: "Archive, restore and delete transitions by entity.",
		}, []string{"entity", "action"}),
		notesSigned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deliverynote_notes_signed_total",
			Help: "Delivery notes signed.",
		}),
		exports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deliverynote_exports_total",
			Help: "Delivery note documents rendered.",
		}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deliverynote_upstream_failures_total",
			Help: "Failed calls to collaborator services.",
		}, []string{"service"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestLatency,
		m.errors,
		m.entitiesCreated,
		m.lifecycle,
		m.notesSigned,
		m.exports,
		m.upstreamFailures,
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordCreated counts a created record.
func (m *Metrics) RecordCreated(entity string) {
	if m == nil {
		return
	}
	m.entitiesCreated.WithLabelValues(entity).Inc()
}

// RecordTransition counts an archive, restore or delete.
func (m *Metrics) RecordTransition(entity, action string) {
	if m == nil {
		return
	}
	m.lifecycle.WithLabelValues(entity, action).Inc()
}

// RecordSigned counts a signed delivery note.
func (m *Metrics) RecordSigned() {
	if m == nil {
		return
	}
	m.notesSigned.Inc()
}

// RecordExport counts a rendered document.
func (m *Metrics) RecordExport() {
	if m == nil {
		return
	}
	m.exports.Inc()
}

// RecordUpstreamFailure counts a failed collaborator call.
func (m *Metrics) RecordUpstreamFailure(service string) {
	if m == nil {
		return
	}
	m.upstreamFailures.WithLabelValues(service).Inc()
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
