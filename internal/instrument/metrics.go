package instrument

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the site.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec   // HTTP requests by app, method, route, status
	RequestDuration   *prometheus.HistogramVec // HTTP latency by app and route
	OperationDuration *prometheus.HistogramVec // Span latency by source, component, action, status
	BusinessEvents    *prometheus.CounterVec   // Domain events by action and entity

	registry *prometheus.Registry
}

// NewMetrics creates the collectors and registers them with registry. A nil
// registry gets a fresh one with the Go and process collectors.
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	m := &Metrics{registry: registry}

	m.RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agency_http_requests_total",
			Help: "Total HTTP requests by application, method, route and status code",
		},
		[]string{"app", "method", "route", "status"},
	)
	m.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agency_http_request_duration_seconds",
			Help:    "HTTP request latency by application and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"app", "route"},
	)
	m.OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agency_operation_duration_seconds",
			Help:    "Duration of instrumented operations",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"source", "component", "action", "status"},
	)
	m.BusinessEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agency_business_events_total",
			Help: "Domain events such as saves, deletes and contact submissions",
		},
		[]string{"action", "entity"},
	)

	for _, c := range []prometheus.Collector{m.RequestsTotal, m.RequestDuration, m.OperationDuration, m.BusinessEvents} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// Registry returns the registry the metrics were registered with.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
