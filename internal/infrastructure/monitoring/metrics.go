package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dockerhttp"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Service call metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec
	ServiceErrors   *prometheus.CounterVec
	CallsInFlight   prometheus.Gauge

	// Demo mode metrics
	DemoCalls *prometheus.CounterVec

	// Transport metrics
	TransferredBytes *prometheus.CounterVec

	// Mock server metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. A nil reg uses the default
// Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "service_calls_total",
				Help:      "Total number of completed service calls",
			},
			[]string{"service", "method", "outcome"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "service_call_duration_seconds",
				Help:      "Service call duration from dispatch to completion",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "method"},
		),
		ServiceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "service_call_errors_total",
				Help:      "Total number of failed service calls by error kind",
			},
			[]string{"service", "method", "kind"},
		),
		CallsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "calls_in_flight",
				Help:      "Service calls dispatched but not yet completed",
			},
		),
		DemoCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "demo_calls_total",
				Help:      "Total number of calls answered from demo fixtures",
			},
			[]string{"outcome"},
		),
		TransferredBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transferred_bytes_total",
				Help:      "Bytes moved by the HTTP transport",
			},
			[]string{"direction"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mock_http_requests_total",
				Help:      "Total number of HTTP requests served by the mock API",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mock_http_request_duration_seconds",
				Help:      "Mock API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// CallStarted marks a call as in flight.
func (m *Metrics) CallStarted() {
	m.CallsInFlight.Inc()
}

// RecordServiceCall records a completed service call
func (m *Metrics) RecordServiceCall(service, method, outcome string, duration time.Duration) {
	m.CallsInFlight.Dec()
	m.ServiceCalls.WithLabelValues(service, method, outcome).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordServiceError records a service call failure
func (m *Metrics) RecordServiceError(service, method, kind string) {
	m.ServiceErrors.WithLabelValues(service, method, kind).Inc()
}

// RecordDemoCall records a simulated call
func (m *Metrics) RecordDemoCall(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.DemoCalls.WithLabelValues(outcome).Inc()
}

// RecordTransfer records bytes sent ("upload") or received ("download").
func (m *Metrics) RecordTransfer(direction string, n int64) {
	if n > 0 {
		m.TransferredBytes.WithLabelValues(direction).Add(float64(n))
	}
}

// RecordHTTPRequest records a request served by the mock API
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
