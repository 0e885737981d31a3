package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Provider metrics
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
	ProviderBreakerState    *prometheus.GaugeVec

	// Webhook metrics
	WebhooksTotal           *prometheus.CounterVec
	WebhookUnknownStatus    *prometheus.CounterVec
	OrderPaymentTransitions *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg. A nil reg uses the
// default Prometheus registry.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "vestire"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "payment",
				Name:      "provider_requests_total",
				Help:      "Total number of payment provider API calls",
			},
			[]string{"provider", "operation", "outcome"}, // outcome: ok, provider_error, timeout, breaker_open
		),
		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "payment",
				Name:      "provider_request_duration_seconds",
				Help:      "Payment provider API call duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"provider", "operation"},
		),
		ProviderBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "payment",
				Name:      "provider_breaker_state",
				Help:      "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
			},
			[]string{"provider"},
		),

		WebhooksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "payment",
				Name:      "webhooks_total",
				Help:      "Total number of payment webhooks by result",
			},
			[]string{"provider", "result"},
		),
		WebhookUnknownStatus: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "payment",
				Name:      "webhook_unknown_status_total",
				Help:      "Webhooks carrying a provider status with no mapping",
			},
			[]string{"provider", "status"},
		),
		OrderPaymentTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "order",
				Name:      "payment_transitions_total",
				Help:      "Order payment status writes by resulting status",
			},
			[]string{"provider", "payment_status"},
		),
	}
}

// --- Convenience methods ---
// All methods are safe to call on a nil *Metrics.

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusStr := statusCodeToString(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordProviderRequest records a payment provider API call.
func (m *Metrics) RecordProviderRequest(provider, operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, operation, outcome).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// SetBreakerState records the circuit breaker state of a provider.
func (m *Metrics) SetBreakerState(provider string, state int) {
	if m == nil {
		return
	}
	m.ProviderBreakerState.WithLabelValues(provider).Set(float64(state))
}

// RecordWebhook records the outcome of a webhook delivery.
func (m *Metrics) RecordWebhook(provider, result string) {
	if m == nil {
		return
	}
	m.WebhooksTotal.WithLabelValues(provider, result).Inc()
}

// RecordUnknownStatus records a provider status with no mapping.
func (m *Metrics) RecordUnknownStatus(provider, status string) {
	if m == nil {
		return
	}
	m.WebhookUnknownStatus.WithLabelValues(provider, status).Inc()
}

// RecordPaymentTransition records an applied order payment status write.
func (m *Metrics) RecordPaymentTransition(provider, paymentStatus string) {
	if m == nil {
		return
	}
	m.OrderPaymentTransitions.WithLabelValues(provider, paymentStatus).Inc()
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
