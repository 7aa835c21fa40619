package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "oneclick"

// Metrics is safe to use through a nil pointer, which records nothing.
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Gateway Metrics
	GatewayCallsTotal   *prometheus.CounterVec
	GatewayCallDuration *prometheus.HistogramVec

	// Business Metrics
	InscriptionsTotal   *prometheus.CounterVec
	AuthorizationsTotal *prometheus.CounterVec
	DetailsTotal        *prometheus.CounterVec
	CapturesTotal       *prometheus.CounterVec
	RefundsTotal        *prometheus.CounterVec
	DivergencesTotal    *prometheus.CounterVec
	RecoveriesTotal     *prometheus.CounterVec

	// Database Metrics
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge
	DBConnectionErrors prometheus.Counter

	// Validation Metrics
	ValidationErrors *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
		HTTPResponseSizeBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   []float64{100, 1000, 10_000, 100_000, 1_000_000},
			},
			[]string{"method", "path", "status_code"},
		),

		GatewayCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_calls_total",
				Help:      "Calls to the payment gateway by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		GatewayCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_call_duration_seconds",
				Help:      "Duration of payment gateway calls in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),

		InscriptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inscriptions_total",
				Help:      "Inscription transitions by resulting status",
			},
			[]string{"status"},
		),
		AuthorizationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authorizations_total",
				Help:      "Mall authorizations by computed parent status",
			},
			[]string{"status"},
		),
		DetailsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authorization_details_total",
				Help:      "Authorized line items by status",
			},
			[]string{"status"},
		),
		CapturesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "captures_total",
				Help:      "Capture attempts by outcome",
			},
			[]string{"outcome"},
		),
		RefundsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refunds_total",
				Help:      "Refund attempts by outcome",
			},
			[]string{"outcome"},
		),
		DivergencesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_divergences_total",
				Help:      "Differences found between local state and the gateway",
			},
			[]string{"kind"},
		),
		RecoveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authorization_recoveries_total",
				Help:      "Authorizations persisted after a failed local write",
			},
			[]string{"outcome"},
		),

		DBConnectionsInUse: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_in_use",
				Help:      "Number of database connections currently in use",
			},
		),
		DBConnectionsIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_idle",
				Help:      "Number of idle database connections",
			},
		),
		DBConnectionErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_connection_errors_total",
				Help:      "Total number of database connection errors",
			},
		),

		ValidationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_errors_total",
				Help:      "Total number of validation errors",
			},
			[]string{"field", "tag"},
		),
	}
}

func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(duration.Seconds())
	m.HTTPResponseSizeBytes.WithLabelValues(method, path, statusCode).Observe(float64(responseSize))
}

func (m *Metrics) RecordGatewayCall(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.GatewayCallsTotal.WithLabelValues(operation, outcome).Inc()
	m.GatewayCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) RecordInscription(status string) {
	if m == nil {
		return
	}
	m.InscriptionsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordAuthorization(status string, detailStatuses []string) {
	if m == nil {
		return
	}
	m.AuthorizationsTotal.WithLabelValues(status).Inc()
	for _, s := range detailStatuses {
		m.DetailsTotal.WithLabelValues(s).Inc()
	}
}

func (m *Metrics) RecordCapture(outcome string) {
	if m == nil {
		return
	}
	m.CapturesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRefund(outcome string) {
	if m == nil {
		return
	}
	m.RefundsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordDivergence(kind string) {
	if m == nil {
		return
	}
	m.DivergencesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordRecovery(outcome string) {
	if m == nil {
		return
	}
	m.RecoveriesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordDBConnectionError() {
	if m == nil {
		return
	}
	m.DBConnectionErrors.Inc()
}

func (m *Metrics) RecordValidationError(field, tag string) {
	if m == nil {
		return
	}
	m.ValidationErrors.WithLabelValues(field, tag).Inc()
}
