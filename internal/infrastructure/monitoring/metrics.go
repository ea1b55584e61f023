package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/turtacn/vaultgate/internal/domain/service"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	HTTPRequests       *prometheus.CounterVec
	HTTPLatency        *prometheus.HistogramVec
	HTTPActiveRequests *prometheus.GaugeVec

	AuthRequestsCreated *prometheus.CounterVec
	AuthDecisions       *prometheus.CounterVec
	AuthDecisionLatency prometheus.Histogram
	CipherOperations    *prometheus.CounterVec
	RateLimitHits       *prometheus.CounterVec
	Notifications       *prometheus.CounterVec
	WebsocketClients    prometheus.Gauge
	VaultAPILatency     *prometheus.HistogramVec
}

var _ service.Metrics = (*Metrics)(nil)

// NewMetrics creates the metrics and registers them with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates the metrics and registers them with reg.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultgate_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"path", "method", "status"},
		),
		HTTPLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaultgate_http_request_duration_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		HTTPActiveRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vaultgate_http_active_requests",
				Help: "Number of in-flight HTTP requests.",
			},
			[]string{"path", "method"},
		),
		AuthRequestsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultgate_auth_requests_created_total",
				Help: "Total number of login approval requests created.",
			},
			[]string{"platform", "result"},
		),
		AuthDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultgate_auth_request_decisions_total",
				Help: "Total number of decision submissions by outcome.",
			},
			[]string{"outcome"},
		),
		AuthDecisionLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vaultgate_auth_request_decision_latency_seconds",
				Help:    "Latency of decision submissions.",
				Buckets: prometheus.DefBuckets,
			},
		),
		CipherOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultgate_cipher_operations_total",
				Help: "Total number of cipher operations.",
			},
			[]string{"operation", "result"},
		),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultgate_rate_limit_hits_total",
				Help: "Total number of rate limit hits.",
			},
			[]string{"scope"},
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultgate_notifications_delivered_total",
				Help: "Total number of push notifications delivered to sessions.",
			},
			[]string{"type"},
		),
		WebsocketClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "vaultgate_websocket_clients",
				Help: "Number of connected notification sockets.",
			},
		),
		VaultAPILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaultgate_vault_api_latency_seconds",
				Help:    "Latency of HashiCorp Vault API calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "result"},
		),
	}
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (m *Metrics) ActiveRequestsInc(path, method string) {
	m.HTTPActiveRequests.WithLabelValues(path, method).Inc()
}

func (m *Metrics) ActiveRequestsDec(path, method string) {
	m.HTTPActiveRequests.WithLabelValues(path, method).Dec()
}

// ObserveRequest records the status and latency of a finished HTTP request.
func (m *Metrics) ObserveRequest(path, method string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(path, method).Observe(duration.Seconds())
}

func (m *Metrics) RecordAuthRequestCreated(platform string, success bool) {
	m.AuthRequestsCreated.WithLabelValues(platform, resultLabel(success)).Inc()
}

func (m *Metrics) RecordAuthRequestDecision(outcome string, duration time.Duration) {
	m.AuthDecisions.WithLabelValues(outcome).Inc()
	m.AuthDecisionLatency.Observe(duration.Seconds())
}

func (m *Metrics) RecordCipherOperation(operation string, success bool) {
	m.CipherOperations.WithLabelValues(operation, resultLabel(success)).Inc()
}

func (m *Metrics) RecordRateLimitHit(scope string) {
	m.RateLimitHits.WithLabelValues(scope).Inc()
}

func (m *Metrics) RecordNotification(notificationType string, delivered int) {
	m.Notifications.WithLabelValues(notificationType).Add(float64(delivered))
}

func (m *Metrics) RecordVaultAPI(operation string, duration time.Duration, err error) {
	m.VaultAPILatency.WithLabelValues(operation, resultLabel(err == nil)).Observe(duration.Seconds())
}

// SetWebsocketClients reports the number of connected notification sockets.
func (m *Metrics) SetWebsocketClients(n int) {
	m.WebsocketClients.Set(float64(n))
}
