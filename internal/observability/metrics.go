package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "savings"

// Metrics owns the service's prometheus collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	operations      *prometheus.CounterVec
	balanceMovement *prometheus.CounterVec
	settlements     *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	webhookQueue    prometheus.Gauge
	httpRequests    *prometheus.HistogramVec
}

// NewMetrics registers every collector, including the Go and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	metrics := &Metrics{
		registry: registry,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ledger_operations_total",
			Help:      "Ledger operations by operation, status and error kind.",
		}, []string{"operation", "status", "kind"}),
		balanceMovement: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "balance_movement_cents_total",
			Help:      "Committed balance movement in cents by operation and direction.",
		}, []string{"operation", "direction"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "settlements_total",
			Help:      "Settlement attempts by outcome.",
		}, []string{"outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries by result.",
		}, []string{"result"}),
		webhookQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "webhook_queue_depth",
			Help:      "Settlement jobs waiting for a webhook worker.",
		}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.operations,
		metrics.balanceMovement,
		metrics.settlements,
		metrics.webhookEvents,
		metrics.webhookQueue,
		metrics.httpRequests,
	)
	return metrics
}

// Handler exposes the registry in the prometheus text format.
func (metrics *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{Registry: metrics.registry})
}

// Registry returns the underlying registry.
func (metrics *Metrics) Registry() *prometheus.Registry {
	return metrics.registry
}

// LogOperation implements ledger.OperationLogger.
func (metrics *Metrics) LogOperation(_ context.Context, entry ledger.OperationLog) {
	kind := ""
	if entry.Error != nil {
		kind = string(ledger.KindOf(entry.Error))
	}
	metrics.operations.WithLabelValues(entry.Operation, entry.Status, kind).Inc()
	if entry.Operation == ledger.OperationSettleByReference && entry.Outcome != "" {
		metrics.settlements.WithLabelValues(entry.Outcome).Inc()
	}
	switch delta := entry.BalanceDelta.Int64(); {
	case delta > 0:
		metrics.balanceMovement.WithLabelValues(entry.Operation, "credit").Add(float64(delta))
	case delta < 0:
		metrics.balanceMovement.WithLabelValues(entry.Operation, "debit").Add(float64(-delta))
	}
}

// ObserveWebhook counts one webhook delivery.
func (metrics *Metrics) ObserveWebhook(result string) {
	metrics.webhookEvents.WithLabelValues(result).Inc()
}

// SetWebhookQueueDepth records the pending settlement jobs.
func (metrics *Metrics) SetWebhookQueueDepth(depth int) {
	metrics.webhookQueue.Set(float64(depth))
}

// ObserveHTTPRequest records one request's latency.
func (metrics *Metrics) ObserveHTTPRequest(route string, method string, statusCode int, elapsed time.Duration) {
	metrics.httpRequests.WithLabelValues(route, method, strconv.Itoa(statusCode)).Observe(elapsed.Seconds())
}
