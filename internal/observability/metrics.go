package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "relay"

// OutboundRecorder observes calls to upstream APIs.
type OutboundRecorder interface {
	OutboundRequest(target, outcome string, duration time.Duration)
}

// Metrics holds the relay's Prometheus collectors on a private registry.
type Metrics struct {
	registry         *prometheus.Registry
	webhookEvents    *prometheus.CounterVec
	ticketRequests   *prometheus.CounterVec
	outboundRequests *prometheus.CounterVec
	outboundDuration *prometheus.HistogramVec
}

// NewMetrics registers the relay collectors plus Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "webhook_events_total",
			Help:      "Helpdesk webhook requests by outcome",
		}, []string{"outcome"}),
		ticketRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ticket_requests_total",
			Help:      "Ticket creation requests by outcome",
		}, []string{"outcome"}),
		outboundRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "outbound_requests_total",
			Help:      "Upstream API calls by target and outcome",
		}, []string{"target", "outcome"}),
		outboundDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "outbound_duration_seconds",
			Help:      "Upstream API call latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"target"}),
	}
	m.registry.MustRegister(
		m.webhookEvents,
		m.ticketRequests,
		m.outboundRequests,
		m.outboundDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// WebhookEvent counts one helpdesk webhook by outcome. A nil Metrics is a no-op.
func (m *Metrics) WebhookEvent(outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(outcome).Inc()
}

// TicketRequest counts one ticket-creation request by outcome.
func (m *Metrics) TicketRequest(outcome string) {
	if m == nil {
		return
	}
	m.ticketRequests.WithLabelValues(outcome).Inc()
}

// OutboundRequest counts a call to target and records its latency.
func (m *Metrics) OutboundRequest(target, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.outboundRequests.WithLabelValues(target, outcome).Inc()
	m.outboundDuration.WithLabelValues(target).Observe(duration.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
