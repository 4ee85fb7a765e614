package libs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry         *prometheus.Registry
	WebhookEvents    *prometheus.CounterVec
	CheckoutSessions *prometheus.CounterVec
	CartMerges       *prometheus.CounterVec
}

// NewMetrics registers the storefront counters on a private registry.
func NewMetrics() *Metrics {
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "payments",
		Name:      "webhook_events_total",
		Help:      "Payment processor webhook events by type and outcome.",
	}, []string{"type", "outcome"})
	checkoutSessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "sessions_total",
		Help:      "Checkout session creation attempts by result.",
	}, []string{"result"})
	cartMerges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "cart",
		Name:      "merges_total",
		Help:      "Session cart merges into account carts by result.",
	}, []string{"result"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		webhookEvents,
		checkoutSessions,
		cartMerges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:         registry,
		WebhookEvents:    webhookEvents,
		CheckoutSessions: checkoutSessions,
		CartMerges:       cartMerges,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveWebhook(eventType, outcome string) {
	m.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) ObserveCheckout(result string) {
	m.CheckoutSessions.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveMerge(result string) {
	m.CartMerges.WithLabelValues(result).Inc()
}
