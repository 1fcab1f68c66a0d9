package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WebhookRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_requests_total",
			Help: "Total number of webhook deliveries received (count)",
		},
		[]string{"result"},
	)

	WebhookChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_changes_total",
			Help: "Total number of webhook changes dispatched, by field (count)",
		},
		[]string{"field"},
	)

	WebhookMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_messages_total",
			Help: "Total number of inbound messages processed, by outcome (count)",
		},
		[]string{"outcome"},
	)

	WebhookStatusesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_statuses_total",
			Help: "Total number of delivery status updates received, by status (count)",
		},
		[]string{"status"},
	)

	WhatsAppRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_api_requests_total",
			Help: "Total number of WhatsApp Cloud API calls, by operation and status code (count)",
		},
		[]string{"operation", "code"},
	)

	WhatsAppRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whatsapp_api_request_duration_ms",
			Help:    "WhatsApp Cloud API call duration in milliseconds",
			Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"operation"},
	)

	WhatsAppProviderUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "whatsapp_provider_up",
			Help: "Whether the last WhatsApp Cloud API probe succeeded (1) or failed (0)",
		},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		WebhookRequestsTotal,
		WebhookChangesTotal,
		WebhookMessagesTotal,
		WebhookStatusesTotal,
		WhatsAppRequestsTotal,
		WhatsAppRequestDuration,
		WhatsAppProviderUp,
		RateLimitRequestsTotal,
	)
}
