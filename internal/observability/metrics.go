package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	PageLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_loads_total",
			Help: "Public page loads by outcome",
		},
		[]string{"outcome"},
	)

	PageLoadRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "page_load_retries_total",
			Help: "Page load attempts beyond the first",
		},
	)

	PageLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "page_load_duration_seconds",
			Help:    "Wall time of a page load including retries",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
	)

	OptionalFetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optional_fetch_failures_total",
			Help: "Absorbed failures of best-effort reads",
		},
		[]string{"source"},
	)

	LinkClicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_clicks_total",
			Help: "Click tracking calls by result",
		},
		[]string{"result"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_webhook_events_total",
			Help: "Stripe webhook events by type and result",
		},
		[]string{"type", "result"},
	)

	OutboxPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outbox_published_total",
			Help: "Outbox rows delivered to Kafka",
		},
	)
)
