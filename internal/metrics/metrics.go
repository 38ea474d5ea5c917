package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)
	// RateLimited counts requests rejected by the limiter
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "http_rate_limited_total", Help: "Requests rejected with 429."},
	)

	OrdersAdded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "cafe_orders_added_total", Help: "Orders accepted."},
	)
	// UnrecognizedItems counts item tags that produce no task
	UnrecognizedItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cafe_unrecognized_items_total", Help: "Order items not on the menu."},
		[]string{"item"},
	)
	SchedulesBuilt = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cafe_schedules_built_total", Help: "Schedules computed by serve style."},
		[]string{"serve"},
	)
	// ScheduleSeconds observes the start time of the closing break, i.e. the total work time
	ScheduleSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "cafe_schedule_total_seconds", Help: "Total scheduled work time in seconds.", Buckets: prometheus.ExponentialBuckets(60, 2, 10)},
	)
	TasksScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cafe_tasks_scheduled_total", Help: "Tasks emitted by type."},
		[]string{"task_type"},
	)

	// WebhookDeliveries counts webhook delivery outcomes by event type and status
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	// WebhookLatency tracks webhook delivery latencies in milliseconds
	WebhookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(
			HTTPRequests, HTTPDuration, RateLimited,
			OrdersAdded, UnrecognizedItems, SchedulesBuilt, ScheduleSeconds, TasksScheduled,
			WebhookDeliveries, WebhookLatency,
		)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	RegisterDefault()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
