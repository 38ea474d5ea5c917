package api

import (
	"net/http"

	"cafesched/internal/metrics"
)

// Routes returns the service's HTTP handler with middleware applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Orders and schedule
	mux.HandleFunc("/v1/orders", s.OrdersHandler)
	mux.HandleFunc("/v1/schedule", s.ScheduleHandler)
	mux.HandleFunc("/v1/schedule/printable", s.PrintableHandler)
	mux.HandleFunc("/v1/schedule/stream", s.ScheduleStreamHandler)
	mux.HandleFunc("/v1/schedule/ws", s.ScheduleWSHandler)

	// Webhook subscriptions
	mux.HandleFunc("/v1/subscriptions", s.SubscriptionsHandler)
	mux.HandleFunc("/v1/subscriptions/", s.SubscriptionByIDHandler)

	// Admin
	mux.HandleFunc("/v1/admin/webhook-deliveries", s.WebhookDeliveriesHandler)
	mux.HandleFunc("/v1/admin/webhook-deliveries/", s.WebhookDeliveryRetryHandler)

	// Ops
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/debug/info", s.DebugJSON)

	// Docs
	mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)
	mux.HandleFunc("/openapi.json", s.OpenAPIHandler)
	mux.HandleFunc("/docs", s.DocsHandler)

	limited := rateLimit(s.Config.Server.RateRPS, s.Config.Server.RateBurst, mux)
	return logMiddleware(s.Log, limited)
}
