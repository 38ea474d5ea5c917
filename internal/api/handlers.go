package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cafesched/internal/metrics"
	"cafesched/internal/model"
	"cafesched/internal/schedule"
	"cafesched/internal/store"
)

const maxBodyBytes = 1 << 20

// OrdersHandler handles POST/GET /v1/orders
func (s *Server) OrdersHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		p := s.getPrincipal(r)
		var in model.OrderIn
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		order, err := validateOrderIn(in)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid order", err.Error(), r.URL.Path)
			return
		}
		s.countUnrecognized(p.Tenant, order)
		stored, err := s.Store.AppendOrder(r.Context(), p.Tenant, order)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Add order failed", err.Error(), r.URL.Path)
			return
		}
		metrics.OrdersAdded.Inc()
		view, err := s.buildSchedule(r.Context(), p.Tenant, s.style)
		if err != nil {
			// the order is stored; a later GET /v1/schedule will pick it up
			s.Log.Error().Err(err).Str("tenant", p.Tenant).Msg("rebuild schedule after add")
		} else {
			s.announce(r.Context(), stored, view)
		}
		writeJSON(w, http.StatusCreated, map[string]any{"order": stored, "scheduleCount": view.Count})
	case http.MethodGet:
		p := s.getPrincipal(r)
		items, err := s.Store.ListOrders(r.Context(), p.Tenant)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List orders failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

// announce pushes the change to live subscribers and enqueues webhooks.
func (s *Server) announce(ctx context.Context, stored model.StoredOrder, view model.ScheduleView) {
	added := map[string]any{"orderId": stored.OrderID, "items": stored.Items, "seq": stored.Seq}
	updated := scheduleSummary(view)
	s.Broker.Publish(stored.TenantID, SSEEvent{Type: model.EventOrderAdded, Data: added})
	s.Broker.Publish(stored.TenantID, SSEEvent{Type: model.EventScheduleUpdated, Data: updated})
	s.Pub.Emit(ctx, stored.TenantID, model.EventOrderAdded, added)
	s.Pub.Emit(ctx, stored.TenantID, model.EventScheduleUpdated, updated)
}

func scheduleSummary(view model.ScheduleView) map[string]any {
	total := 0
	if n := len(view.Tasks); n > 0 {
		total = view.Tasks[n-1].Start()
	}
	return map[string]any{"orders": view.Orders, "count": view.Count, "totalSeconds": total, "tasks": view.Tasks}
}

func (s *Server) countUnrecognized(tenant string, o model.Order) {
	for _, it := range o.Items {
		if s.Config.Menu.Recognized(it) {
			continue
		}
		metrics.UnrecognizedItems.WithLabelValues(string(it)).Inc()
		s.Log.Debug().Str("tenant", tenant).Int("orderId", o.OrderID).Str("item", string(it)).Msg("unrecognized item ignored")
	}
}

func recordSchedule(style schedule.ServeStyle, tasks []model.Task) {
	metrics.SchedulesBuilt.WithLabelValues(style.String()).Inc()
	if n := len(tasks); n > 0 {
		metrics.ScheduleSeconds.Observe(float64(tasks[n-1].Start()))
	}
	for _, t := range tasks {
		metrics.TasksScheduled.WithLabelValues(string(t.Type)).Inc()
	}
}

// ScheduleHandler handles GET /v1/schedule
func (s *Server) ScheduleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	view, ok := s.scheduleFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// PrintableHandler handles GET /v1/schedule/printable
func (s *Server) PrintableHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	view, ok := s.scheduleFor(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(schedule.Render(view.Tasks)))
}

func (s *Server) scheduleFor(w http.ResponseWriter, r *http.Request) (model.ScheduleView, bool) {
	style, err := s.requestStyle(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid serve style", err.Error(), r.URL.Path)
		return model.ScheduleView{}, false
	}
	p := s.getPrincipal(r)
	view, err := s.buildSchedule(r.Context(), p.Tenant, style)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Build schedule failed", err.Error(), r.URL.Path)
		return model.ScheduleView{}, false
	}
	return view, true
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		req.TenantID = p.Tenant
		if err := validateSubscription(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", err.Error(), r.URL.Path)
			return
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		cursor := r.URL.Query().Get("cursor")
		items, next, err := s.Store.ListSubscriptions(r.Context(), p.Tenant, cursor, queryLimit(r))
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, "DELETE")
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	if err := s.Store.DeleteSubscription(r.Context(), p.Tenant, id); err != nil {
		if store.IsNotFound(err) {
			writeProblem(w, http.StatusNotFound, "Subscription not found", "", r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WebhookDeliveriesHandler handles GET /v1/admin/webhook-deliveries
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	items, err := s.Store.ListWebhookDeliveries(r.Context(), p.Tenant, r.URL.Query().Get("status"), queryLimit(r))
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List deliveries failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// WebhookDeliveryRetryHandler handles POST /v1/admin/webhook-deliveries/{id}/retry
func (s *Server) WebhookDeliveryRetryHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/")
	id, ok := strings.CutSuffix(rest, "/retry")
	if !ok || id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "POST")
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	if err := s.Store.RetryWebhookDelivery(r.Context(), p.Tenant, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Delivery not found", "", r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Retry delivery failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"accepted": 1})
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check store and broker connectivity when they are remote
	type pinger interface{ Ping(ctx context.Context) error }
	for name, dep := range map[string]any{"store": s.Store, "broker": s.Broker} {
		pg, ok := dep.(pinger)
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		err := pg.Ping(ctx)
		cancel()
		if err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", name+": "+err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func queryLimit(r *http.Request) int {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return limit
}
