package store

import (
	"context"
	"errors"
	"time"

	"cafesched/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Orders, append-only per tenant
	AppendOrder(ctx context.Context, tenantID string, o model.Order) (model.StoredOrder, error)
	ListOrders(ctx context.Context, tenantID string) ([]model.StoredOrder, error)
	CountOrders(ctx context.Context, tenantID string) (int, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error)
	DeleteSubscription(ctx context.Context, tenantID, id string) error

	// Webhook deliveries
	EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
	ListWebhookDeliveries(ctx context.Context, tenantID, status string, limit int) ([]map[string]any, error)
	RetryWebhookDelivery(ctx context.Context, tenantID, id string) error
}

var ErrNotFound = errors.New("not found")

// Orders returns the plain orders of a tenant in submission order.
func Orders(ctx context.Context, s Store, tenantID string) ([]model.Order, error) {
	stored, err := s.ListOrders(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Order, len(stored))
	for i, so := range stored {
		out[i] = so.Order()
	}
	return out, nil
}
