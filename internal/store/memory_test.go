package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"cafesched/internal/model"
)

func TestMemoryOrders(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	items := []model.ItemType{model.Sandwich, model.Snack}
	first, err := m.AppendOrder(ctx, "t1", model.Order{OrderID: 34, Items: items})
	if err != nil {
		t.Fatalf("AppendOrder: %v", err)
	}
	if _, err := m.AppendOrder(ctx, "t1", model.Order{OrderID: 34}); err != nil {
		t.Fatalf("duplicate id must be accepted: %v", err)
	}
	if _, err := m.AppendOrder(ctx, "t2", model.Order{OrderID: 1}); err != nil {
		t.Fatal(err)
	}
	items[0] = model.Drink

	got, err := m.ListOrders(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Seq != first.Seq || got[1].Seq <= got[0].Seq {
		t.Fatalf("unexpected orders: %+v", got)
	}
	if got[0].Items[0] != model.Sandwich {
		t.Fatalf("stored items alias the caller's slice")
	}
	if n, _ := m.CountOrders(ctx, "t2"); n != 1 {
		t.Fatalf("tenant isolation broken: t2 has %d orders", n)
	}

	orders, err := Orders(ctx, m, "t1")
	if err != nil || len(orders) != 2 || orders[1].OrderID != 34 || len(orders[1].Items) != 0 {
		t.Fatalf("Orders: %+v %v", orders, err)
	}
}

func TestMemorySubscriptions(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a, _ := m.CreateSubscription(ctx, model.SubscriptionRequest{TenantID: "t1", URL: "http://a", Events: []string{model.EventOrderAdded}})
	_, _ = m.CreateSubscription(ctx, model.SubscriptionRequest{TenantID: "t1", URL: "http://b", Events: []string{"*"}})
	_, _ = m.CreateSubscription(ctx, model.SubscriptionRequest{TenantID: "t1", URL: "http://c", Events: []string{model.EventScheduleUpdated}})

	subs, _ := m.GetSubscriptionsForEvent(ctx, "t1", model.EventOrderAdded)
	if len(subs) != 2 {
		t.Fatalf("order.added subscribers: got %d, want 2", len(subs))
	}
	page, next, _ := m.ListSubscriptions(ctx, "t1", "", 2)
	if len(page) != 2 || next == "" {
		t.Fatalf("first page: %d items, next=%q", len(page), next)
	}
	page, next, _ = m.ListSubscriptions(ctx, "t1", next, 2)
	if len(page) != 1 || next != "" {
		t.Fatalf("second page: %d items, next=%q", len(page), next)
	}
	if err := m.DeleteSubscription(ctx, "t1", a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.DeleteSubscription(ctx, "t1", a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestMemoryWebhookLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	id1, _ := m.EnqueueWebhook(ctx, "t1", "", model.EventOrderAdded, "http://a", "", []byte(`{}`))
	id2, _ := m.EnqueueWebhook(ctx, "t1", "", model.EventScheduleUpdated, "http://a", "", []byte(`{}`))

	due, _ := m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 2 || due[0].ID != id1 || due[1].ID != id2 {
		t.Fatalf("due deliveries out of order: %+v", due)
	}

	later := now.Add(time.Minute)
	if err := m.MarkWebhookDelivery(ctx, id1, false, &later, "boom", 500, 12); err != nil {
		t.Fatal(err)
	}
	if err := m.MarkWebhookDelivery(ctx, id2, true, nil, "", 200, 3); err != nil {
		t.Fatal(err)
	}
	if due, _ := m.FetchDueWebhookDeliveries(ctx, 10); len(due) != 0 {
		t.Fatalf("nothing should be due yet: %+v", due)
	}
	now = later
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 1 || due[0].ID != id1 || due[0].Attempts != 1 {
		t.Fatalf("retry not due: %+v", due)
	}

	if err := m.FailWebhookDelivery(ctx, id1, "boom", 500, 10); err != nil {
		t.Fatal(err)
	}
	failed, _ := m.ListWebhookDeliveries(ctx, "t1", StatusFailed, 0)
	if len(failed) != 1 || failed[0]["id"] != id1 || failed[0]["lastError"] != "boom" {
		t.Fatalf("failed list: %+v", failed)
	}
	if err := m.RetryWebhookDelivery(ctx, "t2", id1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("retry across tenants: got %v", err)
	}
	if err := m.RetryWebhookDelivery(ctx, "t1", id1); err != nil {
		t.Fatal(err)
	}
	if due, _ := m.FetchDueWebhookDeliveries(ctx, 10); len(due) != 1 {
		t.Fatalf("retried delivery should be due again")
	}
	if err := m.MarkWebhookDelivery(ctx, "missing", true, nil, "", 200, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("mark missing: got %v", err)
	}
}
