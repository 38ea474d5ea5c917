package api

import (
	"fmt"
	"net/url"
	"strings"

	"cafesched/internal/model"
)

const maxItemsPerOrder = 1000

// validateOrderIn turns a decoded request body into an order. Unknown item
// tags pass; they simply produce no task.
func validateOrderIn(in model.OrderIn) (model.Order, error) {
	if in.OrderID == nil {
		return model.Order{}, fmt.Errorf("orderId is required")
	}
	if in.Items == nil {
		return model.Order{}, fmt.Errorf("items is required (use [] for an empty order)")
	}
	if len(in.Items) > maxItemsPerOrder {
		return model.Order{}, fmt.Errorf("too many items: %d (max %d)", len(in.Items), maxItemsPerOrder)
	}
	items := make([]model.ItemType, len(in.Items))
	for i, it := range in.Items {
		items[i] = model.ItemType(strings.TrimSpace(it))
	}
	return model.Order{OrderID: *in.OrderID, Items: items}, nil
}

var knownEvents = map[string]struct{}{
	model.EventOrderAdded:      {},
	model.EventScheduleUpdated: {},
	"*":                        {},
}

func validateSubscription(req *model.SubscriptionRequest) error {
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url must be an absolute http(s) URL")
	}
	if len(req.Events) == 0 {
		return fmt.Errorf("events must not be empty")
	}
	for _, e := range req.Events {
		if _, ok := knownEvents[e]; !ok {
			return fmt.Errorf("unknown event %q (allowed: %s, %s, *)", e, model.EventOrderAdded, model.EventScheduleUpdated)
		}
	}
	return nil
}
