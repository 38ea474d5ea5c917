package webhooks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cafesched/internal/store"
)

type Publisher struct {
	Store store.Store
	Log   zerolog.Logger
	now   func() time.Time
}

func NewPublisher(s store.Store, log zerolog.Logger) *Publisher {
	return &Publisher{Store: s, Log: log, now: time.Now}
}

// Emit enqueues one delivery per subscription of the tenant matching eventType.
// It returns the number of deliveries enqueued.
func (p *Publisher) Emit(ctx context.Context, tenantID, eventType string, data any) int {
	subs, err := p.Store.GetSubscriptionsForEvent(ctx, tenantID, eventType)
	if err != nil {
		p.Log.Warn().Err(err).Str("tenant", tenantID).Str("event", eventType).Msg("lookup subscriptions")
		return 0
	}
	if len(subs) == 0 {
		return 0
	}
	payload := map[string]any{
		"id":       "evt_" + uuid.NewString(),
		"type":     eventType,
		"tenantId": tenantID,
		"ts":       p.now().UTC().Format(time.RFC3339),
		"data":     data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		p.Log.Error().Err(err).Str("event", eventType).Msg("encode webhook payload")
		return 0
	}
	n := 0
	for _, s := range subs {
		if _, err := p.Store.EnqueueWebhook(ctx, tenantID, s.ID, eventType, s.URL, s.Secret, body); err != nil {
			p.Log.Warn().Err(err).Str("subscription", s.ID).Msg("enqueue webhook")
			continue
		}
		n++
	}
	p.Log.Debug().Str("tenant", tenantID).Str("event", eventType).Int("deliveries", n).Msg("webhook enqueued")
	return n
}
