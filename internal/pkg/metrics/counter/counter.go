package counter

import (
	"context"
	"strconv"

	"github.com/recuerdame/webapp/internal/pkg/cache"
)

const webhookOutcomesKey = "billing:counters:webhooks"

// Webhook processing outcomes tracked per delivery.
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeDropped   = "dropped"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
	OutcomeIgnored   = "ignored"
)

// AddWebhookOutcome increments the counter for one webhook delivery outcome.
// Counter writes are best-effort; a redis hiccup must not affect the response
// to the provider.
func AddWebhookOutcome(outcome string) {
	ctx := context.Background()
	_ = cache.GetClient().HIncrBy(ctx, webhookOutcomesKey, outcome, 1).Err()
}

// WebhookOutcomes returns all webhook counters accumulated so far.
func WebhookOutcomes() map[string]int64 {
	ctx := context.Background()
	data, err := cache.GetClient().HGetAll(ctx, webhookOutcomesKey).Result()
	if err != nil {
		return map[string]int64{}
	}

	out := make(map[string]int64, len(data))
	for field, raw := range data {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			out[field] = n
		}
	}
	return out
}

// ResetWebhookOutcomes clears the counters.
func ResetWebhookOutcomes() {
	ctx := context.Background()
	_ = cache.GetClient().Del(ctx, webhookOutcomesKey).Err()
}
