package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pharbi/arachnid/types"
)

// budgetWindow is how long a web's validation counter accumulates before
// rolling over.
const budgetWindow = 24 * time.Hour

// redisBudgetTracker persists per-web validation counts in Redis so the
// budget holds across process restarts and multiple coordinator nodes.
type redisBudgetTracker struct {
	rdb *redis.Client
}

// NewRedisBudgetTracker wires a BudgetTracker backed by client. Required;
// panics-by-nil-deref-avoidance is left to the caller, matching how the
// registry's stream manager demands a non-nil Redis client at construction.
func NewRedisBudgetTracker(client *redis.Client) BudgetTracker {
	return &redisBudgetTracker{rdb: client}
}

func redisKeyForWebBudget(webID types.WebID) string {
	return fmt.Sprintf("arachnid:validation-budget:%s", webID)
}

// Consume atomically increments the web's counter and reports whether the
// increment landed at or under limit. The key is given a TTL on its first
// increment so abandoned webs don't leak counters forever.
func (t *redisBudgetTracker) Consume(ctx context.Context, webID types.WebID, limit int) (bool, error) {
	key := redisKeyForWebBudget(webID)
	count, err := t.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("increment validation budget: %w", err)
	}
	if count == 1 {
		if err := t.rdb.Expire(ctx, key, budgetWindow).Err(); err != nil {
			return false, fmt.Errorf("set validation budget ttl: %w", err)
		}
	}
	return int(count) <= limit, nil
}
