package validation

import (
	"context"
	"sync"

	"github.com/Pharbi/arachnid/types"
)

// memoryBudgetTracker counts validations per web in process memory. It
// does not survive a restart and does not coordinate across multiple
// coordinatord nodes, unlike redisBudgetTracker.
type memoryBudgetTracker struct {
	mu   sync.Mutex
	used map[types.WebID]int
}

// NewMemoryBudgetTracker returns a BudgetTracker suitable for a
// single-process deployment with no Redis configured.
func NewMemoryBudgetTracker() BudgetTracker {
	return &memoryBudgetTracker{used: make(map[types.WebID]int)}
}

func (t *memoryBudgetTracker) Consume(_ context.Context, webID types.WebID, limit int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.used[webID]++
	return t.used[webID] <= limit, nil
}
