package lifecycle

import (
	"time"

	"github.com/Pharbi/arachnid/types"
)

// ApplyHealthDelta adjusts agent.Health by delta, halving negative deltas
// while the agent is on probation, clamping the result to [0,1], and
// appending a bounded history entry recording the delta actually applied
// (spec §4.6).
func ApplyHealthDelta(agent *types.Agent, delta float32, reason types.HealthChangeReason, at time.Time) {
	effective := delta
	if agent.ProbationRemaining > 0 && delta < 0 {
		effective = delta * 0.5
	}

	before := agent.Health
	agent.Health = clamp01(agent.Health + effective)

	agent.HealthHistory = append(agent.HealthHistory, types.HealthEvent{
		Timestamp: at,
		Delta:     agent.Health - before,
		Reason:    reason,
	})
	if len(agent.HealthHistory) > types.MaxHealthHistory {
		agent.HealthHistory = agent.HealthHistory[len(agent.HealthHistory)-types.MaxHealthHistory:]
	}
}

// CompleteExecution decrements an agent's remaining probation window by
// one, never going below zero.
func CompleteExecution(agent *types.Agent) {
	if agent.ProbationRemaining > 0 {
		agent.ProbationRemaining--
	}
}

// RecentHealthTrend sums the actual deltas of the most recent window
// history entries, oldest-excluded-first.
func RecentHealthTrend(agent *types.Agent, window int) float32 {
	history := agent.HealthHistory
	if len(history) == 0 {
		return 0
	}
	if window > len(history) {
		window = len(history)
	}
	var sum float32
	for _, e := range history[len(history)-window:] {
		sum += e.Delta
	}
	return sum
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
