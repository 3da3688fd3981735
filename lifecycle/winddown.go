package lifecycle

import (
	"fmt"

	"github.com/Pharbi/arachnid/types"
)

// ReparentHealthThreshold is the health floor at which a winding-down
// agent's child is reparented rather than cascaded into its own wind-down
// (spec §3 Wind-down).
const ReparentHealthThreshold = 0.6

// FailureSummary renders a short human-readable description of why agent
// is winding down, for inclusion in its wind-down signal.
func FailureSummary(agent types.Agent) string {
	activations := types.InitialProbation - agent.ProbationRemaining
	return fmt.Sprintf("agent %s (%s) failed with health %.2f after %d activations",
		agent.ID, agent.Purpose, agent.Health, activations)
}

// WindDownSignal builds the upward failure-summary signal a winding-down
// agent emits before terminating.
func WindDownSignal(agent types.Agent, summary string) types.Signal {
	sig := types.NewSignal(agent.ID, agent.Tuning, fmt.Sprintf("agent winding down: %s", summary), types.Upward)
	return sig.WithPayload(map[string]any{
		"type":     "wind_down",
		"summary":  summary,
		"agent_id": agent.ID,
		"health":   agent.Health,
	})
}

// ShouldReparent reports whether a winding-down agent's child is healthy
// enough to be reparented to its grandparent instead of cascading.
func ShouldReparent(child types.Agent) bool {
	return child.Health >= ReparentHealthThreshold
}

// ShouldCascadeWindDown reports whether a winding-down agent's child is
// unhealthy enough that it must wind down in turn rather than being
// reparented.
func ShouldCascadeWindDown(child types.Agent) bool {
	return child.Health < ReparentHealthThreshold
}
