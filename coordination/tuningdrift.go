package coordination

import (
	"context"

	"github.com/Pharbi/arachnid/lifecycle"
	"github.com/Pharbi/arachnid/types"
)

// applyDriftIfEnabled records the signal that triggered a successful
// execution and blends agent's tuning toward the tracked window, when
// web.Config.EnableTuningDrift opts in (SPEC_FULL §4, tuning drift).
func (e *Engine) applyDriftIfEnabled(ctx context.Context, web types.Web, agent *types.Agent, frequency []float32) {
	if !web.Config.EnableTuningDrift || len(frequency) == 0 {
		return
	}
	tracker := e.driftTracker(agent.ID)
	tracker.RecordSuccessfulResponse(frequency)
	agent.Tuning = tracker.ComputeDriftedTuning(agent.Tuning)
}

func (e *Engine) driftTracker(agentID types.AgentID) *lifecycle.TuningDriftTracker {
	e.driftMu.Lock()
	defer e.driftMu.Unlock()
	tracker, ok := e.drift[agentID]
	if !ok {
		tracker = lifecycle.DefaultTuningDriftTracker()
		e.drift[agentID] = tracker
	}
	return tracker
}
