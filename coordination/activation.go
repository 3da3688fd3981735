package coordination

import (
	"context"
	"fmt"
	"time"

	"github.com/Pharbi/arachnid/errs"
	"github.com/Pharbi/arachnid/lifecycle"
	"github.com/Pharbi/arachnid/telemetry"
	"github.com/Pharbi/arachnid/types"
)

// activate runs one agent activation (spec §4.4). Idempotent: a no-op if
// the agent is already Active. frequency is the triggering signal's
// frequency vector, recorded for tuning drift when the web opts in.
func (e *Engine) activate(ctx context.Context, web types.Web, agentID types.AgentID, trigger string, frequency []float32) error {
	agent, err := e.store.GetAgent(ctx, agentID)
	if err != nil {
		return errs.New(errs.NotFound, "activate", err)
	}
	if agent.State == types.AgentActive {
		return nil
	}

	ctx, span := e.tracer.Start(ctx, telemetry.SpanAgentExecution)
	defer span.End()

	if _, err := lifecycle.Transition(&agent, types.EventActivated); err != nil {
		return errs.New(errs.InvalidTransition, "activate", err)
	}

	result, execErr := e.executor.Execute(ctx, agent, trigger)
	if execErr != nil {
		span.RecordError(execErr)
		result = types.ExecutionResult{Status: types.StatusFailed}
	}

	for _, draft := range result.SignalDrafts {
		signal := draft.IntoSignal(agent.ID)
		if err := e.store.CreateSignal(ctx, signal); err != nil {
			e.logger.Warn(ctx, "enqueue signal draft failed", "agent_id", agent.ID, "err", err)
		}
	}

	for _, need := range result.Needs {
		if err := e.handleNeed(ctx, agent, need); err != nil {
			e.logger.Warn(ctx, "need handling failed", "agent_id", agent.ID, "err", err)
		}
	}

	if e.config.ValidatePostExecution && e.validator != nil && execErr == nil {
		e.runPostExecutionValidation(ctx, web, &agent, trigger, result)
	}

	if result.Status == types.StatusComplete {
		e.applyDriftIfEnabled(ctx, web, &agent, frequency)
	}

	// Step 5 (spec §4.4) assigns a terminal-for-this-activation state
	// directly from the execution status; none of the named FSM events
	// in §4.6 model "Active -> Dormant", so this bypasses
	// lifecycle.Transition rather than forcing an event that doesn't
	// exist.
	now := time.Now()
	switch result.Status {
	case types.StatusComplete, types.StatusFailed:
		agent.State = types.AgentDormant
		agent.DormantSince = &now
	case types.StatusNeedsMore:
		agent.State = types.AgentListening
	default:
		return errs.New(errs.InvalidTransition, "activate", fmt.Errorf("unknown execution status %q", result.Status))
	}
	agent.LastActiveAt = now
	lifecycle.CompleteExecution(&agent)
	if err := lifecycle.CheckHealthThresholds(&agent); err != nil {
		return errs.New(errs.InvalidTransition, "activate", err)
	}

	if err := e.store.UpdateAgent(ctx, agent); err != nil {
		return errs.New(errs.StorageError, "activate", err)
	}

	if agent.State == types.AgentWindingDown {
		if err := e.windDown(ctx, agent); err != nil {
			e.logger.Warn(ctx, "wind down failed", "agent_id", agent.ID, "err", err)
		}
	}

	return nil
}
