package coordination

import (
	"context"
	"time"

	"github.com/Pharbi/arachnid/types"
	"github.com/Pharbi/arachnid/validation"
)

// runPostExecutionValidation resolves spec §9's validation-coupling Open
// Question: the engine samples its own executions through the §4.8
// priority heuristic rather than leaving validation a purely external
// collaborator. Three consecutive Challenge verdicts for one agent record
// a RepeatedValidationFailure pattern (SPEC_FULL §4).
func (e *Engine) runPostExecutionValidation(ctx context.Context, web types.Web, agent *types.Agent, trigger string, result types.ExecutionResult) {
	priority := validation.ComputeValidationPriority(*agent, estimateImpact(result), estimateUncertainty(result))
	if !e.validator.ShouldValidate(*agent, priority) {
		return
	}

	req := validation.Request{
		ID:      types.NewValidationID(),
		AgentID: agent.ID,
		WebID:   web.ID,
		Output:  result.Output,
		Context: validation.RequestContext{
			AgentPurpose:         agent.Purpose,
			TriggerSignal:        trigger,
			AccumulatedKnowledge: knowledgeStrings(agent.Context.AccumulatedKnowledge),
		},
		Priority: priority,
	}

	verdict, err := e.validator.Validate(ctx, req)
	if err != nil {
		e.logger.Warn(ctx, "post-execution validation failed", "agent_id", agent.ID, "err", err)
		return
	}

	validation.ApplyResult(agent, verdict, time.Now())

	if e.bumpChallengeStreak(agent.ID, verdict.Judgment.Kind) {
		e.recordFailurePattern(ctx, web.ID, types.PatternRepeatedValidationFailure, map[string]any{
			"agent_id": agent.ID,
		})
	}
}

func knowledgeStrings(items []types.ContextItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Content
	}
	return out
}

// estimateImpact approximates how much an execution's output will
// propagate through the web: an activation that produced signals or
// needs reaches further than one that only accumulated local knowledge.
func estimateImpact(result types.ExecutionResult) float32 {
	if len(result.SignalDrafts) > 0 || len(result.Needs) > 0 {
		return 1.0
	}
	return 0.3
}

// estimateUncertainty approximates confidence in an output from its tool
// call success rate; an execution with no tool calls is treated as
// moderately uncertain.
func estimateUncertainty(result types.ExecutionResult) float32 {
	if len(result.ToolResults) == 0 {
		return 0.5
	}
	failed := 0
	for _, tr := range result.ToolResults {
		if !tr.Success {
			failed++
		}
	}
	return float32(failed) / float32(len(result.ToolResults))
}

// bumpChallengeStreak tracks consecutive Challenge verdicts per agent,
// resetting on any non-Challenge judgment.
func (e *Engine) bumpChallengeStreak(agentID types.AgentID, kind validation.JudgmentKind) bool {
	e.challengeMu.Lock()
	defer e.challengeMu.Unlock()
	if kind != validation.JudgmentChallenge {
		e.challenges[agentID] = 0
		return false
	}
	e.challenges[agentID]++
	if e.challenges[agentID] >= 3 {
		e.challenges[agentID] = 0
		return true
	}
	return false
}
