package coordination

import (
	"context"

	"github.com/Pharbi/arachnid/lifecycle"
	"github.com/Pharbi/arachnid/types"
)

// windDown runs the wind-down protocol for an agent already transitioned
// to WindingDown: emit its failure summary upward, reparent or cascade
// each child, then terminate it (spec §3 Wind-down, §9 GLOSSARY).
func (e *Engine) windDown(ctx context.Context, agent types.Agent) error {
	summary := lifecycle.FailureSummary(agent)
	signal := lifecycle.WindDownSignal(agent, summary)
	if err := e.store.CreateSignal(ctx, signal); err != nil {
		return err
	}
	e.recordFailurePattern(ctx, agent.WebID, types.PatternAgentWindDown, map[string]any{
		"agent_id": agent.ID,
		"summary":  summary,
	})

	children, err := e.store.GetChildren(ctx, agent.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if lifecycle.ShouldReparent(child) {
			child.ParentID = agent.ParentID
			if err := e.store.UpdateAgent(ctx, child); err != nil {
				e.logger.Warn(ctx, "reparent child failed", "child_id", child.ID, "err", err)
			}
			continue
		}
		if lifecycle.ShouldCascadeWindDown(child) {
			if _, err := lifecycle.Transition(&child, types.EventHealthBelowTerminal); err != nil {
				e.logger.Warn(ctx, "cascade wind down transition failed", "child_id", child.ID, "err", err)
				continue
			}
			if err := e.store.UpdateAgent(ctx, child); err != nil {
				e.logger.Warn(ctx, "cascade wind down update failed", "child_id", child.ID, "err", err)
				continue
			}
			if err := e.windDown(ctx, child); err != nil {
				e.logger.Warn(ctx, "cascade wind down failed", "child_id", child.ID, "err", err)
			}
		}
	}

	if _, err := lifecycle.Transition(&agent, types.EventManualTermination); err != nil {
		return err
	}
	return e.store.UpdateAgent(ctx, agent)
}
