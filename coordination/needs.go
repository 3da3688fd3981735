package coordination

import (
	"context"
	"fmt"

	"github.com/Pharbi/arachnid/errs"
	"github.com/Pharbi/arachnid/lifecycle"
	"github.com/Pharbi/arachnid/telemetry"
	"github.com/Pharbi/arachnid/types"
	"github.com/Pharbi/arachnid/vector"
)

// handleNeed resolves one Need surfaced by agent's execution: reuse a
// resonating lineage member, skip under the max_agents bound, or spawn a
// new child via the factory (spec §4.5, the factory variant of §4.9).
func (e *Engine) handleNeed(ctx context.Context, agent types.Agent, need types.Need) error {
	embedding, _ := e.embedText(ctx, need.Description)
	synthetic := types.NewSignal(agent.ID, embedding, need.Description, types.Downward)

	lineage, err := e.lineageSet(ctx, agent)
	if err != nil {
		return fmt.Errorf("coordination: collect lineage set: %w", err)
	}
	for _, member := range lineage {
		if member.State.Terminal() || member.State == types.AgentWindingDown {
			continue
		}
		if vector.ComputeResonance(&member, &synthetic).Activated {
			redirect := types.NewSignal(agent.ID, embedding, need.Description, types.Downward)
			if err := e.store.CreateSignal(ctx, redirect); err != nil {
				return fmt.Errorf("coordination: redirect need to lineage: %w", err)
			}
			return nil
		}
	}

	web, err := e.store.GetWeb(ctx, agent.WebID)
	if err != nil {
		return errs.New(errs.NotFound, "handle_need", err)
	}
	webAgents, err := e.store.GetWebAgents(ctx, agent.WebID)
	if err != nil {
		return errs.New(errs.StorageError, "handle_need", err)
	}
	if liveAgentCount(webAgents) >= web.Config.MaxAgents {
		return nil
	}

	if dormantID, err := e.factory.CheckDormantAgents(ctx, need.Description, agent.WebID); err == nil && dormantID != nil {
		return e.reactivateDormant(ctx, *dormantID, need.Description)
	}

	child, err := e.factory.SpawnForNeed(ctx, need.Description, &agent.ID, agent.WebID, web.Config)
	if err != nil {
		return errs.New(errs.ProviderError, "handle_need", err)
	}
	if err := e.store.CreateAgent(ctx, child); err != nil {
		return errs.New(errs.StorageError, "handle_need", err)
	}

	seed := types.NewSignal(child.ID, child.Tuning, need.Description, types.Downward)
	if err := e.store.CreateSignal(ctx, seed); err != nil {
		return errs.New(errs.StorageError, "handle_need", err)
	}

	e.checkCyclicSpawning(ctx, child, web.Config)
	e.metrics.IncCounter(telemetry.CounterAgentsSpawned, 1, "web", agent.WebID.String())
	return nil
}

// lineageSet collects agent's ancestors, agent itself, and every
// descendant (spec §4.5 step 2).
func (e *Engine) lineageSet(ctx context.Context, agent types.Agent) ([]types.Agent, error) {
	ancestors, err := e.store.GetAncestors(ctx, agent.ID)
	if err != nil {
		return nil, err
	}
	descendants, err := e.descendants(ctx, agent.ID)
	if err != nil {
		return nil, err
	}

	lineage := make([]types.Agent, 0, len(ancestors)+1+len(descendants))
	lineage = append(lineage, ancestors...)
	lineage = append(lineage, agent)
	lineage = append(lineage, descendants...)
	return lineage, nil
}

// descendants walks the children relation breadth-first, relying on the
// tree's acyclic invariant (spec §8) to guarantee termination.
func (e *Engine) descendants(ctx context.Context, rootID types.AgentID) ([]types.Agent, error) {
	var out []types.Agent
	queue := []types.AgentID{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children, err := e.store.GetChildren(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			out = append(out, child)
			queue = append(queue, child.ID)
		}
	}
	return out, nil
}

// reactivateDormant transitions a dormant agent back to Active and
// enqueues a fresh downward signal carrying the need that reactivated it.
func (e *Engine) reactivateDormant(ctx context.Context, agentID types.AgentID, need string) error {
	agent, err := e.store.GetAgent(ctx, agentID)
	if err != nil {
		return errs.New(errs.NotFound, "reactivate_dormant", err)
	}
	if agent.State != types.AgentDormant {
		return nil
	}
	if _, err := lifecycle.Transition(&agent, types.EventActivated); err != nil {
		return errs.New(errs.InvalidTransition, "reactivate_dormant", err)
	}
	agent.DormantSince = nil
	if err := e.store.UpdateAgent(ctx, agent); err != nil {
		return errs.New(errs.StorageError, "reactivate_dormant", err)
	}
	signal := types.NewSignal(agent.ID, agent.Tuning, need, types.Downward)
	if err := e.store.CreateSignal(ctx, signal); err != nil {
		return errs.New(errs.StorageError, "reactivate_dormant", err)
	}
	return nil
}

// checkCyclicSpawning implements the CyclicSpawning heuristic (SPEC_FULL
// §4): when a freshly spawned child's definition resembles an ancestor's
// definition above the dormant-reactivation threshold three times across
// a web's lifetime, the pattern is recorded as advisory diagnostics.
func (e *Engine) checkCyclicSpawning(ctx context.Context, child types.Agent, webConfig types.WebConfig) {
	if child.DefinitionID == nil {
		return
	}
	childDef, err := e.store.GetDefinition(ctx, *child.DefinitionID)
	if err != nil || len(childDef.TuningEmbedding) == 0 {
		return
	}
	ancestors, err := e.store.GetAncestors(ctx, child.ID)
	if err != nil {
		return
	}
	for _, ancestor := range ancestors {
		if ancestor.DefinitionID == nil {
			continue
		}
		ancestorDef, err := e.store.GetDefinition(ctx, *ancestor.DefinitionID)
		if err != nil || len(ancestorDef.TuningEmbedding) == 0 {
			continue
		}
		if vector.CosineSimilarity(childDef.TuningEmbedding, ancestorDef.TuningEmbedding) <= dormantReactivationThreshold(webConfig) {
			continue
		}
		if e.bumpCyclicCounter(child.WebID) {
			e.recordFailurePattern(ctx, child.WebID, types.PatternCyclicSpawning, map[string]any{
				"child_agent_id":    child.ID,
				"ancestor_agent_id": ancestor.ID,
			})
		}
		return
	}
}

// dormantReactivationThreshold mirrors factory.DefaultFactoryConfig's
// default since WebConfig does not carry a per-web override for it.
func dormantReactivationThreshold(types.WebConfig) float32 { return 0.80 }

func (e *Engine) bumpCyclicCounter(webID types.WebID) bool {
	e.cyclicMu.Lock()
	defer e.cyclicMu.Unlock()
	e.cyclic[webID]++
	if e.cyclic[webID] >= 3 {
		e.cyclic[webID] = 0
		return true
	}
	return false
}
