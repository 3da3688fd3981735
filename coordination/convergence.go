package coordination

import (
	"context"

	"github.com/Pharbi/arachnid/errs"
	"github.com/Pharbi/arachnid/types"
)

// terminalState decides whether web should stop running: Converged,
// Failed, or neither (spec §4.10).
func (e *Engine) terminalState(ctx context.Context, web types.Web, iteration int) (types.WebState, bool, error) {
	root, err := e.store.GetAgent(ctx, web.RootAgentID)
	if err != nil {
		return "", false, errs.New(errs.NotFound, "terminal_state", err)
	}
	agents, err := e.store.GetWebAgents(ctx, web.ID)
	if err != nil {
		return "", false, errs.New(errs.StorageError, "terminal_state", err)
	}

	if root.Health < 0.2 {
		return types.WebFailed, true, nil
	}
	if liveAgentCount(agents) >= web.Config.MaxAgents {
		return types.WebFailed, true, nil
	}
	if iteration >= e.config.MaxIterations {
		return types.WebFailed, true, nil
	}

	pending, err := e.store.GetPendingSignals(ctx, web.ID)
	if err != nil {
		return "", false, errs.New(errs.StorageError, "terminal_state", err)
	}
	if len(pending) == 0 && !anyActive(agents) && len(root.Context.AccumulatedKnowledge) > 0 {
		return types.WebConverged, true, nil
	}

	return web.State, false, nil
}

func anyActive(agents []types.Agent) bool {
	for _, a := range agents {
		if a.State == types.AgentActive {
			return true
		}
	}
	return false
}
