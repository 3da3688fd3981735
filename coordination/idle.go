package coordination

import (
	"context"
	"time"

	"github.com/Pharbi/arachnid/lifecycle"
	"github.com/Pharbi/arachnid/types"
)

// sweepIdleAgents applies the idle-timeout and dormant-TTL auto-events
// (spec §4.6, "Idle / TTL") to every Listening or Dormant agent in web.
func (e *Engine) sweepIdleAgents(ctx context.Context, web types.Web) {
	listening, err := e.store.GetAgentsByState(ctx, web.ID, types.AgentListening)
	if err != nil {
		e.logger.Warn(ctx, "sweep idle: list listening agents failed", "web_id", web.ID, "err", err)
	}
	now := time.Now()
	for _, agent := range listening {
		if now.Sub(agent.LastActiveAt) <= time.Duration(web.Config.IdleTimeoutSecs)*time.Second {
			continue
		}
		if _, err := lifecycle.Transition(&agent, types.EventIdleTimeout); err != nil {
			continue
		}
		agent.DormantSince = &now
		if err := e.store.UpdateAgent(ctx, agent); err != nil {
			e.logger.Warn(ctx, "sweep idle: update agent failed", "agent_id", agent.ID, "err", err)
		}
	}

	dormant, err := e.store.GetAgentsByState(ctx, web.ID, types.AgentDormant)
	if err != nil {
		e.logger.Warn(ctx, "sweep idle: list dormant agents failed", "web_id", web.ID, "err", err)
	}
	for _, agent := range dormant {
		if agent.DormantSince == nil || now.Sub(*agent.DormantSince) <= time.Duration(web.Config.DormantTTLSecs)*time.Second {
			continue
		}
		if _, err := lifecycle.Transition(&agent, types.EventTTLExpired); err != nil {
			continue
		}
		if err := e.store.UpdateAgent(ctx, agent); err != nil {
			e.logger.Warn(ctx, "sweep idle: update agent failed", "agent_id", agent.ID, "err", err)
		}
	}
}
