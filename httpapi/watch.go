package httpapi

import (
	"context"
	"time"

	"github.com/Pharbi/arachnid/types"
)

// watchInterval is how often runAndWatch polls store state to derive SSE
// events from a running web. The coordination loop itself has no event
// hub dependency (httpapi imports coordination, never the reverse), so
// this poll is how granular agent/signal activity surfaces as events
// rather than only the web-level transitions callers trigger directly.
const watchInterval = 250 * time.Millisecond

// runAndWatch runs the web's coordination loop to completion while
// polling its state to publish agent_spawned, signals_updated, and
// web_state_changed events as they're observed.
func (s *Server) runAndWatch(ctx context.Context, webID types.WebID) {
	done := make(chan error, 1)
	go func() { done <- s.engine.Run(ctx, webID) }()

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	lastAgentCount := -1
	lastSignalCount := -1
	var lastState types.WebState

	poll := func() {
		web, err := s.store.GetWeb(ctx, webID)
		if err != nil {
			return
		}
		if lastState != "" && web.State != lastState {
			s.events.publish(webID, webEvent{Type: eventWebStateChanged, WebID: webID, State: string(web.State)})
		}
		lastState = web.State

		agents, err := s.store.GetWebAgents(ctx, webID)
		if err == nil {
			if lastAgentCount >= 0 && len(agents) != lastAgentCount {
				s.events.publish(webID, webEvent{Type: eventAgentSpawned, WebID: webID})
			}
			lastAgentCount = len(agents)
		}

		signals, err := s.store.GetPendingSignals(ctx, webID)
		if err == nil {
			if lastSignalCount >= 0 && len(signals) != lastSignalCount {
				s.events.publish(webID, webEvent{Type: eventSignalsUpdated, WebID: webID})
			}
			lastSignalCount = len(signals)
		}
	}

	for {
		select {
		case <-done:
			poll()
			return
		case <-ticker.C:
			poll()
		}
	}
}
