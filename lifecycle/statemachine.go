// Package lifecycle implements the agent state machine, health tracking,
// wind-down protocol, and the supplemented tuning-drift behavior (spec §4.6).
package lifecycle

import (
	"fmt"

	"github.com/Pharbi/arachnid/types"
)

// Transition applies event to agent's current state, mutating agent.State
// in place and returning the new state. An event with no defined
// transition from the agent's current state is an error.
func Transition(agent *types.Agent, event types.LifecycleEvent) (types.AgentState, error) {
	newState, ok := nextState(agent.State, event)
	if !ok {
		return "", fmt.Errorf("lifecycle: invalid transition from %s with event %s", agent.State, event)
	}
	agent.State = newState
	return newState, nil
}

func nextState(current types.AgentState, event types.LifecycleEvent) (types.AgentState, bool) {
	switch {
	case current == types.AgentListening && event == types.EventActivated:
		return types.AgentActive, true
	case current == types.AgentActive && event == types.EventSignalReceived:
		return types.AgentListening, true
	case current == types.AgentListening && event == types.EventIdleTimeout:
		return types.AgentDormant, true
	case current == types.AgentDormant && event == types.EventActivated:
		return types.AgentActive, true
	case current == types.AgentDormant && event == types.EventTTLExpired:
		return types.AgentTerminated, true

	case isOneOf(current, types.AgentActive, types.AgentListening, types.AgentDormant) && event == types.EventHealthBelowQuarantine:
		return types.AgentQuarantine, true
	case current == types.AgentQuarantine && event == types.EventHealthRecovered:
		return types.AgentListening, true
	case isOneOf(current, types.AgentQuarantine, types.AgentActive, types.AgentListening, types.AgentDormant) && event == types.EventHealthBelowIsolated:
		return types.AgentIsolated, true

	case isOneOf(current, types.AgentIsolated, types.AgentQuarantine, types.AgentActive, types.AgentListening, types.AgentDormant) && event == types.EventHealthBelowTerminal:
		return types.AgentWindingDown, true

	case current == types.AgentWindingDown:
		return types.AgentTerminated, true

	case event == types.EventManualTermination:
		return types.AgentTerminated, true
	}
	return "", false
}

func isOneOf(state types.AgentState, candidates ...types.AgentState) bool {
	for _, c := range candidates {
		if state == c {
			return true
		}
	}
	return false
}

// CheckHealthThresholds recomputes the health-driven auto-event for
// agent's current state and health, and applies the resulting transition
// if any threshold was crossed (spec §4.6).
func CheckHealthThresholds(agent *types.Agent) error {
	event, ok := healthThresholdEvent(agent.State, agent.Health)
	if !ok {
		return nil
	}
	_, err := Transition(agent, event)
	return err
}

func healthThresholdEvent(state types.AgentState, health float32) (types.LifecycleEvent, bool) {
	switch state {
	case types.AgentActive, types.AgentListening, types.AgentDormant:
		switch {
		case health < 0.2:
			return types.EventHealthBelowTerminal, true
		case health < 0.4:
			return types.EventHealthBelowIsolated, true
		case health < 0.6:
			return types.EventHealthBelowQuarantine, true
		}
	case types.AgentQuarantine:
		switch {
		case health < 0.4:
			return types.EventHealthBelowIsolated, true
		case health >= 0.6:
			return types.EventHealthRecovered, true
		}
	case types.AgentIsolated:
		if health < 0.2 {
			return types.EventHealthBelowTerminal, true
		}
	}
	return "", false
}
