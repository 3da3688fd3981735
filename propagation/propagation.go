// Package propagation implements attenuated signal traversal through a
// web's agent tree, fanning a signal out along ancestors (Upward) or
// descendants (Downward) and scoring each visited agent's resonance.
package propagation

import (
	"context"
	"fmt"

	"github.com/Pharbi/arachnid/storage"
	"github.com/Pharbi/arachnid/types"
	"github.com/Pharbi/arachnid/vector"
)

// Result pairs a visited agent with the resonance computed against the
// signal at the moment it reached that agent.
type Result struct {
	AgentID   types.AgentID
	Resonance vector.Result
}

// Propagate walks signal through the web's tree starting at its origin
// agent, attenuating amplitude one hop at a time, and returns a resonance
// result for every agent it visits. Each agent is visited at most once.
//
// The signal value is not mutated; propagation operates on a local copy so
// callers may reuse the original.
func Propagate(ctx context.Context, store storage.Store, signal types.Signal, config types.WebConfig) ([]Result, error) {
	origin, err := store.GetAgent(ctx, signal.Origin)
	if err != nil {
		return nil, fmt.Errorf("propagation: origin agent: %w", err)
	}

	visited := make(map[types.AgentID]bool)
	var results []Result

	switch signal.Direction {
	case types.Upward:
		err = propagateUpward(ctx, store, &signal, origin, config, &results, visited)
	case types.Downward:
		err = propagateDownward(ctx, store, &signal, origin, config, &results, visited)
	default:
		return nil, fmt.Errorf("propagation: unknown direction %q", signal.Direction)
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func visit(agent types.Agent, signal *types.Signal, results *[]Result, visited map[types.AgentID]bool) {
	if visited[agent.ID] {
		return
	}
	visited[agent.ID] = true
	*results = append(*results, Result{
		AgentID:   agent.ID,
		Resonance: vector.ComputeResonance(&agent, signal),
	})
}

func propagateUpward(ctx context.Context, store storage.Store, signal *types.Signal, origin types.Agent, config types.WebConfig, results *[]Result, visited map[types.AgentID]bool) error {
	current := origin

	for signal.IsAlive(config.MinAmplitude) && signal.HopCount <= uint32(config.MaxDepth) {
		visit(current, signal, results, visited)

		if current.ParentID == nil {
			return nil
		}
		signal.Attenuate(config.AttenuationFactor)
		if !signal.IsAlive(config.MinAmplitude) || signal.HopCount > uint32(config.MaxDepth) {
			return nil
		}
		parent, err := store.GetAgent(ctx, *current.ParentID)
		if err != nil {
			return nil
		}
		current = parent
	}
	return nil
}

func propagateDownward(ctx context.Context, store storage.Store, signal *types.Signal, origin types.Agent, config types.WebConfig, results *[]Result, visited map[types.AgentID]bool) error {
	if signal.HopCount > uint32(config.MaxDepth) || !signal.IsAlive(config.MinAmplitude) {
		return nil
	}

	// Each stack frame carries its own copy of the signal, so a child's
	// amplitude and hop count reflect only the edges on its own path.
	type frame struct {
		id  types.AgentID
		sig types.Signal
	}
	stack := []frame{{origin.ID, *signal}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !f.sig.IsAlive(config.MinAmplitude) || f.sig.HopCount > uint32(config.MaxDepth) {
			continue
		}

		agent, err := store.GetAgent(ctx, f.id)
		if err != nil {
			continue
		}
		visit(agent, &f.sig, results, visited)

		children, err := store.GetChildren(ctx, agent.ID)
		if err != nil {
			continue
		}
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			next := f.sig
			next.Attenuate(config.AttenuationFactor)
			if next.IsAlive(config.MinAmplitude) {
				stack = append(stack, frame{child.ID, next})
			}
		}
	}
	return nil
}
