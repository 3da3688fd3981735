package coordination

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pharbi/arachnid/types"
)

func TestWindDownReparentsHealthyChild(t *testing.T) {
	h := newHarness(nil, unit(4, 0))
	web := newWeb(h.store, types.DefaultWebConfig())
	root, err := h.store.GetAgent(context.Background(), web.RootAgentID)
	require.NoError(t, err)

	failing := types.NewAgent(web.ID, &root.ID, "failing", unit(4, 0), types.CapabilityAnalyst, 0.6)
	failing.State = types.AgentWindingDown
	require.NoError(t, h.store.CreateAgent(context.Background(), failing))

	healthyChild := types.NewAgent(web.ID, &failing.ID, "grandchild", unit(4, 0), types.CapabilityAnalyst, 0.6)
	healthyChild.Health = 0.9
	require.NoError(t, h.store.CreateAgent(context.Background(), healthyChild))

	require.NoError(t, h.eng.windDown(context.Background(), failing))

	updatedGrandchild, err := h.store.GetAgent(context.Background(), healthyChild.ID)
	require.NoError(t, err)
	require.NotNil(t, updatedGrandchild.ParentID)
	assert.Equal(t, root.ID, *updatedGrandchild.ParentID, "a healthy child is reparented to the winding-down agent's parent")

	updatedAgent, err := h.store.GetAgent(context.Background(), failing.ID)
	require.NoError(t, err)
	assert.Equal(t, types.AgentTerminated, updatedAgent.State)

	patterns, err := h.store.GetFailurePatterns(context.Background(), web.ID)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, types.PatternAgentWindDown, patterns[0].PatternType)
}

func TestWindDownCascadesUnhealthyChild(t *testing.T) {
	h := newHarness(nil, unit(4, 0))
	web := newWeb(h.store, types.DefaultWebConfig())
	root, err := h.store.GetAgent(context.Background(), web.RootAgentID)
	require.NoError(t, err)

	failing := types.NewAgent(web.ID, &root.ID, "failing", unit(4, 0), types.CapabilityAnalyst, 0.6)
	failing.State = types.AgentWindingDown
	require.NoError(t, h.store.CreateAgent(context.Background(), failing))

	unhealthyChild := types.NewAgent(web.ID, &failing.ID, "unhealthy", unit(4, 0), types.CapabilityAnalyst, 0.6)
	unhealthyChild.Health = 0.15
	require.NoError(t, h.store.CreateAgent(context.Background(), unhealthyChild))

	require.NoError(t, h.eng.windDown(context.Background(), failing))

	updatedChild, err := h.store.GetAgent(context.Background(), unhealthyChild.ID)
	require.NoError(t, err)
	assert.Equal(t, types.AgentTerminated, updatedChild.State, "an unhealthy child cascades through wind-down to Terminated")
}
