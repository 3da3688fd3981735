package coordination

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pharbi/arachnid/types"
)

func TestTerminalStateFailsOnLowRootHealth(t *testing.T) {
	h := newHarness(nil, unit(4, 0))
	web := newWeb(h.store, types.DefaultWebConfig())
	root, err := h.store.GetAgent(context.Background(), web.RootAgentID)
	require.NoError(t, err)
	root.Health = 0.1
	require.NoError(t, h.store.UpdateAgent(context.Background(), root))

	state, terminal, err := h.eng.terminalState(context.Background(), web, 0)
	require.NoError(t, err)
	assert.True(t, terminal)
	assert.Equal(t, types.WebFailed, state)
}

func TestTerminalStateFailsAtMaxAgents(t *testing.T) {
	h := newHarness(nil, unit(4, 0))
	cfg := types.DefaultWebConfig()
	cfg.MaxAgents = 1
	web := newWeb(h.store, cfg)

	state, terminal, err := h.eng.terminalState(context.Background(), web, 0)
	require.NoError(t, err)
	assert.True(t, terminal)
	assert.Equal(t, types.WebFailed, state)
}

func TestTerminalStateFailsAtIterationBound(t *testing.T) {
	h := newHarness(nil, unit(4, 0))
	web := newWeb(h.store, types.DefaultWebConfig())

	state, terminal, err := h.eng.terminalState(context.Background(), web, h.eng.config.MaxIterations)
	require.NoError(t, err)
	assert.True(t, terminal)
	assert.Equal(t, types.WebFailed, state)
}

func TestTerminalStateConvergesWithNoPendingWorkAndKnowledge(t *testing.T) {
	h := newHarness(nil, unit(4, 0))
	web := newWeb(h.store, types.DefaultWebConfig())
	root, err := h.store.GetAgent(context.Background(), web.RootAgentID)
	require.NoError(t, err)
	root.Context.AppendKnowledge(types.ContextItem{Content: "an answer"})
	require.NoError(t, h.store.UpdateAgent(context.Background(), root))

	state, terminal, err := h.eng.terminalState(context.Background(), web, 0)
	require.NoError(t, err)
	assert.True(t, terminal)
	assert.Equal(t, types.WebConverged, state)
}

func TestTerminalStateContinuesOtherwise(t *testing.T) {
	h := newHarness(nil, unit(4, 0))
	web := newWeb(h.store, types.DefaultWebConfig())

	seed := types.NewSignal(web.RootAgentID, unit(4, 0), "task", types.Downward)
	require.NoError(t, h.store.CreateSignal(context.Background(), seed))

	state, terminal, err := h.eng.terminalState(context.Background(), web, 0)
	require.NoError(t, err)
	assert.False(t, terminal)
	assert.Equal(t, web.State, state)
}
