package coordination

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pharbi/arachnid/types"
)

func TestProcessSignalMarksProcessedEvenWhenOriginMissing(t *testing.T) {
	h := newHarness(nil, unit(4, 0))
	web := newWeb(h.store, types.DefaultWebConfig())

	orphan := types.NewSignal(types.NewAgentID(), unit(4, 0), "ghost", types.Downward)
	require.NoError(t, h.store.CreateSignal(context.Background(), orphan))

	h.eng.processSignal(context.Background(), web, orphan)

	pending, err := h.store.GetPendingSignals(context.Background(), web.ID)
	require.NoError(t, err)
	assert.Empty(t, pending, "a signal whose origin vanished is still marked processed")
}

func TestProcessSignalActivatesResonatingChild(t *testing.T) {
	h := newHarness([]string{`EMIT_SIGNAL: {"content": "done", "direction": "upward"}`}, unit(4, 0))
	cfg := types.DefaultWebConfig()
	web := newWeb(h.store, cfg)
	root, err := h.store.GetAgent(context.Background(), web.RootAgentID)
	require.NoError(t, err)

	child := types.NewAgent(web.ID, &root.ID, "child", unit(4, 0), types.CapabilitySearch, cfg.DefaultThreshold)
	require.NoError(t, h.store.CreateAgent(context.Background(), child))

	signal := types.NewSignal(root.ID, unit(4, 0), "go find it", types.Downward)
	require.NoError(t, h.store.CreateSignal(context.Background(), signal))

	h.eng.processSignal(context.Background(), web, signal)

	updated, err := h.store.GetAgent(context.Background(), child.ID)
	require.NoError(t, err)
	assert.Equal(t, types.AgentDormant, updated.State, "the child activated, executed, and settled back to Dormant")
}

func TestAppendContextAccumulatesOnParentForUpwardSignals(t *testing.T) {
	h := newHarness(nil, unit(4, 0))
	web := newWeb(h.store, types.DefaultWebConfig())
	root, err := h.store.GetAgent(context.Background(), web.RootAgentID)
	require.NoError(t, err)

	child := types.NewAgent(web.ID, &root.ID, "child", unit(4, 0), types.CapabilitySearch, 0.6)
	require.NoError(t, h.store.CreateAgent(context.Background(), child))

	signal := types.NewSignal(child.ID, unit(4, 0), "here is what I found", types.Upward)
	require.NoError(t, h.store.CreateSignal(context.Background(), signal))

	h.eng.processSignal(context.Background(), web, signal)

	updatedParent, err := h.store.GetAgent(context.Background(), root.ID)
	require.NoError(t, err)
	require.Len(t, updatedParent.Context.AccumulatedKnowledge, 1)
	assert.Equal(t, "here is what I found", updatedParent.Context.AccumulatedKnowledge[0].Content)
}
