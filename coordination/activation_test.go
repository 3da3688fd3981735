package coordination

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pharbi/arachnid/types"
)

func TestActivateIsNoOpWhenAlreadyActive(t *testing.T) {
	h := newHarness(nil, unit(4, 0))
	cfg := types.DefaultWebConfig()
	web := newWeb(h.store, cfg)

	agent, err := h.store.GetAgent(context.Background(), web.RootAgentID)
	require.NoError(t, err)
	agent.State = types.AgentActive
	require.NoError(t, h.store.UpdateAgent(context.Background(), agent))

	err = h.eng.activate(context.Background(), web, agent.ID, "trigger", unit(4, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, h.llm.calls, "an already-Active agent never reaches the executor")
}

func TestActivateCompleteTransitionsToDormant(t *testing.T) {
	h := newHarness([]string{`EMIT_SIGNAL: {"content": "done", "direction": "upward"}`}, unit(4, 0))
	cfg := types.DefaultWebConfig()
	web := newWeb(h.store, cfg)

	agent, err := h.store.GetAgent(context.Background(), web.RootAgentID)
	require.NoError(t, err)

	require.NoError(t, h.eng.activate(context.Background(), web, agent.ID, "do it", unit(4, 0)))

	updated, err := h.store.GetAgent(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.Equal(t, types.AgentDormant, updated.State)
	require.NotNil(t, updated.DormantSince)
}

func TestActivateNeedsMoreTransitionsToListening(t *testing.T) {
	h := newHarness([]string{"still working\nNEEDS_MORE"}, unit(4, 0))
	cfg := types.DefaultWebConfig()
	web := newWeb(h.store, cfg)

	agent, err := h.store.GetAgent(context.Background(), web.RootAgentID)
	require.NoError(t, err)

	require.NoError(t, h.eng.activate(context.Background(), web, agent.ID, "do it", unit(4, 0)))

	updated, err := h.store.GetAgent(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.Equal(t, types.AgentListening, updated.State)
}

func TestActivateMaterializesSignalDrafts(t *testing.T) {
	h := newHarness([]string{`EMIT_SIGNAL: {"content": "found it", "direction": "upward"}`}, unit(4, 0))
	cfg := types.DefaultWebConfig()
	web := newWeb(h.store, cfg)

	agent, err := h.store.GetAgent(context.Background(), web.RootAgentID)
	require.NoError(t, err)

	require.NoError(t, h.eng.activate(context.Background(), web, agent.ID, "do it", unit(4, 0)))

	pending, err := h.store.GetPendingSignals(context.Background(), web.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "found it", pending[0].Content)
	assert.Equal(t, agent.ID, pending[0].Origin)
}

func TestActivatePersistsValidationHealthDelta(t *testing.T) {
	h := newHarnessWithValidation([]string{`EMIT_SIGNAL: {"content": "done", "direction": "upward"}`}, unit(4, 0), "CHALLENGE 0.9\nlooks wrong")
	cfg := types.DefaultWebConfig()
	web := newWeb(h.store, cfg)

	agent, err := h.store.GetAgent(context.Background(), web.RootAgentID)
	require.NoError(t, err)
	agent.Health = 0.5 // below the 0.7 floor, so ShouldValidate fires regardless of priority
	require.NoError(t, h.store.UpdateAgent(context.Background(), agent))

	require.NoError(t, h.eng.activate(context.Background(), web, agent.ID, "do it", unit(4, 0)))

	updated, err := h.store.GetAgent(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.Less(t, updated.Health, float32(0.5), "a Challenge verdict's health delta must survive the activation's final UpdateAgent")
	assert.NotEmpty(t, updated.HealthHistory, "the applied delta is recorded in health history")
}

func TestActivateAppliesTuningDriftWhenEnabled(t *testing.T) {
	h := newHarness([]string{`EMIT_SIGNAL: {"content": "done", "direction": "upward"}`}, unit(4, 0))
	cfg := types.DefaultWebConfig()
	cfg.EnableTuningDrift = true
	web := newWeb(h.store, cfg)

	agent, err := h.store.GetAgent(context.Background(), web.RootAgentID)
	require.NoError(t, err)
	original := append([]float32(nil), agent.Tuning...)

	frequency := unit(4, 1)
	require.NoError(t, h.eng.activate(context.Background(), web, agent.ID, "do it", frequency))

	updated, err := h.store.GetAgent(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.NotEqual(t, original, updated.Tuning, "tuning drifts toward the triggering frequency once enabled")
}
