package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pharbi/arachnid/coordination"
	"github.com/Pharbi/arachnid/executor"
	"github.com/Pharbi/arachnid/factory"
	"github.com/Pharbi/arachnid/provider"
	"github.com/Pharbi/arachnid/storage/memstore"
	"github.com/Pharbi/arachnid/tools"
	"github.com/Pharbi/arachnid/types"
)

type fakeLLM struct{}

func (fakeLLM) Complete(context.Context, []provider.Message) (string, error) {
	return "NEEDS_MORE", nil
}

type fakeEmbedding struct{}

func (fakeEmbedding) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

func (fakeEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}

func newTestServer(t *testing.T) (*Server, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	runtime := tools.NewRuntime(tools.RuntimeConfig{SandboxRoot: "/tmp"})
	exec := executor.NewAgentExecutor(store, fakeLLM{}, runtime, executor.DefaultExecutorConfig())
	fac := factory.NewAgentFactory(store, fakeLLM{}, fakeEmbedding{}, factory.DefaultFactoryConfig())
	eng := coordination.New(store, exec, fac, fakeEmbedding{}, nil, nil, nil, nil, coordination.DefaultConfig())
	return New(store, eng, nil, nil), store
}

func TestHandleCreateWebPersistsAndReturnsWeb(t *testing.T) {
	s, store := newTestServer(t)

	body := strings.NewReader(`{"task": "summarize the incident"}`)
	req := httptest.NewRequest(http.MethodPost, "/webs", body)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var web types.Web
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&web))
	assert.Equal(t, "summarize the incident", web.Task)

	stored, err := store.GetWeb(context.Background(), web.ID)
	require.NoError(t, err)
	assert.Equal(t, web.ID, stored.ID)
}

func TestHandleCreateWebRejectsEmptyTask(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webs", strings.NewReader(`{"task": ""}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetWebReturnsNotFoundForUnknownID(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/webs/"+types.NewWebID().String(), nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleTerminateWebFlipsStateToFailed(t *testing.T) {
	s, store := newTestServer(t)
	web := types.NewWeb(types.NewAgentID(), "task", types.DefaultWebConfig())
	require.NoError(t, store.CreateWeb(context.Background(), web))

	req := httptest.NewRequest(http.MethodDelete, "/webs/"+web.ID.String(), nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	updated, err := store.GetWeb(context.Background(), web.ID)
	require.NoError(t, err)
	assert.Equal(t, types.WebFailed, updated.State)
}

func TestHandleListWebAgents(t *testing.T) {
	s, store := newTestServer(t)
	root := types.NewAgent(types.NewWebID(), nil, "root", []float32{1, 0, 0, 0}, types.CapabilityAnalyst, 0.5)
	require.NoError(t, store.CreateAgent(context.Background(), root))
	web := types.NewWeb(root.ID, "task", types.DefaultWebConfig())
	web.ID = root.WebID
	require.NoError(t, store.CreateWeb(context.Background(), web))

	req := httptest.NewRequest(http.MethodGet, "/webs/"+web.ID.String()+"/agents", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var agents []types.Agent
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&agents))
	require.Len(t, agents, 1)
	assert.Equal(t, root.ID, agents[0].ID)
}

func TestHandleWebResultsReturnsRootKnowledge(t *testing.T) {
	s, store := newTestServer(t)
	root := types.NewAgent(types.NewWebID(), nil, "root", []float32{1, 0, 0, 0}, types.CapabilityAnalyst, 0.5)
	root.Context.AppendKnowledge(types.ContextItem{SourceAgent: root.ID, Content: "done"})
	require.NoError(t, store.CreateAgent(context.Background(), root))
	web := types.NewWeb(root.ID, "task", types.DefaultWebConfig())
	web.ID = root.WebID
	require.NoError(t, store.CreateWeb(context.Background(), web))

	req := httptest.NewRequest(http.MethodGet, "/webs/"+web.ID.String()+"/results", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	result, ok := body["result"].([]any)
	require.True(t, ok)
	require.Len(t, result, 1)
}

func TestHandleGetAgentContext(t *testing.T) {
	s, store := newTestServer(t)
	agent := types.NewAgent(types.NewWebID(), nil, "purpose text", []float32{1, 0, 0, 0}, types.CapabilityAnalyst, 0.5)
	require.NoError(t, store.CreateAgent(context.Background(), agent))

	req := httptest.NewRequest(http.MethodGet, "/agents/"+agent.ID.String()+"/context", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var ctx types.AgentContext
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ctx))
	assert.Equal(t, "purpose text", ctx.Purpose)
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
