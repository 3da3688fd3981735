package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pharbi/arachnid/provider"
	"github.com/Pharbi/arachnid/storage/memstore"
	"github.com/Pharbi/arachnid/tools"
	"github.com/Pharbi/arachnid/types"
)

type scriptedLLM struct {
	responses []string
	calls     int
	messages  [][]provider.Message
}

func (s *scriptedLLM) Complete(_ context.Context, messages []provider.Message) (string, error) {
	s.messages = append(s.messages, messages)
	if s.calls >= len(s.responses) {
		return "", assert.AnError
	}
	r := s.responses[s.calls]
	s.calls++
	return r, nil
}

type fakeSearchProvider struct{}

func (fakeSearchProvider) Search(context.Context, string, int) ([]provider.SearchResult, error) {
	return []provider.SearchResult{{Title: "result", URL: "https://example.com"}}, nil
}

func newTestExecutor(store *memstore.Store, llm *scriptedLLM, cfg ExecutorConfig) *AgentExecutor {
	runtime := tools.NewRuntime(tools.RuntimeConfig{SandboxRoot: "/tmp", SearchProvider: fakeSearchProvider{}})
	return NewAgentExecutor(store, llm, runtime, cfg)
}

func testAgent() types.Agent {
	return types.NewAgent(types.NewWebID(), nil, "research the topic", []float32{1, 0, 0}, types.CapabilitySearch, 0.6)
}

func TestExecuteFallsBackToCapabilityScaffoldWhenNoDefinition(t *testing.T) {
	store := memstore.New()
	llm := &scriptedLLM{responses: []string{`EMIT_SIGNAL: {"content": "found it", "direction": "upward"}`}}
	exec := newTestExecutor(store, llm, DefaultExecutorConfig())

	result, err := exec.Execute(context.Background(), testAgent(), "")
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, result.Status)
	require.Len(t, result.SignalDrafts, 1)
	assert.Equal(t, "found it", result.SignalDrafts[0].Content)
	assert.Equal(t, types.Upward, result.SignalDrafts[0].Direction)

	require.NotEmpty(t, llm.messages)
	systemPrompt := llm.messages[0][0].Content
	assert.Contains(t, systemPrompt, "focused research agent")
}

func TestExecuteUsesStoredDefinitionWhenPresent(t *testing.T) {
	store := memstore.New()
	def := types.AgentDefinition{
		ID:           types.NewDefinitionID(),
		Name:         "custom",
		SystemPrompt: "You are a bespoke definition agent.",
		Tools:        []types.ToolKind{types.ToolEmitSignal},
		Source:       types.SourceUserCustom,
	}
	require.NoError(t, store.CreateDefinition(context.Background(), def))

	agent := testAgent()
	agent.DefinitionID = &def.ID

	llm := &scriptedLLM{responses: []string{"all done"}}
	exec := newTestExecutor(store, llm, DefaultExecutorConfig())

	result, err := exec.Execute(context.Background(), agent, "")
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, result.Status)
	assert.Contains(t, llm.messages[0][0].Content, "bespoke definition agent")
}

func TestExecuteRunsToolCallThenFinalResponse(t *testing.T) {
	store := memstore.New()
	llm := &scriptedLLM{responses: []string{
		`TOOL_CALL: {"tool": "web_search", "params": {"query": "golang"}}`,
		`EMIT_SIGNAL: {"content": "summarized results", "direction": "upward"}`,
	}}
	exec := newTestExecutor(store, llm, DefaultExecutorConfig())

	result, err := exec.Execute(context.Background(), testAgent(), "")
	require.NoError(t, err)
	require.Len(t, result.ToolResults, 1)
	assert.Equal(t, types.ToolWebSearch, result.ToolResults[0].Tool)
	assert.Equal(t, types.StatusComplete, result.Status)
	require.Len(t, result.SignalDrafts, 1)
}

func TestExecuteExceedsMaxToolCallsFails(t *testing.T) {
	store := memstore.New()
	llm := &scriptedLLM{responses: []string{
		`TOOL_CALL: {"tool": "web_search", "params": {"query": "a"}}`,
		`TOOL_CALL: {"tool": "web_search", "params": {"query": "b"}}`,
	}}
	exec := newTestExecutor(store, llm, ExecutorConfig{MaxToolCalls: 1})

	_, err := exec.Execute(context.Background(), testAgent(), "")
	assert.Error(t, err)
}

func TestExecuteParsesNeedsMoreMarker(t *testing.T) {
	store := memstore.New()
	llm := &scriptedLLM{responses: []string{"still working\nNEEDS_MORE"}}
	exec := newTestExecutor(store, llm, DefaultExecutorConfig())

	result, err := exec.Execute(context.Background(), testAgent(), "")
	require.NoError(t, err)
	assert.Equal(t, types.StatusNeedsMore, result.Status)
}

func TestExecuteParsesFailedMarker(t *testing.T) {
	store := memstore.New()
	llm := &scriptedLLM{responses: []string{"couldn't complete\nFAILED"}}
	exec := newTestExecutor(store, llm, DefaultExecutorConfig())

	result, err := exec.Execute(context.Background(), testAgent(), "")
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, result.Status)
}

func TestExecuteMapsDisallowedToolToFailedStatus(t *testing.T) {
	store := memstore.New()
	def := types.AgentDefinition{
		ID:     types.NewDefinitionID(),
		Name:   "narrow",
		Tools:  []types.ToolKind{types.ToolEmitSignal},
		Source: types.SourceUserCustom,
	}
	require.NoError(t, store.CreateDefinition(context.Background(), def))
	agent := testAgent()
	agent.DefinitionID = &def.ID

	llm := &scriptedLLM{responses: []string{
		`TOOL_CALL: {"tool": "write_file", "params": {"path": "x", "content": "y"}}`,
		"done",
	}}
	exec := newTestExecutor(store, llm, DefaultExecutorConfig())

	result, err := exec.Execute(context.Background(), agent, "")
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, result.Status)
	require.Len(t, result.ToolResults, 1)
	assert.False(t, result.ToolResults[0].Success)
}

func TestExecuteParsesNeedMarker(t *testing.T) {
	store := memstore.New()
	llm := &scriptedLLM{responses: []string{`NEED: {"description": "review this code", "suggested_capability": "code_reviewer"}`}}
	exec := newTestExecutor(store, llm, DefaultExecutorConfig())

	result, err := exec.Execute(context.Background(), testAgent(), "")
	require.NoError(t, err)
	require.Len(t, result.Needs, 1)
	assert.Equal(t, "review this code", result.Needs[0].Description)
	require.NotNil(t, result.Needs[0].SuggestedCapability)
	assert.Equal(t, types.CapabilityCodeReviewer, *result.Needs[0].SuggestedCapability)
}

func TestExecutePropagatesProviderError(t *testing.T) {
	store := memstore.New()
	llm := &scriptedLLM{responses: nil}
	exec := newTestExecutor(store, llm, DefaultExecutorConfig())

	_, err := exec.Execute(context.Background(), testAgent(), "")
	assert.Error(t, err)
}
