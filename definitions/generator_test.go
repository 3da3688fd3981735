package definitions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pharbi/arachnid/provider"
	"github.com/Pharbi/arachnid/types"
)

type mockLLM struct {
	response string
	err      error
}

func (m *mockLLM) Complete(context.Context, []provider.Message) (string, error) {
	return m.response, m.err
}

type mockEmbedding struct {
	dim int
	err error
}

func (m *mockEmbedding) Embed(context.Context, string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return make([]float32, m.dim), nil
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, m.dim)
	}
	return out, nil
}

func TestGenerateParsesMinimalYAML(t *testing.T) {
	llm := &mockLLM{response: "name: mock-agent\ntuning_keywords:\n  - mock\ntools:\n  - emit_signal"}
	gen := NewGenerator(llm, &mockEmbedding{dim: 1536})

	def, err := gen.Generate(context.Background(), "mock need")
	require.NoError(t, err)
	assert.Equal(t, "mock-agent", def.Name)
	assert.Equal(t, []string{"mock"}, def.TuningKeywords)
	assert.Equal(t, types.SourceGenerated, def.Source)
	assert.Len(t, def.TuningEmbedding, 1536)
	assert.True(t, def.HasTool(types.ToolEmitSignal))
	assert.Equal(t, types.CapabilitySearch, def.Capability, "unspecified capability falls back to search")
}

func TestGenerateParsesExplicitCapability(t *testing.T) {
	llm := &mockLLM{response: "name: writer\ncapability: code_writer\ntools:\n  - write_file"}
	gen := NewGenerator(llm, &mockEmbedding{dim: 4})

	def, err := gen.Generate(context.Background(), "write code")
	require.NoError(t, err)
	assert.Equal(t, types.CapabilityCodeWriter, def.Capability)
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	llm := &mockLLM{response: "```yaml\nname: fenced-agent\ntools:\n  - web_search\n```"}
	gen := NewGenerator(llm, &mockEmbedding{dim: 4})

	def, err := gen.Generate(context.Background(), "search things")
	require.NoError(t, err)
	assert.Equal(t, "fenced-agent", def.Name)
	assert.True(t, def.HasTool(types.ToolWebSearch))
}

func TestGenerateFallsBackOnMissingFields(t *testing.T) {
	llm := &mockLLM{response: "tools:\n  - bogus-tool"}
	gen := NewGenerator(llm, &mockEmbedding{dim: 4})

	def, err := gen.Generate(context.Background(), "analyze security vulnerabilities")
	require.NoError(t, err)
	assert.Equal(t, "analyze-security-vulnerabilities", def.Name)
	assert.NotEmpty(t, def.TuningKeywords)
	assert.True(t, def.HasTool(types.ToolEmitSignal), "unknown tool names fall back to emit_signal")
	assert.Equal(t, float32(DefaultTemperature), def.Temperature)
}

func TestGenerateNameFromNeed(t *testing.T) {
	gen := NewGenerator(&mockLLM{}, &mockEmbedding{})

	assert.Equal(t, "analyze-security-vulnerabilities", gen.generateNameFromNeed("analyze security vulnerabilities"))
	assert.Equal(t, "search-code", gen.generateNameFromNeed("search for code"))
}

func TestExtractKeywordsFromNeed(t *testing.T) {
	gen := NewGenerator(&mockLLM{}, &mockEmbedding{})

	keywords := gen.extractKeywordsFromNeed("analyze security vulnerabilities in code")
	assert.Contains(t, keywords, "analyze")
	assert.Contains(t, keywords, "security")
	assert.Contains(t, keywords, "vulnerabilities")
	assert.Contains(t, keywords, "code")
}

func TestGeneratePropagatesLLMError(t *testing.T) {
	llm := &mockLLM{err: assert.AnError}
	gen := NewGenerator(llm, &mockEmbedding{dim: 4})

	_, err := gen.Generate(context.Background(), "need")
	assert.Error(t, err)
}

func TestGenerateRejectsUnparsableYAML(t *testing.T) {
	llm := &mockLLM{response: "not: [valid yaml"}
	gen := NewGenerator(llm, &mockEmbedding{dim: 4})

	_, err := gen.Generate(context.Background(), "need")
	assert.Error(t, err)
}
