package coordination

import (
	"context"

	"github.com/Pharbi/arachnid/executor"
	"github.com/Pharbi/arachnid/factory"
	"github.com/Pharbi/arachnid/provider"
	"github.com/Pharbi/arachnid/storage/memstore"
	"github.com/Pharbi/arachnid/tools"
	"github.com/Pharbi/arachnid/types"
	"github.com/Pharbi/arachnid/validation"
)

func unit(dim, at int) []float32 {
	v := make([]float32, dim)
	v[at] = 1.0
	return v
}

// scriptedLLM replays a fixed script of completions, matching the
// executor package's own test double.
type scriptedLLM struct {
	responses []string
	calls     int
}

func (s *scriptedLLM) Complete(_ context.Context, _ []provider.Message) (string, error) {
	if s.calls >= len(s.responses) {
		return "NEEDS_MORE", nil
	}
	r := s.responses[s.calls]
	s.calls++
	return r, nil
}

type constEmbedding struct{ vector []float32 }

func (c constEmbedding) Embed(context.Context, string) ([]float32, error) { return c.vector, nil }

func (c constEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = c.vector
	}
	return out, nil
}

// testHarness bundles an Engine with the concrete memstore backing it, so
// tests can assert on stored state directly.
type testHarness struct {
	store *memstore.Store
	llm   *scriptedLLM
	eng   *Engine
}

func newHarness(responses []string, embedding []float32) *testHarness {
	store := memstore.New()
	llm := &scriptedLLM{responses: responses}
	runtime := tools.NewRuntime(tools.RuntimeConfig{SandboxRoot: "/tmp"})
	exec := executor.NewAgentExecutor(store, llm, runtime, executor.DefaultExecutorConfig())
	fac := factory.NewAgentFactory(store, llm, constEmbedding{embedding}, factory.DefaultFactoryConfig())

	eng := New(store, exec, fac, constEmbedding{embedding}, nil, nil, nil, nil, DefaultConfig())
	return &testHarness{store: store, llm: llm, eng: eng}
}

// newHarnessWithValidation wires an Engine whose validator always judges
// with the given verdict string ("CONFIRM ..." or "CHALLENGE ..."),
// letting tests exercise the post-execution validation hook without a
// real LLM.
func newHarnessWithValidation(responses []string, embedding []float32, verdict string) *testHarness {
	store := memstore.New()
	llm := &scriptedLLM{responses: responses}
	runtime := tools.NewRuntime(tools.RuntimeConfig{SandboxRoot: "/tmp"})
	exec := executor.NewAgentExecutor(store, llm, runtime, executor.DefaultExecutorConfig())
	fac := factory.NewAgentFactory(store, llm, constEmbedding{embedding}, factory.DefaultFactoryConfig())

	validatorLLM := &scriptedLLM{responses: []string{verdict}}
	cfg := validation.DefaultConfig()
	cfg.MinValidationInterval = 0
	validator := validation.NewService(validatorLLM, nil, cfg)

	eng := New(store, exec, fac, constEmbedding{embedding}, validator, nil, nil, nil, DefaultConfig())
	return &testHarness{store: store, llm: llm, eng: eng}
}

func newWeb(store *memstore.Store, cfg types.WebConfig) types.Web {
	root := types.NewAgent(types.NewWebID(), nil, "root purpose", unit(4, 0), types.CapabilityAnalyst, cfg.DefaultThreshold)
	root.State = types.AgentListening
	_ = store.CreateAgent(context.Background(), root)

	web := types.NewWeb(root.ID, "do the task", cfg)
	web.ID = root.WebID
	_ = store.CreateWeb(context.Background(), web)
	return web
}
