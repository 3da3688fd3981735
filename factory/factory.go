// Package factory resolves a Need into a concrete Agent: match an existing
// definition, reuse a dormant agent, or generate a fresh definition, then
// instantiate an agent instance tuned to the specific need (spec §4.9).
package factory

import (
	"context"
	"fmt"

	"github.com/Pharbi/arachnid/definitions"
	"github.com/Pharbi/arachnid/provider"
	"github.com/Pharbi/arachnid/storage"
	"github.com/Pharbi/arachnid/types"
	"github.com/Pharbi/arachnid/vector"
)

// FactoryConfig tunes the factory's matching and caching behavior.
type FactoryConfig struct {
	// DefinitionMatchThreshold is the minimum cosine similarity for a
	// stored definition to be reused instead of generating a new one.
	DefinitionMatchThreshold float32
	// DormantReactivationThreshold is the minimum cosine similarity
	// between a dormant agent's tuning and a need embedding for that
	// agent to be reactivated instead of spawning a new one.
	DormantReactivationThreshold float32
	// CacheGeneratedDefinitions persists newly generated definitions so
	// future needs can match against them.
	CacheGeneratedDefinitions bool
}

// DefaultFactoryConfig mirrors the original implementation's defaults.
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		DefinitionMatchThreshold:     0.75,
		DormantReactivationThreshold: 0.80,
		CacheGeneratedDefinitions:    true,
	}
}

// AgentFactory turns needs into agents, preferring reuse (matching
// definitions, reactivating dormant agents) over generating new ones.
type AgentFactory struct {
	store     storage.Store
	generator *definitions.Generator
	embedding provider.EmbeddingProvider
	config    FactoryConfig
}

// NewAgentFactory wires a factory over the given store and providers.
// embedding is wrapped with provider.NewFallbackEmbedding so a nil or
// failing embedding provider degrades to a constant vector here too,
// independent of whatever the caller passes to coordination.New.
func NewAgentFactory(store storage.Store, llm provider.LLMProvider, embedding provider.EmbeddingProvider, config FactoryConfig) *AgentFactory {
	embedding = provider.NewFallbackEmbedding(embedding)
	return &AgentFactory{
		store:     store,
		generator: definitions.NewGenerator(llm, embedding),
		embedding: embedding,
		config:    config,
	}
}

// BuiltinTaskCoordinator returns the fixed-ID built-in definition used to
// seed a web's root agent.
func (f *AgentFactory) BuiltinTaskCoordinator() types.AgentDefinition {
	return definitions.TaskCoordinatorDefinition()
}

// SpawnForNeed resolves need to a definition (matching, reusing, or
// generating one) and instantiates a new agent instance for it.
func (f *AgentFactory) SpawnForNeed(ctx context.Context, need string, parentID *types.AgentID, webID types.WebID, webConfig types.WebConfig) (types.Agent, error) {
	def, err := f.FindOrGenerateDefinition(ctx, need)
	if err != nil {
		return types.Agent{}, fmt.Errorf("factory: resolve definition for need: %w", err)
	}

	if err := f.store.IncrementDefinitionUseCount(ctx, def.ID); err != nil {
		return types.Agent{}, fmt.Errorf("factory: increment use count: %w", err)
	}

	tuning, err := f.computeInstanceTuning(ctx, def, need)
	if err != nil {
		return types.Agent{}, fmt.Errorf("factory: compute instance tuning: %w", err)
	}

	agent := f.instantiate(def, webID, parentID, need, tuning, webConfig.DefaultThreshold)
	return agent, nil
}

// SpawnFromDefinition instantiates an agent directly from a known
// definition (used for the root task-coordinator agent and for explicit
// user-directed spawns).
func (f *AgentFactory) SpawnFromDefinition(ctx context.Context, def types.AgentDefinition, parentID *types.AgentID, webID types.WebID, webConfig types.WebConfig, purpose string) (types.Agent, error) {
	if err := f.store.IncrementDefinitionUseCount(ctx, def.ID); err != nil {
		return types.Agent{}, fmt.Errorf("factory: increment use count: %w", err)
	}

	tuning := def.TuningEmbedding
	if len(tuning) == 0 {
		embedded, err := f.embedding.Embed(ctx, purpose)
		if err != nil {
			return types.Agent{}, fmt.Errorf("factory: embed purpose: %w", err)
		}
		tuning = embedded
	}

	agent := f.instantiate(def, webID, parentID, purpose, tuning, webConfig.DefaultThreshold)
	return agent, nil
}

func (f *AgentFactory) instantiate(def types.AgentDefinition, webID types.WebID, parentID *types.AgentID, purpose string, tuning []float32, threshold float32) types.Agent {
	agent := types.NewAgent(webID, parentID, purpose, tuning, def.Capability, threshold)
	defID := def.ID
	agent.DefinitionID = &defID
	return agent
}

// FindOrGenerateDefinition resolves need to a definition, preferring (in
// order): user-custom definitions, cached generated definitions, then a
// freshly generated one (spec §4.9).
func (f *AgentFactory) FindOrGenerateDefinition(ctx context.Context, need string) (types.AgentDefinition, error) {
	needEmbedding, err := f.embedding.Embed(ctx, need)
	if err != nil {
		return types.AgentDefinition{}, fmt.Errorf("factory: embed need: %w", err)
	}

	if def, ok, err := f.findMatchingDefinition(ctx, needEmbedding, []types.DefinitionSource{types.SourceUserCustom}); err != nil {
		return types.AgentDefinition{}, err
	} else if ok {
		return def, nil
	}

	if def, ok, err := f.findMatchingDefinition(ctx, needEmbedding, []types.DefinitionSource{types.SourceGenerated}); err != nil {
		return types.AgentDefinition{}, err
	} else if ok {
		return def, nil
	}

	def, err := f.generator.Generate(ctx, need)
	if err != nil {
		return types.AgentDefinition{}, fmt.Errorf("factory: generate definition: %w", err)
	}

	if f.config.CacheGeneratedDefinitions {
		if err := f.store.CreateDefinition(ctx, def); err != nil {
			return types.AgentDefinition{}, fmt.Errorf("factory: cache generated definition: %w", err)
		}
	}

	return def, nil
}

func (f *AgentFactory) findMatchingDefinition(ctx context.Context, embedding []float32, sources []types.DefinitionSource) (types.AgentDefinition, bool, error) {
	matches, err := f.store.FindDefinitionsBySimilarity(ctx, embedding, f.config.DefinitionMatchThreshold, sources, 1)
	if err != nil {
		return types.AgentDefinition{}, false, fmt.Errorf("factory: find definitions by similarity: %w", err)
	}
	if len(matches) == 0 {
		return types.AgentDefinition{}, false, nil
	}
	return matches[0].Definition, true, nil
}

// CheckDormantAgents looks for a dormant agent in webID whose tuning
// resonates with need above DormantReactivationThreshold, returning its ID
// so the caller can reactivate it instead of spawning a new agent.
func (f *AgentFactory) CheckDormantAgents(ctx context.Context, need string, webID types.WebID) (*types.AgentID, error) {
	needEmbedding, err := f.embedding.Embed(ctx, need)
	if err != nil {
		return nil, fmt.Errorf("factory: embed need: %w", err)
	}

	dormant, err := f.store.GetAgentsByState(ctx, webID, types.AgentDormant)
	if err != nil {
		return nil, fmt.Errorf("factory: list dormant agents: %w", err)
	}

	for _, agent := range dormant {
		if vector.CosineSimilarity(agent.Tuning, needEmbedding) > f.config.DormantReactivationThreshold {
			id := agent.ID
			return &id, nil
		}
	}

	return nil, nil
}

func (f *AgentFactory) computeInstanceTuning(ctx context.Context, def types.AgentDefinition, need string) ([]float32, error) {
	needEmbedding, err := f.embedding.Embed(ctx, need)
	if err != nil {
		return nil, fmt.Errorf("embed need: %w", err)
	}

	if len(def.TuningEmbedding) == 0 {
		return needEmbedding, nil
	}

	blended := make([]float32, len(def.TuningEmbedding))
	for i := range blended {
		var n float32
		if i < len(needEmbedding) {
			n = needEmbedding[i]
		}
		blended[i] = 0.7*def.TuningEmbedding[i] + 0.3*n
	}

	return vector.L2Normalize(blended), nil
}

// GetDefinition fetches a single definition by ID.
func (f *AgentFactory) GetDefinition(ctx context.Context, id types.DefinitionID) (types.AgentDefinition, error) {
	return f.store.GetDefinition(ctx, id)
}

// ListDefinitions lists definitions, optionally filtered by source.
func (f *AgentFactory) ListDefinitions(ctx context.Context, source *types.DefinitionSource) ([]types.AgentDefinition, error) {
	return f.store.ListDefinitions(ctx, source)
}
