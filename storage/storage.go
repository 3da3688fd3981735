// Package storage defines the persistence contract consumed by the
// coordination engine (spec §6). Two backends implement it: memstore (an
// in-process map, used for development and tests) and pgstore (a
// PostgreSQL + pgvector backend for production).
//
// Implementations must serialize writes to a given entity; reads need not
// be linearizable (spec §5).
package storage

import (
	"context"

	"github.com/Pharbi/arachnid/types"
)

// Store is the persistence layer consumed by every core component.
// Implementations must be safe for concurrent use.
type Store interface {
	// Webs
	CreateWeb(ctx context.Context, web types.Web) error
	GetWeb(ctx context.Context, id types.WebID) (types.Web, error)
	UpdateWeb(ctx context.Context, web types.Web) error
	ListWebs(ctx context.Context, state *types.WebState) ([]types.Web, error)

	// Agents
	CreateAgent(ctx context.Context, agent types.Agent) error
	GetAgent(ctx context.Context, id types.AgentID) (types.Agent, error)
	UpdateAgent(ctx context.Context, agent types.Agent) error
	GetChildren(ctx context.Context, parentID types.AgentID) ([]types.Agent, error)
	GetAncestors(ctx context.Context, agentID types.AgentID) ([]types.Agent, error)
	GetAgentsByState(ctx context.Context, webID types.WebID, state types.AgentState) ([]types.Agent, error)
	GetWebAgents(ctx context.Context, webID types.WebID) ([]types.Agent, error)

	// FindResonatingAgents returns agents in webID whose tuning resonates
	// with frequency above threshold, ordered by similarity descending.
	// Agents in a terminal-or-winding-down state are excluded.
	FindResonatingAgents(ctx context.Context, webID types.WebID, frequency []float32, threshold float32) ([]AgentSimilarity, error)

	// Signals
	CreateSignal(ctx context.Context, signal types.Signal) error
	GetPendingSignals(ctx context.Context, webID types.WebID) ([]types.Signal, error)
	MarkSignalProcessed(ctx context.Context, id types.SignalID) error

	// Definitions
	CreateDefinition(ctx context.Context, def types.AgentDefinition) error
	GetDefinition(ctx context.Context, id types.DefinitionID) (types.AgentDefinition, error)
	IncrementDefinitionUseCount(ctx context.Context, id types.DefinitionID) error
	ListDefinitions(ctx context.Context, source *types.DefinitionSource) ([]types.AgentDefinition, error)
	FindDefinitionsBySimilarity(ctx context.Context, embedding []float32, threshold float32, sources []types.DefinitionSource, limit int) ([]DefinitionSimilarity, error)

	// Web memory
	RecordFailurePattern(ctx context.Context, pattern types.FailurePattern) error
	GetFailurePatterns(ctx context.Context, webID types.WebID) ([]types.FailurePattern, error)
}

// AgentSimilarity pairs an agent with its cosine similarity to a query
// vector, as returned by FindResonatingAgents.
type AgentSimilarity struct {
	Agent      types.Agent
	Similarity float32
}

// DefinitionSimilarity pairs a definition with its cosine similarity to a
// query embedding, as returned by FindDefinitionsBySimilarity.
type DefinitionSimilarity struct {
	Definition types.AgentDefinition
	Similarity float32
}
