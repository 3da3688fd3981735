// Package memstore provides an in-memory implementation of storage.Store.
//
// This implementation is suitable for development, testing, and single-node
// deployments where persistence across restarts is not required.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Pharbi/arachnid/storage"
	"github.com/Pharbi/arachnid/types"
	"github.com/Pharbi/arachnid/vector"
)

// Store is an in-memory implementation of storage.Store. It is safe for
// concurrent use.
type Store struct {
	mu sync.RWMutex

	webs        map[types.WebID]types.Web
	agents      map[types.AgentID]types.Agent
	signals     map[types.SignalID]types.Signal
	processed   map[types.SignalID]bool
	definitions map[types.DefinitionID]types.AgentDefinition
	patterns    []types.FailurePattern
}

// Compile-time check that Store implements storage.Store.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		webs:        make(map[types.WebID]types.Web),
		agents:      make(map[types.AgentID]types.Agent),
		signals:     make(map[types.SignalID]types.Signal),
		processed:   make(map[types.SignalID]bool),
		definitions: make(map[types.DefinitionID]types.AgentDefinition),
	}
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Webs

func (s *Store) CreateWeb(ctx context.Context, web types.Web) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webs[web.ID] = web
	return nil
}

func (s *Store) GetWeb(ctx context.Context, id types.WebID) (types.Web, error) {
	if err := ctxErr(ctx); err != nil {
		return types.Web{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.webs[id]
	if !ok {
		return types.Web{}, storage.ErrNotFound
	}
	return w, nil
}

func (s *Store) UpdateWeb(ctx context.Context, web types.Web) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.webs[web.ID]; !ok {
		return storage.ErrNotFound
	}
	s.webs[web.ID] = web
	return nil
}

func (s *Store) ListWebs(ctx context.Context, state *types.WebState) ([]types.Web, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Web, 0, len(s.webs))
	for _, w := range s.webs {
		if state != nil && w.State != *state {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// Agents

func (s *Store) CreateAgent(ctx context.Context, agent types.Agent) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[agent.ID] = agent
	return nil
}

func (s *Store) GetAgent(ctx context.Context, id types.AgentID) (types.Agent, error) {
	if err := ctxErr(ctx); err != nil {
		return types.Agent{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return types.Agent{}, storage.ErrNotFound
	}
	return a, nil
}

func (s *Store) UpdateAgent(ctx context.Context, agent types.Agent) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[agent.ID]; !ok {
		return storage.ErrNotFound
	}
	s.agents[agent.ID] = agent
	return nil
}

func (s *Store) GetChildren(ctx context.Context, parentID types.AgentID) ([]types.Agent, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Agent, 0)
	for _, a := range s.agents {
		if a.ParentID != nil && *a.ParentID == parentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetAncestors walks ParentID links from agentID up to and including the
// root, returning them ordered nearest-parent-first.
func (s *Store) GetAncestors(ctx context.Context, agentID types.AgentID) ([]types.Agent, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Agent, 0)
	current, ok := s.agents[agentID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	for current.ParentID != nil {
		parent, ok := s.agents[*current.ParentID]
		if !ok {
			break
		}
		out = append(out, parent)
		current = parent
	}
	return out, nil
}

func (s *Store) GetAgentsByState(ctx context.Context, webID types.WebID, state types.AgentState) ([]types.Agent, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Agent, 0)
	for _, a := range s.agents {
		if a.WebID == webID && a.State == state {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetWebAgents(ctx context.Context, webID types.WebID) ([]types.Agent, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Agent, 0)
	for _, a := range s.agents {
		if a.WebID == webID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) FindResonatingAgents(ctx context.Context, webID types.WebID, frequency []float32, threshold float32) ([]storage.AgentSimilarity, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]storage.AgentSimilarity, 0)
	for _, a := range s.agents {
		if a.WebID != webID || !a.State.EligibleForPropagation() {
			continue
		}
		sim := vector.CosineSimilarity(a.Tuning, frequency)
		if sim > threshold {
			out = append(out, storage.AgentSimilarity{Agent: a, Similarity: sim})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out, nil
}

// Signals

func (s *Store) CreateSignal(ctx context.Context, signal types.Signal) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals[signal.ID] = signal
	return nil
}

func (s *Store) GetPendingSignals(ctx context.Context, webID types.WebID) ([]types.Signal, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Signal, 0)
	for id, sig := range s.signals {
		if s.processed[id] {
			continue
		}
		origin, ok := s.agents[sig.Origin]
		if !ok || origin.WebID != webID {
			continue
		}
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) MarkSignalProcessed(ctx context.Context, id types.SignalID) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.signals[id]; !ok {
		return storage.ErrNotFound
	}
	s.processed[id] = true
	return nil
}

// Definitions

func (s *Store) CreateDefinition(ctx context.Context, def types.AgentDefinition) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.definitions[def.ID] = def
	return nil
}

func (s *Store) GetDefinition(ctx context.Context, id types.DefinitionID) (types.AgentDefinition, error) {
	if err := ctxErr(ctx); err != nil {
		return types.AgentDefinition{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.definitions[id]
	if !ok {
		return types.AgentDefinition{}, storage.ErrNotFound
	}
	return d, nil
}

func (s *Store) IncrementDefinitionUseCount(ctx context.Context, id types.DefinitionID) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.definitions[id]
	if !ok {
		return storage.ErrNotFound
	}
	d.UseCount++
	s.definitions[id] = d
	return nil
}

func (s *Store) ListDefinitions(ctx context.Context, source *types.DefinitionSource) ([]types.AgentDefinition, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.AgentDefinition, 0, len(s.definitions))
	for _, d := range s.definitions {
		if source != nil && d.Source != *source {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) FindDefinitionsBySimilarity(ctx context.Context, embedding []float32, threshold float32, sources []types.DefinitionSource, limit int) ([]storage.DefinitionSimilarity, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed := make(map[types.DefinitionSource]bool, len(sources))
	for _, src := range sources {
		allowed[src] = true
	}

	out := make([]storage.DefinitionSimilarity, 0)
	for _, d := range s.definitions {
		if len(allowed) > 0 && !allowed[d.Source] {
			continue
		}
		sim := vector.CosineSimilarity(d.TuningEmbedding, embedding)
		if sim > threshold {
			out = append(out, storage.DefinitionSimilarity{Definition: d, Similarity: sim})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Web memory

func (s *Store) RecordFailurePattern(ctx context.Context, pattern types.FailurePattern) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if pattern.ID == uuid.Nil {
		pattern.ID = types.NewFailurePatternID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, pattern)
	return nil
}

func (s *Store) GetFailurePatterns(ctx context.Context, webID types.WebID) ([]types.FailurePattern, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.FailurePattern, 0)
	for _, p := range s.patterns {
		if p.WebID == webID {
			out = append(out, p)
		}
	}
	return out, nil
}
