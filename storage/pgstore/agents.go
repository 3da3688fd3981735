package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/Pharbi/arachnid/storage"
	"github.com/Pharbi/arachnid/types"
)

const agentColumns = `
	id, web_id, parent_id, purpose, tuning, capability, state, health, health_history,
	activation_threshold, context, probation_remaining, definition_id,
	created_at, last_active_at, dormant_since
`

func (s *Store) CreateAgent(ctx context.Context, agent types.Agent) error {
	ctxJSON, historyJSON, err := marshalAgentJSON(agent)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO agents (
			id, web_id, parent_id, purpose, tuning, capability, state, health, health_history,
			activation_threshold, context, probation_remaining, definition_id,
			created_at, last_active_at, dormant_since
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		agent.ID, agent.WebID, agent.ParentID, agent.Purpose, toVector(agent.Tuning),
		string(agent.Capability), string(agent.State), agent.Health, historyJSON,
		agent.ActivationThreshold, ctxJSON, agent.ProbationRemaining, agent.DefinitionID,
		agent.CreatedAt, agent.LastActiveAt, agent.DormantSince,
	)
	return err
}

func (s *Store) GetAgent(ctx context.Context, id types.AgentID) (types.Agent, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id)
	a, err := scanAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Agent{}, storage.ErrNotFound
	}
	return a, err
}

func (s *Store) UpdateAgent(ctx context.Context, agent types.Agent) error {
	ctxJSON, historyJSON, err := marshalAgentJSON(agent)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE agents SET
			web_id = $2, parent_id = $3, purpose = $4, tuning = $5, capability = $6,
			state = $7, health = $8, health_history = $9, activation_threshold = $10,
			context = $11, probation_remaining = $12, definition_id = $13,
			last_active_at = $14, dormant_since = $15
		WHERE id = $1
	`,
		agent.ID, agent.WebID, agent.ParentID, agent.Purpose, toVector(agent.Tuning),
		string(agent.Capability), string(agent.State), agent.Health, historyJSON,
		agent.ActivationThreshold, ctxJSON, agent.ProbationRemaining, agent.DefinitionID,
		agent.LastActiveAt, agent.DormantSince,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func marshalAgentJSON(agent types.Agent) (ctxJSON, historyJSON []byte, err error) {
	ctxJSON, err = json.Marshal(agent.Context)
	if err != nil {
		return nil, nil, fmt.Errorf("pgstore: marshal context: %w", err)
	}
	history := agent.HealthHistory
	if history == nil {
		history = []types.HealthEvent{}
	}
	historyJSON, err = json.Marshal(history)
	if err != nil {
		return nil, nil, fmt.Errorf("pgstore: marshal health history: %w", err)
	}
	return ctxJSON, historyJSON, nil
}

func (s *Store) GetChildren(ctx context.Context, parentID types.AgentID) ([]types.Agent, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+agentColumns+` FROM agents WHERE parent_id = $1 ORDER BY created_at ASC`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgents(rows)
}

// GetAncestors walks parent_id links via a recursive CTE, returning the
// chain nearest-parent-first.
func (s *Store) GetAncestors(ctx context.Context, agentID types.AgentID) ([]types.Agent, error) {
	rows, err := s.pool.Query(ctx, `
		WITH RECURSIVE ancestors AS (
			SELECT a.*, 0 AS level FROM agents a WHERE a.id = $1
			UNION ALL
			SELECT p.*, anc.level + 1
			FROM agents p
			INNER JOIN ancestors anc ON p.id = anc.parent_id
		)
		SELECT `+agentColumns+` FROM ancestors WHERE level > 0 ORDER BY level ASC
	`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgents(rows)
}

func (s *Store) GetAgentsByState(ctx context.Context, webID types.WebID, state types.AgentState) ([]types.Agent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+agentColumns+` FROM agents WHERE web_id = $1 AND state = $2
	`, webID, string(state))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgents(rows)
}

func (s *Store) GetWebAgents(ctx context.Context, webID types.WebID) ([]types.Agent, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+agentColumns+` FROM agents WHERE web_id = $1 ORDER BY created_at ASC`, webID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgents(rows)
}

func (s *Store) FindResonatingAgents(ctx context.Context, webID types.WebID, frequency []float32, threshold float32) ([]storage.AgentSimilarity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+agentColumns+`, 1 - (tuning <=> $2) AS similarity
		FROM agents
		WHERE web_id = $1
		  AND state NOT IN ('terminated', 'winding_down')
		  AND 1 - (tuning <=> $2) > $3
		ORDER BY similarity DESC
	`, webID, toVector(frequency), threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]storage.AgentSimilarity, 0)
	for rows.Next() {
		a, similarity, err := scanAgentWithSimilarity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, storage.AgentSimilarity{Agent: a, Similarity: similarity})
	}
	return out, rows.Err()
}

func scanAgentWithSimilarity(rows pgx.Rows) (types.Agent, float32, error) {
	var (
		a                 types.Agent
		tuning            pgvector.Vector
		capability, state string
		ctxJSON           []byte
		historyJSON       []byte
		similarity        float32
	)
	if err := rows.Scan(
		&a.ID, &a.WebID, &a.ParentID, &a.Purpose, &tuning, &capability, &state, &a.Health,
		&historyJSON, &a.ActivationThreshold, &ctxJSON, &a.ProbationRemaining, &a.DefinitionID,
		&a.CreatedAt, &a.LastActiveAt, &a.DormantSince, &similarity,
	); err != nil {
		return types.Agent{}, 0, err
	}
	if err := hydrateAgent(&a, tuning, capability, state, ctxJSON, historyJSON); err != nil {
		return types.Agent{}, 0, err
	}
	return a, similarity, nil
}

func scanAgents(rows pgx.Rows) ([]types.Agent, error) {
	out := make([]types.Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAgent(row rowScanner) (types.Agent, error) {
	var (
		a                 types.Agent
		tuning            pgvector.Vector
		capability, state string
		ctxJSON           []byte
		historyJSON       []byte
	)
	if err := row.Scan(
		&a.ID, &a.WebID, &a.ParentID, &a.Purpose, &tuning, &capability, &state, &a.Health,
		&historyJSON, &a.ActivationThreshold, &ctxJSON, &a.ProbationRemaining, &a.DefinitionID,
		&a.CreatedAt, &a.LastActiveAt, &a.DormantSince,
	); err != nil {
		return types.Agent{}, err
	}
	if err := hydrateAgent(&a, tuning, capability, state, ctxJSON, historyJSON); err != nil {
		return types.Agent{}, err
	}
	return a, nil
}

func hydrateAgent(a *types.Agent, tuning pgvector.Vector, capability, state string, ctxJSON, historyJSON []byte) error {
	a.Tuning = tuning.Slice()
	a.Capability = types.CapabilityType(capability)
	a.State = types.AgentState(state)
	if err := json.Unmarshal(ctxJSON, &a.Context); err != nil {
		return fmt.Errorf("pgstore: unmarshal context: %w", err)
	}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &a.HealthHistory); err != nil {
			return fmt.Errorf("pgstore: unmarshal health history: %w", err)
		}
	}
	return nil
}
