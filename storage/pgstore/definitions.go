package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/Pharbi/arachnid/storage"
	"github.com/Pharbi/arachnid/types"
)

const definitionColumns = `
	id, name, tuning_keywords, tuning_embedding, system_prompt, temperature,
	tools, source, health_score, use_count, version, created_at
`

func (s *Store) CreateDefinition(ctx context.Context, def types.AgentDefinition) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO agent_definitions (
			id, name, tuning_keywords, tuning_embedding, system_prompt, temperature,
			tools, source, health_score, use_count, version, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		def.ID, def.Name, def.TuningKeywords, toVector(def.TuningEmbedding), def.SystemPrompt,
		def.Temperature, toolKindsToStrings(def.Tools), string(def.Source), def.HealthScore,
		def.UseCount, def.Version, def.CreatedAt,
	)
	return err
}

func (s *Store) GetDefinition(ctx context.Context, id types.DefinitionID) (types.AgentDefinition, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+definitionColumns+` FROM agent_definitions WHERE id = $1`, id)
	d, err := scanDefinition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.AgentDefinition{}, storage.ErrNotFound
	}
	return d, err
}

func (s *Store) IncrementDefinitionUseCount(ctx context.Context, id types.DefinitionID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE agent_definitions SET use_count = use_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListDefinitions(ctx context.Context, source *types.DefinitionSource) ([]types.AgentDefinition, error) {
	var rows pgx.Rows
	var err error
	if source != nil {
		rows, err = s.pool.Query(ctx, `SELECT `+definitionColumns+` FROM agent_definitions WHERE source = $1 ORDER BY created_at DESC`, string(*source))
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+definitionColumns+` FROM agent_definitions ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]types.AgentDefinition, 0)
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) FindDefinitionsBySimilarity(ctx context.Context, embedding []float32, threshold float32, sources []types.DefinitionSource, limit int) ([]storage.DefinitionSimilarity, error) {
	sourceStrs := make([]string, len(sources))
	for i, src := range sources {
		sourceStrs[i] = string(src)
	}
	query := `
		SELECT ` + definitionColumns + `, 1 - (tuning_embedding <=> $1) AS similarity
		FROM agent_definitions
		WHERE 1 - (tuning_embedding <=> $1) > $2
	`
	args := []any{toVector(embedding), threshold}
	if len(sourceStrs) > 0 {
		query += ` AND source = ANY($3)`
		args = append(args, sourceStrs)
	}
	query += ` ORDER BY similarity DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]storage.DefinitionSimilarity, 0)
	for rows.Next() {
		var (
			d          types.AgentDefinition
			embVec     pgvector.Vector
			source     string
			tools      []string
			similarity float32
		)
		if err := rows.Scan(
			&d.ID, &d.Name, &d.TuningKeywords, &embVec, &d.SystemPrompt, &d.Temperature,
			&tools, &source, &d.HealthScore, &d.UseCount, &d.Version, &d.CreatedAt, &similarity,
		); err != nil {
			return nil, err
		}
		d.TuningEmbedding = embVec.Slice()
		d.Source = types.DefinitionSource(source)
		d.Tools = stringsToToolKinds(tools)
		out = append(out, storage.DefinitionSimilarity{Definition: d, Similarity: similarity})
	}
	return out, rows.Err()
}

func scanDefinition(row rowScanner) (types.AgentDefinition, error) {
	var (
		d      types.AgentDefinition
		embVec pgvector.Vector
		source string
		tools  []string
	)
	if err := row.Scan(
		&d.ID, &d.Name, &d.TuningKeywords, &embVec, &d.SystemPrompt, &d.Temperature,
		&tools, &source, &d.HealthScore, &d.UseCount, &d.Version, &d.CreatedAt,
	); err != nil {
		return types.AgentDefinition{}, err
	}
	d.TuningEmbedding = embVec.Slice()
	d.Source = types.DefinitionSource(source)
	d.Tools = stringsToToolKinds(tools)
	return d, nil
}

func toolKindsToStrings(tools []types.ToolKind) []string {
	out := make([]string, len(tools))
	for i, t := range tools {
		out[i] = string(t)
	}
	return out
}

func stringsToToolKinds(tools []string) []types.ToolKind {
	out := make([]types.ToolKind, len(tools))
	for i, t := range tools {
		out[i] = types.ToolKind(t)
	}
	return out
}
