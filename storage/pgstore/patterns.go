package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Pharbi/arachnid/types"
)

func (s *Store) RecordFailurePattern(ctx context.Context, pattern types.FailurePattern) error {
	var data []byte
	if pattern.PatternData != nil {
		var err error
		data, err = json.Marshal(pattern.PatternData)
		if err != nil {
			return fmt.Errorf("pgstore: marshal pattern data: %w", err)
		}
	}
	id := pattern.ID
	if id == (types.FailurePatternID{}) {
		id = types.NewFailurePatternID()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO web_memory (id, web_id, pattern_type, pattern_data)
		VALUES ($1, $2, $3, $4)
	`, id, pattern.WebID, string(pattern.PatternType), data)
	return err
}

func (s *Store) GetFailurePatterns(ctx context.Context, webID types.WebID) ([]types.FailurePattern, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, web_id, pattern_type, pattern_data, created_at
		FROM web_memory
		WHERE web_id = $1
		ORDER BY created_at DESC
	`, webID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]types.FailurePattern, 0)
	for rows.Next() {
		var (
			p           types.FailurePattern
			patternType string
			data        []byte
		)
		if err := rows.Scan(&p.ID, &p.WebID, &patternType, &data, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.PatternType = types.FailurePatternType(patternType)
		if len(data) > 0 {
			if err := json.Unmarshal(data, &p.PatternData); err != nil {
				return nil, fmt.Errorf("pgstore: unmarshal pattern data: %w", err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
