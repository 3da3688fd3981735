package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/Pharbi/arachnid/storage"
	"github.com/Pharbi/arachnid/types"
)

func (s *Store) CreateSignal(ctx context.Context, signal types.Signal) error {
	var payload []byte
	if signal.Payload != nil {
		var err error
		payload, err = json.Marshal(signal.Payload)
		if err != nil {
			return fmt.Errorf("pgstore: marshal payload: %w", err)
		}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO signals (
			id, web_id, origin_agent_id, frequency, content, amplitude,
			direction, hop_count, payload, processed
		)
		SELECT $1, a.web_id, $2, $3, $4, $5, $6, $7, $8, false
		FROM agents a WHERE a.id = $2
	`,
		signal.ID, signal.Origin, toVector(signal.Frequency), signal.Content,
		signal.Amplitude, string(signal.Direction), signal.HopCount, payload,
	)
	return err
}

func (s *Store) GetPendingSignals(ctx context.Context, webID types.WebID) ([]types.Signal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, origin_agent_id, frequency, content, amplitude, direction, hop_count, payload
		FROM signals
		WHERE web_id = $1 AND processed = false
		ORDER BY created_at ASC
	`, webID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]types.Signal, 0)
	for rows.Next() {
		var (
			sig       types.Signal
			freq      pgvector.Vector
			direction string
			payload   []byte
		)
		if err := rows.Scan(&sig.ID, &sig.Origin, &freq, &sig.Content, &sig.Amplitude, &direction, &sig.HopCount, &payload); err != nil {
			return nil, err
		}
		sig.Frequency = freq.Slice()
		sig.Direction = types.SignalDirection(direction)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &sig.Payload); err != nil {
				return nil, fmt.Errorf("pgstore: unmarshal payload: %w", err)
			}
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *Store) MarkSignalProcessed(ctx context.Context, id types.SignalID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE signals SET processed = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
