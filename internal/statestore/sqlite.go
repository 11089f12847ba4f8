package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"TgFlow/bot/flow"
)

// SQLiteStore keeps chat states in a single table with the state encoded as JSON.
// The caller opens db with a SQLite driver, e.g. modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the schema when missing.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS chat_states (
			chat_id INTEGER NOT NULL,
			runner TEXT NOT NULL,
			flow_name TEXT,
			step_name TEXT,
			state BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (chat_id, runner)
		);`,
	)
	if err != nil {
		return fmt.Errorf("sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Extract(ctx context.Context, chatID int64, ec flow.ExtractionContext) (*flow.ChatState, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM chat_states WHERE chat_id = ? AND runner = ?`,
		chatID, ec.Runner,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return flow.DefaultChatState(chatID, ec), nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite select: %w", err)
	}
	var state flow.ChatState
	if err = json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decoding chat state %d: %w", chatID, err)
	}
	return &state, nil
}

func (s *SQLiteStore) Store(ctx context.Context, state *flow.ChatState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding chat state %d: %w", state.ChatID, err)
	}
	var flowName, stepName string
	if state.FlowInfo != nil {
		flowName = state.FlowInfo.Name
	}
	if state.StepInfo != nil {
		stepName = state.StepInfo.Name
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_states (chat_id, runner, flow_name, step_name, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (chat_id, runner) DO UPDATE SET
			flow_name = excluded.flow_name,
			step_name = excluded.step_name,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		state.ChatID,
		state.Runner,
		flowName,
		stepName,
		raw,
		state.LastUpdate.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite upsert: %w", err)
	}
	return nil
}

var _ flow.ChatStateStore = (*SQLiteStore)(nil)
