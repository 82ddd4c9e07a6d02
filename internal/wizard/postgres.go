package wizard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	loadSessionQuery = `SELECT state FROM wizard_sessions
		WHERE session_id = $1 AND expires_at > $2`
	saveSessionQuery = `INSERT INTO wizard_sessions (session_id, state, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE
		SET state = EXCLUDED.state, expires_at = EXCLUDED.expires_at, updated_at = now()`
	deleteSessionQuery = `DELETE FROM wizard_sessions WHERE session_id = $1`
	purgeSessionsQuery = `DELETE FROM wizard_sessions WHERE expires_at <= $1`
)

// PostgresStore keeps states as JSONB rows of wizard_sessions.
type PostgresStore struct {
	db  DB
	now func() time.Time
}

func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		return nil
	}
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) Load(ctx context.Context, id string) (State, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, loadSessionQuery, id, s.now().UTC()).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return State{}, ErrNotFound
		}
		return State{}, fmt.Errorf("load session: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("decode session: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) Save(ctx context.Context, id string, st State, expiresAt time.Time) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, saveSessionQuery, id, raw, expiresAt.UTC()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, deleteSessionQuery, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *PostgresStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, purgeSessionsQuery, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}
