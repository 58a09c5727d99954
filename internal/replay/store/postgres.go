package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"guestman/pkg/platform/sentinel"
)

// PostgresStore keeps processed nonces in processed_events. The primary key
// on nonce makes concurrent duplicate inserts resolve to one winner.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed replay ledger.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, nonce, provider string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_events (nonce, provider, processed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (nonce) DO NOTHING
	`, nonce, provider, at)
	if err != nil {
		return fmt.Errorf("record nonce: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record nonce rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, nonce string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_events WHERE nonce = $1)`, nonce).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check nonce: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM processed_events WHERE processed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete processed events: %w", err)
	}
	return res.RowsAffected()
}
