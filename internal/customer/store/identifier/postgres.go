package identifier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"guestman/internal/customer/models"
	"guestman/internal/platform/postgres"
	id "guestman/pkg/domain"
	"guestman/pkg/platform/sentinel"
	txcontext "guestman/pkg/platform/tx"
)

const identifierColumns = `id, customer_id, identifier_type, identifier_value, is_primary,
	verified_at, source_system, created_at`

// PostgresStore persists customer identifiers.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed identifier store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, ident *models.Identifier) error {
	query := `
		INSERT INTO customer_identifiers (` + identifierColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(ident.ID), uuid.UUID(ident.CustomerID), string(ident.Type), ident.Value,
		ident.IsPrimary, ident.VerifiedAt, ident.SourceSystem, ident.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert identifier: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, t models.IdentifierType, value string) (*models.Identifier, error) {
	ident, err := scanIdentifier(s.execer(ctx).QueryRowContext(ctx, `
		SELECT `+identifierColumns+` FROM customer_identifiers
		WHERE identifier_type = $1 AND identifier_value = $2`, string(t), value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identifier: %w", err)
	}
	return ident, nil
}

// FindMany resolves many (type, value) keys in one query.
func (s *PostgresStore) FindMany(ctx context.Context, keys []models.IdentifierKey) ([]*models.Identifier, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	types := make([]string, len(keys))
	values := make([]string, len(keys))
	for i, k := range keys {
		types[i] = string(k.Type)
		values[i] = k.Value
	}
	return s.list(ctx, "find identifiers", `
		SELECT ci.id, ci.customer_id, ci.identifier_type, ci.identifier_value, ci.is_primary,
			ci.verified_at, ci.source_system, ci.created_at
		FROM customer_identifiers ci
		JOIN unnest($1::text[], $2::text[]) AS k(t, v)
			ON ci.identifier_type = k.t AND ci.identifier_value = k.v`,
		pq.Array(types), pq.Array(values))
}

func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.Identifier, error) {
	return s.list(ctx, "list identifiers", `
		SELECT `+identifierColumns+` FROM customer_identifiers
		WHERE customer_id = $1
		ORDER BY identifier_type, created_at`, uuid.UUID(customerID))
}

func (s *PostgresStore) DemotePrimary(ctx context.Context, customerID id.CustomerID, t models.IdentifierType) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE customer_identifiers SET is_primary = FALSE
		WHERE customer_id = $1 AND identifier_type = $2 AND is_primary`, uuid.UUID(customerID), string(t))
	if err != nil {
		return fmt.Errorf("demote primary identifier: %w", err)
	}
	return nil
}

func (s *PostgresStore) list(ctx context.Context, op, query string, args ...any) ([]*models.Identifier, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var out []*models.Identifier
	for rows.Next() {
		ident, err := scanIdentifier(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, ident)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentifier(row rowScanner) (*models.Identifier, error) {
	var (
		ident      models.Identifier
		rawID      uuid.UUID
		customerID uuid.UUID
		kind       string
		verifiedAt sql.NullTime
	)
	if err := row.Scan(&rawID, &customerID, &kind, &ident.Value, &ident.IsPrimary,
		&verifiedAt, &ident.SourceSystem, &ident.CreatedAt); err != nil {
		return nil, err
	}
	ident.ID = id.IdentifierID(rawID)
	ident.CustomerID = id.CustomerID(customerID)
	ident.Type = models.IdentifierType(kind)
	if verifiedAt.Valid {
		t := verifiedAt.Time
		ident.VerifiedAt = &t
	}
	return &ident, nil
}
