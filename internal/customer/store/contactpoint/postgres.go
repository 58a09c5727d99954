package contactpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"guestman/internal/customer/models"
	"guestman/internal/platform/postgres"
	id "guestman/pkg/domain"
	"guestman/pkg/platform/sentinel"
	txcontext "guestman/pkg/platform/tx"
)

const contactColumns = `id, customer_id, type, value_normalized, value_display, is_primary,
	is_verified, verification_method, verified_at, verification_ref, created_at, updated_at`

// PostgresStore persists contact points. The partial unique index on
// (customer_id, type) WHERE is_primary is the final word on the primary invariant.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed contact point store.
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

func (s *PostgresStore) Create(ctx context.Context, cp *models.ContactPoint) error {
	query := `
		INSERT INTO contact_points (` + contactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(cp.ID), uuid.UUID(cp.CustomerID), string(cp.Type), cp.ValueNormalized, cp.ValueDisplay,
		cp.IsPrimary, cp.IsVerified, string(cp.VerificationMethod), cp.VerifiedAt, cp.VerificationRef,
		cp.CreatedAt, cp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contact point: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, cp *models.ContactPoint) error {
	query := `
		UPDATE contact_points SET
			type = $2, value_normalized = $3, value_display = $4, is_primary = $5, is_verified = $6,
			verification_method = $7, verified_at = $8, verification_ref = $9, updated_at = $10
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(cp.ID), string(cp.Type), cp.ValueNormalized, cp.ValueDisplay, cp.IsPrimary,
		cp.IsVerified, string(cp.VerificationMethod), cp.VerifiedAt, cp.VerificationRef, cp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update contact point: %w", postgres.TranslateError(err))
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update contact point rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, contactID id.ContactPointID) (*models.ContactPoint, error) {
	return s.findOne(ctx, "find contact point", `SELECT `+contactColumns+` FROM contact_points WHERE id = $1`,
		uuid.UUID(contactID))
}

func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, contactID id.ContactPointID) (*models.ContactPoint, error) {
	return s.findOne(ctx, "lock contact point", `SELECT `+contactColumns+` FROM contact_points WHERE id = $1 FOR UPDATE`,
		uuid.UUID(contactID))
}

func (s *PostgresStore) FindByValue(ctx context.Context, t models.ContactType, value string) (*models.ContactPoint, error) {
	return s.findOne(ctx, "find contact point by value", `
		SELECT `+contactColumns+` FROM contact_points
		WHERE type = $1 AND value_normalized = $2`, string(t), value)
}

// FindByValues resolves many (type, value) keys in one query.
func (s *PostgresStore) FindByValues(ctx context.Context, keys []models.ContactKey) ([]*models.ContactPoint, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	types := make([]string, len(keys))
	values := make([]string, len(keys))
	for i, k := range keys {
		types[i] = string(k.Type)
		values[i] = k.Value
	}
	query := `
		SELECT ` + prefixed("cp", contactColumns) + `
		FROM contact_points cp
		JOIN unnest($1::text[], $2::text[]) AS k(type, value)
			ON cp.type = k.type AND cp.value_normalized = k.value
	`
	return s.list(ctx, "find contact points by values", query, pq.Array(types), pq.Array(values))
}

func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.ContactPoint, error) {
	return s.list(ctx, "list contact points", `
		SELECT `+contactColumns+` FROM contact_points
		WHERE customer_id = $1
		ORDER BY type, is_primary DESC, created_at`, uuid.UUID(customerID))
}

// ListByCustomerTypeForUpdate locks every contact of one type for a customer so
// demote-then-promote cannot interleave with another writer.
func (s *PostgresStore) ListByCustomerTypeForUpdate(ctx context.Context, customerID id.CustomerID, t models.ContactType) ([]*models.ContactPoint, error) {
	return s.list(ctx, "lock contact points", `
		SELECT `+contactColumns+` FROM contact_points
		WHERE customer_id = $1 AND type = $2
		ORDER BY is_primary DESC, created_at
		FOR UPDATE`, uuid.UUID(customerID), string(t))
}

func (s *PostgresStore) DemotePrimary(ctx context.Context, customerID id.CustomerID, t models.ContactType) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE contact_points SET is_primary = FALSE, updated_at = NOW()
		WHERE customer_id = $1 AND type = $2 AND is_primary`, uuid.UUID(customerID), string(t))
	if err != nil {
		return fmt.Errorf("demote primary contact: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountPrimary(ctx context.Context, customerID id.CustomerID, t models.ContactType) (int, error) {
	var n int
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM contact_points
		WHERE customer_id = $1 AND type = $2 AND is_primary`, uuid.UUID(customerID), string(t)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count primary contacts: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, args ...any) (*models.ContactPoint, error) {
	cp, err := scanContact(s.execer(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cp, nil
}

func (s *PostgresStore) list(ctx context.Context, op, query string, args ...any) ([]*models.ContactPoint, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var out []*models.ContactPoint
	for rows.Next() {
		cp, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*models.ContactPoint, error) {
	var (
		cp         models.ContactPoint
		rawID      uuid.UUID
		customerID uuid.UUID
		kind       string
		method     string
		verifiedAt sql.NullTime
	)
	if err := row.Scan(&rawID, &customerID, &kind, &cp.ValueNormalized, &cp.ValueDisplay, &cp.IsPrimary,
		&cp.IsVerified, &method, &verifiedAt, &cp.VerificationRef, &cp.CreatedAt, &cp.UpdatedAt); err != nil {
		return nil, err
	}
	cp.ID = id.ContactPointID(rawID)
	cp.CustomerID = id.CustomerID(customerID)
	cp.Type = models.ContactType(kind)
	cp.VerificationMethod = models.VerificationMethod(method)
	if verifiedAt.Valid {
		t := verifiedAt.Time
		cp.VerifiedAt = &t
	}
	return &cp, nil
}

// prefixed qualifies a comma-separated column list with a table alias.
func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}
