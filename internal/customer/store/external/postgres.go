package external

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"guestman/internal/customer/models"
	"guestman/internal/platform/postgres"
	id "guestman/pkg/domain"
	"guestman/pkg/platform/sentinel"
	txcontext "guestman/pkg/platform/tx"
)

const externalColumns = `id, customer_id, provider, provider_uid, provider_meta, is_active, created_at, updated_at`

// PostgresStore persists external identities.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed external identity store.
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

func (s *PostgresStore) Create(ctx context.Context, ext *models.ExternalIdentity) error {
	meta, err := marshalMeta(ext.ProviderMeta)
	if err != nil {
		return err
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO external_identities (`+externalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(ext.ID), uuid.UUID(ext.CustomerID), string(ext.Provider), ext.ProviderUID,
		meta, ext.IsActive, ext.CreatedAt, ext.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert external identity: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, ext *models.ExternalIdentity) error {
	meta, err := marshalMeta(ext.ProviderMeta)
	if err != nil {
		return err
	}
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE external_identities SET provider_meta = $2, is_active = $3, updated_at = $4
		WHERE id = $1`,
		uuid.UUID(ext.ID), meta, ext.IsActive, ext.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update external identity: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update external identity rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByProviderUID(ctx context.Context, provider models.Provider, uid string) (*models.ExternalIdentity, error) {
	ext, err := scanExternal(s.execer(ctx).QueryRowContext(ctx, `
		SELECT `+externalColumns+` FROM external_identities
		WHERE provider = $1 AND provider_uid = $2`, string(provider), uid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find external identity: %w", err)
	}
	return ext, nil
}

func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.ExternalIdentity, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+externalColumns+` FROM external_identities
		WHERE customer_id = $1
		ORDER BY provider, created_at`, uuid.UUID(customerID))
	if err != nil {
		return nil, fmt.Errorf("list external identities: %w", err)
	}
	defer rows.Close()
	var out []*models.ExternalIdentity
	for rows.Next() {
		ext, err := scanExternal(rows)
		if err != nil {
			return nil, fmt.Errorf("list external identities: scan: %w", err)
		}
		out = append(out, ext)
	}
	return out, rows.Err()
}

func marshalMeta(meta map[string]any) ([]byte, error) {
	if meta == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal provider meta: %w", err)
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExternal(row rowScanner) (*models.ExternalIdentity, error) {
	var (
		ext        models.ExternalIdentity
		rawID      uuid.UUID
		customerID uuid.UUID
		provider   string
		meta       []byte
	)
	if err := row.Scan(&rawID, &customerID, &provider, &ext.ProviderUID, &meta,
		&ext.IsActive, &ext.CreatedAt, &ext.UpdatedAt); err != nil {
		return nil, err
	}
	ext.ID = id.ExternalIdentityID(rawID)
	ext.CustomerID = id.CustomerID(customerID)
	ext.Provider = models.Provider(provider)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &ext.ProviderMeta); err != nil {
			return nil, fmt.Errorf("decode provider meta: %w", err)
		}
	}
	return &ext, nil
}
