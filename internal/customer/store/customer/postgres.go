package customer

import (
	"context"
	"database/sql"
	"encoding/json"
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

// ConstraintCode is the unique constraint on customers.code.
const ConstraintCode = "uq_customers_code"

const customerColumns = `id, code, first_name, last_name, customer_type, document, phone, email,
	is_active, notes, metadata, source_system, created_by, created_at, updated_at`

// PostgresStore persists customers. Pure I/O: activity filtering for the
// legacy lookups lives in SQL, every other rule lives in the service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed customer store.
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

func (s *PostgresStore) Create(ctx context.Context, c *models.Customer) error {
	meta, err := marshalMetadata(c.Metadata)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID), c.Code, c.FirstName, c.LastName, string(c.Type), c.Document, c.Phone, c.Email,
		c.IsActive, c.Notes, meta, c.SourceSystem, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, c *models.Customer) error {
	meta, err := marshalMetadata(c.Metadata)
	if err != nil {
		return err
	}
	query := `
		UPDATE customers SET
			code = $2, first_name = $3, last_name = $4, customer_type = $5, document = $6,
			phone = $7, email = $8, is_active = $9, notes = $10, metadata = $11,
			source_system = $12, updated_at = $13
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID), c.Code, c.FirstName, c.LastName, string(c.Type), c.Document,
		c.Phone, c.Email, c.IsActive, c.Notes, meta, c.SourceSystem, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", postgres.TranslateError(err))
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update customer rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	return s.findOne(ctx, "find customer by id", `SELECT `+customerColumns+` FROM customers WHERE id = $1`, uuid.UUID(customerID))
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.Customer, error) {
	return s.findOne(ctx, "find customer by code", `SELECT `+customerColumns+` FROM customers WHERE code = $1`, code)
}

// FindByCodeForUpdate locks the row for the rest of the surrounding transaction.
func (s *PostgresStore) FindByCodeForUpdate(ctx context.Context, code string) (*models.Customer, error) {
	return s.findOne(ctx, "lock customer by code", `SELECT `+customerColumns+` FROM customers WHERE code = $1 FOR UPDATE`, code)
}

func (s *PostgresStore) FindByDocument(ctx context.Context, document string) (*models.Customer, error) {
	return s.findOne(ctx, "find customer by document", `
		SELECT `+customerColumns+` FROM customers
		WHERE document = $1 AND is_active
		ORDER BY created_at LIMIT 1`, document)
}

func (s *PostgresStore) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return s.findOne(ctx, "find customer by phone", `
		SELECT `+customerColumns+` FROM customers
		WHERE phone = $1 AND is_active
		ORDER BY created_at LIMIT 1`, phone)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return s.findOne(ctx, "find customer by email", `
		SELECT `+customerColumns+` FROM customers
		WHERE LOWER(email) = LOWER($1) AND email <> '' AND is_active
		ORDER BY created_at LIMIT 1`, email)
}

func (s *PostgresStore) Search(ctx context.Context, q models.SearchQuery) ([]*models.Customer, error) {
	var (
		where []string
		args  []any
	)
	if q.OnlyActive {
		where = append(where, "is_active")
	}
	if q.Query != "" {
		args = append(args, "%"+escapeLike(q.Query)+"%")
		where = append(where, `(code ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1
			OR document ILIKE $1 OR phone ILIKE $1 OR email ILIKE $1)`)
	}
	query := `SELECT ` + customerColumns + ` FROM customers`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, q.Limit)
	query += fmt.Sprintf(` ORDER BY code LIMIT $%d`, len(args))

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	defer rows.Close()

	var out []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindActiveByIDs loads active customers in one round trip.
func (s *PostgresStore) FindActiveByIDs(ctx context.Context, ids []id.CustomerID) (map[id.CustomerID]*models.Customer, error) {
	out := make(map[id.CustomerID]*models.Customer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]string, len(ids))
	for i, customerID := range ids {
		raw[i] = customerID.String()
	}
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE id = ANY($1::uuid[]) AND is_active`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("find customers by ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, args ...any) (*models.Customer, error) {
	c, err := scanCustomer(s.execer(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var (
		c            models.Customer
		rawID        uuid.UUID
		customerType string
		meta         []byte
	)
	if err := row.Scan(&rawID, &c.Code, &c.FirstName, &c.LastName, &customerType, &c.Document,
		&c.Phone, &c.Email, &c.IsActive, &c.Notes, &meta, &c.SourceSystem, &c.CreatedBy,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = id.CustomerID(rawID)
	c.Type = models.CustomerType(customerType)
	c.Metadata = map[string]any{}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return nil, fmt.Errorf("decode customer metadata: %w", err)
		}
	}
	return &c, nil
}

func marshalMetadata(meta map[string]any) ([]byte, error) {
	if meta == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode customer metadata: %w", err)
	}
	return b, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
