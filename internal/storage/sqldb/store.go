// Package sqldb persists webhook definitions, delivery history, and
// delivery events to a SQL database.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"  // Register mysql as database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib"  // Register pgx as database/sql driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
	"github.com/tjfontaine/webhook-gateway/internal/storage/dialect"
)

// Store is a SQL implementation of DefinitionStore, DeliveryStore, and
// EventStore that supports multiple database dialects.
type Store struct {
	db      *sqlx.DB
	dialect dialect.Dialect
}

var _ ports.StorageProvider = (*Store)(nil)

// Config holds database connection configuration
type Config struct {
	Driver string // Driver name: sqlite, postgres, mysql
	DSN    string // Data source name / connection string
}

// New creates a new SQL store with the specified configuration.
func New(cfg Config) (*Store, error) {
	d, err := dialect.FromDriverName(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("unsupported database driver: %w", err)
	}

	db, err := sqlx.Open(d.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run dialect-specific initialization (e.g., PRAGMA for SQLite)
	for _, stmt := range d.PragmaStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	store := &Store{db: db, dialect: d}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSQLite creates a new SQLite-backed store at the given path.
func NewSQLite(dbPath string) (*Store, error) {
	return New(Config{Driver: "sqlite", DSN: dbPath})
}

// Dialect returns the dialect being used
func (s *Store) Dialect() dialect.Dialect {
	return s.dialect
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS webhook_definitions (
id TEXT PRIMARY KEY,
name TEXT,
url TEXT NOT NULL,
method TEXT NOT NULL,
headers TEXT,
payload TEXT,
timeout_seconds REAL NOT NULL,
retry_attempts INTEGER NOT NULL,
retry_backoff_base INTEGER NOT NULL,
created_at TIMESTAMP NOT NULL,
updated_at TIMESTAMP NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS webhook_deliveries (
id TEXT PRIMARY KEY,
webhook_id TEXT NOT NULL,
url TEXT,
status TEXT NOT NULL,
attempts INTEGER NOT NULL,
status_code INTEGER,
error_type TEXT,
error_message TEXT,
started_at TIMESTAMP NOT NULL,
finished_at TIMESTAMP NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS delivery_events (
id TEXT PRIMARY KEY,
event_type TEXT NOT NULL,
webhook_id TEXT NOT NULL,
data TEXT,
created_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_deliveries_webhook ON webhook_deliveries(webhook_id, finished_at)`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_deliveries_finished ON webhook_deliveries(finished_at)`,
		`CREATE INDEX IF NOT EXISTS idx_delivery_events_webhook ON delivery_events(webhook_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(s.dialect.Rebind(stmt)); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// GetDefinition returns the stored definition, or (nil, nil) when the store
// has no record for the id.
func (s *Store) GetDefinition(ctx context.Context, id string) (*domain.Definition, error) {
	query := s.dialect.Rebind(`SELECT id, name, url, method, headers, payload, timeout_seconds, retry_attempts, retry_backoff_base
	          FROM webhook_definitions WHERE id = ?`)

	def, err := scanDefinition(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook definition: %w", err)
	}
	return def, nil
}

// ListDefinitions returns all stored definitions ordered by id.
func (s *Store) ListDefinitions(ctx context.Context) ([]*domain.Definition, error) {
	query := s.dialect.Rebind(`SELECT id, name, url, method, headers, payload, timeout_seconds, retry_attempts, retry_backoff_base
	          FROM webhook_definitions ORDER BY id ASC`)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook definitions: %w", err)
	}
	defer rows.Close()

	var defs []*domain.Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook definition: %w", err)
		}
		defs = append(defs, def)
	}

	return defs, rows.Err()
}

// PutDefinition inserts or replaces the record for def.ID. Records are
// replaced whole; created_at survives an update, everything else is taken
// from def.
func (s *Store) PutDefinition(ctx context.Context, def *domain.Definition) error {
	headers, err := nullableJSON(def.Headers, len(def.Headers) == 0)
	if err != nil {
		return fmt.Errorf("failed to marshal headers: %w", err)
	}
	payload, err := nullableJSON(def.Payload, def.Payload == nil)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	upsert := s.dialect.UpsertClause("id", []string{
		"name", "url", "method", "headers", "payload",
		"timeout_seconds", "retry_attempts", "retry_backoff_base", "updated_at",
	})
	query := s.dialect.Rebind(fmt.Sprintf(`INSERT INTO webhook_definitions (id, name, url, method, headers, payload, timeout_seconds, retry_attempts, retry_backoff_base, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	          %s`, upsert))

	now := time.Now()
	_, err = s.db.ExecContext(ctx, query,
		def.ID, def.Name, def.URL, def.Method, headers, payload,
		def.TimeoutSeconds, def.RetryAttempts, def.RetryBackoffBase, now, now)

	if err != nil {
		return fmt.Errorf("failed to put webhook definition: %w", err)
	}

	return nil
}

// DeleteDefinition removes the record and reports whether one existed.
func (s *Store) DeleteDefinition(ctx context.Context, id string) (bool, error) {
	query := s.dialect.Rebind(`DELETE FROM webhook_definitions WHERE id = ?`)

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete webhook definition: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// SaveDelivery appends a terminal delivery record.
func (s *Store) SaveDelivery(ctx context.Context, d *domain.Delivery) error {
	query := s.dialect.Rebind(`INSERT INTO webhook_deliveries (id, webhook_id, url, status, attempts, status_code, error_type, error_message, started_at, finished_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.WebhookID, d.URL, string(d.Status), d.Attempts,
		nullableInt(d.StatusCode), nullableString(string(d.ErrorType)), nullableString(d.ErrorMessage),
		d.StartedAt, d.FinishedAt)

	if err != nil {
		return fmt.Errorf("failed to save delivery: %w", err)
	}

	return nil
}

// ListDeliveries returns recent deliveries, newest first.
func (s *Store) ListDeliveries(ctx context.Context, opts ports.DeliveryListOptions) ([]*domain.Delivery, error) {
	where := ""
	args := []any{}
	if opts.WebhookID != "" {
		where = " WHERE webhook_id = ?"
		args = append(args, opts.WebhookID)
	}

	limit := opts.Limit
	if limit == 0 {
		limit = 100 // default limit
	}
	args = append(args, limit, opts.Offset)

	query := s.dialect.Rebind(`SELECT id, webhook_id, url, status, attempts, status_code, error_type, error_message, started_at, finished_at
	          FROM webhook_deliveries` + where + `
	          ORDER BY finished_at DESC
	          LIMIT ? OFFSET ?`)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		var statusCode sql.NullInt64
		var errorType, errorMessage sql.NullString

		if err := rows.Scan(&d.ID, &d.WebhookID, &d.URL, &d.Status, &d.Attempts,
			&statusCode, &errorType, &errorMessage, &d.StartedAt, &d.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}

		d.StatusCode = int(statusCode.Int64)
		d.ErrorType = domain.ErrorType(errorType.String)
		d.ErrorMessage = errorMessage.String

		deliveries = append(deliveries, &d)
	}

	return deliveries, rows.Err()
}

// AppendEvent persists a published delivery event.
func (s *Store) AppendEvent(ctx context.Context, event *domain.DeliveryEvent) error {
	if event == nil {
		return nil
	}

	data, err := nullableJSON(event.Data, event.Data == nil)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	createdAt := event.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := s.dialect.Rebind(`INSERT INTO delivery_events (id, event_type, webhook_id, data, created_at)
	          VALUES (?, ?, ?, ?, ?)`)

	_, err = s.db.ExecContext(ctx, query,
		event.ID, string(event.Type), event.WebhookID, data, createdAt)

	if err != nil {
		return fmt.Errorf("failed to append delivery event: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row scanner) (*domain.Definition, error) {
	var def domain.Definition
	var headersStr, payloadStr sql.NullString

	err := row.Scan(&def.ID, &def.Name, &def.URL, &def.Method,
		&headersStr, &payloadStr,
		&def.TimeoutSeconds, &def.RetryAttempts, &def.RetryBackoffBase)
	if err != nil {
		return nil, err
	}

	if headersStr.Valid && headersStr.String != "" {
		if err := json.Unmarshal([]byte(headersStr.String), &def.Headers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal headers: %w", err)
		}
	}
	if payloadStr.Valid && payloadStr.String != "" {
		payload, err := domain.ParsePayload([]byte(payloadStr.String))
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		def.Payload = payload
	}

	return &def, nil
}

func nullableJSON(v any, empty bool) (sql.NullString, error) {
	if empty {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
