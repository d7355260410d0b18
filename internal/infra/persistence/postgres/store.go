// Package postgres provides a DataStore backed by a PostgreSQL server through
// the pgx database/sql driver. The schema mirrors the sqlite backend with a
// JSONB payload column.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"initiative/pkg/domain"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.DataStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/initiative?sslmode=disable"
)

// ErrNotFound is returned when deleting a UUID that has no row.
var ErrNotFound = errors.New("postgres: thing not found")

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS things (
		uuid TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS key_value (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// Store persists things to Postgres.
type Store struct {
	db *sql.DB
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to
// defaultDSN), pings the server, and ensures the schema exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("execute ddl: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// GetAllTheThings decodes every stored thing.
func (s *Store) GetAllTheThings(ctx context.Context) ([]domain.Thing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT uuid, payload FROM things`)
	if err != nil {
		return nil, fmt.Errorf("select things: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var things []domain.Thing
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("scan things: %w", err)
		}
		var thing domain.Thing
		if err := json.Unmarshal(payload, &thing); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		things = append(things, thing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate things: %w", err)
	}
	return things, nil
}

// GetValue reads a scalar setting.
func (s *Store) GetValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM key_value WHERE key = $1`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("select value %s: %w", key, err)
	}
	return value, true, nil
}

// SetValue upserts a scalar setting.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO key_value(key,value) VALUES($1,$2) ON CONFLICT(key) DO UPDATE SET value=EXCLUDED.value`, key, value); err != nil {
		return fmt.Errorf("upsert value %s: %w", key, err)
	}
	return nil
}

// SaveThing upserts a thing keyed by its UUID.
func (s *Store) SaveThing(ctx context.Context, thing domain.Thing) error {
	if thing.UUID == nil {
		return fmt.Errorf("postgres: save %q: missing uuid", thing.Name)
	}
	payload, err := json.Marshal(thing)
	if err != nil {
		return fmt.Errorf("encode thing: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO things(uuid,payload) VALUES($1,$2) ON CONFLICT(uuid) DO UPDATE SET payload=EXCLUDED.payload`, thing.UUID.String(), payload); err != nil {
		return fmt.Errorf("upsert thing %s: %w", thing.UUID, err)
	}
	return nil
}

// DeleteThingByUUID removes a thing, failing when no row matched.
func (s *Store) DeleteThingByUUID(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM things WHERE uuid = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete thing %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete thing %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete thing %s: %w", id, ErrNotFound)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
