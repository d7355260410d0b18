// Package sqlite provides a DataStore persisted to an embedded SQLite file.
// Things are stored as JSON payloads keyed by UUID; scalar settings live in a
// separate key/value table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"initiative/pkg/domain"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.DataStore = (*Store)(nil)

// ErrNotFound is returned when deleting a UUID that has no row.
var ErrNotFound = errors.New("sqlite: thing not found")

const defaultPath = "initiative.db"

// Store persists things to a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database at path and ensures the schema exists.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serialises writers and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)
	if err := ensureSchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS things (
		uuid TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return fmt.Errorf("create things table: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS key_value (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create key_value table: %w", err)
	}
	return nil
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
		var (
			key     string
			payload []byte
		)
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var thing domain.Thing
		if err := json.Unmarshal(payload, &thing); err != nil {
			return nil, fmt.Errorf("decode thing %s: %w", key, err)
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
	err := s.db.QueryRowContext(ctx, `SELECT value FROM key_value WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select value %s: %w", key, err)
	}
	return value, true, nil
}

// SetValue upserts a scalar setting.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO key_value(key,value) VALUES(?,?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value); err != nil {
		return fmt.Errorf("upsert value %s: %w", key, err)
	}
	return nil
}

// SaveThing upserts a thing keyed by its UUID.
func (s *Store) SaveThing(ctx context.Context, thing domain.Thing) error {
	if thing.UUID == nil {
		return fmt.Errorf("sqlite: save %q: missing uuid", thing.Name)
	}
	payload, err := json.Marshal(thing)
	if err != nil {
		return fmt.Errorf("encode thing: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO things(uuid,payload) VALUES(?,?) ON CONFLICT(uuid) DO UPDATE SET payload=excluded.payload`, thing.UUID.String(), payload); err != nil {
		return fmt.Errorf("upsert thing %s: %w", thing.UUID, err)
	}
	return nil
}

// DeleteThingByUUID removes a thing, failing when no row matched.
func (s *Store) DeleteThingByUUID(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM things WHERE uuid = ?`, id.String())
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

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
