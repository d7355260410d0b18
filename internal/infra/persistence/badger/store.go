// Package badger provides a DataStore backed by an embedded BadgerDB.
//
// Keys are namespaced by prefix:
//
//	thing/<uuid>  JSON-encoded domain.Thing
//	value/<key>   raw scalar value
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"initiative/pkg/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

var _ domain.DataStore = (*Store)(nil)

// ErrNotFound is returned when deleting a UUID the database does not hold.
var ErrNotFound = errors.New("badger: thing not found")

const (
	thingPrefix = "thing/"
	valuePrefix = "value/"
)

// Config holds configuration for a BadgerDB instance.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger
}

// DefaultConfig returns durable settings for the given directory.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns configuration optimized for testing.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store persists things in BadgerDB.
type Store struct {
	db *badger.DB
}

// Open creates and opens a BadgerDB-backed store.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

// GetAllTheThings decodes every key under the thing prefix.
func (s *Store) GetAllTheThings(ctx context.Context) ([]domain.Thing, error) {
	var things []domain.Thing
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(thingPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var thing domain.Thing
				if err := json.Unmarshal(val, &thing); err != nil {
					return fmt.Errorf("decode %s: %w", item.Key(), err)
				}
				things = append(things, thing)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load things: %w", err)
	}
	return things, nil
}

// GetValue reads a scalar setting.
func (s *Store) GetValue(_ context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(valuePrefix + key))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value = string(raw)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get value %s: %w", key, err)
	}
	return value, true, nil
}

// SetValue writes a scalar setting.
func (s *Store) SetValue(_ context.Context, key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(valuePrefix+key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("set value %s: %w", key, err)
	}
	return nil
}

// SaveThing upserts a thing keyed by its UUID.
func (s *Store) SaveThing(_ context.Context, thing domain.Thing) error {
	if thing.UUID == nil {
		return fmt.Errorf("badger: save %q: missing uuid", thing.Name)
	}
	payload, err := json.Marshal(thing)
	if err != nil {
		return fmt.Errorf("encode thing: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(thingKey(*thing.UUID), payload)
	})
	if err != nil {
		return fmt.Errorf("save thing %s: %w", thing.UUID, err)
	}
	return nil
}

// DeleteThingByUUID removes a thing, failing when it is absent.
func (s *Store) DeleteThingByUUID(_ context.Context, id uuid.UUID) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		key := thingKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("delete thing %s: %w", id, err)
	}
	return nil
}

// Close flushes and closes the database.
func (s *Store) Close() error { return s.db.Close() }

func thingKey(id uuid.UUID) []byte {
	return []byte(thingPrefix + id.String())
}
