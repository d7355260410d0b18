// Package memory provides an in-memory DataStore used by tests and by
// deployments that do not need durable storage. A single *Store may be shared
// between a repository and the code inspecting it.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"initiative/pkg/domain"

	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.DataStore = (*Store)(nil)

// ErrNotFound is returned when deleting a UUID the store does not hold.
var ErrNotFound = errors.New("memory: thing not found")

// Store keeps things and scalar values in maps guarded by a mutex.
type Store struct {
	mu     sync.RWMutex
	things map[uuid.UUID]domain.Thing
	values map[string]string
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		things: make(map[uuid.UUID]domain.Thing),
		values: make(map[string]string),
	}
}

// GetAllTheThings returns copies of every stored thing.
func (s *Store) GetAllTheThings(_ context.Context) ([]domain.Thing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Thing, 0, len(s.things))
	for _, thing := range s.things {
		out = append(out, thing.Clone())
	}
	return out, nil
}

// GetValue reads a scalar value.
func (s *Store) GetValue(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

// SetValue writes a scalar value.
func (s *Store) SetValue(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// SaveThing upserts a thing by UUID.
func (s *Store) SaveThing(_ context.Context, thing domain.Thing) error {
	if thing.UUID == nil {
		return fmt.Errorf("memory: save %q: missing uuid", thing.Name)
	}
	s.mu.Lock()
	s.things[*thing.UUID] = thing.Clone()
	s.mu.Unlock()
	return nil
}

// DeleteThingByUUID removes a thing, failing when it is absent.
func (s *Store) DeleteThingByUUID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.things[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	delete(s.things, id)
	return nil
}

// Len reports how many things are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.things)
}
