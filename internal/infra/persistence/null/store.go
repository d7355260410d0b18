// Package null provides a DataStore that fails every operation. It models
// environments without durable storage; a repository constructed with it runs
// in ephemeral-only mode.
package null

import (
	"context"
	"errors"

	"initiative/pkg/domain"

	"github.com/google/uuid"
)

var _ domain.DataStore = Store{}

// ErrDisabled is returned by every operation.
var ErrDisabled = errors.New("data store disabled")

// Store is the disabled backend.
type Store struct{}

// NewStore returns the disabled backend.
func NewStore() Store { return Store{} }

func (Store) GetAllTheThings(context.Context) ([]domain.Thing, error) { return nil, ErrDisabled }

func (Store) GetValue(context.Context, string) (string, bool, error) { return "", false, ErrDisabled }

func (Store) SetValue(context.Context, string, string) error { return ErrDisabled }

func (Store) SaveThing(context.Context, domain.Thing) error { return ErrDisabled }

func (Store) DeleteThingByUUID(context.Context, uuid.UUID) error { return ErrDisabled }
