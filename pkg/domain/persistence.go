package domain

import (
	"context"

	"github.com/google/uuid"
)

// DataStore is the capability set a persistence backend must provide. Every
// operation may block on I/O and may fail with a backend-specific error; the
// repository maps all such failures to ErrDataStoreFailed.
type DataStore interface {
	// GetAllTheThings returns every persisted thing.
	GetAllTheThings(ctx context.Context) ([]Thing, error)
	// GetValue reads a small scalar setting. ok is false when the key is unset.
	GetValue(ctx context.Context, key string) (value string, ok bool, err error)
	SetValue(ctx context.Context, key, value string) error
	// SaveThing upserts a thing keyed by its UUID, which must be set.
	SaveThing(ctx context.Context, thing Thing) error
	// DeleteThingByUUID removes a thing. Deleting an unknown UUID is an error.
	DeleteThingByUUID(ctx context.Context, id uuid.UUID) error
}
