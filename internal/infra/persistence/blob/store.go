// Package blob persists things as JSON objects in a blob.Store.
//
// Layout:
//
//	things/<uuid>.json
//	values/<key>
package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"initiative/internal/blob"
	"initiative/pkg/domain"

	"github.com/google/uuid"
)

var _ domain.DataStore = (*Store)(nil)

// ErrNotFound is returned when deleting a UUID that has no object.
var ErrNotFound = errors.New("blob: thing not found")

const (
	thingPrefix = "things/"
	thingSuffix = ".json"
	valuePrefix = "values/"
)

// Store adapts a blob.Store to the DataStore interface.
type Store struct {
	objects blob.Store
}

// NewStore wraps objects.
func NewStore(objects blob.Store) *Store {
	return &Store{objects: objects}
}

// Objects exposes the underlying blob store.
func (s *Store) Objects() blob.Store { return s.objects }

// GetAllTheThings lists and decodes every thing object.
func (s *Store) GetAllTheThings(ctx context.Context) ([]domain.Thing, error) {
	infos, err := s.objects.List(ctx, thingPrefix)
	if err != nil {
		return nil, fmt.Errorf("list things: %w", err)
	}
	things := make([]domain.Thing, 0, len(infos))
	for _, info := range infos {
		if !strings.HasSuffix(info.Key, thingSuffix) {
			continue
		}
		payload, err := s.read(ctx, info.Key)
		if err != nil {
			return nil, err
		}
		var thing domain.Thing
		if err := json.Unmarshal(payload, &thing); err != nil {
			return nil, fmt.Errorf("decode %s: %w", info.Key, err)
		}
		things = append(things, thing)
	}
	return things, nil
}

// GetValue reads values/<key>.
func (s *Store) GetValue(ctx context.Context, key string) (string, bool, error) {
	payload, err := s.read(ctx, valuePrefix+key)
	if errors.Is(err, blob.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(payload), true, nil
}

// SetValue writes values/<key>.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	_, err := s.objects.Put(ctx, valuePrefix+key, strings.NewReader(value), blob.PutOptions{ContentType: "text/plain"})
	if err != nil {
		return fmt.Errorf("set value %s: %w", key, err)
	}
	return nil
}

// SaveThing writes things/<uuid>.json, replacing an earlier version.
func (s *Store) SaveThing(ctx context.Context, thing domain.Thing) error {
	if thing.UUID == nil {
		return fmt.Errorf("blob: save %q: missing uuid", thing.Name)
	}
	payload, err := json.Marshal(thing)
	if err != nil {
		return fmt.Errorf("encode thing: %w", err)
	}
	_, err = s.objects.Put(ctx, thingKey(*thing.UUID), bytes.NewReader(payload), blob.PutOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("save thing %s: %w", thing.UUID, err)
	}
	return nil
}

// DeleteThingByUUID removes things/<uuid>.json.
func (s *Store) DeleteThingByUUID(ctx context.Context, id uuid.UUID) error {
	existed, err := s.objects.Delete(ctx, thingKey(id))
	if err != nil {
		return fmt.Errorf("delete thing %s: %w", id, err)
	}
	if !existed {
		return fmt.Errorf("delete thing %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) read(ctx context.Context, key string) ([]byte, error) {
	_, rc, err := s.objects.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return payload, nil
}

func thingKey(id uuid.UUID) string {
	return thingPrefix + id.String() + thingSuffix
}
