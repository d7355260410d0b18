package blob

import (
	"context"
	"errors"
	"strings"
	"testing"

	"initiative/internal/blob"
	"initiative/pkg/domain"

	"github.com/google/uuid"
)

func openStores(t *testing.T) map[string]*Store {
	t.Helper()
	ctx := context.Background()
	mem, err := blob.Open(ctx, blob.Config{Driver: blob.DriverMemory})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	fs, err := blob.Open(ctx, blob.Config{Driver: blob.DriverFilesystem, FSRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	return map[string]*Store{"memory": NewStore(mem), "fs": NewStore(fs)}
}

func TestStoreThings(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			thing := domain.NewPlace("Olympus")
			thing.Subtype = "mountain"
			id := uuid.New()
			thing.SetUUID(id)
			if err := store.SaveThing(ctx, thing); err != nil {
				t.Fatalf("save: %v", err)
			}
			thing.Description = "home of the gods"
			if err := store.SaveThing(ctx, thing); err != nil {
				t.Fatalf("resave: %v", err)
			}
			things, err := store.GetAllTheThings(ctx)
			if err != nil {
				t.Fatalf("get all: %v", err)
			}
			if len(things) != 1 || things[0].Description != "home of the gods" || *things[0].UUID != id {
				t.Fatalf("unexpected things %+v", things)
			}
			if err := store.DeleteThingByUUID(ctx, id); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := store.DeleteThingByUUID(ctx, id); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := store.SaveThing(ctx, domain.NewNpc("Nobody")); err == nil {
				t.Fatalf("expected missing uuid error")
			}
		})
	}
}

func TestStoreValues(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, ok, err := store.GetValue(ctx, domain.TimeKey); ok || err != nil {
				t.Fatalf("expected unset value, got ok=%v err=%v", ok, err)
			}
			if err := store.SetValue(ctx, domain.TimeKey, "2:00:00:00"); err != nil {
				t.Fatalf("set: %v", err)
			}
			value, ok, err := store.GetValue(ctx, domain.TimeKey)
			if err != nil || !ok || value != "2:00:00:00" {
				t.Fatalf("unexpected value %q ok=%v err=%v", value, ok, err)
			}
			things, err := store.GetAllTheThings(ctx)
			if err != nil || len(things) != 0 {
				t.Fatalf("values leaked into things: %+v err=%v", things, err)
			}
		})
	}
}

func TestStoreDecodeFailure(t *testing.T) {
	ctx := context.Background()
	store := openStores(t)["memory"]
	if _, err := store.Objects().Put(ctx, thingKey(uuid.New()), strings.NewReader("{"), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.GetAllTheThings(ctx); err == nil {
		t.Fatalf("expected decode error")
	}
}
