package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"initiative/pkg/domain"

	"github.com/google/uuid"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorePersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	store := openStore(t, path)

	thing := domain.NewPlace("Olympus")
	thing.Subtype = "mountain"
	thing.SetUUID(uuid.New())
	if err := store.SaveThing(ctx, thing); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SetValue(ctx, domain.TimeKey, "2:09:30:00"); err != nil {
		t.Fatalf("set value: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded := openStore(t, path)
	if reloaded.Path() != path {
		t.Fatalf("unexpected path %s", reloaded.Path())
	}
	things, err := reloaded.GetAllTheThings(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(things) != 1 || things[0].Name != "Olympus" || things[0].Subtype != "mountain" {
		t.Fatalf("unexpected things %+v", things)
	}
	if things[0].UUID == nil || *things[0].UUID != *thing.UUID {
		t.Fatalf("uuid did not round trip")
	}
	value, ok, err := reloaded.GetValue(ctx, domain.TimeKey)
	if err != nil || !ok || value != "2:09:30:00" {
		t.Fatalf("unexpected value %q ok=%v err=%v", value, ok, err)
	}
}

func TestSQLiteStoreUpsertsThingsAndValues(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "journal.db"))

	thing := domain.NewNpc("Odysseus")
	thing.SetUUID(uuid.New())
	if err := store.SaveThing(ctx, thing); err != nil {
		t.Fatalf("save: %v", err)
	}
	thing.Description = "king of Ithaca"
	if err := store.SaveThing(ctx, thing); err != nil {
		t.Fatalf("resave: %v", err)
	}
	for _, v := range []string{"1:08:00:00", "1:09:00:00"} {
		if err := store.SetValue(ctx, domain.TimeKey, v); err != nil {
			t.Fatalf("set value: %v", err)
		}
	}

	things, err := store.GetAllTheThings(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(things) != 1 || things[0].Description != "king of Ithaca" {
		t.Fatalf("expected a single updated row, got %+v", things)
	}
	if value, _, _ := store.GetValue(ctx, domain.TimeKey); value != "1:09:00:00" {
		t.Fatalf("expected latest value, got %q", value)
	}
}

func TestSQLiteStoreDeleteMissingFails(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "journal.db"))
	if err := store.DeleteThingByUUID(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStoreMissingValueAndUUID(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "journal.db"))
	if _, ok, err := store.GetValue(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected unset value, got ok=%v err=%v", ok, err)
	}
	if err := store.SaveThing(ctx, domain.NewNpc("Nobody")); err == nil {
		t.Fatalf("expected error for thing without uuid")
	}
}

func TestSQLiteStoreCreatesTables(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "journal.db"))
	for _, table := range []string{"things", "key_value"} {
		var name string
		if err := store.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name); err != nil {
			t.Fatalf("lookup %s table: %v", table, err)
		}
	}
}
