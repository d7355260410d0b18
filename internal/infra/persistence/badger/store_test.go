package badger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"initiative/pkg/domain"

	"github.com/google/uuid"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openInMemory(t *testing.T) *Store {
	t.Helper()
	store, err := Open(InMemoryConfig())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store := openInMemory(t)

	thing := domain.NewRegion("Arcadia")
	id := uuid.New()
	thing.SetUUID(id)
	if err := store.SaveThing(ctx, thing); err != nil {
		t.Fatalf("save: %v", err)
	}
	things, err := store.GetAllTheThings(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(things) != 1 || things[0].Name != "Arcadia" || things[0].Kind != domain.KindRegion {
		t.Fatalf("unexpected things %+v", things)
	}
	if err := store.DeleteThingByUUID(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteThingByUUID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreValuesDoNotLeakIntoThings(t *testing.T) {
	ctx := context.Background()
	store := openInMemory(t)

	if _, ok, err := store.GetValue(ctx, domain.TimeKey); ok || err != nil {
		t.Fatalf("expected unset value, got ok=%v err=%v", ok, err)
	}
	if err := store.SetValue(ctx, domain.TimeKey, "1:20:00:00"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := store.GetValue(ctx, domain.TimeKey)
	if err != nil || !ok || value != "1:20:00:00" {
		t.Fatalf("unexpected value %q ok=%v err=%v", value, ok, err)
	}
	things, err := store.GetAllTheThings(ctx)
	if err != nil || len(things) != 0 {
		t.Fatalf("expected no things, got %+v err=%v", things, err)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "journal")
	store, err := Open(DefaultConfig(dir))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	thing := domain.NewNpc("Penelope")
	thing.SetUUID(uuid.New())
	if err := store.SaveThing(ctx, thing); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(DefaultConfig(dir))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	things, err := reopened.GetAllTheThings(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(things) != 1 || things[0].Name != "Penelope" {
		t.Fatalf("unexpected things %+v", things)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatalf("expected missing path error")
	}
}
