package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"initiative/internal/infra/persistence/postgres/testutil"
	"initiative/pkg/domain"

	"github.com/google/uuid"
)

func newStubStore(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreAppliesSchema(t *testing.T) {
	_, conn := newStubStore(t)
	var created int
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE") {
			created++
		}
	}
	if created != 2 {
		t.Fatalf("expected two CREATE TABLE statements, got execs: %v", conn.Execs)
	}
}

func TestStoreSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store, conn := newStubStore(t)

	thing := domain.NewPlace("Olympus")
	id := uuid.New()
	thing.SetUUID(id)
	if err := store.SaveThing(ctx, thing); err != nil {
		t.Fatalf("save: %v", err)
	}
	thing.Description = "home of the gods"
	if err := store.SaveThing(ctx, thing); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if got := len(conn.Tables["things"]); got != 1 {
		t.Fatalf("expected upsert to keep one row, got %d", got)
	}

	things, err := store.GetAllTheThings(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(things) != 1 || things[0].Description != "home of the gods" {
		t.Fatalf("unexpected things %+v", things)
	}

	if err := store.DeleteThingByUUID(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteThingByUUID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreValues(t *testing.T) {
	ctx := context.Background()
	store, _ := newStubStore(t)

	if _, ok, err := store.GetValue(ctx, domain.TimeKey); ok || err != nil {
		t.Fatalf("expected unset value, got ok=%v err=%v", ok, err)
	}
	if err := store.SetValue(ctx, "other", "x"); err != nil {
		t.Fatalf("set other: %v", err)
	}
	if err := store.SetValue(ctx, domain.TimeKey, "4:12:00:00"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := store.GetValue(ctx, domain.TimeKey)
	if err != nil || !ok || value != "4:12:00:00" {
		t.Fatalf("unexpected value %q ok=%v err=%v", value, ok, err)
	}
}

func TestStoreQueryFailure(t *testing.T) {
	store, conn := newStubStore(t)
	conn.FailTables = map[string]bool{"things": true}
	if _, err := store.GetAllTheThings(context.Background()); err == nil {
		t.Fatalf("expected query failure")
	}
	thing := domain.NewNpc("Odysseus")
	thing.SetUUID(uuid.New())
	if err := store.SaveThing(context.Background(), thing); err == nil {
		t.Fatalf("expected exec failure")
	}
}

func TestStoreDecodeFailure(t *testing.T) {
	store, conn := newStubStore(t)
	conn.Tables["things"] = []map[string]any{{"uuid": "x", "payload": []byte("{not json")}}
	if _, err := store.GetAllTheThings(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewStoreErrors(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("boom") })
	if _, err := NewStore(context.Background(), "postgres://example"); err == nil {
		t.Fatalf("expected open error")
	}
	restore()

	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore = OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected ping error")
	}
	conn.FailPing = false
	conn.FailExec = true
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected ddl error")
	}
}

func TestSaveThingRequiresUUID(t *testing.T) {
	store, _ := newStubStore(t)
	if err := store.SaveThing(context.Background(), domain.NewNpc("Nobody")); err == nil {
		t.Fatalf("expected missing uuid error")
	}
}
