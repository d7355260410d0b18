package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"initiative/internal/blob/core"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	info, err := store.Put(ctx, "things/a.json", bytes.NewReader([]byte(`{"name":"a"}`)), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 12 || info.ETag == "" || info.ContentType != "application/json" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "things/a.json", bytes.NewReader([]byte("b")), core.PutOptions{}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	_, rc, err := store.Get(ctx, "things/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "b" {
		t.Fatalf("expected overwritten content, got %q", body)
	}
	head, err := store.Head(ctx, "things/a.json")
	if err != nil || head.Size != 1 {
		t.Fatalf("unexpected head %+v err=%v", head, err)
	}
	ok, err := store.Delete(ctx, "things/a.json")
	if err != nil || !ok {
		t.Fatalf("expected delete true, got %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "things/a.json")
	if err != nil || ok {
		t.Fatalf("expected delete false, got %v %v", ok, err)
	}
	if _, err := store.Head(ctx, "things/a.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := store.Get(ctx, "things/a.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreListSkipsTempFilesAndFiltersPrefix(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"things/b.json", "things/a.json", "values/time"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "things", tmpPrefix+"junk"), []byte("partial"), 0o644); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	list, err := store.List(ctx, "things/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "things/a.json" || list[1].Key != "things/b.json" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestStoreRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"", "../escape", "/abs"} {
		if _, err := store.Put(ctx, key, bytes.NewReader(nil), core.PutOptions{}); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
		if _, err := store.Head(ctx, key); err == nil {
			t.Fatalf("expected head error for key %q", key)
		}
		if _, err := store.Delete(ctx, key); err == nil {
			t.Fatalf("expected delete error for key %q", key)
		}
	}
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected driver")
	}
}
