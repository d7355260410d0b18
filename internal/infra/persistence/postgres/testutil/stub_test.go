package testutil

import (
	"context"
	"testing"
)

func TestStubUpsertsAndFilters(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStubDB()
	defer func() { _ = db.Close() }()

	upsert := `INSERT INTO key_value(key,value) VALUES($1,$2) ON CONFLICT(key) DO UPDATE SET value=EXCLUDED.value`
	for _, v := range []string{"1:08:00:00", "2:10:30:00"} {
		if _, err := db.ExecContext(ctx, upsert, "time", v); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if rows := conn.Tables["key_value"]; len(rows) != 1 || rows[0]["value"] != "2:10:30:00" {
		t.Fatalf("expected a single upserted row, got %v", rows)
	}

	var value string
	if err := db.QueryRowContext(ctx, `SELECT value FROM key_value WHERE key = $1`, "time").Scan(&value); err != nil {
		t.Fatalf("select: %v", err)
	}
	if value != "2:10:30:00" {
		t.Fatalf("unexpected value %q", value)
	}

	res, err := db.ExecContext(ctx, `DELETE FROM key_value WHERE key = $1`, "missing")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 0 {
		t.Fatalf("expected no rows affected, got %d", n)
	}
}

func TestStubFailureSwitches(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStubDB()
	defer func() { _ = db.Close() }()

	conn.FailPing = true
	if err := db.PingContext(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}
	conn.FailPing = false

	conn.FailTables = map[string]bool{"things": true}
	if _, err := db.ExecContext(ctx, `DELETE FROM things WHERE uuid = $1`, "x"); err == nil {
		t.Fatalf("expected table failure")
	}
	if _, err := db.QueryContext(ctx, `SELECT uuid, payload FROM things`); err == nil {
		t.Fatalf("expected query failure")
	}
}
