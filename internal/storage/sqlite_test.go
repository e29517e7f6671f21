package storage

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("unable to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(`CREATE TABLE app_state (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    )`); err != nil {
		t.Fatalf("unable to create schema: %v", err)
	}
	return db
}

func TestSQLiteStoreLifecycle(t *testing.T) {
	store := NewSQLite(newTestDB(t))

	if _, ok, err := store.Get("missing"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := store.Set("rural-bites-table-5", []byte(`{"items":{"a":1},"order":["a"]}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := store.Get("rural-bites-table-5")
	if err != nil || !ok {
		t.Fatalf("get after set: ok=%v err=%v", ok, err)
	}
	if string(value) != `{"items":{"a":1},"order":["a"]}` {
		t.Fatalf("value corrupted: %s", value)
	}

	// Whole-value replacement, not a merge.
	if err := store.Set("rural-bites-table-5", []byte(`{"items":{},"order":[]}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, _, _ = store.Get("rural-bites-table-5")
	if string(value) != `{"items":{},"order":[]}` {
		t.Fatalf("overwrite did not replace value: %s", value)
	}

	if err := store.Delete("rural-bites-table-5"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get("rural-bites-table-5"); ok {
		t.Fatalf("value survived delete")
	}
	// Deleting an absent key is not an error.
	if err := store.Delete("rural-bites-table-5"); err != nil {
		t.Fatalf("double delete: %v", err)
	}
}
