// Package storagetest opens migrated in-memory databases for store and orchestrator tests.
package storagetest

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"glp/internal/adapters/storage"
)

// Open returns a migrated in-memory database closed at test cleanup.
// A single connection keeps every statement on the same in-memory database
// and lets the foreign_keys pragma apply to all of them.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// SeedUser inserts a minimal active user row and returns its ID.
func SeedUser(t testing.TB, db *sql.DB, id, role string) string {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, username, email, first_name, last_name, role, is_active, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, 'x', ?)`,
		id, "user_"+id, fmt.Sprintf("%s@example.org", id), "First"+id, "Last"+id, role,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339))
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return id
}
