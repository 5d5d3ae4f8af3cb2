// Package storetest provides migrated in-memory SQLite stores for tests.
package storetest

import (
	"context"
	"testing"

	"classattend/internal/store"
)

// New returns a migrated in-memory SQLite store closed at test cleanup.
func New(t testing.TB) *store.DB {
	t.Helper()
	db, err := store.Open(context.Background(), string(store.SQLite), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Exec runs raw statements against db, failing the test on error.
func Exec(t testing.TB, db *store.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Client.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// SeedClasses inserts the given class names.
func SeedClasses(t testing.TB, db *store.DB, names ...string) {
	t.Helper()
	for _, n := range names {
		Exec(t, db, `INSERT INTO classes (name) VALUES ($1)`, n)
	}
}

// SeedStudent inserts a student and returns its id.
func SeedStudent(t testing.TB, db *store.DB, name string, roll int, className string) int64 {
	t.Helper()
	var id int64
	err := db.Client.QueryRowContext(context.Background(),
		`INSERT INTO students (name, roll, class_name) VALUES ($1, $2, $3) RETURNING id`,
		name, roll, className,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed student %q: %v", name, err)
	}
	return id
}
