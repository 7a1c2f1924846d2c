package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/dealboard/internal/db"
)

// NewTestDB creates an in-memory deal store with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return openTestDB(t, ":memory:")
}

// NewFileTestDB creates a file-backed store in a temp directory. Unlike
// :memory:, it runs a real connection pool, which concurrency tests need.
func NewFileTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return openTestDB(t, filepath.Join(t.TempDir(), "dealboard_test.db"))
}

func openTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestUoW wraps database in the production unit of work.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
