package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBTX is the common interface satisfied by both *sql.DB and *sql.Tx.
// Repositories are built over it so they can run inside a UnitOfWork.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

const memoryPath = ":memory:"

// OpenDB opens the deal store at path and applies migrations.
// ":memory:" keeps everything in RAM on a single connection so that every
// caller, including concurrent dispatch goroutines, sees the same database.
func OpenDB(path string) (*sql.DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	pragmas := []struct{ stmt, what string }{
		{"PRAGMA journal_mode = WAL", "setting WAL mode"},
		{"PRAGMA foreign_keys = ON", "enabling foreign keys"},
		{"PRAGMA busy_timeout = 5000", "setting busy timeout"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p.what, err)
		}
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// dsn attaches the connection pragmas to file paths so that every pooled
// connection gets them, not only the one that ran the PRAGMA statements.
func dsn(path string) string {
	if path == memoryPath {
		return path
	}
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
