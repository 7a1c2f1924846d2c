package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/dealboard/internal/db"
)

// FailOnNthExecUoW is a test UoW that injects Err on the Nth ExecContext call
// inside the transaction. When Match is set only statements containing it are
// counted, so a test can fail e.g. the second stage insert of a pipeline.
// Reads pass through untouched.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Match  string
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &failOnNthExec{DBTX: tx, failOn: u.FailOn, match: u.Match, err: u.Err}
	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type failOnNthExec struct {
	db.DBTX
	count  atomic.Int32
	failOn int32
	match  string
	err    error
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.match == "" || strings.Contains(query, f.match) {
		if f.count.Add(1) == f.failOn {
			return nil, f.err
		}
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
