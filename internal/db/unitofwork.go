package db

import (
	"context"
	"database/sql"
	"fmt"
)

// UnitOfWork runs a callback inside one transaction. The callback receives a
// DBTX backed by the *sql.Tx and builds tx-scoped repositories from it.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLiteUnitOfWork implements UnitOfWork over database/sql transactions.
type SQLiteUnitOfWork struct {
	db *sql.DB
}

func NewSQLiteUnitOfWork(db *sql.DB) *SQLiteUnitOfWork {
	return &SQLiteUnitOfWork{db: db}
}

func (u *SQLiteUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if rbErr := tx.Rollback(); rbErr != nil && err != nil {
			err = fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	err = tx.Commit()
	committed = true
	if err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
