package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/dealboard/internal/domain"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// parseNullableTime parses a sql.NullString into a *time.Time. RFC3339
// parsing accepts the stored fraction.
// Returns nil if the value is NULL, empty, or fails to parse.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// nullableTimeToString converts a *time.Time to a value suitable for SQLite storage.
func nullableTimeToString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// nullableString maps "" to SQL NULL, for optional foreign keys.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// timeLayout keeps a fixed-width fraction so stored timestamps sort
// lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(column, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", column, err)
	}
	return t, nil
}

// notFound maps sql.ErrNoRows to domain.ErrNotFound with the entity named.
func notFound(entity, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", entity, id, domain.ErrNotFound)
	}
	return fmt.Errorf("scanning %s: %w", entity, err)
}

// requireAffected turns a zero-row UPDATE/DELETE into domain.ErrNotFound.
func requireAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}
