package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alexanderramin/dealboard/internal/db"
	"github.com/alexanderramin/dealboard/internal/domain"
)

// dealColumns is the canonical SELECT column list for deals.
const dealColumns = `id, pipeline_id, stage_id, title, client_name, potential_value, currency,
		status, owner_id, contact_id, notes, closed_at, created_at, updated_at`

// SQLiteDealRepo implements DealRepo using a SQLite database.
type SQLiteDealRepo struct {
	db db.DBTX
}

func NewSQLiteDealRepo(conn db.DBTX) *SQLiteDealRepo {
	return &SQLiteDealRepo{db: conn}
}

func (r *SQLiteDealRepo) Create(ctx context.Context, d *domain.Deal) error {
	query := `INSERT INTO deals (` + dealColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.PipelineID,
		d.StageID,
		d.Title,
		d.ClientName,
		d.PotentialValue,
		string(d.Currency),
		string(d.Status),
		d.OwnerID,
		nullableString(d.ContactID),
		d.Notes,
		nullableTimeToString(d.ClosedAt),
		formatTime(d.CreatedAt),
		formatTime(d.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting deal: %w", err)
	}
	return nil
}

func (r *SQLiteDealRepo) GetByID(ctx context.Context, id string) (*domain.Deal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = ?`, id)
	d, err := scanDeal(row)
	if err != nil {
		return nil, notFound("deal", id, err)
	}
	return d, nil
}

// List returns deals matching f ordered by creation time. Archived deals are
// left out unless the filter asks for them or names the archived status.
func (r *SQLiteDealRepo) List(ctx context.Context, f domain.DealFilter) ([]*domain.Deal, error) {
	var where []string
	var args []any
	if f.PipelineID != "" {
		where = append(where, "pipeline_id = ?")
		args = append(args, f.PipelineID)
	}
	if f.StageID != "" {
		where = append(where, "stage_id = ?")
		args = append(args, f.StageID)
	}
	switch {
	case f.Status != "":
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	case !f.IncludeArchived:
		where = append(where, "status <> 'archived'")
	}

	query := `SELECT ` + dealColumns + ` FROM deals`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing deals: %w", err)
	}
	defer rows.Close()

	var deals []*domain.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning deal row: %w", err)
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deals: %w", err)
	}
	return deals, nil
}

func (r *SQLiteDealRepo) Update(ctx context.Context, d *domain.Deal) error {
	query := `UPDATE deals SET pipeline_id = ?, stage_id = ?, title = ?, client_name = ?,
		potential_value = ?, currency = ?, status = ?, owner_id = ?, contact_id = ?, notes = ?,
		closed_at = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		d.PipelineID,
		d.StageID,
		d.Title,
		d.ClientName,
		d.PotentialValue,
		string(d.Currency),
		string(d.Status),
		d.OwnerID,
		nullableString(d.ContactID),
		d.Notes,
		nullableTimeToString(d.ClosedAt),
		formatTime(d.UpdatedAt),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating deal: %w", err)
	}
	return requireAffected(res, "deal", d.ID)
}

func (r *SQLiteDealRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting deal: %w", err)
	}
	return requireAffected(res, "deal", id)
}

func scanDeal(s rowScanner) (*domain.Deal, error) {
	var d domain.Deal
	var currency, status, createdAt, updatedAt string
	var contactID, closedAt sql.NullString

	err := s.Scan(
		&d.ID, &d.PipelineID, &d.StageID, &d.Title, &d.ClientName,
		&d.PotentialValue, &currency, &status, &d.OwnerID, &contactID,
		&d.Notes, &closedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Currency = domain.Currency(currency)
	d.Status = domain.DealStatus(status)
	d.ContactID = contactID.String
	d.ClosedAt = parseNullableTime(closedAt)
	if d.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}
