package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/dealboard/internal/db"
	"github.com/alexanderramin/dealboard/internal/domain"
)

type SQLiteContactRepo struct {
	db db.DBTX
}

func NewSQLiteContactRepo(conn db.DBTX) *SQLiteContactRepo {
	return &SQLiteContactRepo{db: conn}
}

func (r *SQLiteContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (id, name, email, company, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Company, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting contact: %w", err)
	}
	return nil
}

func (r *SQLiteContactRepo) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, company, created_at FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row)
	if err != nil {
		return nil, notFound("contact", id, err)
	}
	return c, nil
}

func (r *SQLiteContactRepo) List(ctx context.Context) ([]*domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, company, created_at FROM contacts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contacts: %w", err)
	}
	return contacts, nil
}

func scanContact(s rowScanner) (*domain.Contact, error) {
	var c domain.Contact
	var createdAt string
	if err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Company, &createdAt); err != nil {
		return nil, err
	}
	var err error
	c.CreatedAt, err = parseTime("created_at", createdAt)
	return &c, err
}
