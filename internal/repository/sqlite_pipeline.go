package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/dealboard/internal/db"
	"github.com/alexanderramin/dealboard/internal/domain"
)

// SQLitePipelineRepo implements PipelineRepo. Reads hydrate the stages.
type SQLitePipelineRepo struct {
	db     db.DBTX
	stages *SQLiteStageRepo
}

func NewSQLitePipelineRepo(conn db.DBTX) *SQLitePipelineRepo {
	return &SQLitePipelineRepo{db: conn, stages: NewSQLiteStageRepo(conn)}
}

// Create inserts the pipeline row only; callers add stages through StageRepo
// inside the same unit of work.
func (r *SQLitePipelineRepo) Create(ctx context.Context, p *domain.Pipeline) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pipelines (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting pipeline: %w", err)
	}
	return nil
}

func (r *SQLitePipelineRepo) GetByID(ctx context.Context, id string) (*domain.Pipeline, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM pipelines WHERE id = ?`, id)
	p, err := scanPipeline(row)
	if err != nil {
		return nil, notFound("pipeline", id, err)
	}
	if p.Stages, err = r.stages.ListByPipeline(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLitePipelineRepo) List(ctx context.Context) ([]*domain.Pipeline, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM pipelines ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("listing pipelines: %w", err)
	}
	var pipelines []*domain.Pipeline
	for rows.Next() {
		p, err := scanPipeline(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning pipeline row: %w", err)
		}
		pipelines = append(pipelines, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating pipelines: %w", err)
	}
	// Close before issuing the stage queries: in-memory databases run on a
	// single connection.
	rows.Close()

	for _, p := range pipelines {
		if p.Stages, err = r.stages.ListByPipeline(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return pipelines, nil
}

func (r *SQLitePipelineRepo) Update(ctx context.Context, p *domain.Pipeline) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pipelines SET name = ?, updated_at = ? WHERE id = ?`,
		p.Name, formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("updating pipeline: %w", err)
	}
	return requireAffected(res, "pipeline", p.ID)
}

func (r *SQLitePipelineRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pipelines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting pipeline: %w", err)
	}
	return requireAffected(res, "pipeline", id)
}

func scanPipeline(s rowScanner) (*domain.Pipeline, error) {
	var p domain.Pipeline
	var createdAt, updatedAt string
	if err := s.Scan(&p.ID, &p.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// SQLiteStageRepo implements StageRepo.
type SQLiteStageRepo struct {
	db db.DBTX
}

func NewSQLiteStageRepo(conn db.DBTX) *SQLiteStageRepo {
	return &SQLiteStageRepo{db: conn}
}

func (r *SQLiteStageRepo) Create(ctx context.Context, s *domain.Stage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stages (id, pipeline_id, title, position) VALUES (?, ?, ?, ?)`,
		s.ID, s.PipelineID, s.Title, s.Position)
	if err != nil {
		return fmt.Errorf("inserting stage %q: %w", s.Title, err)
	}
	return nil
}

func (r *SQLiteStageRepo) ListByPipeline(ctx context.Context, pipelineID string) ([]domain.Stage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, pipeline_id, title, position FROM stages WHERE pipeline_id = ? ORDER BY position, title`,
		pipelineID)
	if err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	defer rows.Close()

	var stages []domain.Stage
	for rows.Next() {
		var s domain.Stage
		if err := rows.Scan(&s.ID, &s.PipelineID, &s.Title, &s.Position); err != nil {
			return nil, fmt.Errorf("scanning stage row: %w", err)
		}
		stages = append(stages, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stages: %w", err)
	}
	return stages, nil
}

func (r *SQLiteStageRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting stage: %w", err)
	}
	return requireAffected(res, "stage", id)
}
