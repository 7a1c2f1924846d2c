package repository

import (
	"context"

	"github.com/alexanderramin/dealboard/internal/domain"
)

type PipelineRepo interface {
	Create(ctx context.Context, p *domain.Pipeline) error
	GetByID(ctx context.Context, id string) (*domain.Pipeline, error)
	List(ctx context.Context) ([]*domain.Pipeline, error)
	Update(ctx context.Context, p *domain.Pipeline) error
	Delete(ctx context.Context, id string) error
}

type StageRepo interface {
	Create(ctx context.Context, s *domain.Stage) error
	ListByPipeline(ctx context.Context, pipelineID string) ([]domain.Stage, error)
	Delete(ctx context.Context, id string) error
}

type DealRepo interface {
	Create(ctx context.Context, d *domain.Deal) error
	GetByID(ctx context.Context, id string) (*domain.Deal, error)
	List(ctx context.Context, f domain.DealFilter) ([]*domain.Deal, error)
	Update(ctx context.Context, d *domain.Deal) error
	Delete(ctx context.Context, id string) error
}

type ContactRepo interface {
	Create(ctx context.Context, c *domain.Contact) error
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	List(ctx context.Context) ([]*domain.Contact, error)
}
