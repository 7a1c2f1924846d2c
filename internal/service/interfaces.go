package service

import (
	"context"

	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/alexanderramin/dealboard/internal/importer"
)

type PipelineService interface {
	Create(ctx context.Context, name string, stageTitles []string) (*domain.Pipeline, error)
	GetByID(ctx context.Context, id string) (*domain.Pipeline, error)
	List(ctx context.Context) ([]*domain.Pipeline, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

// DealService is the deal use-case surface. Its GetByID/Update/List methods
// form the store contract the board dispatches moves against.
type DealService interface {
	Create(ctx context.Context, d *domain.Deal) error
	GetByID(ctx context.Context, id string) (*domain.Deal, error)
	List(ctx context.Context, f domain.DealFilter) ([]*domain.Deal, error)
	Update(ctx context.Context, d *domain.Deal) (*domain.Deal, error)
	Patch(ctx context.Context, id string, patch domain.DealPatch) (*domain.Deal, error)
	Delete(ctx context.Context, id string) error
}

type ContactService interface {
	Create(ctx context.Context, c *domain.Contact) error
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	List(ctx context.Context) ([]*domain.Contact, error)
}

// ImportResult holds the outcome of a board import.
type ImportResult struct {
	Pipeline     *domain.Pipeline
	ContactCount int
	DealCount    int
}

type ImportService interface {
	ImportBoard(ctx context.Context, filePath string) (*ImportResult, error)
	ImportBoardFromSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error)
}
