package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/dealboard/internal/db"
	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/alexanderramin/dealboard/internal/repository"
	"github.com/google/uuid"
)

type pipelineService struct {
	pipelines repository.PipelineRepo
	uow       db.UnitOfWork
	observer  UseCaseObserver
}

func NewPipelineService(pipelines repository.PipelineRepo, uow db.UnitOfWork, observers ...UseCaseObserver) PipelineService {
	return &pipelineService{
		pipelines: pipelines,
		uow:       uow,
		observer:  useCaseObserverOrNoop(observers),
	}
}

// Create stores a pipeline and its stages in one transaction. Stage positions
// follow the order of stageTitles.
func (s *pipelineService) Create(ctx context.Context, name string, stageTitles []string) (p *domain.Pipeline, err error) {
	fields := map[string]any{"stages": len(stageTitles)}
	defer observe(ctx, s.observer, "pipeline.create", time.Now().UTC(), &err, fields)

	now := time.Now().UTC()
	p = &domain.Pipeline{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, title := range stageTitles {
		p.Stages = append(p.Stages, domain.Stage{
			ID:         uuid.New().String(),
			PipelineID: p.ID,
			Title:      strings.TrimSpace(title),
			Position:   i,
		})
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	fields["pipeline_id"] = p.ID

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txPipelines := repository.NewSQLitePipelineRepo(tx)
		txStages := repository.NewSQLiteStageRepo(tx)

		if err := txPipelines.Create(ctx, p); err != nil {
			return err
		}
		for i := range p.Stages {
			if err := txStages.Create(ctx, &p.Stages[i]); err != nil {
				return fmt.Errorf("creating stage %q: %w", p.Stages[i].Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *pipelineService) GetByID(ctx context.Context, id string) (*domain.Pipeline, error) {
	return s.pipelines.GetByID(ctx, id)
}

func (s *pipelineService) List(ctx context.Context) ([]*domain.Pipeline, error) {
	return s.pipelines.List(ctx)
}

func (s *pipelineService) Rename(ctx context.Context, id, name string) error {
	p, err := s.pipelines.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.Name = strings.TrimSpace(name)
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	return s.pipelines.Update(ctx, p)
}

// Delete removes the pipeline; stages and deals go with it.
func (s *pipelineService) Delete(ctx context.Context, id string) (err error) {
	defer observe(ctx, s.observer, "pipeline.delete", time.Now().UTC(), &err, map[string]any{"pipeline_id": id})
	return s.pipelines.Delete(ctx, id)
}
