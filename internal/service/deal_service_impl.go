package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/dealboard/internal/db"
	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/alexanderramin/dealboard/internal/repository"
	"github.com/google/uuid"
)

type dealService struct {
	deals     repository.DealRepo
	pipelines repository.PipelineRepo
	contacts  repository.ContactRepo
	uow       db.UnitOfWork
	observer  UseCaseObserver
}

func NewDealService(
	deals repository.DealRepo,
	pipelines repository.PipelineRepo,
	contacts repository.ContactRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) DealService {
	return &dealService{
		deals:     deals,
		pipelines: pipelines,
		contacts:  contacts,
		uow:       uow,
		observer:  useCaseObserverOrNoop(observers),
	}
}

// Create fills in defaults (id, open status, USD, first stage of the
// pipeline) and stores the deal.
func (s *dealService) Create(ctx context.Context, d *domain.Deal) (err error) {
	defer observe(ctx, s.observer, "deal.create", time.Now().UTC(), &err, map[string]any{"pipeline_id": d.PipelineID})

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Status == "" {
		d.Status = domain.DealOpen
	}
	if d.Currency == "" {
		d.Currency = domain.CurrencyUSD
	}

	p, err := s.pipelines.GetByID(ctx, d.PipelineID)
	if err != nil {
		return fmt.Errorf("loading pipeline: %w", err)
	}
	if d.StageID == "" {
		first, ok := p.FirstStage()
		if !ok {
			return domain.Invalidf("pipeline %q has no stages", p.Name)
		}
		d.StageID = first.ID
	} else if !p.HasStage(d.StageID) {
		return domain.Invalidf("stage %s does not belong to pipeline %q", d.StageID, p.Name)
	}
	if err := d.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Status.Closed() && d.ClosedAt == nil {
		d.ClosedAt = &now
	}
	return s.deals.Create(ctx, d.ForUpdate())
}

// GetByID returns the deal with its pipeline, stage and contact hydrated.
func (s *dealService) GetByID(ctx context.Context, id string) (*domain.Deal, error) {
	d, err := s.deals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns matching deals with their contacts attached, so board cards
// can show a client name.
func (s *dealService) List(ctx context.Context, f domain.DealFilter) ([]*domain.Deal, error) {
	deals, err := s.deals.List(ctx, f)
	if err != nil {
		return nil, err
	}
	contacts := make(map[string]*domain.Contact)
	for _, d := range deals {
		if d.ContactID == "" {
			continue
		}
		c, ok := contacts[d.ContactID]
		if !ok {
			c, err = s.contacts.GetByID(ctx, d.ContactID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			contacts[d.ContactID] = c
		}
		d.Contact = c
	}
	return deals, nil
}

// Update persists the full record and returns what was stored. The stage must
// belong to the deal's pipeline; ClosedAt follows status transitions.
func (s *dealService) Update(ctx context.Context, d *domain.Deal) (stored *domain.Deal, err error) {
	fields := map[string]any{"deal_id": d.ID, "stage_id": d.StageID, "status": string(d.Status)}
	defer observe(ctx, s.observer, "deal.update", time.Now().UTC(), &err, fields)

	in := d.ForUpdate()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txDeals := repository.NewSQLiteDealRepo(tx)
		txPipelines := repository.NewSQLitePipelineRepo(tx)

		prev, err := txDeals.GetByID(ctx, in.ID)
		if err != nil {
			return err
		}
		if in.PipelineID != prev.PipelineID {
			return domain.Invalidf("deal %s cannot change pipeline", in.ID)
		}
		p, err := txPipelines.GetByID(ctx, in.PipelineID)
		if err != nil {
			return fmt.Errorf("loading pipeline: %w", err)
		}
		if !p.HasStage(in.StageID) {
			return domain.Invalidf("stage %s does not belong to pipeline %q", in.StageID, p.Name)
		}

		now := time.Now().UTC()
		in.CreatedAt = prev.CreatedAt
		in.UpdatedAt = now
		reconcileClosedAt(prev, in, now)
		return txDeals.Update(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, in.ID)
}

// Patch applies a stage/status change to the stored deal.
func (s *dealService) Patch(ctx context.Context, id string, patch domain.DealPatch) (*domain.Deal, error) {
	d, err := s.deals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.GetByID(ctx, id)
	}
	if err := patch.Apply(d, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.Update(ctx, d)
}

func (s *dealService) Delete(ctx context.Context, id string) (err error) {
	defer observe(ctx, s.observer, "deal.delete", time.Now().UTC(), &err, map[string]any{"deal_id": id})
	return s.deals.Delete(ctx, id)
}

func (s *dealService) hydrate(ctx context.Context, d *domain.Deal) error {
	p, err := s.pipelines.GetByID(ctx, d.PipelineID)
	if err != nil {
		return fmt.Errorf("loading pipeline: %w", err)
	}
	d.Pipeline = p
	if st, ok := p.StageByID(d.StageID); ok {
		d.Stage = &st
	}
	if d.ContactID != "" {
		c, err := s.contacts.GetByID(ctx, d.ContactID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		d.Contact = c
	}
	return nil
}

// reconcileClosedAt keeps ClosedAt in step with status: stamped when a deal
// becomes won or lost, kept while it stays closed, cleared on reopen.
func reconcileClosedAt(prev, next *domain.Deal, now time.Time) {
	switch {
	case next.Status == domain.DealOpen:
		next.ClosedAt = nil
	case next.Status.Closed() && next.Status != prev.Status:
		if next.ClosedAt == nil || prev.ClosedAt != nil && next.ClosedAt.Equal(*prev.ClosedAt) {
			next.ClosedAt = &now
		}
	case next.Status.Closed() && next.ClosedAt == nil:
		next.ClosedAt = prev.ClosedAt
	}
}
