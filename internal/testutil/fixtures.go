package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/google/uuid"
)

// fixtureClock hands out strictly increasing creation times so listings
// ordered by created_at are deterministic.
var fixtureClock atomic.Int64

func nextCreatedAt() time.Time {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(fixtureClock.Add(1)) * time.Millisecond)
}

// NewTestPipeline builds a pipeline with one stage per title, positioned in
// argument order.
func NewTestPipeline(name string, stageTitles ...string) *domain.Pipeline {
	now := nextCreatedAt()
	p := &domain.Pipeline{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, title := range stageTitles {
		p.Stages = append(p.Stages, domain.Stage{
			ID:         uuid.New().String(),
			PipelineID: p.ID,
			Title:      title,
			Position:   i,
		})
	}
	return p
}

// Deal options
type DealOption func(*domain.Deal)

func WithClient(name string) DealOption {
	return func(d *domain.Deal) {
		d.ClientName = name
	}
}

func WithValue(v int64) DealOption {
	return func(d *domain.Deal) {
		d.PotentialValue = v
	}
}

func WithDealStatus(s domain.DealStatus) DealOption {
	return func(d *domain.Deal) {
		d.Status = s
	}
}

func WithContact(id string) DealOption {
	return func(d *domain.Deal) {
		d.ContactID = id
	}
}

func WithNotes(n string) DealOption {
	return func(d *domain.Deal) {
		d.Notes = n
	}
}

func NewTestDeal(pipelineID, stageID, title string, opts ...DealOption) *domain.Deal {
	now := nextCreatedAt()
	d := &domain.Deal{
		ID:             uuid.New().String(),
		PipelineID:     pipelineID,
		StageID:        stageID,
		Title:          title,
		PotentialValue: 1000,
		Currency:       domain.CurrencyUSD,
		Status:         domain.DealOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func NewTestContact(name string) *domain.Contact {
	return &domain.Contact{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     fmt.Sprintf("%s@example.com", uuid.New().String()[:8]),
		CreatedAt: nextCreatedAt(),
	}
}
