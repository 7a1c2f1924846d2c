package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrStage(s string) *string                        { return &s }
func ptrStatus(s domain.DealStatus) *domain.DealStatus { return &s }

func TestDealService_Create_Defaults(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createPipeline(t, "Lead", "Proposal")

	d := &domain.Deal{PipelineID: p.ID, Title: "Website redesign", PotentialValue: 1200}
	require.NoError(t, s.deals.Create(ctx, d))

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, domain.DealOpen, d.Status)
	assert.Equal(t, domain.CurrencyUSD, d.Currency)
	assert.Equal(t, p.SortedStages()[0].ID, d.StageID, "stage defaults to the first one")
	assert.False(t, d.CreatedAt.IsZero())
}

func TestDealService_Create_Rejects(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createPipeline(t, "Lead")
	other := s.createPipeline(t, "Elsewhere")

	tests := []struct {
		name string
		deal *domain.Deal
	}{
		{"no title", &domain.Deal{PipelineID: p.ID}},
		{"unknown pipeline", &domain.Deal{PipelineID: "nope", Title: "x"}},
		{"foreign stage", &domain.Deal{PipelineID: p.ID, StageID: other.Stages[0].ID, Title: "x"}},
		{"negative value", &domain.Deal{PipelineID: p.ID, Title: "x", PotentialValue: -1}},
		{"bad status", &domain.Deal{PipelineID: p.ID, Title: "x", Status: "pending"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, s.deals.Create(ctx, tt.deal))
		})
	}
}

func TestDealService_GetByID_HydratesRelations(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createPipeline(t, "Lead", "Proposal")

	c := &domain.Contact{Name: "Ada", Company: "Analytical Ltd"}
	require.NoError(t, s.contacts.Create(ctx, c))

	d := &domain.Deal{PipelineID: p.ID, StageID: p.Stages[1].ID, Title: "Engine", ContactID: c.ID}
	require.NoError(t, s.deals.Create(ctx, d))

	got, err := s.deals.GetByID(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Pipeline)
	require.NotNil(t, got.Stage)
	require.NotNil(t, got.Contact)
	assert.Equal(t, "Proposal", got.Stage.Title)
	assert.Equal(t, "Analytical Ltd", got.DisplayClient())

	listed, err := s.deals.List(ctx, domain.DealFilter{PipelineID: p.ID})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Contact)
	assert.Equal(t, "Ada", listed[0].Contact.Name)
}

func TestDealService_Update_ReturnsStoredRecord(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createPipeline(t, "Lead", "Proposal")

	d := &domain.Deal{PipelineID: p.ID, Title: "Engine"}
	require.NoError(t, s.deals.Create(ctx, d))

	fetched, err := s.deals.GetByID(ctx, d.ID)
	require.NoError(t, err)
	fetched.StageID = p.Stages[1].ID
	fetched.CreatedAt = time.Time{} // ignored: the store keeps the original

	stored, err := s.deals.Update(ctx, fetched)
	require.NoError(t, err)
	assert.Equal(t, p.Stages[1].ID, stored.StageID)
	assert.Equal(t, "Proposal", stored.Stage.Title)
	assert.True(t, stored.CreatedAt.Equal(d.CreatedAt))
	assert.False(t, stored.UpdatedAt.Before(d.UpdatedAt))
}

func TestDealService_Update_Errors(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createPipeline(t, "Lead")
	other := s.createPipeline(t, "Elsewhere")

	d := &domain.Deal{PipelineID: p.ID, Title: "Engine"}
	require.NoError(t, s.deals.Create(ctx, d))

	missing := *d
	missing.ID = "missing"
	_, err := s.deals.Update(ctx, &missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	foreign := *d
	foreign.StageID = other.Stages[0].ID
	_, err = s.deals.Update(ctx, &foreign)
	assert.ErrorContains(t, err, "does not belong")

	moved := *d
	moved.PipelineID = other.ID
	moved.StageID = other.Stages[0].ID
	_, err = s.deals.Update(ctx, &moved)
	assert.ErrorContains(t, err, "cannot change pipeline")

	events := s.observer.named("deal.update")
	require.Len(t, events, 3)
	for _, e := range events {
		assert.False(t, e.Success)
	}
}

func TestDealService_Patch_ClosedAtLifecycle(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createPipeline(t, "Lead", "Proposal")

	d := &domain.Deal{PipelineID: p.ID, Title: "Engine"}
	require.NoError(t, s.deals.Create(ctx, d))

	won, err := s.deals.Patch(ctx, d.ID, domain.DealPatch{Status: ptrStatus(domain.DealWon)})
	require.NoError(t, err)
	assert.Equal(t, domain.DealWon, won.Status)
	require.NotNil(t, won.ClosedAt)
	closedAt := *won.ClosedAt

	again, err := s.deals.Patch(ctx, d.ID, domain.DealPatch{Status: ptrStatus(domain.DealWon)})
	require.NoError(t, err)
	require.NotNil(t, again.ClosedAt)
	assert.True(t, again.ClosedAt.Equal(closedAt), "winning twice keeps the first close time")

	reopened, err := s.deals.Patch(ctx, d.ID, domain.DealPatch{
		StageID: ptrStage(p.Stages[1].ID),
		Status:  ptrStatus(domain.DealOpen),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DealOpen, reopened.Status)
	assert.Nil(t, reopened.ClosedAt)
	assert.Equal(t, p.Stages[1].ID, reopened.StageID)
}

func TestDealService_Update_StampsClosedAtWhenCallerDoesNot(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createPipeline(t, "Lead")

	d := &domain.Deal{PipelineID: p.ID, Title: "Engine"}
	require.NoError(t, s.deals.Create(ctx, d))

	lost := *d
	lost.Status = domain.DealLost
	stored, err := s.deals.Update(ctx, &lost)
	require.NoError(t, err)
	require.NotNil(t, stored.ClosedAt)
}

func TestDealService_Patch_EmptyAndMissing(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createPipeline(t, "Lead")

	d := &domain.Deal{PipelineID: p.ID, Title: "Engine"}
	require.NoError(t, s.deals.Create(ctx, d))

	same, err := s.deals.Patch(ctx, d.ID, domain.DealPatch{})
	require.NoError(t, err)
	assert.Equal(t, d.StageID, same.StageID)

	_, err = s.deals.Patch(ctx, "missing", domain.DealPatch{Status: ptrStatus(domain.DealWon)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.deals.Patch(ctx, d.ID, domain.DealPatch{Status: ptrStatus("pending")})
	assert.Error(t, err)
}

func TestDealService_Delete(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createPipeline(t, "Lead")

	d := &domain.Deal{PipelineID: p.ID, Title: "Engine"}
	require.NoError(t, s.deals.Create(ctx, d))
	require.NoError(t, s.deals.Delete(ctx, d.ID))

	_, err := s.deals.GetByID(ctx, d.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
