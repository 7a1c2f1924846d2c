package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/alexanderramin/dealboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteDealRepo(db)
	ctx := context.Background()

	p := testutil.NewTestPipeline("Sales", "Lead", "Proposal")
	seedPipeline(t, db, p)
	contact := testutil.NewTestContact("Ada")
	require.NoError(t, NewSQLiteContactRepo(db).Create(ctx, contact))

	d := testutil.NewTestDeal(p.ID, p.Stages[0].ID, "Renewal",
		testutil.WithClient("Acme"),
		testutil.WithValue(25000),
		testutil.WithContact(contact.ID),
		testutil.WithNotes("call back in May"))
	require.NoError(t, repo.Create(ctx, d))

	fetched, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renewal", fetched.Title)
	assert.Equal(t, "Acme", fetched.ClientName)
	assert.Equal(t, int64(25000), fetched.PotentialValue)
	assert.Equal(t, domain.CurrencyUSD, fetched.Currency)
	assert.Equal(t, domain.DealOpen, fetched.Status)
	assert.Equal(t, contact.ID, fetched.ContactID)
	assert.Equal(t, "call back in May", fetched.Notes)
	assert.Nil(t, fetched.ClosedAt)
	assert.True(t, d.CreatedAt.Equal(fetched.CreatedAt))
}

func TestDealRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)

	_, err := NewSQLiteDealRepo(db).GetByID(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Contains(t, err.Error(), "nope")
}

func TestDealRepo_UpdateRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteDealRepo(db)
	ctx := context.Background()

	p := testutil.NewTestPipeline("Sales", "Lead", "Proposal")
	seedPipeline(t, db, p)
	d := testutil.NewTestDeal(p.ID, p.Stages[0].ID, "Renewal")
	seedDeals(t, db, d)

	closed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	d.StageID = p.Stages[1].ID
	d.Status = domain.DealWon
	d.ClosedAt = &closed
	d.UpdatedAt = closed
	require.NoError(t, repo.Update(ctx, d))

	fetched, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Stages[1].ID, fetched.StageID)
	assert.Equal(t, domain.DealWon, fetched.Status)
	require.NotNil(t, fetched.ClosedAt)
	assert.True(t, closed.Equal(*fetched.ClosedAt))
}

func TestDealRepo_UpdateMissingDeal(t *testing.T) {
	db := testutil.NewTestDB(t)

	d := testutil.NewTestDeal("p", "s", "Ghost")
	err := NewSQLiteDealRepo(db).Update(context.Background(), d)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDealRepo_ListFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteDealRepo(db)
	ctx := context.Background()

	sales := testutil.NewTestPipeline("Sales", "Lead", "Proposal")
	other := testutil.NewTestPipeline("Partners", "Intro")
	seedPipeline(t, db, sales)
	seedPipeline(t, db, other)

	lead, proposal := sales.Stages[0].ID, sales.Stages[1].ID
	a := testutil.NewTestDeal(sales.ID, lead, "A")
	b := testutil.NewTestDeal(sales.ID, proposal, "B")
	c := testutil.NewTestDeal(sales.ID, lead, "C", testutil.WithDealStatus(domain.DealWon))
	arch := testutil.NewTestDeal(sales.ID, lead, "Archived", testutil.WithDealStatus(domain.DealArchived))
	x := testutil.NewTestDeal(other.ID, other.Stages[0].ID, "X")
	seedDeals(t, db, a, b, c, arch, x)

	titles := func(deals []*domain.Deal) []string {
		out := make([]string, 0, len(deals))
		for _, d := range deals {
			out = append(out, d.Title)
		}
		return out
	}

	tests := []struct {
		name   string
		filter domain.DealFilter
		want   []string
	}{
		{"pipeline hides archived", domain.DealFilter{PipelineID: sales.ID}, []string{"A", "B", "C"}},
		{"pipeline with archived", domain.DealFilter{PipelineID: sales.ID, IncludeArchived: true}, []string{"A", "B", "C", "Archived"}},
		{"stage", domain.DealFilter{PipelineID: sales.ID, StageID: lead}, []string{"A", "C"}},
		{"status", domain.DealFilter{PipelineID: sales.ID, Status: domain.DealOpen}, []string{"A", "B"}},
		{"archived status", domain.DealFilter{Status: domain.DealArchived}, []string{"Archived"}},
		{"everything", domain.DealFilter{}, []string{"A", "B", "C", "X"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			deals, err := repo.List(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, titles(deals))
		})
	}
}

func TestDealRepo_RejectsUnknownStage(t *testing.T) {
	db := testutil.NewTestDB(t)
	p := testutil.NewTestPipeline("Sales", "Lead")
	seedPipeline(t, db, p)

	d := testutil.NewTestDeal(p.ID, "no-such-stage", "Orphan")
	assert.Error(t, NewSQLiteDealRepo(db).Create(context.Background(), d))
}
