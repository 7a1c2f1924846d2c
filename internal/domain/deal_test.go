package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeal() *Deal {
	return &Deal{
		ID:         "d1",
		PipelineID: "p1",
		StageID:    "lead",
		Title:      "Renewal",
		Status:     DealOpen,
	}
}

func TestDealPatch_StageOnly(t *testing.T) {
	d := newDeal()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stage := "proposal"

	require.NoError(t, DealPatch{StageID: &stage}.Apply(d, now))

	assert.Equal(t, "proposal", d.StageID)
	assert.Equal(t, DealOpen, d.Status)
	assert.Nil(t, d.ClosedAt)
	assert.Equal(t, now, d.UpdatedAt)
}

func TestDealPatch_WinStampsClosedAt(t *testing.T) {
	d := newDeal()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	won := DealWon

	require.NoError(t, DealPatch{Status: &won}.Apply(d, now))

	assert.Equal(t, DealWon, d.Status)
	require.NotNil(t, d.ClosedAt)
	assert.Equal(t, now, *d.ClosedAt)
	assert.Equal(t, "lead", d.StageID, "status change keeps the stage")
}

func TestDealPatch_Idempotent(t *testing.T) {
	d := newDeal()
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	lost := DealLost
	patch := DealPatch{Status: &lost}

	require.NoError(t, patch.Apply(d, first))
	require.NoError(t, patch.Apply(d, second))

	assert.Equal(t, DealLost, d.Status)
	require.NotNil(t, d.ClosedAt)
	assert.Equal(t, first, *d.ClosedAt, "re-applying must not move the close time")
}

func TestDealPatch_ReopenClearsClosedAt(t *testing.T) {
	d := newDeal()
	now := time.Now().UTC()
	won, open := DealWon, DealOpen

	require.NoError(t, DealPatch{Status: &won}.Apply(d, now))
	require.NoError(t, DealPatch{Status: &open}.Apply(d, now))

	assert.Equal(t, DealOpen, d.Status)
	assert.Nil(t, d.ClosedAt)
}

func TestDealPatch_RejectsUnknownStatus(t *testing.T) {
	d := newDeal()
	bogus := DealStatus("pending")

	err := DealPatch{Status: &bogus}.Apply(d, time.Now())
	assert.Error(t, err)
	assert.Equal(t, DealOpen, d.Status)
}

func TestDeal_ForUpdateStripsRelations(t *testing.T) {
	d := newDeal()
	d.Pipeline = &Pipeline{ID: "p1"}
	d.Stage = &Stage{ID: "lead"}
	d.Contact = &Contact{ID: "c1", Name: "Ada"}

	out := d.ForUpdate()

	assert.Nil(t, out.Pipeline)
	assert.Nil(t, out.Stage)
	assert.Nil(t, out.Contact)
	assert.NotNil(t, d.Contact, "original keeps its relations")
	assert.Equal(t, d.ID, out.ID)
}

func TestDeal_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Deal)
	}{
		{"blank title", func(d *Deal) { d.Title = "  " }},
		{"no pipeline", func(d *Deal) { d.PipelineID = "" }},
		{"no stage", func(d *Deal) { d.StageID = "" }},
		{"bad status", func(d *Deal) { d.Status = "closed" }},
		{"negative value", func(d *Deal) { d.PotentialValue = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := newDeal()
			tc.mutate(d)
			assert.Error(t, d.Validate())
		})
	}
	assert.NoError(t, newDeal().Validate())
}

func TestDeal_DisplayClientFallsBackToContact(t *testing.T) {
	d := newDeal()
	d.Contact = &Contact{Name: "Ada", Company: "Analytical Engines"}
	assert.Equal(t, "Analytical Engines", d.DisplayClient())

	d.ClientName = "Babbage Ltd"
	assert.Equal(t, "Babbage Ltd", d.DisplayClient())
}

func TestIsRestTarget(t *testing.T) {
	assert.True(t, IsRestTarget("won"))
	assert.True(t, IsRestTarget("archived"))
	assert.False(t, IsRestTarget("open"))
	assert.False(t, IsRestTarget("proposal"))
}
