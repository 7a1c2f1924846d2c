package domain

import (
	"fmt"
	"strings"
	"time"
)

// Deal is a sales opportunity tracked through the stages of one pipeline.
type Deal struct {
	ID             string     `json:"id"`
	PipelineID     string     `json:"pipelineId"`
	StageID        string     `json:"stageId"`
	Title          string     `json:"title"`
	ClientName     string     `json:"clientName,omitempty"`
	PotentialValue int64      `json:"potentialValue"`
	Currency       Currency   `json:"currency,omitempty"`
	Status         DealStatus `json:"status"`
	OwnerID        string     `json:"ownerId,omitempty"`
	ContactID      string     `json:"contactId,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`

	// Relations are hydrated on read and never written back.
	Pipeline *Pipeline `json:"pipeline,omitempty"`
	Stage    *Stage    `json:"stage,omitempty"`
	Contact  *Contact  `json:"contact,omitempty"`
}

// Validate checks the fields every stored deal must carry.
func (d *Deal) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return Invalidf("deal title is required")
	}
	if d.PipelineID == "" {
		return Invalidf("deal %q has no pipeline", d.Title)
	}
	if d.StageID == "" {
		return Invalidf("deal %q has no stage", d.Title)
	}
	if !ValidDealStatuses[d.Status] {
		return Invalidf("invalid deal status %q", d.Status)
	}
	if d.PotentialValue < 0 {
		return Invalidf("potential value must not be negative, got %d", d.PotentialValue)
	}
	return nil
}

// ForUpdate returns a copy of d with relational fields cleared, suitable for
// sending to a store.
func (d *Deal) ForUpdate() *Deal {
	out := *d
	out.Pipeline = nil
	out.Stage = nil
	out.Contact = nil
	if d.ClosedAt != nil {
		t := *d.ClosedAt
		out.ClosedAt = &t
	}
	return &out
}

// DisplayClient returns the client label shown on a board card.
func (d *Deal) DisplayClient() string {
	if d.Contact != nil {
		return CoalesceStr(d.ClientName, d.Contact.Company, d.Contact.Name)
	}
	return d.ClientName
}

// DealPatch is a partial update of the board-controlled fields of a deal.
type DealPatch struct {
	StageID *string     `json:"stageId,omitempty"`
	Status  *DealStatus `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p DealPatch) Empty() bool {
	return p.StageID == nil && p.Status == nil
}

// Apply merges the patch into d. Closing a deal stamps ClosedAt; reopening it
// clears the stamp. Applying the same patch twice leaves d unchanged.
func (p DealPatch) Apply(d *Deal, now time.Time) error {
	if p.Status != nil && !ValidDealStatuses[*p.Status] {
		return Invalidf("invalid deal status %q", *p.Status)
	}
	d.StageID = StrFromPtrWithDefault(d.StageID, p.StageID)
	if p.Status != nil && *p.Status != d.Status {
		d.Status = *p.Status
		switch {
		case d.Status.Closed():
			t := now
			d.ClosedAt = &t
		case d.Status == DealOpen:
			d.ClosedAt = nil
		}
	}
	d.UpdatedAt = now
	return nil
}

// DealFilter narrows a deal listing.
type DealFilter struct {
	PipelineID      string
	StageID         string
	Status          DealStatus
	IncludeArchived bool
}

// Key returns a stable textual form of the filter, used for cache keys.
func (f DealFilter) Key() string {
	return fmt.Sprintf("p=%s;s=%s;st=%s;a=%t", f.PipelineID, f.StageID, f.Status, f.IncludeArchived)
}
