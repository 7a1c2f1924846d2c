package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/google/uuid"
)

// GeneratedBoard holds the domain objects produced from an import schema.
type GeneratedBoard struct {
	Pipeline *domain.Pipeline
	Contacts []*domain.Contact
	Deals    []*domain.Deal
}

// Convert transforms a validated ImportSchema into domain objects ready for persistence.
// Call ValidateImportSchema first; Convert assumes the schema is valid.
func Convert(schema *ImportSchema) (*GeneratedBoard, error) {
	now := time.Now().UTC()

	pipeline := &domain.Pipeline{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(schema.Pipeline.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	stageByTitle := make(map[string]string, len(schema.Pipeline.Stages))
	for i, title := range schema.Pipeline.Stages {
		stage := domain.Stage{
			ID:         uuid.New().String(),
			PipelineID: pipeline.ID,
			Title:      strings.TrimSpace(title),
			Position:   i,
		}
		stageByTitle[strings.ToLower(stage.Title)] = stage.ID
		pipeline.Stages = append(pipeline.Stages, stage)
	}
	first, ok := pipeline.FirstStage()
	if !ok {
		return nil, fmt.Errorf("pipeline %q has no stages", pipeline.Name)
	}

	refMap := make(map[string]string) // ref -> UUID
	contacts := make([]*domain.Contact, 0, len(schema.Contacts))
	for _, c := range schema.Contacts {
		contact := &domain.Contact{
			ID:        uuid.New().String(),
			Name:      c.Name,
			Email:     c.Email,
			Company:   c.Company,
			CreatedAt: now,
		}
		refMap[c.Ref] = contact.ID
		contacts = append(contacts, contact)
	}

	deals := make([]*domain.Deal, 0, len(schema.Deals))
	for i, d := range schema.Deals {
		stageID := first.ID
		if d.Stage != "" {
			id, ok := stageByTitle[strings.ToLower(strings.TrimSpace(d.Stage))]
			if !ok {
				return nil, fmt.Errorf("deal %q references unknown stage %q", d.Title, d.Stage)
			}
			stageID = id
		}

		status := domain.DealOpen
		if d.Status != "" {
			status = domain.DealStatus(d.Status)
		}
		currency := domain.CurrencyUSD
		if d.Currency != "" {
			currency = domain.Currency(strings.ToUpper(d.Currency))
		}

		// Offset creation times so the board keeps file order.
		created := now.Add(time.Duration(i) * time.Microsecond)
		deal := &domain.Deal{
			ID:             uuid.New().String(),
			PipelineID:     pipeline.ID,
			StageID:        stageID,
			Title:          d.Title,
			ClientName:     d.Client,
			PotentialValue: d.Value,
			Currency:       currency,
			Status:         status,
			ContactID:      refMap[d.ContactRef],
			Notes:          d.Notes,
			CreatedAt:      created,
			UpdatedAt:      created,
		}
		if status.Closed() {
			closed := created
			deal.ClosedAt = &closed
		}
		deals = append(deals, deal)
	}

	return &GeneratedBoard{Pipeline: pipeline, Contacts: contacts, Deals: deals}, nil
}
