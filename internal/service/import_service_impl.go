package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/dealboard/internal/db"
	"github.com/alexanderramin/dealboard/internal/importer"
	"github.com/alexanderramin/dealboard/internal/repository"
)

type importService struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, observers ...UseCaseObserver) ImportService {
	return &importService{uow: uow, observer: useCaseObserverOrNoop(observers)}
}

func (s *importService) ImportBoard(ctx context.Context, filePath string) (*ImportResult, error) {
	schema, err := importer.LoadImportSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.importSchema(ctx, schema)
}

func (s *importService) ImportBoardFromSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error) {
	return s.importSchema(ctx, schema)
}

// importSchema writes the whole board in one transaction; any failure leaves
// the store untouched.
func (s *importService) importSchema(ctx context.Context, schema *importer.ImportSchema) (result *ImportResult, err error) {
	fields := map[string]any{"deals": len(schema.Deals)}
	defer observe(ctx, s.observer, "board.import", time.Now().UTC(), &err, fields)

	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	generated, err := importer.Convert(schema)
	if err != nil {
		return nil, fmt.Errorf("converting import schema: %w", err)
	}
	fields["pipeline_id"] = generated.Pipeline.ID

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		pipelines := repository.NewSQLitePipelineRepo(tx)
		stages := repository.NewSQLiteStageRepo(tx)
		contacts := repository.NewSQLiteContactRepo(tx)
		deals := repository.NewSQLiteDealRepo(tx)

		if err := pipelines.Create(ctx, generated.Pipeline); err != nil {
			return fmt.Errorf("creating pipeline: %w", err)
		}
		for i := range generated.Pipeline.Stages {
			st := &generated.Pipeline.Stages[i]
			if err := stages.Create(ctx, st); err != nil {
				return fmt.Errorf("creating stage %q: %w", st.Title, err)
			}
		}
		for _, c := range generated.Contacts {
			if err := contacts.Create(ctx, c); err != nil {
				return fmt.Errorf("creating contact %q: %w", c.Name, err)
			}
		}
		for _, d := range generated.Deals {
			if err := deals.Create(ctx, d); err != nil {
				return fmt.Errorf("creating deal %q: %w", d.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		Pipeline:     generated.Pipeline,
		ContactCount: len(generated.Contacts),
		DealCount:    len(generated.Deals),
	}, nil
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
