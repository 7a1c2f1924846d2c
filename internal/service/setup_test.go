package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/alexanderramin/dealboard/internal/repository"
	"github.com/alexanderramin/dealboard/internal/testutil"
	"github.com/stretchr/testify/require"
)

type testServices struct {
	db        *sql.DB
	pipelines PipelineService
	deals     DealService
	contacts  ContactService
	imports   ImportService
	observer  *recordingObserver
}

func setupServices(t *testing.T) *testServices {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	obs := &recordingObserver{}

	pipelineRepo := repository.NewSQLitePipelineRepo(database)
	dealRepo := repository.NewSQLiteDealRepo(database)
	contactRepo := repository.NewSQLiteContactRepo(database)

	return &testServices{
		db:        database,
		pipelines: NewPipelineService(pipelineRepo, uow, obs),
		deals:     NewDealService(dealRepo, pipelineRepo, contactRepo, uow, obs),
		contacts:  NewContactService(contactRepo),
		imports:   NewImportService(uow, obs),
		observer:  obs,
	}
}

func (s *testServices) createPipeline(t *testing.T, stages ...string) *domain.Pipeline {
	t.Helper()
	p, err := s.pipelines.Create(context.Background(), "Sales", stages)
	require.NoError(t, err)
	return p
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) named(name string) []UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []UseCaseEvent
	for _, e := range o.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
