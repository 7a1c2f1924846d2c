package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/dealboard/internal/db"
	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/stretchr/testify/require"
)

func seedPipeline(t *testing.T, conn db.DBTX, p *domain.Pipeline) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, NewSQLitePipelineRepo(conn).Create(ctx, p))
	stages := NewSQLiteStageRepo(conn)
	for i := range p.Stages {
		require.NoError(t, stages.Create(ctx, &p.Stages[i]))
	}
}

func seedDeals(t *testing.T, conn db.DBTX, deals ...*domain.Deal) {
	t.Helper()
	repo := NewSQLiteDealRepo(conn)
	for _, d := range deals {
		require.NoError(t, repo.Create(context.Background(), d))
	}
}
