package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogUseCaseObserver_Levels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	obs := NewLogUseCaseObserver(logger)
	ctx := context.Background()

	obs.ObserveUseCase(ctx, UseCaseEvent{
		Name:     "deal.update",
		Duration: 3 * time.Millisecond,
		Success:  true,
		Fields:   map[string]any{"deal_id": "d1"},
	})
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "deal.update", entry.Data["use_case"])
	assert.Equal(t, "d1", entry.Data["deal_id"])
	assert.Equal(t, int64(3), entry.Data["duration_ms"])

	obs.ObserveUseCase(ctx, UseCaseEvent{Name: "deal.update", Err: errors.New("boom")})
	entry = hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, false, entry.Data["success"])
	assert.EqualError(t, entry.Data[logrus.ErrorKey].(error), "boom")
}

func TestNewLogUseCaseObserver_NilLoggerIsNoop(t *testing.T) {
	obs := NewLogUseCaseObserver(nil)
	assert.IsType(t, NoopUseCaseObserver{}, obs)
	obs.ObserveUseCase(context.Background(), UseCaseEvent{Name: "x"})
}
