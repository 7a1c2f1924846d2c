package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// UseCaseEvent captures lightweight execution telemetry for a service use case.
type UseCaseEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// UseCaseObserver receives use-case execution events.
type UseCaseObserver interface {
	ObserveUseCase(ctx context.Context, event UseCaseEvent)
}

// NoopUseCaseObserver ignores all events.
type NoopUseCaseObserver struct{}

func (NoopUseCaseObserver) ObserveUseCase(context.Context, UseCaseEvent) {}

type logUseCaseObserver struct {
	logger logrus.FieldLogger
}

// NewLogUseCaseObserver writes service use-case events through logger.
func NewLogUseCaseObserver(logger logrus.FieldLogger) UseCaseObserver {
	if logger == nil {
		return NoopUseCaseObserver{}
	}
	return &logUseCaseObserver{logger: logger}
}

func (o *logUseCaseObserver) ObserveUseCase(ctx context.Context, event UseCaseEvent) {
	fields := make(logrus.Fields, 3+len(event.Fields))
	for k, v := range event.Fields {
		fields[k] = v
	}
	fields["use_case"] = event.Name
	fields["duration_ms"] = event.Duration.Milliseconds()
	fields["success"] = event.Success

	entry := o.logger.WithFields(fields)
	if event.Err != nil {
		entry.WithError(event.Err).Error("service_use_case")
		return
	}
	entry.Debug("service_use_case")
}

func useCaseObserverOrNoop(observers []UseCaseObserver) UseCaseObserver {
	for _, obs := range observers {
		if obs != nil {
			return obs
		}
	}
	return NoopUseCaseObserver{}
}

// observe reports one use-case run; call it deferred with a pointer to the
// named error result.
func observe(ctx context.Context, obs UseCaseObserver, name string, startedAt time.Time, errp *error, fields map[string]any) {
	var err error
	if errp != nil {
		err = *errp
	}
	obs.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}
