package board

import (
	"context"
	"errors"
	"fmt"

	"code.cloudfoundry.org/clock"
	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultDispatchLimit bounds the number of concurrent deal updates.
const DefaultDispatchLimit = 8

// DealStore is what the board needs from the system of record.
type DealStore interface {
	GetByID(ctx context.Context, id string) (*domain.Deal, error)
	Update(ctx context.Context, d *domain.Deal) (*domain.Deal, error)
	List(ctx context.Context, f domain.DealFilter) ([]*domain.Deal, error)
}

// Result is the outcome of one dispatched move. Deal is the stored record on
// success.
type Result struct {
	Move Move
	Deal *domain.Deal
	Err  error
}

// Failed joins the errors of failed results, or returns nil.
func Failed(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("move %s: %w", r.Move, r.Err))
		}
	}
	return errors.Join(errs...)
}

func succeeded(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Dispatcher persists detected moves through a DealStore.
type Dispatcher struct {
	store    DealStore
	pipeline *domain.Pipeline
	logger   logrus.FieldLogger
	clock    clock.Clock
	limit    int
}

type DispatcherOption func(*Dispatcher)

func WithDispatchLogger(l logrus.FieldLogger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

func WithDispatchLimit(n int) DispatcherOption {
	return func(d *Dispatcher) { d.limit = n }
}

func WithDispatchClock(c clock.Clock) DispatcherOption {
	return func(d *Dispatcher) { d.clock = c }
}

// NewDispatcher returns a dispatcher for moves on pipeline's board.
func NewDispatcher(store DealStore, pipeline *domain.Pipeline, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		pipeline: pipeline,
		logger:   logrus.StandardLogger(),
		clock:    clock.NewClock(),
		limit:    DefaultDispatchLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.limit <= 0 {
		d.limit = DefaultDispatchLimit
	}
	return d
}

// Dispatch applies moves concurrently. Moves for the same card are collapsed
// first: the card keeps its first source and its last target. A failed move
// is logged and reported in its Result; it never stops the others. Results
// follow the order in which cards first appear in moves.
func (d *Dispatcher) Dispatch(ctx context.Context, moves []Move) []Result {
	batch := collapse(moves)
	results := make([]Result, len(batch))

	var g errgroup.Group
	g.SetLimit(d.limit)
	for i, m := range batch {
		i, m := i, m
		g.Go(func() error {
			deal, err := d.apply(ctx, m)
			if err != nil {
				d.logger.WithFields(logrus.Fields{
					"deal_id": m.CardID,
					"from":    m.FromStack,
					"to":      m.ToStack,
				}).WithError(err).Error("deal move failed")
			}
			results[i] = Result{Move: m, Deal: deal, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// PatchFor resolves a move target into the fields it changes. Stage targets
// reopen the deal; rest targets set its status.
func (d *Dispatcher) PatchFor(m Move) (domain.DealPatch, error) {
	if d.pipeline != nil && d.pipeline.HasStage(m.ToStack) {
		stage := m.ToStack
		open := domain.DealOpen
		return domain.DealPatch{StageID: &stage, Status: &open}, nil
	}
	status := domain.DealStatus(m.ToStack)
	if domain.ValidDealStatuses[status] {
		return domain.DealPatch{Status: &status}, nil
	}
	return domain.DealPatch{}, fmt.Errorf("%w: %q", ErrUnknownTarget, m.ToStack)
}

// apply re-fetches the deal so fields missing from the board are kept, merges
// the move and writes the record back without its relations.
func (d *Dispatcher) apply(ctx context.Context, m Move) (*domain.Deal, error) {
	patch, err := d.PatchFor(m)
	if err != nil {
		return nil, err
	}

	current, err := d.store.GetByID(ctx, m.CardID)
	switch {
	case errors.Is(err, domain.ErrNotFound), err == nil && current == nil:
		return nil, fmt.Errorf("%w: %s", ErrDealNotFound, m.CardID)
	case err != nil:
		return nil, fmt.Errorf("fetching deal %s: %w", m.CardID, err)
	}
	if d.pipeline != nil && current.PipelineID != d.pipeline.ID {
		return nil, fmt.Errorf("deal %s belongs to another pipeline", m.CardID)
	}

	if err := patch.Apply(current, d.clock.Now().UTC()); err != nil {
		return nil, err
	}
	stored, err := d.store.Update(ctx, current.ForUpdate())
	if err != nil {
		return nil, fmt.Errorf("updating deal %s: %w", m.CardID, err)
	}
	return stored, nil
}

func collapse(moves []Move) []Move {
	pos := make(map[string]int, len(moves))
	out := make([]Move, 0, len(moves))
	for _, m := range moves {
		if i, ok := pos[m.CardID]; ok {
			out[i].ToStack = m.ToStack
			continue
		}
		pos[m.CardID] = len(out)
		out = append(out, m)
	}
	return out
}
