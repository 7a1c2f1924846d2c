package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/sirupsen/logrus"
)

// TagDeals is the cache tag carried by every deal listing.
const TagDeals = "deals"

// PipelineTag is the cache tag for listings scoped to one pipeline.
func PipelineTag(pipelineID string) string {
	return "pipeline:" + pipelineID
}

// Invalidator is the data-fetching layer's invalidation boundary.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
}

// Board owns the working copy of one pipeline's stacks. Moves mutate the
// copy optimistically, then go to the store; after any successful write the
// board reloads from the store, which is the source of truth. A failed write
// is not rolled back locally.
type Board struct {
	pipeline    *domain.Pipeline
	store       DealStore
	dispatcher  *Dispatcher
	scheduler   *Scheduler[[]Stack]
	invalidator Invalidator
	logger      logrus.FieldLogger

	mu     sync.Mutex
	stacks []Stack
	loaded bool

	subMu   sync.Mutex
	subs    map[int]func([]Stack)
	nextSub int
}

type options struct {
	clock         clock.Clock
	frame         time.Duration
	dispatchLimit int
	logger        logrus.FieldLogger
	invalidator   Invalidator
}

type Option func(*options)

func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithFrame(d time.Duration) Option {
	return func(o *options) { o.frame = d }
}

func WithDispatchConcurrency(n int) Option {
	return func(o *options) { o.dispatchLimit = n }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

func WithInvalidator(inv Invalidator) Option {
	return func(o *options) { o.invalidator = inv }
}

// New returns an empty board for pipeline. Call Load to fill it and Close to
// release the scheduler.
func New(pipeline *domain.Pipeline, store DealStore, opts ...Option) *Board {
	o := options{
		clock:         clock.NewClock(),
		frame:         DefaultFrame,
		dispatchLimit: DefaultDispatchLimit,
		logger:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger.WithField("pipeline_id", pipeline.ID)
	b := &Board{
		pipeline:    pipeline,
		store:       store,
		invalidator: o.invalidator,
		logger:      logger,
		subs:        make(map[int]func([]Stack)),
		dispatcher: NewDispatcher(store, pipeline,
			WithDispatchLogger(logger),
			WithDispatchLimit(o.dispatchLimit),
			WithDispatchClock(o.clock),
		),
	}
	b.scheduler = NewScheduler(o.clock, o.frame, b.notify)
	return b
}

// Pipeline returns the pipeline the board shows.
func (b *Board) Pipeline() *domain.Pipeline {
	return b.pipeline
}

// Load replaces the working copy with stacks built from the store.
func (b *Board) Load(ctx context.Context) error {
	deals, err := b.store.List(ctx, domain.DealFilter{PipelineID: b.pipeline.ID})
	if err != nil {
		return fmt.Errorf("listing deals: %w", err)
	}
	stacks := BuildStacks(b.pipeline.Stages, deals)

	b.mu.Lock()
	b.stacks = stacks
	b.loaded = true
	b.mu.Unlock()

	b.scheduler.Schedule(CloneStacks(stacks))
	return nil
}

// Stacks returns a copy of the current working copy.
func (b *Board) Stacks() []Stack {
	b.mu.Lock()
	defer b.mu.Unlock()
	return CloneStacks(b.stacks)
}

// Move drags a card to index of stack toStack and persists the change.
// Errors are returned only for invalid drags; store failures are reported per
// move in the results.
func (b *Board) Move(ctx context.Context, cardID, toStack string, index int) ([]Result, error) {
	return b.commit(ctx, func(stacks []Stack) ([]Stack, []Move, error) {
		after, err := MoveCard(stacks, cardID, toStack, index)
		if err != nil {
			return nil, nil, err
		}
		return after, DetectMoves(stacks, after), nil
	})
}

// Drop moves a card onto a rest target (won, lost, archived).
func (b *Board) Drop(ctx context.Context, cardID, target string) (Result, error) {
	results, err := b.commit(ctx, func(stacks []Stack) ([]Stack, []Move, error) {
		after, move, err := DropOnRestTarget(stacks, cardID, target)
		if err != nil {
			return nil, nil, err
		}
		return after, []Move{move}, nil
	})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// Replace swaps in a snapshot produced elsewhere, for example by a drag
// library that reorders many cards at once, and persists the stack changes.
// The snapshot must hold every pipeline stage once. Stacks named after a rest
// target are drop zones: their cards are dispatched and leave the board.
func (b *Board) Replace(ctx context.Context, after []Stack) ([]Result, error) {
	if err := b.checkSnapshot(after); err != nil {
		return nil, err
	}
	if err := checkUnique(after); err != nil {
		return nil, err
	}
	after = CloneStacks(after)
	kept := make([]Stack, 0, len(after))
	for _, s := range after {
		if !domain.IsRestTarget(s.ID) {
			kept = append(kept, s)
		}
	}
	return b.commit(ctx, func(stacks []Stack) ([]Stack, []Move, error) {
		return kept, DetectMoves(stacks, after), nil
	})
}

func (b *Board) checkSnapshot(after []Stack) error {
	seen := make(map[string]bool, len(after))
	for _, s := range after {
		if !b.pipeline.HasStage(s.ID) && !domain.IsRestTarget(s.ID) {
			return fmt.Errorf("%w: %s", ErrUnknownStack, s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("stack %s appears twice", s.ID)
		}
		seen[s.ID] = true
	}
	for _, st := range b.pipeline.Stages {
		if !seen[st.ID] {
			return fmt.Errorf("snapshot is missing stack %s", st.ID)
		}
	}
	return nil
}

// Refresh drops cached listings for the pipeline and reloads.
func (b *Board) Refresh(ctx context.Context) error {
	b.invalidate(ctx)
	return b.Load(ctx)
}

// Subscribe registers fn for working-copy changes. Bursts within one frame
// are coalesced into a single call with the latest stacks. The returned func
// unsubscribes.
func (b *Board) Subscribe(fn func([]Stack)) func() {
	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.subMu.Lock()
			delete(b.subs, id)
			b.subMu.Unlock()
		})
	}
}

// Flush delivers a pending notification immediately.
func (b *Board) Flush() {
	b.scheduler.Flush()
}

// Close stops notifications. In-flight store calls are not cancelled.
func (b *Board) Close() {
	b.scheduler.Stop()
}

func (b *Board) commit(ctx context.Context, mutate func([]Stack) ([]Stack, []Move, error)) ([]Result, error) {
	b.mu.Lock()
	if !b.loaded {
		b.mu.Unlock()
		if err := b.Load(ctx); err != nil {
			return nil, err
		}
		b.mu.Lock()
	}
	after, moves, err := mutate(b.stacks)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	b.stacks = after
	b.mu.Unlock()

	b.scheduler.Schedule(CloneStacks(after))
	if len(moves) == 0 {
		return nil, nil
	}

	results := b.dispatcher.Dispatch(ctx, moves)
	if n := succeeded(results); n > 0 {
		b.logger.WithFields(logrus.Fields{"moved": n, "failed": len(results) - n}).Debug("board moves persisted")
		if err := b.Refresh(ctx); err != nil {
			b.logger.WithError(err).Warn("board reload failed")
		}
	}
	return results, nil
}

func (b *Board) invalidate(ctx context.Context) {
	if b.invalidator == nil {
		return
	}
	if err := b.invalidator.Invalidate(ctx, TagDeals, PipelineTag(b.pipeline.ID)); err != nil {
		b.logger.WithError(err).Warn("cache invalidation failed")
	}
}

func (b *Board) notify(stacks []Stack) {
	b.subMu.Lock()
	fns := make([]func([]Stack), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subMu.Unlock()

	for _, fn := range fns {
		fn(CloneStacks(stacks))
	}
}
