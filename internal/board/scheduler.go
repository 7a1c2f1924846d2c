package board

import (
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
)

// DefaultFrame is one display frame at 60Hz.
const DefaultFrame = 16 * time.Millisecond

// Scheduler coalesces bursts of state changes into one delivery per frame.
// Each Schedule supersedes the pending state; only the latest is delivered.
type Scheduler[T any] struct {
	clock   clock.Clock
	frame   time.Duration
	deliver func(T)

	mu      sync.Mutex
	pending *pendingState[T]
	stopped bool

	// deliveries never overlap.
	deliverMu sync.Mutex
	wg        sync.WaitGroup
}

type pendingState[T any] struct {
	state  T
	timer  clock.Timer
	cancel chan struct{}
}

// NewScheduler returns a scheduler that hands the latest state to deliver one
// frame after the last Schedule call. deliver must not call Flush or Stop.
func NewScheduler[T any](clk clock.Clock, frame time.Duration, deliver func(T)) *Scheduler[T] {
	if clk == nil {
		clk = clock.NewClock()
	}
	if frame <= 0 {
		frame = DefaultFrame
	}
	return &Scheduler[T]{clock: clk, frame: frame, deliver: deliver}
}

// Schedule replaces any pending state with state and restarts the frame.
func (s *Scheduler[T]) Schedule(state T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.cancelLocked()

	p := &pendingState[T]{
		state:  state,
		timer:  s.clock.NewTimer(s.frame),
		cancel: make(chan struct{}),
	}
	s.pending = p
	s.wg.Add(1)
	go s.wait(p)
}

// Flush delivers the pending state now, if there is one.
func (s *Scheduler[T]) Flush() {
	s.mu.Lock()
	p := s.pending
	if p == nil {
		s.mu.Unlock()
		return
	}
	s.cancelLocked()
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	s.run(p.state)
}

// Pending reports whether a delivery is scheduled.
func (s *Scheduler[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Stop drops pending work and waits for an in-flight delivery to return.
// Later Schedule calls are ignored.
func (s *Scheduler[T]) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.cancelLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler[T]) cancelLocked() {
	if s.pending == nil {
		return
	}
	s.pending.timer.Stop()
	close(s.pending.cancel)
	s.pending = nil
}

func (s *Scheduler[T]) wait(p *pendingState[T]) {
	defer s.wg.Done()
	select {
	case <-p.timer.C():
	case <-p.cancel:
		return
	}

	s.mu.Lock()
	if s.pending != p {
		// Superseded after the timer fired.
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.mu.Unlock()

	s.run(p.state)
}

func (s *Scheduler[T]) run(state T) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if s.deliver != nil {
		s.deliver(state)
	}
}
