package board

import (
	"sync"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder[T any] struct {
	mu  sync.Mutex
	got []T
	ch  chan T
}

func newRecorder[T any]() *recorder[T] {
	return &recorder[T]{ch: make(chan T, 16)}
}

func (r *recorder[T]) deliver(v T) {
	r.mu.Lock()
	r.got = append(r.got, v)
	r.mu.Unlock()
	r.ch <- v
}

func (r *recorder[T]) calls() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.got...)
}

func (r *recorder[T]) next(t *testing.T) T {
	t.Helper()
	select {
	case v := <-r.ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery")
	}
	var zero T
	return zero
}

func (r *recorder[T]) none(t *testing.T) {
	t.Helper()
	select {
	case v := <-r.ch:
		t.Fatalf("unexpected delivery %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func newFakeClock() *fakeclock.FakeClock {
	return fakeclock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestScheduler_TwoSchedulesInOneFrameDeliverOnceWithLatest(t *testing.T) {
	clk := newFakeClock()
	rec := newRecorder[int]()
	s := NewScheduler(clk, DefaultFrame, rec.deliver)
	defer s.Stop()

	s.Schedule(1)
	clk.Increment(DefaultFrame / 2)
	s.Schedule(2)

	rec.none(t)
	clk.WaitForWatcherAndIncrement(DefaultFrame)

	assert.Equal(t, 2, rec.next(t))
	rec.none(t)
	assert.Equal(t, []int{2}, rec.calls())
	assert.False(t, s.Pending())
}

func TestScheduler_ScheduleRestartsFrame(t *testing.T) {
	clk := newFakeClock()
	rec := newRecorder[string]()
	s := NewScheduler(clk, 10*time.Millisecond, rec.deliver)
	defer s.Stop()

	s.Schedule("a")
	clk.WaitForWatcherAndIncrement(6 * time.Millisecond)
	s.Schedule("b")
	// 12ms since "a", 6ms since "b": nothing due yet.
	clk.WaitForWatcherAndIncrement(6 * time.Millisecond)
	rec.none(t)

	clk.WaitForWatcherAndIncrement(4 * time.Millisecond)
	assert.Equal(t, "b", rec.next(t))
}

func TestScheduler_SeparateFramesDeliverEach(t *testing.T) {
	clk := newFakeClock()
	rec := newRecorder[int]()
	s := NewScheduler(clk, DefaultFrame, rec.deliver)
	defer s.Stop()

	s.Schedule(1)
	clk.WaitForWatcherAndIncrement(DefaultFrame)
	assert.Equal(t, 1, rec.next(t))

	s.Schedule(2)
	clk.WaitForWatcherAndIncrement(DefaultFrame)
	assert.Equal(t, 2, rec.next(t))
}

func TestScheduler_Flush(t *testing.T) {
	clk := newFakeClock()
	rec := newRecorder[int]()
	s := NewScheduler(clk, DefaultFrame, rec.deliver)
	defer s.Stop()

	s.Flush() // nothing pending
	s.Schedule(1)
	s.Schedule(2)
	require.True(t, s.Pending())
	s.Flush()

	assert.Equal(t, []int{2}, rec.calls())
	assert.Equal(t, 2, rec.next(t))
	assert.Equal(t, 0, clk.WatcherCount(), "flush stops the frame timer")
}

func TestScheduler_StopDropsPendingAndIgnoresLaterSchedules(t *testing.T) {
	clk := newFakeClock()
	rec := newRecorder[int]()
	s := NewScheduler(clk, DefaultFrame, rec.deliver)

	s.Schedule(1)
	s.Stop()
	s.Schedule(2)
	clk.Increment(time.Second)

	rec.none(t)
	assert.Empty(t, rec.calls())
	assert.False(t, s.Pending())
}

func TestScheduler_StopWaitsForInFlightDelivery(t *testing.T) {
	clk := newFakeClock()
	started := make(chan struct{})
	release := make(chan struct{})
	var done bool
	s := NewScheduler(clk, DefaultFrame, func(int) {
		close(started)
		<-release
		done = true
	})

	s.Schedule(1)
	clk.WaitForWatcherAndIncrement(DefaultFrame)
	<-started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned before delivery finished")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-stopped
	assert.True(t, done)
}

func TestScheduler_StopWaitsForFlushDelivery(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var done bool
	s := NewScheduler(newFakeClock(), DefaultFrame, func(int) {
		close(started)
		<-release
		done = true
	})

	s.Schedule(1)
	go s.Flush()
	<-started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned before the flushed delivery finished")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-stopped
	assert.True(t, done)
}

func TestScheduler_RealClockCoalesces(t *testing.T) {
	rec := newRecorder[int]()
	s := NewScheduler(nil, 0, rec.deliver)
	defer s.Stop()

	for i := 1; i <= 5; i++ {
		s.Schedule(i)
	}
	assert.Equal(t, 5, rec.next(t))
	rec.none(t)
}
