package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"phototriage/internal/logger"
)

// DefaultInterval is the time between capture attempts.
const DefaultInterval = 10 * time.Second

var ErrSchedulerRunning = errors.New("scheduler already running")

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop() { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Scheduler triggers fire once per interval until stopped. Each fire runs on
// its own goroutine, so a slow or failing attempt never delays the next tick.
type Scheduler struct {
	interval  time.Duration
	fire      func(ctx context.Context)
	logger    *logger.Logger
	newTicker func(time.Duration) Ticker

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	fired  atomic.Int64
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTicker replaces the wall-clock ticker, mainly for tests.
func WithTicker(newTicker func(time.Duration) Ticker) SchedulerOption {
	return func(s *Scheduler) { s.newTicker = newTicker }
}

func NewScheduler(interval time.Duration, fire func(ctx context.Context), logger *logger.Logger, opts ...SchedulerOption) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		interval:  interval,
		fire:      fire,
		logger:    logger,
		newTicker: newTimeTicker,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins firing. Cancelling ctx stops the scheduler like Stop does;
// attempts already started keep running with a context that is not cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrSchedulerRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	ticker := s.newTicker(s.interval)
	attemptCtx := context.WithoutCancel(ctx)

	go func(done chan struct{}) {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C():
				s.fired.Add(1)
				go s.fire(attemptCtx)
			}
		}
	}(s.done)

	s.logger.Info("⏱️  Scheduler started, firing every %s", s.interval)
	return nil
}

// Stop prevents further fires. It does not wait for attempts in flight.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("🛑 Scheduler stopped after %d fire(s)", s.fired.Load())
}

// Running reports whether the scheduler is started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Fired returns how many times the scheduler has fired.
func (s *Scheduler) Fired() int64 {
	return s.fired.Load()
}

// Interval returns the time between fires.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}
