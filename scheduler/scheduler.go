// Package scheduler decides when the project graph is rebuilt. Background
// rebuilds wait for file changes to settle and for the user to go idle;
// manual rebuilds run as soon as the worker is free and cancel a background
// rebuild in flight. Requests pass through a capacity-1 queue where the
// newest request replaces the pending one, except that a background request
// never displaces a pending manual one.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrSuperseded is returned to a waiter whose pending request was replaced.
var ErrSuperseded = errors.New("rebuild request superseded")

// RebuildFunc performs one rebuild. It must honour ctx cancellation.
type RebuildFunc func(ctx context.Context) error

// Options configures a Scheduler.
type Options struct {
	Rebuild          RebuildFunc
	QuiescenceWindow time.Duration
	IdleWindow       time.Duration
	Logger           *slog.Logger
	Now              func() time.Time
}

type request struct {
	manual  bool
	waiters []chan error
}

func newRequest(manual bool) (*request, chan error) {
	done := make(chan error, 1)
	return &request{manual: manual, waiters: []chan error{done}}, done
}

func (r *request) finish(err error) {
	for _, w := range r.waiters {
		w <- err
	}
}

// State is a point-in-time view of the scheduler for status reporting.
type State struct {
	Dirty        bool
	Focused      bool
	Running      bool
	Pending      bool
	Rebuilds     int
	LastRebuild  time.Time
	LastDuration time.Duration
	LastError    string
}

// Scheduler owns the single rebuild worker.
type Scheduler struct {
	rebuild    RebuildFunc
	quiescence time.Duration
	idle       time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu            sync.Mutex
	dirty         bool
	focused       bool
	lastChange    time.Time
	lastInput     time.Time
	pending       *request
	running       *request
	cancelRunning context.CancelFunc
	rebuilds      int
	lastRebuild   time.Time
	lastDuration  time.Duration
	lastErr       error

	kick chan struct{}
	wake chan struct{}
}

// New creates a Scheduler. Run must be started before Trigger can complete.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		rebuild:    opts.Rebuild,
		quiescence: opts.QuiescenceWindow,
		idle:       opts.IdleWindow,
		logger:     opts.Logger,
		now:        opts.Now,
		focused:    true,
		kick:       make(chan struct{}, 1),
		wake:       make(chan struct{}, 1),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.lastInput = s.now()
	return s
}

// NotifyFileChange records that the project tree changed.
func (s *Scheduler) NotifyFileChange() {
	s.mu.Lock()
	s.dirty = true
	s.lastChange = s.now()
	s.mu.Unlock()
	signal(s.kick)
}

// NotifyUserInput records user activity, postponing background rebuilds.
func (s *Scheduler) NotifyUserInput() {
	s.mu.Lock()
	s.lastInput = s.now()
	s.mu.Unlock()
	signal(s.kick)
}

// SetFocus records whether the user interface has focus. An unfocused UI
// counts as idle.
func (s *Scheduler) SetFocus(focused bool) {
	s.mu.Lock()
	s.focused = focused
	if focused {
		s.lastInput = s.now()
	}
	s.mu.Unlock()
	signal(s.kick)
}

// Trigger enqueues a rebuild and waits for its outcome. A manual trigger
// cancels a background rebuild that is already running.
func (s *Scheduler) Trigger(ctx context.Context, manual bool) error {
	req, done := newRequest(manual)
	s.submit(req)
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Dirty:        s.dirty,
		Focused:      s.focused,
		Running:      s.running != nil,
		Pending:      s.pending != nil,
		Rebuilds:     s.rebuilds,
		LastRebuild:  s.lastRebuild,
		LastDuration: s.lastDuration,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Run starts the worker and evaluates background rebuild conditions until
// ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	go s.work(ctx)

	for {
		fire, wait := s.due(s.now())
		if fire {
			s.logger.Debug("background rebuild due")
			s.submit(&request{})
			continue
		}

		var timer *time.Timer
		var timerC <-chan time.Time
		if wait > 0 {
			timer = time.NewTimer(wait)
			timerC = timer.C
		}
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-s.kick:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// due reports whether a background rebuild should start at now. When it
// should not but files are dirty, wait is how long until it may.
func (s *Scheduler) due(now time.Time) (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return false, 0
	}
	wait := s.quiescence - now.Sub(s.lastChange)
	if s.focused {
		if idleWait := s.idle - now.Sub(s.lastInput); idleWait > wait {
			wait = idleWait
		}
	}
	if wait > 0 {
		return false, wait
	}
	s.dirty = false
	return true, 0
}

func (s *Scheduler) submit(req *request) {
	s.mu.Lock()
	if s.pending != nil && s.pending.manual && !req.manual {
		s.logger.Debug("background rebuild folded into pending manual rebuild")
		s.pending.waiters = append(s.pending.waiters, req.waiters...)
		s.mu.Unlock()
		return
	}
	if s.pending != nil {
		s.pending.finish(ErrSuperseded)
	}
	s.pending = req
	if req.manual && s.running != nil && !s.running.manual {
		s.logger.Info("manual rebuild requested, cancelling background rebuild")
		s.cancelRunning()
	}
	s.mu.Unlock()
	signal(s.wake)
}

func (s *Scheduler) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.pending != nil {
				s.pending.finish(ctx.Err())
				s.pending = nil
			}
			s.mu.Unlock()
			return
		case <-s.wake:
		}

		s.mu.Lock()
		req := s.pending
		s.pending = nil
		if req == nil {
			s.mu.Unlock()
			continue
		}
		runCtx, cancel := context.WithCancel(ctx)
		s.running = req
		s.cancelRunning = cancel
		s.mu.Unlock()

		start := time.Now()
		err := s.rebuild(runCtx)
		cancel()
		elapsed := time.Since(start)

		s.mu.Lock()
		s.running = nil
		s.cancelRunning = nil
		if err == nil {
			s.rebuilds++
			s.lastRebuild = s.now()
			s.lastDuration = elapsed
		}
		if !errors.Is(err, context.Canceled) {
			s.lastErr = err
		}
		s.mu.Unlock()

		switch {
		case err == nil:
			s.logger.Info("graph rebuild complete", "manual", req.manual, "duration", elapsed.Round(time.Millisecond))
		case errors.Is(err, context.Canceled):
			s.logger.Info("graph rebuild cancelled", "manual", req.manual)
		default:
			s.logger.Error("graph rebuild failed", "manual", req.manual, "error", err)
		}
		req.finish(err)
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
