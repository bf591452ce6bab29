package scheduler

import (
	"context"
	"sync"
	"time"
)

type Job interface{ Run(ctx context.Context) }

type FuncJob func(ctx context.Context)

func (f FuncJob) Run(ctx context.Context) { f(ctx) }

// Token identifies one schedule. Cancelling it stops the schedule; a job that
// was already woken up can observe the cancellation through Valid or the ctx
// it was handed.
type Token struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newToken(parent context.Context) *Token {
	ctx, cancel := context.WithCancel(parent)
	return &Token{ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// Cancel invalidates the token. It never blocks, so it is safe to call from
// inside a job.
func (t *Token) Cancel() {
	if t != nil {
		t.cancel()
	}
}

// Valid reports whether the schedule is still live.
func (t *Token) Valid() bool {
	return t != nil && t.ctx.Err() == nil
}

// Done is closed once the schedule goroutine has returned.
func (t *Token) Done() <-chan struct{} { return t.done }

func (t *Token) Context() context.Context { return t.ctx }

type Option func(*Scheduler)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	clock  Clock
	wg     sync.WaitGroup
}

func New(opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{ctx: ctx, cancel: cancel, clock: RealClock()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Clock() Clock { return s.clock }

// Stop cancels every schedule and waits for their goroutines to exit.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Every runs job each d until the returned token is cancelled.
func (s *Scheduler) Every(d time.Duration, job Job) *Token {
	tok := newToken(s.ctx)
	t := s.clock.NewTicker(d)
	s.spawn(tok, func() { s.loopEvery(tok, t, job) })
	return tok
}

// DailyAt runs job once a day at hh:mm local time.
func (s *Scheduler) DailyAt(hh, mm int, job Job) *Token {
	tok := newToken(s.ctx)
	s.spawn(tok, func() { s.loopDaily(tok, hh, mm, job) })
	return tok
}

// OnceAfter runs job a single time after d unless cancelled first.
func (s *Scheduler) OnceAfter(d time.Duration, job Job) *Token {
	tok := newToken(s.ctx)
	fire := s.clock.After(d)
	s.spawn(tok, func() { s.onceAfter(tok, fire, job) })
	return tok
}

func (s *Scheduler) spawn(tok *Token, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(tok.done)
		defer tok.cancel()
		fn()
	}()
}

func (s *Scheduler) loopEvery(tok *Token, t Ticker, job Job) {
	defer t.Stop()
	for {
		select {
		case <-tok.ctx.Done():
			return
		case <-t.C():
			if !tok.Valid() {
				return
			}
			job.Run(tok.ctx)
		}
	}
}

func (s *Scheduler) loopDaily(tok *Token, hh, mm int, job Job) {
	for {
		now := s.clock.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		select {
		case <-tok.ctx.Done():
			return
		case <-s.clock.After(next.Sub(now)):
			if !tok.Valid() {
				return
			}
			job.Run(tok.ctx)
		}
	}
}

func (s *Scheduler) onceAfter(tok *Token, fire <-chan time.Time, job Job) {
	select {
	case <-tok.ctx.Done():
		return
	case <-fire:
		if tok.Valid() {
			job.Run(tok.ctx)
		}
	}
}
