// Package emitter implements the distress signal emitter: while a session
// is active it produces one Emission every interval, the first one in the
// same call that activated the session, and surfaces at most DisplayCap of
// them to the user.
package emitter

import (
	"context"
	"sync"
	"time"

	"GuardianLink/pkg/errors"
	"GuardianLink/pkg/logger"
	"GuardianLink/pkg/notification"
	"GuardianLink/pkg/scheduler"

	"go.uber.org/zap"
)

const (
	DefaultInterval   = 5 * time.Second
	DefaultDisplayCap = 3
)

// Config is captured at activation and frozen while the session is active.
type Config struct {
	Silent        bool   `json:"silent"`
	ShareLocation bool   `json:"shareLocation"`
	Message       string `json:"message,omitempty"`
}

// Emission is a fire-and-forget event; it is never stored.
type Emission struct {
	Sequence  int       `json:"sequenceNumber"`
	Timestamp time.Time `json:"timestamp"`
	Config
	Visible bool `json:"visible"`
}

// Session is a snapshot of the emitter state.
type Session struct {
	Active       bool       `json:"active"`
	Config       Config     `json:"config"`
	EmittedCount int        `json:"emittedCount"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	// Generation 每次从空闲进入求救时加一，重启不变
	Generation   uint64     `json:"generation"`
}

type EventKind string

const (
	EventStarted EventKind = "started"
	EventEmitted EventKind = "emitted"
	EventStopped EventKind = "stopped"
)

// Event is handed to observers for every lifecycle step and every emission,
// including the ones hidden by the display cap.
type Event struct {
	Kind     EventKind
	Session  Session
	Emission *Emission
}

// Observer must not call Activate or Deactivate.
type Observer func(Event)

// Formatter turns emitter events into user-visible notices.
type Formatter interface {
	Emission(e Emission) notification.Notice
	Stopped() notification.Notice
}

type Option func(*Emitter)

func WithInterval(d time.Duration) Option {
	return func(e *Emitter) {
		if d > 0 {
			e.interval = d
		}
	}
}

func WithDisplayCap(n int) Option {
	return func(e *Emitter) {
		if n >= 0 {
			e.displayCap = n
		}
	}
}

func WithFormatter(f Formatter) Option {
	return func(e *Emitter) {
		if f != nil {
			e.format = f
		}
	}
}

func WithScheduler(s *scheduler.Scheduler) Option {
	return func(e *Emitter) {
		if s != nil {
			e.sched = s
		}
	}
}

type Emitter struct {
	// op serialises Activate, Deactivate and tick, including delivery, so
	// that nothing is delivered once Deactivate has returned.
	op sync.Mutex
	// mu guards the fields below for Session readers.
	mu sync.RWMutex

	sched      *scheduler.Scheduler
	ownSched   bool
	notifier   notification.Notifier
	format     Formatter
	interval   time.Duration
	displayCap int

	active    bool
	cfg       Config
	emitted   int
	startedAt time.Time
	gen       uint64
	token     *scheduler.Token
	observers []Observer
}

func New(n notification.Notifier, opts ...Option) *Emitter {
	if n == nil {
		n = notification.Nop{}
	}
	e := &Emitter{
		notifier:   n,
		format:     DefaultFormatter{},
		interval:   DefaultInterval,
		displayCap: DefaultDisplayCap,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sched == nil {
		e.sched = scheduler.New()
		e.ownSched = true
	}
	return e
}

// Subscribe registers an observer. It is not safe to call concurrently with
// an active session.
func (e *Emitter) Subscribe(o Observer) {
	if o == nil {
		return
	}
	e.op.Lock()
	e.observers = append(e.observers, o)
	e.op.Unlock()
}

func (e *Emitter) Interval() time.Duration { return e.interval }
func (e *Emitter) DisplayCap() int         { return e.displayCap }

// Session returns a snapshot of the current state.
func (e *Emitter) Session() Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

func (e *Emitter) snapshotLocked() Session {
	s := Session{Active: e.active, Config: e.cfg, EmittedCount: e.emitted, Generation: e.gen}
	if e.active {
		started := e.startedAt
		s.StartedAt = &started
	}
	return s
}

// Configure replaces the stored configuration while idle. An active session
// keeps its configuration and the call fails with ErrSessionActive.
func (e *Emitter) Configure(cfg Config) error {
	e.op.Lock()
	defer e.op.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		return errors.ErrSessionActive
	}
	e.cfg = cfg
	return nil
}

// Activate starts broadcasting with cfg and emits #0 before returning.
//
// Calling it on an active session restarts the session: the running
// schedule is cancelled, the counter goes back to 0 and #0 is emitted
// again. The configuration captured by the first activation is kept.
func (e *Emitter) Activate(ctx context.Context, cfg Config) Session {
	e.op.Lock()
	defer e.op.Unlock()

	e.mu.Lock()
	restart := e.active
	if e.token != nil {
		e.token.Cancel()
		e.token = nil
	}
	if restart {
		logger.Info("distress session restarted, keeping captured config", zap.Int("previousCount", e.emitted))
	} else {
		e.cfg = cfg
		e.gen++
	}
	e.active = true
	e.emitted = 0
	e.startedAt = e.sched.Clock().Now()
	started := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(Event{Kind: EventStarted, Session: started})

	// #0 goes out synchronously; the schedule only covers #1 onwards.
	e.emitLocked(ctx)

	tok := e.sched.Every(e.interval, scheduler.FuncJob(func(jobCtx context.Context) {
		e.tick(jobCtx)
	}))
	e.mu.Lock()
	e.token = tok
	snap := e.snapshotLocked()
	e.mu.Unlock()
	return snap
}

// Deactivate stops the session and notifies once. It is a no-op when idle.
func (e *Emitter) Deactivate(ctx context.Context) Session {
	snap, _ := e.deactivate(ctx, 0)
	return snap
}

// DeactivateSession stops the session only while it is still the one with
// the given generation, and reports whether it did.
func (e *Emitter) DeactivateSession(ctx context.Context, generation uint64) (Session, bool) {
	if generation == 0 {
		return e.Session(), false
	}
	return e.deactivate(ctx, generation)
}

// generation 0 matches any session
func (e *Emitter) deactivate(ctx context.Context, generation uint64) (Session, bool) {
	e.op.Lock()
	defer e.op.Unlock()

	e.mu.Lock()
	if !e.active || (generation != 0 && generation != e.gen) {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, false
	}
	if e.token != nil {
		e.token.Cancel()
		e.token = nil
	}
	e.active = false
	final := e.snapshotLocked()
	// The configuration survives so the next activation can reuse it.
	e.emitted = 0
	e.startedAt = time.Time{}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	notification.Send(ctx, e.notifier, e.format.Stopped())
	e.publish(Event{Kind: EventStopped, Session: final})
	return snap, true
}

// Close stops any running schedule without the stop notice.
func (e *Emitter) Close() {
	e.op.Lock()
	e.mu.Lock()
	if e.token != nil {
		e.token.Cancel()
		e.token = nil
	}
	e.active = false
	e.mu.Unlock()
	e.op.Unlock()
	if e.ownSched {
		e.sched.Stop()
	}
}

func (e *Emitter) tick(ctx context.Context) {
	e.op.Lock()
	defer e.op.Unlock()

	// A tick that woke up just before cancellation must not emit.
	if ctx.Err() != nil {
		return
	}
	e.emitLocked(ctx)
}

// emitLocked produces the next emission; callers hold e.op.
func (e *Emitter) emitLocked(ctx context.Context) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	em := Emission{
		Sequence:  e.emitted,
		Timestamp: e.sched.Clock().Now(),
		Config:    e.cfg,
		Visible:   e.emitted < e.displayCap,
	}
	e.emitted++
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if em.Visible {
		notification.Send(ctx, e.notifier, e.format.Emission(em))
	} else {
		logger.Debug("emission suppressed by display cap", zap.Int("sequence", em.Sequence))
	}
	e.publish(Event{Kind: EventEmitted, Session: snap, Emission: &em})
}

func (e *Emitter) publish(ev Event) {
	for _, o := range e.observers {
		o(ev)
	}
}
