package scheduler

import (
	"sync"
	"time"
)

// Ticker is the part of *time.Ticker the scheduler needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) NewTicker(d time.Duration) Ticker       { return realTicker{t: time.NewTicker(d)} }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// ManualClock is a Clock driven by hand. Tick fires every live ticker once,
// FireTimers releases every pending After channel.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers map[*manualTicker]struct{}
	timers  []chan time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start, tickers: make(map[*manualTicker]struct{})}
}

type manualTicker struct {
	clock   *ManualClock
	c       chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.once.Do(func() {
		close(t.stopped)
		t.clock.mu.Lock()
		delete(t.clock.tickers, t)
		t.clock.mu.Unlock()
	})
}

func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Add moves the clock forward without firing anything.
func (m *ManualClock) Add(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *ManualClock) NewTicker(time.Duration) Ticker {
	t := &manualTicker{clock: m, c: make(chan time.Time), stopped: make(chan struct{})}
	m.mu.Lock()
	m.tickers[t] = struct{}{}
	m.mu.Unlock()
	return t
}

func (m *ManualClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	m.mu.Lock()
	m.timers = append(m.timers, ch)
	m.mu.Unlock()
	return ch
}

// Tick delivers one tick to every live ticker. Each send blocks until the
// schedule loop receives it or the ticker is stopped.
func (m *ManualClock) Tick() {
	m.mu.Lock()
	now := m.now
	live := make([]*manualTicker, 0, len(m.tickers))
	for t := range m.tickers {
		live = append(live, t)
	}
	m.mu.Unlock()

	for _, t := range live {
		select {
		case t.c <- now:
		case <-t.stopped:
		}
	}
}

func (m *ManualClock) FireTimers() {
	m.mu.Lock()
	now := m.now
	timers := m.timers
	m.timers = nil
	m.mu.Unlock()
	for _, ch := range timers {
		ch <- now
	}
}

// Tickers reports how many tickers are currently running.
func (m *ManualClock) Tickers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

// Timers reports how many After channels are still pending.
func (m *ManualClock) Timers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
