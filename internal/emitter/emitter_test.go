package emitter

import (
	"context"
	"sync"
	"testing"
	"time"

	"GuardianLink/pkg/errors"
	"GuardianLink/pkg/notification"
	"GuardianLink/pkg/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// verifyNoLeaks runs after the fixture cleanup has stopped the scheduler.
func verifyNoLeaks(t *testing.T) {
	ignore := goleak.IgnoreCurrent()
	t.Cleanup(func() { goleak.VerifyNone(t, ignore) })
}

type fixture struct {
	clock   *scheduler.ManualClock
	sched   *scheduler.Scheduler
	history *notification.History
	em      *Emitter

	mu     sync.Mutex
	events []Event
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		clock:   scheduler.NewManualClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		history: notification.NewHistory(100),
	}
	f.sched = scheduler.New(scheduler.WithClock(f.clock))
	f.em = New(f.history, append([]Option{WithScheduler(f.sched)}, opts...)...)
	f.em.Subscribe(func(ev Event) {
		f.mu.Lock()
		f.events = append(f.events, ev)
		f.mu.Unlock()
	})
	t.Cleanup(func() {
		f.em.Close()
		f.sched.Stop()
	})
	return f
}

func (f *fixture) emissions() []Emission {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Emission
	for _, ev := range f.events {
		if ev.Kind == EventEmitted {
			out = append(out, *ev.Emission)
		}
	}
	return out
}

// tick advances one interval and waits for the resulting emission.
func (f *fixture) tick(t *testing.T) {
	t.Helper()
	want := len(f.emissions()) + 1
	f.clock.Add(f.em.Interval())
	f.clock.Tick()
	require.Eventually(t, func() bool { return len(f.emissions()) == want }, time.Second, time.Millisecond)
}

func TestActivateEmitsFirstSignalSynchronously(t *testing.T) {
	verifyNoLeaks(t)
	f := newFixture(t)

	s := f.em.Activate(context.Background(), Config{ShareLocation: true})
	assert.True(t, s.Active)
	assert.Equal(t, 1, s.EmittedCount)
	require.NotNil(t, s.StartedAt)

	ems := f.emissions()
	require.Len(t, ems, 1)
	assert.Equal(t, 0, ems[0].Sequence)
	assert.True(t, ems[0].Visible)
	assert.Equal(t, 1, f.history.Len())
	assert.Equal(t, "SOS signal #1 sent", f.history.List()[0].Title)
	assert.Equal(t, notification.SeverityDestructive, f.history.List()[0].Severity)
}

func TestCadenceAndSequence(t *testing.T) {
	f := newFixture(t)
	f.em.Activate(context.Background(), Config{})

	for i := 0; i < 4; i++ {
		f.tick(t)
	}
	ems := f.emissions()
	require.Len(t, ems, 5)
	for i, em := range ems {
		assert.Equal(t, i, em.Sequence)
		if i > 0 {
			assert.Equal(t, f.em.Interval(), em.Timestamp.Sub(ems[i-1].Timestamp))
		}
	}
	assert.Equal(t, 5, f.em.Session().EmittedCount)
}

func TestDisplayCap(t *testing.T) {
	f := newFixture(t)
	f.em.Activate(context.Background(), Config{})
	for i := 0; i < 5; i++ {
		f.tick(t)
	}

	assert.Equal(t, 6, f.em.Session().EmittedCount)
	assert.Equal(t, DefaultDisplayCap, f.history.Len())
	visible := 0
	for _, em := range f.emissions() {
		if em.Visible {
			visible++
		}
	}
	assert.Equal(t, DefaultDisplayCap, visible)
}

func TestDeactivateStopsAndNotifiesOnce(t *testing.T) {
	verifyNoLeaks(t)
	f := newFixture(t)
	ctx := context.Background()

	f.em.Activate(ctx, Config{})
	f.tick(t)
	s := f.em.Deactivate(ctx)
	assert.False(t, s.Active)
	assert.Equal(t, 0, s.EmittedCount)
	assert.Nil(t, s.StartedAt)

	require.Eventually(t, func() bool { return f.clock.Tickers() == 0 }, time.Second, time.Millisecond)
	f.clock.Tick()
	assert.Len(t, f.emissions(), 2)

	notices := f.history.List()
	require.Len(t, notices, 3)
	assert.Equal(t, "SOS Deactivated", notices[2].Title)
	assert.Equal(t, notification.SeverityDefault, notices[2].Severity)

	t.Run("idle deactivate is a no-op", func(t *testing.T) {
		f.em.Deactivate(ctx)
		assert.Equal(t, 3, f.history.Len())
	})
}

func TestReactivationStartsFromZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.em.Activate(ctx, Config{})
	f.tick(t)
	f.tick(t)
	f.em.Deactivate(ctx)

	s := f.em.Activate(ctx, Config{Silent: true})
	assert.Equal(t, 1, s.EmittedCount)
	ems := f.emissions()
	assert.Equal(t, 0, ems[len(ems)-1].Sequence)
	assert.True(t, ems[len(ems)-1].Silent)
}

func TestDeactivateSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.em.Activate(ctx, Config{})
	assert.Equal(t, uint64(1), first.Generation)
	assert.Equal(t, first.Generation, f.em.Activate(ctx, Config{}).Generation, "a restart keeps the generation")

	f.em.Deactivate(ctx)
	second := f.em.Activate(ctx, Config{Message: "again"})
	assert.Equal(t, uint64(2), second.Generation)

	t.Run("stale generation", func(t *testing.T) {
		s, ok := f.em.DeactivateSession(ctx, first.Generation)
		assert.False(t, ok)
		assert.True(t, s.Active)
	})

	t.Run("zero generation", func(t *testing.T) {
		_, ok := f.em.DeactivateSession(ctx, 0)
		assert.False(t, ok)
		assert.True(t, f.em.Session().Active)
	})

	t.Run("current generation", func(t *testing.T) {
		s, ok := f.em.DeactivateSession(ctx, second.Generation)
		assert.True(t, ok)
		assert.False(t, s.Active)
	})
}

func TestRestartWhileActiveKeepsSingleSchedule(t *testing.T) {
	verifyNoLeaks(t)
	f := newFixture(t)
	ctx := context.Background()

	f.em.Activate(ctx, Config{Message: "help"})
	f.tick(t)
	s := f.em.Activate(ctx, Config{Silent: true, Message: "other"})
	assert.Equal(t, 1, s.EmittedCount)
	assert.Equal(t, "help", s.Config.Message)
	assert.False(t, s.Config.Silent)

	require.Eventually(t, func() bool { return f.clock.Tickers() == 1 }, time.Second, time.Millisecond)
	f.tick(t)
	assert.Equal(t, 2, f.em.Session().EmittedCount)
	// Exactly one emission per tick: no leftover schedule is running.
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, f.emissions(), 4)
}

func TestConfigFrozenWhileActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.em.Configure(Config{ShareLocation: true}))
	f.em.Activate(ctx, f.em.Session().Config)

	err := f.em.Configure(Config{Silent: true})
	assert.True(t, errors.Is(err, errors.ErrSessionActive))
	f.tick(t)
	for _, em := range f.emissions() {
		assert.False(t, em.Silent)
		assert.True(t, em.ShareLocation)
	}

	f.em.Deactivate(ctx)
	require.NoError(t, f.em.Configure(Config{Silent: true}))
	assert.True(t, f.em.Session().Config.Silent)
}

func TestHelpScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.em.Activate(ctx, Config{Silent: false, ShareLocation: true, Message: "help"})
	f.tick(t)
	f.tick(t)
	f.tick(t)
	f.em.Deactivate(ctx)

	ems := f.emissions()
	require.Len(t, ems, 4)
	assert.Equal(t, []bool{true, true, true, false}, []bool{ems[0].Visible, ems[1].Visible, ems[2].Visible, ems[3].Visible})
	for _, em := range ems {
		assert.Equal(t, "help", em.Message)
	}
	notices := f.history.List()
	require.Len(t, notices, 4)
	assert.Equal(t, `Broadcasting loudly · location shared · "help"`, notices[0].Body)
	assert.Equal(t, "SOS Deactivated", notices[3].Title)
}

func TestZeroDisplayCap(t *testing.T) {
	f := newFixture(t, WithDisplayCap(0))
	f.em.Activate(context.Background(), Config{})
	f.tick(t)
	assert.Equal(t, 0, f.history.Len())
	assert.Equal(t, 2, f.em.Session().EmittedCount)
}

func TestObserverSeesLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.em.Activate(ctx, Config{})
	f.em.Deactivate(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]EventKind, 0, len(f.events))
	for _, ev := range f.events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{EventStarted, EventEmitted, EventStopped}, kinds)
	assert.Equal(t, 1, f.events[2].Session.EmittedCount)
}
