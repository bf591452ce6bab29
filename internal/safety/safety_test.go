package safety

import (
	"context"
	"sync"
	"testing"
	"time"

	"GuardianLink/internal/emitter"
	"GuardianLink/internal/models"
	"GuardianLink/pkg/errors"
	"GuardianLink/pkg/i18n"
	"GuardianLink/pkg/notification"
	"GuardianLink/pkg/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func verifyNoLeaks(t *testing.T) {
	ignore := goleak.IgnoreCurrent()
	t.Cleanup(func() { goleak.VerifyNone(t, ignore) })
}

type fixture struct {
	clock   *scheduler.ManualClock
	sched   *scheduler.Scheduler
	history *notification.History
	em      *emitter.Emitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:   scheduler.NewManualClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		history: notification.NewHistory(50),
	}
	f.sched = scheduler.New(scheduler.WithClock(f.clock))
	f.em = emitter.New(f.history, emitter.WithScheduler(f.sched), emitter.WithFormatter(NewFormatter(nil)))
	t.Cleanup(func() {
		f.em.Close()
		f.sched.Stop()
	})
	return f
}

func (f *fixture) titles() []string {
	var out []string
	for _, n := range f.history.List() {
		out = append(out, n.Title)
	}
	return out
}

func TestAlerter(t *testing.T) {
	verifyNoLeaks(t)
	f := newFixture(t)
	a := NewAlerter(f.sched, f.history, nil, 0)

	var (
		mu   sync.Mutex
		sent []bool
	)
	a.OnSent(func(silent bool) {
		mu.Lock()
		sent = append(sent, silent)
		mu.Unlock()
	})

	ctx := context.Background()
	require.NoError(t, a.Trigger(ctx, false))
	assert.True(t, a.Sending())
	assert.True(t, errors.Is(a.Trigger(ctx, true), errors.ErrAlertInFlight))
	assert.Zero(t, f.history.Len(), "nothing is sent before the delay")

	f.clock.FireTimers()
	require.Eventually(t, func() bool { return f.history.Len() == 1 }, time.Second, time.Millisecond)
	n := f.history.List()[0]
	assert.Equal(t, "SOS Alert Sent", n.Title)
	assert.Equal(t, "Your emergency alert has been broadcasted loudly. Your location has been shared.", n.Body)
	assert.Equal(t, notification.SeverityDestructive, n.Severity)
	require.Eventually(t, func() bool { return !a.Sending() }, time.Second, time.Millisecond)

	t.Run("silent", func(t *testing.T) {
		require.NoError(t, a.Trigger(ctx, true))
		f.clock.FireTimers()
		require.Eventually(t, func() bool { return f.history.Len() == 2 }, time.Second, time.Millisecond)
		assert.Contains(t, f.history.List()[1].Body, "silently")
	})

	t.Run("cancel", func(t *testing.T) {
		require.Eventually(t, func() bool { return !a.Sending() }, time.Second, time.Millisecond)
		require.NoError(t, a.Trigger(ctx, false))
		a.Cancel()
		assert.False(t, a.Sending())
		f.clock.FireTimers()
		assert.Never(t, func() bool { return f.history.Len() > 2 }, 50*time.Millisecond, 5*time.Millisecond)
	})

	mu.Lock()
	assert.Equal(t, []bool{false, true}, sent)
	mu.Unlock()
}

func TestDisguiseActivatesSilentSOS(t *testing.T) {
	verifyNoLeaks(t)
	f := newFixture(t)
	d := NewDisguise(f.sched, f.em, f.history, nil, 0)
	ctx := context.Background()

	st := d.Open(ctx)
	assert.True(t, st.Open)
	assert.False(t, st.SOSActive)
	assert.False(t, f.em.Session().Active)
	assert.Equal(t, st, d.Open(ctx), "second open is a no-op")
	assert.Equal(t, 1, f.clock.Timers())

	f.clock.FireTimers()
	require.Eventually(t, func() bool { return d.State().SOSActive }, time.Second, time.Millisecond)

	s := f.em.Session()
	assert.True(t, s.Active)
	assert.Equal(t, emitter.Config{Silent: true, ShareLocation: true}, s.Config)
	assert.Equal(t, []string{"SOS signal #1 sent", "Silent SOS Active"}, f.titles())

	d.Close(ctx)
	assert.False(t, f.em.Session().Active)
	assert.Equal(t, DisguiseState{}, d.State())
	assert.Equal(t, "SOS Deactivated", f.titles()[2])
}

func TestDisguiseClosedBeforeDelay(t *testing.T) {
	verifyNoLeaks(t)
	f := newFixture(t)
	d := NewDisguise(f.sched, f.em, f.history, nil, 0)
	ctx := context.Background()

	d.Open(ctx)
	d.Close(ctx)
	f.clock.FireTimers()
	assert.Never(t, func() bool { return f.em.Session().Active }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Zero(t, f.history.Len())
}

func TestDisguiseKeepsUserSession(t *testing.T) {
	verifyNoLeaks(t)
	f := newFixture(t)
	d := NewDisguise(f.sched, f.em, f.history, nil, 0)
	ctx := context.Background()

	f.em.Activate(ctx, emitter.Config{Message: "mine"})
	d.Open(ctx)
	f.clock.FireTimers()
	require.Eventually(t, func() bool { return d.State().SOSActive }, time.Second, time.Millisecond)

	s := f.em.Session()
	assert.Equal(t, "mine", s.Config.Message)
	assert.Equal(t, 1, s.EmittedCount, "the running session is not restarted")

	d.Close(ctx)
	assert.True(t, f.em.Session().Active)
}

func TestDisguiseLeavesLaterUserSession(t *testing.T) {
	verifyNoLeaks(t)
	f := newFixture(t)
	d := NewDisguise(f.sched, f.em, f.history, nil, 0)
	ctx := context.Background()

	d.Open(ctx)
	f.clock.FireTimers()
	require.Eventually(t, func() bool { return d.State().SOSActive }, time.Second, time.Millisecond)

	// 用户先停掉伪装启动的会话，再自己重新求救
	f.em.Deactivate(ctx)
	f.em.Activate(ctx, emitter.Config{Message: "mine"})

	d.Close(ctx)
	s := f.em.Session()
	assert.True(t, s.Active)
	assert.Equal(t, "mine", s.Config.Message)
	assert.Equal(t, DisguiseState{}, d.State())
}

func TestStatusLog(t *testing.T) {
	clock := scheduler.NewManualClock(time.Date(2024, 5, 1, 9, 5, 7, 0, time.UTC))
	l := NewStatusLog(clock, nil, 0)

	for i := 0; i < 7; i++ {
		l.Add(string(rune('a' + i)))
		clock.Add(time.Second)
	}
	entries := l.Entries()
	require.Len(t, entries, DefaultLogSize)
	assert.Equal(t, "[09:05:13] g", entries[0])
	assert.Equal(t, "[09:05:09] c", entries[4])
}

func TestStatusLogObservesEmitter(t *testing.T) {
	verifyNoLeaks(t)
	f := newFixture(t)
	l := NewStatusLog(f.clock, nil, 0)
	f.em.Subscribe(l.Observe)
	ctx := context.Background()

	f.em.Activate(ctx, emitter.Config{})
	f.em.Deactivate(ctx)

	assert.Equal(t, []string{
		"[12:00:00] SOS broadcasting stopped.",
		"[12:00:00] SOS signal #1 sent.",
		"[12:00:00] SOS broadcasting started.",
	}, l.Entries())
}

func TestPacketLogger(t *testing.T) {
	p := NewPacketLogger(MockTelemetry{Moving: func() bool { return true }}, "")
	var got []models.SOSPacket
	p.OnPacket(func(pkt models.SOSPacket) { got = append(got, pkt) })

	_, ok := p.Last()
	assert.False(t, ok)

	now := time.Now()
	p.Observe(emitter.Event{Kind: emitter.EventStarted})
	p.Observe(emitter.Event{Kind: emitter.EventEmitted, Emission: &emitter.Emission{Sequence: 0, Timestamp: now, Config: emitter.Config{ShareLocation: true}}})
	p.Observe(emitter.Event{Kind: emitter.EventEmitted, Emission: &emitter.Emission{Sequence: 1, Timestamp: now}})

	require.Len(t, got, 2)
	first := got[0]
	assert.Equal(t, DefaultDeviceID, first.ID)
	assert.Equal(t, models.PacketStatus, first.Status)
	assert.Equal(t, models.MotionMoving, first.Motion)
	require.True(t, first.HasLocation())
	assert.Equal(t, MockLatitude, *first.Latitude)
	assert.Equal(t, MockLongitude, *first.Longitude)
	require.NotNil(t, first.Battery)
	assert.Equal(t, MockBattery, *first.Battery)

	assert.False(t, got[1].HasLocation(), "location hidden when not shared")
	last, ok := p.Last()
	require.True(t, ok)
	assert.Equal(t, 1, last.Sequence)
}

func TestFormatter(t *testing.T) {
	cfg := emitter.Config{Silent: true, ShareLocation: true, Message: "help"}
	f := NewFormatter(nil)
	assert.Equal(t, emitter.Summary(cfg), f.Summary(cfg))

	n := f.Emission(emitter.Emission{Sequence: 2, Config: cfg})
	assert.Equal(t, "SOS signal #3 sent", n.Title)
	assert.Equal(t, notification.SeverityDestructive, n.Severity)
	assert.Equal(t, notification.SeverityDefault, f.Stopped().Severity)

	bundle, err := i18n.NewI18nSupport("en")
	require.NoError(t, err)
	zh := NewFormatter(bundle.Translator("zh"))
	assert.NotEqual(t, f.Stopped().Title, zh.Stopped().Title)
}
