package safety

import (
	"context"
	"sync"
	"time"

	"GuardianLink/pkg/errors"
	"GuardianLink/pkg/i18n"
	"GuardianLink/pkg/logger"
	"GuardianLink/pkg/notification"
	"GuardianLink/pkg/scheduler"

	"go.uber.org/zap"
)

const DefaultAlertDelay = 1500 * time.Millisecond

// Alerter sends the one-shot SOS alert after a short delay. Only one alert
// can be in flight at a time.
type Alerter struct {
	mu       sync.Mutex
	sched    *scheduler.Scheduler
	notifier notification.Notifier
	t        i18n.Translator
	delay    time.Duration
	token    *scheduler.Token
	onSent   func(silent bool)
}

func NewAlerter(sched *scheduler.Scheduler, n notification.Notifier, t i18n.Translator, delay time.Duration) *Alerter {
	if delay <= 0 {
		delay = DefaultAlertDelay
	}
	if n == nil {
		n = notification.Nop{}
	}
	if t == nil {
		t = i18n.English()
	}
	return &Alerter{sched: sched, notifier: n, t: t, delay: delay}
}

// OnSent registers a hook called after every delivered alert.
func (a *Alerter) OnSent(fn func(silent bool)) { a.onSent = fn }

// Sending reports whether an alert is waiting to go out.
func (a *Alerter) Sending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token.Valid()
}

// Trigger returns immediately; the notice follows after the delay.
func (a *Alerter) Trigger(ctx context.Context, silent bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token.Valid() {
		return errors.ErrAlertInFlight
	}
	logger.Info("sos alert scheduled", zap.Bool("silent", silent), zap.Duration("delay", a.delay))

	var tok *scheduler.Token
	tok = a.sched.OnceAfter(a.delay, scheduler.FuncJob(func(jobCtx context.Context) {
		a.mu.Lock()
		if a.token != tok || jobCtx.Err() != nil {
			a.mu.Unlock()
			return
		}
		a.token = nil
		a.mu.Unlock()

		body := "alert.body.loud"
		if silent {
			body = "alert.body.silent"
		}
		notification.Send(context.WithoutCancel(ctx), a.notifier,
			notification.New(a.t("alert.title", nil), a.t(body, nil), notification.SeverityDestructive))
		if a.onSent != nil {
			a.onSent(silent)
		}
	}))
	a.token = tok
	return nil
}

// Cancel drops a pending alert.
func (a *Alerter) Cancel() {
	a.mu.Lock()
	a.token.Cancel()
	a.token = nil
	a.mu.Unlock()
}
