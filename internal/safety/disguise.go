package safety

import (
	"context"
	"sync"
	"time"

	"GuardianLink/internal/emitter"
	"GuardianLink/pkg/i18n"
	"GuardianLink/pkg/logger"
	"GuardianLink/pkg/notification"
	"GuardianLink/pkg/scheduler"

	"go.uber.org/zap"
)

const DefaultDisguiseDelay = 3 * time.Second

// DisguiseState 伪装界面状态
type DisguiseState struct {
	Open bool `json:"open"`
	// SOSActive is set once the delayed silent activation went through.
	SOSActive bool `json:"sosActive"`
}

// Disguise shows a harmless screen and, after a delay, silently starts the
// distress emitter with location sharing.
type Disguise struct {
	mu       sync.Mutex
	sched    *scheduler.Scheduler
	em       *emitter.Emitter
	notifier notification.Notifier
	t        i18n.Translator
	delay    time.Duration

	open      bool
	token     *scheduler.Token
	activated bool
	// session 为伪装启动的求救会话代数，0 表示未启动
	session   uint64
}

func NewDisguise(sched *scheduler.Scheduler, em *emitter.Emitter, n notification.Notifier, t i18n.Translator, delay time.Duration) *Disguise {
	if delay <= 0 {
		delay = DefaultDisguiseDelay
	}
	if n == nil {
		n = notification.Nop{}
	}
	if t == nil {
		t = i18n.English()
	}
	return &Disguise{sched: sched, em: em, notifier: n, t: t, delay: delay}
}

func (d *Disguise) State() DisguiseState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DisguiseState{Open: d.open, SOSActive: d.activated}
}

// Open is a no-op when the disguise is already open.
func (d *Disguise) Open(ctx context.Context) DisguiseState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return DisguiseState{Open: true, SOSActive: d.activated}
	}
	d.open = true
	d.activated = false
	d.session = 0

	bg := context.WithoutCancel(ctx)
	var tok *scheduler.Token
	tok = d.sched.OnceAfter(d.delay, scheduler.FuncJob(func(jobCtx context.Context) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.token != tok || jobCtx.Err() != nil {
			return
		}
		d.token = nil
		// 用户已经在求救时不重启会话，以免计数归零
		if !d.em.Session().Active {
			d.session = d.em.Activate(bg, emitter.Config{Silent: true, ShareLocation: true}).Generation
		}
		d.activated = true
		logger.Info("disguise activated silent sos", zap.Uint64("session", d.session))
		notification.Send(bg, d.notifier,
			notification.New(d.t("disguise.title", nil), d.t("disguise.body", nil), notification.SeverityDestructive))
	}))
	d.token = tok
	return DisguiseState{Open: true}
}

// Close cancels a pending activation and stops the session the disguise
// started, as long as that session is still running. A session the user
// started on their own keeps running, even one started after the
// disguise's own session was stopped.
func (d *Disguise) Close(ctx context.Context) DisguiseState {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.token.Cancel()
	d.token = nil
	if d.session != 0 {
		d.em.DeactivateSession(ctx, d.session)
	}
	d.open = false
	d.activated = false
	d.session = 0
	return DisguiseState{}
}
