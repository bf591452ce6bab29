// Package listeners connects the safety components to the side channels:
// metrics, the SSE stream to the UI and the packet log.
package listeners

import (
	"context"

	"GuardianLink/internal/emitter"
	"GuardianLink/internal/models"
	"GuardianLink/internal/safety"
	"GuardianLink/pkg/logger"
	"GuardianLink/pkg/metrics"
	"GuardianLink/pkg/notification"
	"GuardianLink/pkg/sse"

	"go.uber.org/zap"
)

// Stream is the part of the SSE hub the listeners publish to.
type Stream interface {
	Publish(name, group string, v interface{}) error
}

// SessionEvent is pushed to the UI for every emitter event.
type SessionEvent struct {
	Kind     emitter.EventKind `json:"kind"`
	Session  emitter.Session   `json:"session"`
	Emission *emitter.Emission `json:"emission,omitempty"`
	Log      []string          `json:"log,omitempty"`
}

type SafetyDeps struct {
	Emitter *emitter.Emitter
	Alerter *safety.Alerter
	Packets *safety.PacketLogger
	Log     *safety.StatusLog
	Metrics *metrics.Metrics
	Stream  Stream
}

// InitSafetyListeners subscribes the status log, the packet logger and the
// metric and stream observers to the emitter. Nil deps are skipped.
func InitSafetyListeners(d SafetyDeps) {
	em := d.Emitter
	if d.Log != nil {
		em.Subscribe(d.Log.Observe)
	}
	if d.Packets != nil {
		em.Subscribe(d.Packets.Observe)
		d.Packets.OnPacket(PacketSink(d.Metrics, d.Stream))
	}
	if d.Metrics != nil {
		em.Subscribe(SessionMetrics(d.Metrics))
	}
	if d.Stream != nil {
		em.Subscribe(SessionStream(d.Stream, d.Log))
	}
	if d.Alerter != nil && d.Metrics != nil {
		d.Alerter.OnSent(d.Metrics.RecordAlert)
	}
}

// SessionMetrics counts sessions and emissions.
func SessionMetrics(m *metrics.Metrics) emitter.Observer {
	return func(ev emitter.Event) {
		switch ev.Kind {
		case emitter.EventStarted:
			m.SessionStarted()
		case emitter.EventStopped:
			m.SessionStopped()
		case emitter.EventEmitted:
			if ev.Emission != nil {
				m.RecordEmission(ev.Emission.Visible)
			}
		}
	}
}

// SessionStream pushes emitter events to every SSE client. The status log
// is attached after it has seen the event, so log must be subscribed first.
func SessionStream(s Stream, log *safety.StatusLog) emitter.Observer {
	return func(ev emitter.Event) {
		out := SessionEvent{Kind: ev.Kind, Session: ev.Session, Emission: ev.Emission}
		if log != nil {
			out.Log = log.Entries()
		}
		if err := s.Publish(sse.EventSession, "", out); err != nil {
			logger.Debug("push session event failed", zap.Error(err))
		}
	}
}

// PacketSink counts and streams drone packets.
func PacketSink(m *metrics.Metrics, s Stream) func(models.SOSPacket) {
	return func(p models.SOSPacket) {
		if m != nil {
			m.RecordPacket()
		}
		if s != nil {
			if err := s.Publish(sse.EventPacket, "", p); err != nil {
				logger.Debug("push packet failed", zap.Error(err))
			}
		}
	}
}

// NoticeMetrics counts notices by severity before passing them on.
func NoticeMetrics(m *metrics.Metrics, next notification.Notifier) notification.Notifier {
	return notification.NotifierFunc(func(ctx context.Context, n notification.Notice) error {
		m.RecordNotice(string(n.Severity))
		return next.Notify(ctx, n)
	})
}
