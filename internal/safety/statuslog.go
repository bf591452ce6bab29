package safety

import (
	"sync"

	"GuardianLink/internal/emitter"
	"GuardianLink/pkg/i18n"
	"GuardianLink/pkg/scheduler"
)

const DefaultLogSize = 5

// StatusLog keeps the most recent emitter events as display lines, newest
// first, formatted "[hh:mm:ss] message".
type StatusLog struct {
	mu      sync.RWMutex
	clock   scheduler.Clock
	t       i18n.Translator
	size    int
	entries []string
}

func NewStatusLog(clock scheduler.Clock, t i18n.Translator, size int) *StatusLog {
	if clock == nil {
		clock = scheduler.RealClock()
	}
	if t == nil {
		t = i18n.English()
	}
	if size <= 0 {
		size = DefaultLogSize
	}
	return &StatusLog{clock: clock, t: t, size: size}
}

func (l *StatusLog) Add(msg string) {
	line := "[" + l.clock.Now().Format("15:04:05") + "] " + msg
	l.mu.Lock()
	l.entries = append([]string{line}, l.entries...)
	if len(l.entries) > l.size {
		l.entries = l.entries[:l.size]
	}
	l.mu.Unlock()
}

func (l *StatusLog) Entries() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.entries...)
}

// Observe is an emitter.Observer.
func (l *StatusLog) Observe(ev emitter.Event) {
	switch ev.Kind {
	case emitter.EventStarted:
		l.Add(l.t("log.started", nil))
	case emitter.EventEmitted:
		l.Add(l.t("log.signal", map[string]interface{}{"N": ev.Emission.Sequence + 1}))
	case emitter.EventStopped:
		l.Add(l.t("log.stopped", nil))
	}
}
