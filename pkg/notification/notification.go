package notification

import (
	"context"
	"sync"
	"time"

	"GuardianLink/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Severity mirrors the two toast variants of the UI.
type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

// Notice is one short-lived user-visible message.
type Notice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier surfaces notices to the user. Callers never wait for an
// acknowledgement and only log a returned error.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

type NotifierFunc func(ctx context.Context, n Notice) error

func (f NotifierFunc) Notify(ctx context.Context, n Notice) error { return f(ctx, n) }

// Nop drops every notice.
type Nop struct{}

func (Nop) Notify(context.Context, Notice) error { return nil }

// New fills ID and Timestamp.
func New(title, body string, severity Severity) Notice {
	if severity == "" {
		severity = SeverityDefault
	}
	return Notice{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		Severity:  severity,
		Timestamp: time.Now(),
	}
}

// Send delivers n best-effort: failures are logged and swallowed.
func Send(ctx context.Context, to Notifier, n Notice) {
	if to == nil {
		return
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	if err := to.Notify(ctx, n); err != nil {
		logger.Warn("notify failed", zap.String("title", n.Title), zap.Error(err))
	}
}

// Multi fans a notice out to every notifier, continuing past failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) error {
	var first error
	for _, to := range m {
		if to == nil {
			continue
		}
		if err := to.Notify(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LogNotifier writes notices to the process logger.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notice) error {
	logger.Info("notice",
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.String("severity", string(n.Severity)),
	)
	return nil
}

// History keeps the most recent notices, newest last.
type History struct {
	mu    sync.RWMutex
	max   int
	items []Notice
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = 50
	}
	return &History{max: max}
}

func (h *History) Notify(_ context.Context, n Notice) error {
	h.mu.Lock()
	h.items = append(h.items, n)
	if len(h.items) > h.max {
		h.items = append([]Notice(nil), h.items[len(h.items)-h.max:]...)
	}
	h.mu.Unlock()
	return nil
}

func (h *History) List() []Notice {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Notice(nil), h.items...)
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

func (h *History) Reset() {
	h.mu.Lock()
	h.items = nil
	h.mu.Unlock()
}
