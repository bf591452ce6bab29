// Package chat implements the chat rooms: the public broadcast, private and
// group chats, join codes, reactions, persona replies and message search.
//
// All chats live in memory behind one mutex and are written through to the
// key-value store after every change. Push events go to the configured
// publishers after the lock is released.
package chat

import (
	"context"
	"sync"
	"time"

	"GuardianLink/internal/models"
	"GuardianLink/internal/settings"
	"GuardianLink/pkg/i18n"
	"GuardianLink/pkg/kv"
	"GuardianLink/pkg/llm"
	"GuardianLink/pkg/logger"
	"GuardianLink/pkg/metrics"
	"GuardianLink/pkg/notification"
	"GuardianLink/pkg/scheduler"
	"GuardianLink/pkg/search"

	"go.uber.org/zap"
)

// 推送事件类型
const (
	EventMessage     = "chat_message"
	EventReaction    = "reaction"
	EventChatUpdated = "chat_updated"
	EventChatDeleted = "chat_deleted"
)

const DefaultReplyTimeout = 30 * time.Second

// Publisher pushes an event to the clients watching group.
type Publisher interface {
	Publish(group, typ string, data interface{}) error
}

type PublisherFunc func(group, typ string, data interface{}) error

func (f PublisherFunc) Publish(group, typ string, data interface{}) error { return f(group, typ, data) }

// MessageEvent is the payload of message and reaction events.
type MessageEvent struct {
	ChatID  string         `json:"chatId"`
	Message models.Message `json:"message"`
}

type Options struct {
	Store      kv.Store
	Notifier   notification.Notifier
	Translator i18n.Translator
	// Replier answers as the persona; nil disables replies.
	Replier    llm.Replier
	Publishers []Publisher

	// Search nil falls back to a substring scan.
	Search       search.Engine
	Settings     *settings.Settings
	Metrics      *metrics.Metrics
	Clock        scheduler.Clock
	ReplyTimeout time.Duration
}

type Service struct {
	mu      sync.Mutex
	chats   []*models.Chat
	pending map[string]bool

	store        kv.Store
	notifier     notification.Notifier
	t            i18n.Translator
	replier      llm.Replier
	publishers   []Publisher
	index        search.Engine
	settings     *settings.Settings
	metrics      *metrics.Metrics
	clock        scheduler.Clock
	replyTimeout time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	replies sync.WaitGroup
}

// New loads the chats and indexes their messages.
func New(ctx context.Context, opts Options) *Service {
	if opts.Store == nil {
		opts.Store = kv.NewMemoryStore()
	}
	if opts.Notifier == nil {
		opts.Notifier = notification.Nop{}
	}
	if opts.Translator == nil {
		opts.Translator = i18n.English()
	}
	if opts.Clock == nil {
		opts.Clock = scheduler.RealClock()
	}
	if opts.ReplyTimeout <= 0 {
		opts.ReplyTimeout = DefaultReplyTimeout
	}
	base, cancel := context.WithCancel(context.Background())
	s := &Service{
		pending:      make(map[string]bool),
		store:        opts.Store,
		notifier:     opts.Notifier,
		t:            opts.Translator,
		replier:      opts.Replier,
		publishers:   opts.Publishers,
		index:        opts.Search,
		settings:     opts.Settings,
		metrics:      opts.Metrics,
		clock:        opts.Clock,
		replyTimeout: opts.ReplyTimeout,
		ctx:          base,
		cancel:       cancel,
	}
	for _, c := range load(ctx, s.store) {
		c := c
		c.EnsureSeq()
		s.chats = append(s.chats, &c)
	}
	s.reindex(ctx)
	return s
}

// load reads the persisted chats. Group chats come from their own key; a
// read or decode failure falls back to the full default dataset.
func load(ctx context.Context, store kv.Store) []models.Chat {
	var all, groups []models.Chat
	okAll, err := kv.GetJSON(ctx, store, models.KeyAllChats, &all)
	if err != nil {
		logger.Warn("load chats failed, using defaults", zap.Error(err))
		return models.DefaultChats()
	}
	if !okAll {
		all = models.DefaultChats()
	}
	if _, err := kv.GetJSON(ctx, store, models.KeyGroupChats, &groups); err != nil {
		logger.Warn("load group chats failed, using defaults", zap.Error(err))
		return models.DefaultChats()
	}

	out := make([]models.Chat, 0, len(all)+len(groups))
	hasPublic := false
	for _, c := range all {
		if c.Type == models.ChatGroup {
			continue
		}
		if c.Type == models.ChatPublic {
			hasPublic = true
		}
		out = append(out, c)
	}
	if !hasPublic {
		out = append([]models.Chat{models.DefaultChats()[0]}, out...)
	}
	return append(out, groups...)
}

// saveLocked writes the group chats and the full set; failures are logged.
func (s *Service) saveLocked(ctx context.Context) {
	all := make([]models.Chat, 0, len(s.chats))
	groups := make([]models.Chat, 0)
	for _, c := range s.chats {
		all = append(all, *c)
		if c.Type == models.ChatGroup {
			groups = append(groups, *c)
		}
	}
	if err := kv.SetJSON(ctx, s.store, models.KeyGroupChats, groups); err != nil {
		logger.Warn("save group chats failed", zap.Error(err))
	}
	if err := kv.SetJSON(ctx, s.store, models.KeyAllChats, all); err != nil {
		logger.Warn("save chats failed", zap.Error(err))
	}
}

func (s *Service) findLocked(id string) (*models.Chat, int) {
	for i, c := range s.chats {
		if c.ID == id {
			return c, i
		}
	}
	return nil, -1
}

func (s *Service) currentUserID() string {
	return models.CurrentUserID
}

func (s *Service) now() string {
	return s.clock.Now().Format(models.TimeLayout)
}

func (s *Service) publish(group, typ string, data interface{}) {
	for _, p := range s.publishers {
		if err := p.Publish(group, typ, data); err != nil {
			logger.Debug("publish failed", zap.String("group", group), zap.String("type", typ), zap.Error(err))
		}
	}
}

func (s *Service) notify(ctx context.Context, key string, data map[string]interface{}, sev notification.Severity) {
	notification.Send(ctx, s.notifier, notification.New(s.t(key+".title", data), s.t(key+".body", data), sev))
}

// Close waits for in-flight replies after cancelling them.
func (s *Service) Close() {
	s.cancel()
	s.replies.Wait()
}

// Wait blocks until every in-flight reply has finished.
func (s *Service) Wait() { s.replies.Wait() }
