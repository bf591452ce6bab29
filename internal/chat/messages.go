package chat

import (
	"context"
	"strings"
	"time"

	"GuardianLink/internal/models"
	"GuardianLink/pkg/errors"
	"GuardianLink/pkg/llm"
	"GuardianLink/pkg/logger"
	"GuardianLink/pkg/search"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Chats returns the non-public chats the current user takes part in.
func (s *Service) Chats() []models.Chat {
	me := s.currentUserID()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Chat, 0, len(s.chats))
	for _, c := range s.chats {
		if c.Type != models.ChatPublic && c.HasParticipant(me) {
			out = append(out, c.Clone())
		}
	}
	return out
}

func (s *Service) PublicChat() (models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.Type == models.ChatPublic {
			return c.Clone(), nil
		}
	}
	return models.Chat{}, errors.Wrap(errors.ErrNotFound, "public chat")
}

func (s *Service) Chat(id string) (models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _ := s.findLocked(id)
	if c == nil {
		return models.Chat{}, errors.Wrapf(errors.ErrNotFound, "chat %s", id)
	}
	return c.Clone(), nil
}

// Pending reports whether a persona reply is outstanding for the chat.
func (s *Service) Pending(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[chatID]
}

// repliesTo 公共频道或有 persona 参与的聊天会触发自动回复
func repliesTo(c *models.Chat) bool {
	return c.Type == models.ChatPublic || c.HasParticipant(models.PersonaID)
}

// SendMessage appends a message from the current user. When the chat gets
// persona replies one is requested in the background and further sends are
// rejected until it settles.
func (s *Service) SendMessage(ctx context.Context, chatID, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, errors.Wrap(errors.ErrInvalidInput, "message text is required")
	}

	s.mu.Lock()
	c, _ := s.findLocked(chatID)
	if c == nil {
		s.mu.Unlock()
		return models.Message{}, errors.Wrapf(errors.ErrNotFound, "chat %s", chatID)
	}
	if s.pending[chatID] {
		s.mu.Unlock()
		return models.Message{}, errors.Wrapf(errors.ErrReplyPending, "chat %s", chatID)
	}
	msg := s.appendLocked(c, s.currentUserID(), text)
	reply := s.replier != nil && repliesTo(c)
	if reply {
		s.pending[chatID] = true
	}
	chatType := c.Type
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.delivered(ctx, chatID, chatType, msg)
	if reply {
		s.replies.Add(1)
		go func() {
			defer s.replies.Done()
			rctx, cancel := context.WithTimeout(s.ctx, s.replyTimeout)
			defer cancel()
			_, _ = s.reply(rctx, chatID)
		}()
	}
	return msg, nil
}

// RequestReply asks the persona to answer the chat and waits for it.
func (s *Service) RequestReply(ctx context.Context, chatID string) (models.Message, error) {
	if s.replier == nil {
		return models.Message{}, errors.Wrap(errors.ErrUnavailable, "no replier configured")
	}
	s.mu.Lock()
	c, _ := s.findLocked(chatID)
	if c == nil {
		s.mu.Unlock()
		return models.Message{}, errors.Wrapf(errors.ErrNotFound, "chat %s", chatID)
	}
	if s.pending[chatID] {
		s.mu.Unlock()
		return models.Message{}, errors.Wrapf(errors.ErrReplyPending, "chat %s", chatID)
	}
	s.pending[chatID] = true
	s.mu.Unlock()

	s.replies.Add(1)
	defer s.replies.Done()
	return s.reply(ctx, chatID)
}

// reply runs the replier on the transcript. The pending flag must already
// be set; it is cleared on every path. A failed reply leaves the chat
// untouched.
func (s *Service) reply(ctx context.Context, chatID string) (models.Message, error) {
	defer func() {
		s.mu.Lock()
		delete(s.pending, chatID)
		s.mu.Unlock()
	}()

	s.mu.Lock()
	c, _ := s.findLocked(chatID)
	if c == nil {
		s.mu.Unlock()
		return models.Message{}, errors.Wrapf(errors.ErrNotFound, "chat %s", chatID)
	}
	history := make([]llm.Turn, 0, len(c.Messages))
	for _, m := range c.Messages {
		history = append(history, llm.Turn{SenderID: m.SenderID, Text: m.Text})
	}
	s.mu.Unlock()

	start := time.Now()
	text, err := s.replier.Reply(ctx, history)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty reply")
	}
	if s.metrics != nil {
		s.metrics.RecordReply(err, time.Since(start))
	}
	if err != nil {
		logger.Warn("persona reply failed", zap.String("chat", chatID), zap.Error(err))
		return models.Message{}, errors.Wrapf(errors.ErrUnavailable, "reply: %v", err)
	}

	s.mu.Lock()
	c, _ = s.findLocked(chatID)
	if c == nil {
		// 回复期间聊天被删除
		s.mu.Unlock()
		return models.Message{}, errors.Wrapf(errors.ErrNotFound, "chat %s", chatID)
	}
	msg := s.appendLocked(c, models.PersonaID, strings.TrimSpace(text))
	chatType := c.Type
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.delivered(ctx, chatID, chatType, msg)
	return msg, nil
}

func (s *Service) appendLocked(c *models.Chat, senderID, text string) models.Message {
	msg := models.Message{
		ID:        "m-" + uuid.NewString(),
		SenderID:  senderID,
		Text:      text,
		Timestamp: s.now(),
		Seq:       c.NextSeq(),
	}
	c.Messages = append(c.Messages, msg)
	c.LastMessage = text
	c.LastMessageTime = msg.Timestamp
	return msg
}

// delivered indexes, publishes and counts a freshly appended message.
func (s *Service) delivered(ctx context.Context, chatID string, chatType models.ChatType, msg models.Message) {
	if s.index != nil {
		if err := s.index.Index(ctx, s.doc(chatID, msg)); err != nil {
			logger.Warn("index message failed", zap.String("chat", chatID), zap.Error(err))
		}
	}
	s.publish(chatID, EventMessage, MessageEvent{ChatID: chatID, Message: msg})
	if s.metrics != nil {
		s.metrics.RecordMessage(string(chatType))
	}
}

func (s *Service) doc(chatID string, m models.Message) search.Doc {
	return search.Doc{
		ID:        search.DocID(chatID, m.ID),
		ChatID:    chatID,
		MessageID: m.ID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		Seq:       m.Seq,
		Timestamp: s.clock.Now(),
	}
}

// React increments the counter of emoji on a message.
func (s *Service) React(ctx context.Context, chatID, messageID, emoji string) (models.Message, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return models.Message{}, errors.Wrap(errors.ErrInvalidInput, "emoji is required")
	}
	s.mu.Lock()
	c, _ := s.findLocked(chatID)
	if c == nil {
		s.mu.Unlock()
		return models.Message{}, errors.Wrapf(errors.ErrNotFound, "chat %s", chatID)
	}
	m, ok := c.Message(messageID)
	if !ok {
		s.mu.Unlock()
		return models.Message{}, errors.Wrapf(errors.ErrNotFound, "message %s", messageID)
	}
	if m.Reactions == nil {
		m.Reactions = make(map[string]int)
	}
	m.Reactions[emoji]++
	out := *m
	out.Reactions = make(map[string]int, len(m.Reactions))
	for k, v := range m.Reactions {
		out.Reactions[k] = v
	}
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.publish(chatID, EventReaction, MessageEvent{ChatID: chatID, Message: out})
	return out, nil
}
