package chat

import (
	"context"
	"strings"

	"GuardianLink/internal/models"
	"GuardianLink/pkg/errors"
	"GuardianLink/pkg/logger"
	"GuardianLink/pkg/notification"
	"GuardianLink/pkg/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CodeLength      = 6
	RoomCreatedText = "Room created"
	maxCodeAttempts = 16
)

// Rooms returns every group chat.
func (s *Service) Rooms() []models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Chat, 0)
	for _, c := range s.chats {
		if c.Type == models.ChatGroup {
			out = append(out, c.Clone())
		}
	}
	return out
}

// CreateRoom adds a group chat with a fresh join code and the current user
// as its only participant.
func (s *Service) CreateRoom(ctx context.Context, name string) (models.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.warn(ctx, "room.name.required")
		return models.Chat{}, errors.Wrap(errors.ErrInvalidInput, "room name is required")
	}

	now := s.clock.Now()
	s.mu.Lock()
	room := &models.Chat{
		ID:              "chat-" + uuid.NewString(),
		Type:            models.ChatGroup,
		Name:            name,
		Participants:    []string{s.currentUserID()},
		Messages:        []models.Message{},
		LastMessage:     RoomCreatedText,
		LastMessageTime: now.Format(models.TimeLayout),
		Code:            s.newCodeLocked(),
		CreatedAt:       &now,
	}
	s.chats = append(s.chats, room)
	s.saveLocked(ctx)
	out := room.Clone()
	s.mu.Unlock()

	logger.Info("room created", zap.String("chat", out.ID), zap.String("code", out.Code))
	s.publish(out.ID, EventChatUpdated, out)
	s.notify(ctx, "room.created", map[string]interface{}{"Name": name, "Code": out.Code}, notification.SeverityDefault)
	return out, nil
}

// newCodeLocked 生成未被占用的邀请码
func (s *Service) newCodeLocked() string {
	code := util.RandomCode(CodeLength)
	for i := 0; i < maxCodeAttempts && s.codeTakenLocked(code); i++ {
		code = util.RandomCode(CodeLength)
	}
	return code
}

func (s *Service) codeTakenLocked(code string) bool {
	for _, c := range s.chats {
		if c.Code == code {
			return true
		}
	}
	return false
}

// JoinRoom adds the current user to the group whose code matches,
// ignoring case. Joining a room twice is a no-op.
func (s *Service) JoinRoom(ctx context.Context, code string) (models.Chat, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		s.warn(ctx, "room.code.required")
		return models.Chat{}, errors.Wrap(errors.ErrInvalidInput, "room code is required")
	}

	s.mu.Lock()
	var room *models.Chat
	for _, c := range s.chats {
		if c.Type == models.ChatGroup && strings.EqualFold(c.Code, code) {
			room = c
			break
		}
	}
	if room == nil {
		s.mu.Unlock()
		s.notify(ctx, "room.notfound", map[string]interface{}{"Code": code}, notification.SeverityDestructive)
		return models.Chat{}, errors.Wrapf(errors.ErrNotFound, "room code %s", code)
	}
	if !room.HasParticipant(s.currentUserID()) {
		room.Participants = append(room.Participants, s.currentUserID())
		s.saveLocked(ctx)
	}
	out := room.Clone()
	s.mu.Unlock()

	s.publish(out.ID, EventChatUpdated, out)
	s.notify(ctx, "room.joined", map[string]interface{}{"Code": code}, notification.SeverityDefault)
	return out, nil
}

// DeleteRoom removes a group chat together with its messages.
func (s *Service) DeleteRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	room, idx := s.findLocked(id)
	if room == nil {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrNotFound, "room %s", id)
	}
	if room.Type != models.ChatGroup {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInvalidInput, "chat %s is not a room", id)
	}
	name := room.Name
	s.chats = append(s.chats[:idx], s.chats[idx+1:]...)
	delete(s.pending, id)
	s.saveLocked(ctx)
	s.mu.Unlock()

	if s.index != nil {
		if err := s.index.DeleteChat(ctx, id); err != nil {
			logger.Warn("drop room from index failed", zap.String("chat", id), zap.Error(err))
		}
	}
	s.publish(id, EventChatDeleted, map[string]string{"chatId": id})
	s.notify(ctx, "room.deleted", map[string]interface{}{"Name": name}, notification.SeverityDestructive)
	return nil
}

// LeaveRoom removes the current user from a group chat. The room itself
// stays for the other participants.
func (s *Service) LeaveRoom(ctx context.Context, id string) (models.Chat, error) {
	me := s.currentUserID()
	s.mu.Lock()
	room, _ := s.findLocked(id)
	if room == nil || room.Type != models.ChatGroup || !room.HasParticipant(me) {
		s.mu.Unlock()
		return models.Chat{}, errors.Wrapf(errors.ErrNotFound, "room %s", id)
	}
	kept := room.Participants[:0]
	for _, p := range room.Participants {
		if p != me {
			kept = append(kept, p)
		}
	}
	room.Participants = kept
	s.saveLocked(ctx)
	out := room.Clone()
	s.mu.Unlock()

	s.publish(id, EventChatUpdated, out)
	s.notify(ctx, "room.left", map[string]interface{}{"Name": out.Name}, notification.SeverityDefault)
	return out, nil
}

// warn sends a destructive notice whose text is a single message.
func (s *Service) warn(ctx context.Context, key string) {
	notification.Send(ctx, s.notifier, notification.New(s.t(key, nil), "", notification.SeverityDestructive))
}
