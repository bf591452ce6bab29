package chat

import (
	"context"

	"GuardianLink/internal/models"
	"GuardianLink/pkg/errors"
	"GuardianLink/pkg/notification"
)

// QuickMessages returns the canned phrases offered by the composer.
func (s *Service) QuickMessages() []string {
	return append([]string(nil), models.QuickMessages...)
}

// Users returns everyone except the current user.
func (s *Service) Users() []models.User {
	all := models.DefaultUsers()
	out := make([]models.User, 0, len(all))
	for _, u := range all {
		if u.ID != s.currentUserID() {
			out = append(out, u)
		}
	}
	return out
}

// User resolves an id; the current user reflects the anonymity setting.
func (s *Service) User(id string) (models.User, error) {
	if id == s.currentUserID() && s.settings != nil {
		return s.settings.CurrentUser(), nil
	}
	for _, u := range models.DefaultUsers() {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, errors.Wrapf(errors.ErrNotFound, "user %s", id)
}

// RequestChat only notifies; requests are not delivered anywhere.
func (s *Service) RequestChat(ctx context.Context, userID string) error {
	u, err := s.User(userID)
	if err != nil || userID == s.currentUserID() {
		return errors.Wrapf(errors.ErrNotFound, "user %s", userID)
	}
	s.notify(ctx, "chat.request", map[string]interface{}{"Name": u.Name}, notification.SeverityDefault)
	return nil
}

// OpenPrivateChat finds the private chat between the current user and
// userID.
func (s *Service) OpenPrivateChat(ctx context.Context, userID string) (models.Chat, error) {
	me := s.currentUserID()
	s.mu.Lock()
	for _, c := range s.chats {
		if c.Type == models.ChatPrivate && c.HasParticipant(me) && c.HasParticipant(userID) {
			out := c.Clone()
			s.mu.Unlock()
			return out, nil
		}
	}
	s.mu.Unlock()
	s.notify(ctx, "chat.notfound", nil, notification.SeverityDestructive)
	return models.Chat{}, errors.Wrapf(errors.ErrNotFound, "private chat with %s", userID)
}
