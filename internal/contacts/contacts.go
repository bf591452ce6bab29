// Package contacts manages the trusted contacts that receive SOS alerts.
package contacts

import (
	"context"
	"strings"
	"sync"

	"GuardianLink/internal/models"
	"GuardianLink/pkg/errors"
	"GuardianLink/pkg/i18n"
	"GuardianLink/pkg/kv"
	"GuardianLink/pkg/logger"
	"GuardianLink/pkg/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	mu       sync.Mutex
	store    kv.Store
	notifier notification.Notifier
	t        i18n.Translator
	contacts []models.Contact
}

// New loads the contacts from store, or the defaults when the key is
// missing or unreadable.
func New(ctx context.Context, store kv.Store, n notification.Notifier, t i18n.Translator) *Service {
	if n == nil {
		n = notification.Nop{}
	}
	if t == nil {
		t = i18n.English()
	}
	s := &Service{store: store, notifier: n, t: t}

	var stored []models.Contact
	ok, err := kv.GetJSON(ctx, store, models.KeyContacts, &stored)
	switch {
	case err != nil:
		logger.Warn("load contacts failed, using defaults", zap.Error(err))
		s.contacts = models.DefaultContacts()
	case !ok:
		s.contacts = models.DefaultContacts()
	default:
		s.contacts = stored
	}
	return s
}

func (s *Service) List() []models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Contact(nil), s.contacts...)
}

func (s *Service) Add(ctx context.Context, name, phone string) (models.Contact, error) {
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return models.Contact{}, s.invalid(ctx)
	}

	s.mu.Lock()
	if len(s.contacts) >= models.MaxContacts {
		s.mu.Unlock()
		s.warn(ctx, "contact.limit", map[string]interface{}{"Max": models.MaxContacts})
		return models.Contact{}, errors.Wrapf(errors.ErrLimitReached, "at most %d contacts", models.MaxContacts)
	}
	id := "contact-" + uuid.NewString()
	c := models.Contact{ID: id, Name: name, Phone: phone, Avatar: models.AvatarURL(id)}
	s.contacts = append(s.contacts, c)
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.info(ctx, "contact.added", map[string]interface{}{"Name": name})
	return c, nil
}

func (s *Service) Update(ctx context.Context, id, name, phone string) (models.Contact, error) {
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return models.Contact{}, s.invalid(ctx)
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Contact{}, errors.Wrapf(errors.ErrNotFound, "contact %s", id)
	}
	s.contacts[idx].Name = name
	s.contacts[idx].Phone = phone
	c := s.contacts[idx]
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.info(ctx, "contact.updated", map[string]interface{}{"Name": name})
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrNotFound, "contact %s", id)
	}
	name := s.contacts[idx].Name
	s.contacts = append(s.contacts[:idx], s.contacts[idx+1:]...)
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.info(ctx, "contact.deleted", map[string]interface{}{"Name": name})
	return nil
}

func (s *Service) indexLocked(id string) int {
	for i, c := range s.contacts {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) saveLocked(ctx context.Context) {
	if err := kv.SetJSON(ctx, s.store, models.KeyContacts, s.contacts); err != nil {
		logger.Warn("save contacts failed", zap.Error(err))
	}
}

func (s *Service) invalid(ctx context.Context) error {
	s.warn(ctx, "contact.invalid", nil)
	return errors.Wrap(errors.ErrInvalidInput, "name and phone are required")
}

func (s *Service) warn(ctx context.Context, key string, data map[string]interface{}) {
	notification.Send(ctx, s.notifier, notification.New(s.t(key+".title", data), s.t(key+".body", data), notification.SeverityDestructive))
}

func (s *Service) info(ctx context.Context, key string, data map[string]interface{}) {
	notification.Send(ctx, s.notifier, notification.New(s.t(key+".title", data), s.t(key+".body", data), notification.SeverityDefault))
}
