// Package settings holds the device-wide user preferences: the anonymity
// flag and the user's safety status. Both are loaded once at start-up and
// written through to the store on every change.
package settings

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"GuardianLink/internal/models"
	"GuardianLink/pkg/kv"
	"GuardianLink/pkg/logger"

	"go.uber.org/zap"
)

// AnonymousName is shown instead of the user's name while anonymous.
const AnonymousName = "Anonymous"

// View 设置快照
type View struct {
	Anonymous bool          `json:"anonymous"`
	Status    models.Status `json:"status"`
	User      models.User   `json:"user"`
}

type Settings struct {
	mu        sync.RWMutex
	store     kv.Store
	base      models.User
	anonymous bool
	status    models.Status
}

// Load reads both settings from store. Missing or unreadable values fall
// back to not anonymous and safe.
func Load(ctx context.Context, store kv.Store) *Settings {
	s := &Settings{store: store, base: models.DefaultUsers()[0], status: models.StatusSafe}

	var anon bool
	if ok, err := kv.GetJSON(ctx, store, models.KeyAnonymous, &anon); err != nil {
		logger.Warn("load anonymity failed", zap.Error(err))
	} else if ok {
		s.anonymous = anon
	}

	raw, ok, err := store.Get(ctx, models.KeyUserStatus)
	switch {
	case err != nil:
		logger.Warn("load status failed", zap.Error(err))
	case ok:
		if st, perr := models.ParseStatus(decodeStatus(raw)); perr == nil {
			s.status = st
		} else {
			logger.Warn("stored status ignored", zap.ByteString("value", raw))
		}
	}
	return s
}

// decodeStatus accepts both a JSON string and the bare word.
func decodeStatus(raw []byte) string {
	var v string
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	return strings.TrimSpace(string(raw))
}

func (s *Settings) Anonymous() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anonymous
}

func (s *Settings) SetAnonymous(ctx context.Context, v bool) {
	s.mu.Lock()
	s.anonymous = v
	s.mu.Unlock()
	if err := kv.SetJSON(ctx, s.store, models.KeyAnonymous, v); err != nil {
		logger.Warn("save anonymity failed", zap.Error(err))
	}
}

func (s *Settings) Status() models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus accepts safe, help or danger; anything else is ErrInvalidInput
// and leaves the status unchanged.
func (s *Settings) SetStatus(ctx context.Context, raw string) (models.Status, error) {
	st, err := models.ParseStatus(raw)
	if err != nil {
		return s.Status(), err
	}
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
	if err := kv.SetJSON(ctx, s.store, models.KeyUserStatus, st); err != nil {
		logger.Warn("save status failed", zap.Error(err))
	}
	return st, nil
}

// CurrentUser 当前用户，匿名时隐藏姓名与头像
func (s *Settings) CurrentUser() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.base
	u.Status = s.status
	u.Anonymous = s.anonymous
	if s.anonymous {
		u.Name = AnonymousName
		u.Avatar = models.AvatarURL("anonymous")
	}
	return u
}

func (s *Settings) View() View {
	u := s.CurrentUser()
	return View{Anonymous: u.Anonymous, Status: u.Status, User: u}
}
