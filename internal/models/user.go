package models

import (
	"GuardianLink/pkg/errors"
)

// Status 用户安全状态
type Status string

const (
	StatusSafe   Status = "safe"
	StatusHelp   Status = "help"
	StatusDanger Status = "danger"
	StatusOnline Status = "online"
)

// Settable reports whether the user may pick s for themselves. "online" is
// only ever shown for other users.
func (s Status) Settable() bool {
	switch s {
	case StatusSafe, StatusHelp, StatusDanger:
		return true
	}
	return false
}

// ParseStatus accepts the statuses a user can set.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Settable() {
		return "", errors.Wrapf(errors.ErrInvalidInput, "status %q", raw)
	}
	return s, nil
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Status    Status `json:"status"`
	Anonymous bool   `json:"anonymous"`
}

// AvatarURL 头像地址
func AvatarURL(seed string) string {
	return "https://i.pravatar.cc/150?u=" + seed
}
