package emitter

import (
	"fmt"
	"strings"

	"GuardianLink/pkg/notification"
)

// DefaultFormatter renders English notices.
type DefaultFormatter struct{}

func (DefaultFormatter) Emission(e Emission) notification.Notice {
	return notification.New(
		fmt.Sprintf("SOS signal #%d sent", e.Sequence+1),
		Summary(e.Config),
		notification.SeverityDestructive,
	)
}

func (DefaultFormatter) Stopped() notification.Notice {
	return notification.New("SOS Deactivated", "You are no longer broadcasting an emergency signal.", notification.SeverityDefault)
}

// Summary describes cfg in one line, e.g. `Broadcasting loudly · location shared · "help"`.
func Summary(cfg Config) string {
	parts := make([]string, 0, 3)
	if cfg.Silent {
		parts = append(parts, "Broadcasting silently")
	} else {
		parts = append(parts, "Broadcasting loudly")
	}
	if cfg.ShareLocation {
		parts = append(parts, "location shared")
	} else {
		parts = append(parts, "location hidden")
	}
	if msg := strings.TrimSpace(cfg.Message); msg != "" {
		parts = append(parts, fmt.Sprintf("%q", msg))
	}
	return strings.Join(parts, " · ")
}
