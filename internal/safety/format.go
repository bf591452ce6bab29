// Package safety holds the features built around the distress emitter: the
// one-shot SOS alert, the fake-screen disguise, the drone packet logger and
// the status log.
package safety

import (
	"fmt"
	"strings"

	"GuardianLink/internal/emitter"
	"GuardianLink/pkg/i18n"
	"GuardianLink/pkg/notification"
)

// Formatter renders emitter notices through the message catalogue.
type Formatter struct {
	t i18n.Translator
}

func NewFormatter(t i18n.Translator) Formatter {
	if t == nil {
		t = i18n.English()
	}
	return Formatter{t: t}
}

func (f Formatter) Emission(e emitter.Emission) notification.Notice {
	return notification.New(
		f.t("sos.signal.title", map[string]interface{}{"N": e.Sequence + 1}),
		f.Summary(e.Config),
		notification.SeverityDestructive,
	)
}

func (f Formatter) Stopped() notification.Notice {
	return notification.New(f.t("sos.stopped.title", nil), f.t("sos.stopped.body", nil), notification.SeverityDefault)
}

// Summary is the localized counterpart of emitter.Summary.
func (f Formatter) Summary(cfg emitter.Config) string {
	parts := make([]string, 0, 3)
	if cfg.Silent {
		parts = append(parts, f.t("sos.mode.silent", nil))
	} else {
		parts = append(parts, f.t("sos.mode.loud", nil))
	}
	if cfg.ShareLocation {
		parts = append(parts, f.t("sos.location.shared", nil))
	} else {
		parts = append(parts, f.t("sos.location.hidden", nil))
	}
	if msg := strings.TrimSpace(cfg.Message); msg != "" {
		parts = append(parts, fmt.Sprintf("%q", msg))
	}
	return strings.Join(parts, " · ")
}
