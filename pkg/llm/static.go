package llm

import (
	"context"
	"strings"
)

// StaticReplier answers from a fixed list without any network access.
type StaticReplier struct {
	replies []string
}

var defaultReplies = []string{
	"Got it, thanks for the update!",
	"Stay safe out there.",
	"I'm here if you need anything.",
	"Sounds good to me.",
}

func NewStaticReplier(replies ...string) *StaticReplier {
	if len(replies) == 0 {
		replies = defaultReplies
	}
	return &StaticReplier{replies: replies}
}

// Reply picks a canned line based on the transcript length, so the same
// history always gets the same answer.
func (s *StaticReplier) Reply(ctx context.Context, history []Turn) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if n := len(history); n > 0 && strings.HasSuffix(strings.TrimSpace(history[n-1].Text), "?") {
		return "Good question, let me think about it.", nil
	}
	return s.replies[len(history)%len(s.replies)], nil
}
