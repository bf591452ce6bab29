// Package llm produces chat replies for the simulated participant from
// an ordered transcript.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// PersonaID is the sender id replies are attributed to.
const PersonaID = "user2"

// Turn is one transcript line.
type Turn struct {
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
}

// Replier represents a generic interface for producing one reply
type Replier interface {
	Reply(ctx context.Context, history []Turn) (string, error)
}

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(ctx context.Context, history []Turn) (string, error)

func (f ReplierFunc) Reply(ctx context.Context, history []Turn) (string, error) {
	return f(ctx, history)
}

// Config selects and configures a provider.
type Config struct {
	Provider string        `env:"LLM_PROVIDER" default:"static"`
	APIKey   string        `env:"LLM_API_KEY"`
	BaseURL  string        `env:"LLM_BASE_URL"`
	Model    string        `env:"LLM_MODEL"`
	Timeout  time.Duration `env:"LLM_TIMEOUT" default:"30s"`
}

const systemPrompt = `You are a participant in a chat room. Your name is Alex.
Your persona is helpful, friendly, and concise.
Given the chat history, provide a relevant and natural-sounding response.
Do not act as an AI or assistant. Just be a normal chat user.
Keep your responses short and conversational.`

// SystemPrompt returns the persona instructions.
func SystemPrompt() string { return systemPrompt }

// BuildPrompt renders the transcript as "senderId: text" lines closed by
// the persona's name, ready to be completed.
func BuildPrompt(history []Turn) string {
	var b strings.Builder
	b.WriteString("Chat History:\n")
	for _, t := range history {
		fmt.Fprintf(&b, "%s: %s\n", t.SenderID, t.Text)
	}
	b.WriteString("Alex:")
	return b.String()
}

// New builds the configured provider. Unknown providers are an error.
func New(ctx context.Context, cfg Config, logger *logrus.Logger) (Replier, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	var (
		r   Replier
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", "static":
		r = NewStaticReplier()
	case "openai", "lmstudio":
		r = NewOpenAIReplier(cfg, logger)
	case "gemini":
		r, err = NewGeminiReplier(ctx, cfg, logger)
	case "ollama":
		r = NewOllamaReplier(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Timeout > 0 {
		r = withTimeout(r, cfg.Timeout)
	}
	return r, nil
}

func withTimeout(r Replier, d time.Duration) Replier {
	return ReplierFunc(func(ctx context.Context, history []Turn) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return r.Reply(ctx, history)
	})
}

// clean trims what models tend to echo back.
func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Alex:")
	return strings.TrimSpace(s)
}
