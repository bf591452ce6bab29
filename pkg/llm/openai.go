package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const defaultOpenAIModel = openai.GPT4oMini

// OpenAIReplier talks to any OpenAI compatible chat completions endpoint
// (OpenAI, DashScope, LM Studio).
type OpenAIReplier struct {
	client *openai.Client
	model  string
	logger *logrus.Logger
}

func NewOpenAIReplier(cfg Config, logger *logrus.Logger) *OpenAIReplier {
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIReplier{client: openai.NewClientWithConfig(conf), model: model, logger: logger}
}

func (h *OpenAIReplier) Reply(ctx context.Context, history []Turn) (string, error) {
	resp, err := h.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: h.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(history)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	h.logger.WithFields(logrus.Fields{
		"model":  h.model,
		"tokens": resp.Usage.TotalTokens,
	}).Debug("llm reply")
	return clean(resp.Choices[0].Message.Content), nil
}
