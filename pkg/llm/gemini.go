package llm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiReplier uses Google's Gemini API.
type GeminiReplier struct {
	client *genai.Client
	model  string
	logger *logrus.Logger
}

func NewGeminiReplier(ctx context.Context, cfg Config, logger *logrus.Logger) (*GeminiReplier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiReplier{client: client, model: model, logger: logger}, nil
}

func (h *GeminiReplier) Reply(ctx context.Context, history []Turn) (string, error) {
	resp, err := h.client.Models.GenerateContent(ctx, h.model,
		[]*genai.Content{genai.NewContentFromText(BuildPrompt(history), genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := clean(resp.Text())
	if text == "" {
		return "", fmt.Errorf("generate content: empty response")
	}
	h.logger.WithField("model", h.model).Debug("llm reply")
	return text, nil
}
