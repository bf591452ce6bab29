package chat

import (
	"context"
	"strings"

	"GuardianLink/internal/models"
	"GuardianLink/pkg/errors"
	"GuardianLink/pkg/logger"
	"GuardianLink/pkg/search"

	"go.uber.org/zap"
)

const searchLimit = 50

// SearchHit is a matching message in chat order.
type SearchHit struct {
	Message   models.Message `json:"message"`
	Score     float64        `json:"score"`
	Fragments []string       `json:"fragments,omitempty"`
}

// Search finds the messages of a chat matching query. Without an index, or
// when the index fails, the messages are scanned for the substring.
func (s *Service) Search(ctx context.Context, chatID, query string) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "query is required")
	}
	chat, err := s.Chat(chatID)
	if err != nil {
		return nil, err
	}

	if s.index != nil {
		res, err := s.index.Search(ctx, search.SearchRequest{Keyword: query, ChatID: chatID, Prefix: true, Size: searchLimit})
		if err == nil {
			return hydrate(chat, res.Hits), nil
		}
		logger.Warn("search index failed, scanning messages", zap.String("chat", chatID), zap.Error(err))
	}
	return scan(chat, query), nil
}

func hydrate(chat models.Chat, hits []search.Hit) []SearchHit {
	out := make([]SearchHit, 0, len(hits))
	for _, h := range hits {
		m, ok := chat.Message(h.MessageID)
		if !ok {
			continue
		}
		out = append(out, SearchHit{Message: *m, Score: h.Score, Fragments: h.Fragments["text"]})
	}
	return out
}

func scan(chat models.Chat, query string) []SearchHit {
	q := strings.ToLower(query)
	out := make([]SearchHit, 0)
	for _, m := range chat.Messages {
		if strings.Contains(strings.ToLower(m.Text), q) {
			out = append(out, SearchHit{Message: m, Score: 1})
		}
		if len(out) == searchLimit {
			break
		}
	}
	return out
}

// reindex 启动时把全部消息写入索引
func (s *Service) reindex(ctx context.Context) {
	if s.index == nil {
		return
	}
	s.mu.Lock()
	docs := make([]search.Doc, 0)
	for _, c := range s.chats {
		for _, m := range c.Messages {
			docs = append(docs, s.doc(c.ID, m))
		}
	}
	s.mu.Unlock()
	if err := s.index.IndexBatch(ctx, docs); err != nil {
		logger.Warn("index chats failed", zap.Error(err))
	}
}
