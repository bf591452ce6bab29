package search

import "time"

type Config struct {
	// IndexPath empty keeps the index in memory.
	IndexPath       string
	DefaultAnalyzer string
	QueryTimeout    time.Duration
	BatchSize       int
}

// Doc is a message as seen by the index. ID is "<chatID>/<messageID>".
type Doc struct {
	ID        string
	ChatID    string
	MessageID string
	SenderID  string
	Text      string
	Seq       int64
	Timestamp time.Time
}

type SearchRequest struct {
	// Keyword is matched against the message text.
	Keyword string `json:"keyword"`
	// ChatID restricts hits to one chat when set.
	ChatID   string `json:"chatId,omitempty"`
	SenderID string `json:"senderId,omitempty"`
	// Prefix also matches words starting with the keyword.
	Prefix bool `json:"prefix,omitempty"`
	From   int  `json:"from,omitempty"`
	Size   int  `json:"size,omitempty"`
}

type Hit struct {
	ID        string              `json:"id"`
	ChatID    string              `json:"chatId"`
	MessageID string              `json:"messageId"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

type SearchResult struct {
	Total uint64        `json:"total"`
	Took  time.Duration `json:"took"`
	Hits  []Hit         `json:"hits"`
}
