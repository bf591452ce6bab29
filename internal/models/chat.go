package models

import "time"

type ChatType string

const (
	ChatPublic  ChatType = "public"
	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
)

// TimeLayout 消息时间的显示格式，例如 "03:04PM"
const TimeLayout = "03:04PM"

// Message 聊天消息。Seq 在同一个聊天内严格递增，用于排序
type Message struct {
	ID        string         `json:"id"`
	SenderID  string         `json:"senderId"`
	Text      string         `json:"text"`
	Timestamp string         `json:"timestamp"`
	Seq       int64          `json:"seq"`
	Reactions map[string]int `json:"reactions,omitempty"`
}

type Chat struct {
	ID              string     `json:"id"`
	Type            ChatType   `json:"type"`
	Name            string     `json:"name,omitempty"`
	Participants    []string   `json:"participants"`
	Messages        []Message  `json:"messages"`
	LastMessage     string     `json:"lastMessage,omitempty"`
	LastMessageTime string     `json:"lastMessageTime,omitempty"`
	UnreadCount     int        `json:"unreadCount,omitempty"`
	Code            string     `json:"code,omitempty"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

// HasParticipant 判断用户是否在聊天中
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// NextSeq returns the sequence number for the next appended message.
func (c *Chat) NextSeq() int64 {
	var max int64
	for _, m := range c.Messages {
		if m.Seq > max {
			max = m.Seq
		}
	}
	return max + 1
}

// Message finds a message by id.
func (c *Chat) Message(id string) (*Message, bool) {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return &c.Messages[i], true
		}
	}
	return nil, false
}

// Clone 深拷贝，返回给调用方的数据不与内部状态共享
func (c Chat) Clone() Chat {
	out := c
	out.Participants = append([]string(nil), c.Participants...)
	out.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		if m.Reactions != nil {
			r := make(map[string]int, len(m.Reactions))
			for k, v := range m.Reactions {
				r[k] = v
			}
			m.Reactions = r
		}
		out.Messages[i] = m
	}
	if c.CreatedAt != nil {
		t := *c.CreatedAt
		out.CreatedAt = &t
	}
	return out
}

// EnsureSeq numbers messages that were persisted without a sequence, in
// their stored order.
func (c *Chat) EnsureSeq() {
	var last int64
	for i := range c.Messages {
		if c.Messages[i].Seq <= last {
			c.Messages[i].Seq = last + 1
		}
		last = c.Messages[i].Seq
	}
}
