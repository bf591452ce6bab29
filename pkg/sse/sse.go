// Package sse pushes server events to browser clients. The hub doubles as
// a notification sink so every user notice reaches the open UI.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"GuardianLink/pkg/notification"

	"github.com/gin-gonic/gin"
)

const (
	EventNotice  = "notice"
	EventMessage = "message"
	EventSession = "session"
	EventPacket  = "packet"
)

type Client struct {
	id     string
	groups map[string]bool
	ch     chan string
	done   chan struct{}
}

type event struct {
	id    uint64
	group string
	frame string
}

type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	groups   map[string]map[string]bool // group -> clientID set
	interval time.Duration
	retryMs  int

	// 最近事件，用于 Last-Event-ID 重放
	seq     uint64
	history []event
	keep    int

	onCount func(n int)
}

type Option func(*Hub)

// WithReplay keeps the last n events for clients reconnecting with
// Last-Event-ID.
func WithReplay(n int) Option { return func(h *Hub) { h.keep = n } }

// WithClientGauge is called with the client count after every change.
func WithClientGauge(fn func(n int)) Option { return func(h *Hub) { h.onCount = fn } }

func NewHub(interval time.Duration, opts ...Option) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	h := &Hub{clients: make(map[string]*Client), groups: make(map[string]map[string]bool), interval: interval, retryMs: 5000, keep: 50}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) AddClient(id string) *Client {
	h.mu.Lock()
	c := &Client{id: id, groups: make(map[string]bool), ch: make(chan string, 64), done: make(chan struct{})}
	if old, ok := h.clients[id]; ok {
		h.dropLocked(old)
	}
	h.clients[id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.count(n)
	return c
}

func (h *Hub) RemoveClient(id string) {
	h.mu.Lock()
	if c, ok := h.clients[id]; ok {
		h.dropLocked(c)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.count(n)
}

func (h *Hub) dropLocked(c *Client) {
	close(c.done)
	for g := range c.groups {
		delete(h.groups[g], c.id)
	}
	delete(h.clients, c.id)
}

func (h *Hub) count(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Join(id, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	c.groups[group] = true
	if h.groups[group] == nil {
		h.groups[group] = make(map[string]bool)
	}
	h.groups[group][id] = true
}

func (h *Hub) Leave(id, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(c.groups, group)
	if h.groups[group] != nil {
		delete(h.groups[group], id)
	}
}

// Publish sends a named event to every client, or only to the members of
// group when it is not empty.
func (h *Hub) Publish(name, group string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.seq++
	frame := formatEvent(h.seq, name, string(b))
	if h.keep > 0 {
		h.history = append(h.history, event{id: h.seq, group: group, frame: frame})
		if len(h.history) > h.keep {
			h.history = h.history[len(h.history)-h.keep:]
		}
	}
	targets := make([]*Client, 0, len(h.clients))
	if group == "" {
		for _, c := range h.clients {
			targets = append(targets, c)
		}
	} else {
		for id := range h.groups[group] {
			if c := h.clients[id]; c != nil {
				targets = append(targets, c)
			}
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		select {
		case c.ch <- frame:
		default: // 慢客户端丢弃
		}
	}
	return nil
}

// Notify implements notification.Notifier.
func (h *Hub) Notify(_ context.Context, n notification.Notice) error {
	return h.Publish(EventNotice, "", n)
}

func (h *Hub) replay(c *Client, lastID uint64) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []string
	for _, e := range h.history {
		if e.id <= lastID {
			continue
		}
		if e.group != "" && !c.groups[e.group] {
			continue
		}
		out = append(out, e.frame)
	}
	return out
}

func formatEvent(id uint64, name, data string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %d\n", id)
	if name != "" {
		fmt.Fprintf(&b, "event: %s\n", name)
	}
	fmt.Fprintf(&b, "data: %s\n\n", data)
	return b.String()
}

// Serve streams events to the client until it disconnects. The query
// parameter group may be repeated to join several groups.
func (h *Hub) Serve(c *gin.Context, clientID string) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)

	client := h.AddClient(clientID)
	defer h.RemoveClient(clientID)
	for _, gid := range c.QueryArray("group") {
		if gid != "" {
			h.Join(clientID, gid)
		}
	}

	if last, err := strconv.ParseUint(c.GetHeader("Last-Event-ID"), 10, 64); err == nil {
		for _, frame := range h.replay(client, last) {
			_, _ = c.Writer.Write([]byte(frame))
		}
	}
	flusher.Flush()

	ping := time.NewTicker(h.interval)
	defer ping.Stop()

	for {
		select {
		case <-client.done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			fmt.Fprintf(c.Writer, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case msg := <-client.ch:
			_, _ = c.Writer.Write([]byte(msg))
			flusher.Flush()
		}
	}
}
