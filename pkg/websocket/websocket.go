// Package websocket pushes chat traffic to connected clients. Every chat id
// is a group; a client joins the chats it has open and receives the
// messages, reactions and replies appended to them.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Message 定义WebSocket消息结构
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
	From      string      `json:"from,omitempty"`
	Group     string      `json:"group,omitempty"`
}

// Connection 表示一个WebSocket连接
type Connection struct {
	ID       string
	UserID   string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
	LastPing time.Time

	mu     sync.RWMutex
	groups map[string]bool
	closed bool
}

// Hub 管理所有WebSocket连接
type Hub struct {
	connections map[string]*Connection
	// 组到连接ID的映射
	groupConnections map[string]map[string]bool

	broadcast  chan *Message
	register   chan *Connection
	unregister chan *Connection

	connectionCount int64
	config          *Config
	mu              sync.RWMutex
	ctx             context.Context
	cancel          context.CancelFunc
	onCount         func(n int)
}

type Option func(*Hub)

// WithConnectionGauge is called with the connection count after every
// register and unregister.
func WithConnectionGauge(fn func(n int)) Option {
	return func(h *Hub) { h.onCount = fn }
}

// NewHub 创建Hub并启动主循环；config 为空时使用默认配置
func NewHub(config *Config, opts ...Option) *Hub {
	if config == nil {
		config = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	hub := &Hub{
		connections:      make(map[string]*Connection),
		groupConnections: make(map[string]map[string]bool),
		broadcast:        make(chan *Message, config.MessageQueueSize),
		register:         make(chan *Connection),
		unregister:       make(chan *Connection),
		config:           config,
		ctx:              ctx,
		cancel:           cancel,
	}
	for _, opt := range opts {
		opt(hub)
	}
	go hub.run()
	return hub
}

// run Hub主循环
func (h *Hub) run() {
	ticker := time.NewTicker(h.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case conn := <-h.register:
			h.registerConnection(conn)
		case conn := <-h.unregister:
			h.unregisterConnection(conn)
		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				logrus.Errorf("消息序列化失败: %v", err)
				continue
			}
			if message.Group != "" {
				h.sendToGroup(message.Group, data)
			} else {
				h.sendToAll(data)
			}
		case <-ticker.C:
			h.checkHeartbeats()
		}
	}
}

// Publish queues a message for the members of group, or for every
// connection when group is empty. It fails once the hub is closed or when
// the queue stays full for SendTimeout.
func (h *Hub) Publish(group, typ string, data interface{}) error {
	if h.ctx.Err() != nil {
		return ErrHubClosed
	}
	msg := &Message{Type: typ, Data: data, Group: group, Timestamp: time.Now().Unix()}
	timer := time.NewTimer(h.config.SendTimeout)
	defer timer.Stop()
	select {
	case <-h.ctx.Done():
		return ErrHubClosed
	case h.broadcast <- msg:
		return nil
	case <-timer.C:
		logrus.Warnf("广播队列已满，消息被丢弃: group=%s type=%s", group, typ)
		return ErrQueueFull
	}
}

func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	if atomic.LoadInt64(&h.connectionCount) >= h.config.MaxConnections {
		h.mu.Unlock()
		logrus.Warnf("达到最大连接数限制: %d", h.config.MaxConnections)
		conn.close()
		if conn.Conn != nil {
			conn.Conn.Close()
		}
		return
	}
	h.connections[conn.ID] = conn
	n := atomic.AddInt64(&h.connectionCount, 1)
	for group := range conn.groupSet() {
		h.addToGroupLocked(group, conn.ID)
	}
	h.mu.Unlock()

	h.count(int(n))
	logrus.Infof("WebSocket连接已注册: %s, 用户: %s, 当前连接数: %d", conn.ID, conn.UserID, n)
}

func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	if _, exists := h.connections[conn.ID]; !exists {
		h.mu.Unlock()
		return
	}
	delete(h.connections, conn.ID)
	n := atomic.AddInt64(&h.connectionCount, -1)
	for group := range conn.groupSet() {
		h.removeFromGroupLocked(group, conn.ID)
	}
	h.mu.Unlock()

	conn.close()
	h.count(int(n))
	logrus.Infof("WebSocket连接已注销: %s, 当前连接数: %d", conn.ID, n)
}

func (h *Hub) addToGroupLocked(group, connID string) {
	if h.groupConnections[group] == nil {
		h.groupConnections[group] = make(map[string]bool)
	}
	h.groupConnections[group][connID] = true
}

func (h *Hub) removeFromGroupLocked(group, connID string) {
	if h.groupConnections[group] == nil {
		return
	}
	delete(h.groupConnections[group], connID)
	if len(h.groupConnections[group]) == 0 {
		delete(h.groupConnections, group)
	}
}

// Join 将连接加入组
func (h *Hub) Join(conn *Connection, group string) {
	conn.mu.Lock()
	conn.groups[group] = true
	conn.mu.Unlock()

	h.mu.Lock()
	if _, ok := h.connections[conn.ID]; ok {
		h.addToGroupLocked(group, conn.ID)
	}
	h.mu.Unlock()
}

// Leave 将连接移出组
func (h *Hub) Leave(conn *Connection, group string) {
	conn.mu.Lock()
	delete(conn.groups, group)
	conn.mu.Unlock()

	h.mu.Lock()
	h.removeFromGroupLocked(group, conn.ID)
	h.mu.Unlock()
}

func (h *Hub) sendToGroup(group string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.groupConnections[group] {
		if conn, ok := h.connections[connID]; ok {
			if !conn.trySend(data) {
				logrus.Warnf("组 %s 的连接 %s 发送缓冲区已满", group, connID)
			}
		}
	}
}

func (h *Hub) sendToAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.connections {
		if !conn.trySend(data) {
			logrus.Warnf("连接 %s 发送缓冲区已满", conn.ID)
		}
	}
}

// checkHeartbeats 关闭超时未响应的连接，读协程随后负责注销
func (h *Hub) checkHeartbeats() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now()
	for _, conn := range h.connections {
		if now.Sub(conn.lastPing()) > h.config.ConnectionTimeout && conn.Conn != nil {
			logrus.Warnf("连接 %s 心跳超时，准备关闭", conn.ID)
			conn.Conn.Close()
		}
	}
}

func (h *Hub) count(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

// GetConnectionCount 获取当前连接数
func (h *Hub) GetConnectionCount() int64 {
	return atomic.LoadInt64(&h.connectionCount)
}

// GetGroupConnections 获取组的连接数
func (h *Hub) GetGroupConnections(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groupConnections[group])
}

// Close 关闭Hub及所有连接
func (h *Hub) Close() {
	h.cancel()

	h.mu.Lock()
	for id, conn := range h.connections {
		if conn.Conn != nil {
			conn.Conn.Close()
		}
		conn.close()
		delete(h.connections, id)
	}
	h.groupConnections = make(map[string]map[string]bool)
	atomic.StoreInt64(&h.connectionCount, 0)
	h.mu.Unlock()

	h.count(0)
	logrus.Info("WebSocket Hub已关闭")
}
