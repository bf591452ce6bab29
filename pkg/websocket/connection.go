package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// newUpgrader 根据配置创建WebSocket升级器
func newUpgrader(cfg *Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		EnableCompression: cfg.EnableCompression,
	}
}

// NewConnection 创建未绑定网络连接的实例，groups 为初始加入的组
func NewConnection(hub *Hub, userID string, conn *websocket.Conn, groups ...string) *Connection {
	c := &Connection{
		ID:       "conn_" + uuid.NewString(),
		UserID:   userID,
		Conn:     conn,
		Send:     make(chan []byte, hub.config.MessageBufferSize),
		Hub:      hub,
		LastPing: time.Now(),
		groups:   make(map[string]bool),
	}
	for _, g := range groups {
		if g != "" {
			c.groups[g] = true
		}
	}
	return c
}

// HandleWebSocket 升级HTTP连接并启动读写协程
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID string, groups ...string) {
	upgrader := newUpgrader(hub.config)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("WebSocket升级失败: %v", err)
		return
	}
	if hub.config.EnableCompression {
		conn.EnableWriteCompression(true)
	}

	connection := NewConnection(hub, userID, conn, groups...)
	select {
	case hub.register <- connection:
	case <-hub.ctx.Done():
		conn.Close()
		return
	}

	go connection.writePump()
	go connection.readPump()
}

func (c *Connection) groupSet() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]bool, len(c.groups))
	for g := range c.groups {
		out[g] = true
	}
	return out
}

// Groups 获取连接所属的组
func (c *Connection) Groups() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	groups := make([]string, 0, len(c.groups))
	for g := range c.groups {
		groups = append(groups, g)
	}
	return groups
}

// IsInGroup 检查是否在指定组中
func (c *Connection) IsInGroup(group string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.groups[group]
}

func (c *Connection) lastPing() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LastPing
}

func (c *Connection) touch() {
	c.mu.Lock()
	c.LastPing = time.Now()
	c.mu.Unlock()
}

// trySend 缓冲区满或连接已关闭时返回 false
func (c *Connection) trySend(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Connection) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
	c.mu.Unlock()
}

// SendMessage 发送消息给当前连接
func (c *Connection) SendMessage(message *Message) error {
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if !c.trySend(data) {
		return ErrSendBufferFull
	}
	return nil
}

// readPump 读取消息的协程
func (c *Connection) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.ctx.Done():
		}
		c.Conn.Close()
	}()

	timeout := c.Hub.config.ConnectionTimeout
	c.Conn.SetReadLimit(int64(c.Hub.config.MaxMessageSize))
	_ = c.Conn.SetReadDeadline(time.Now().Add(timeout))
	c.Conn.SetPongHandler(func(string) error {
		c.touch()
		return c.Conn.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket读取错误: %v", err)
			}
			return
		}
		_ = c.Conn.SetReadDeadline(time.Now().Add(timeout))
		c.handleMessage(message)
	}
}

// writePump 发送消息的协程，同时负责定时 ping
func (c *Connection) writePump() {
	ticker := time.NewTicker(time.Duration(float64(c.Hub.config.HeartbeatInterval) * 0.9))
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.Hub.ctx.Done():
			return
		}
	}
}

// handleMessage 处理客户端发来的控制消息；聊天内容走 HTTP 接口
func (c *Connection) handleMessage(raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		logrus.Warnf("消息解析失败: %v", err)
		c.reply(MessageTypeError, ErrInvalidMessageData.Error())
		return
	}

	switch msg.Type {
	case MessageTypePing:
		c.touch()
		c.reply(MessageTypePong, nil)
	case MessageTypeJoinGroup, MessageTypeLeaveGroup:
		group, ok := msg.Data.(string)
		if !ok || group == "" {
			logrus.Warnf("无效的组名: %v", msg.Data)
			c.reply(MessageTypeError, ErrInvalidMessageData.Error())
			return
		}
		if msg.Type == MessageTypeJoinGroup {
			c.Hub.Join(c, group)
			c.reply(MessageTypeGroupJoined, group)
			logrus.Infof("用户 %s 加入组 %s", c.UserID, group)
		} else {
			c.Hub.Leave(c, group)
			c.reply(MessageTypeGroupLeft, group)
			logrus.Infof("用户 %s 离开组 %s", c.UserID, group)
		}
	default:
		logrus.Warnf("未知的消息类型: %s", msg.Type)
		c.reply(MessageTypeError, ErrInvalidMessageType.Error())
	}
}

func (c *Connection) reply(typ string, data interface{}) {
	if err := c.SendMessage(&Message{Type: typ, Data: data}); err != nil {
		logrus.Warnf("连接 %s 回复失败: %v", c.ID, err)
	}
}
