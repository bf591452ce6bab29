package websocket

import (
	"errors"
	"time"
)

// WebSocket消息类型常量
const (
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
	MessageTypeJoinGroup   = "join_group"
	MessageTypeLeaveGroup  = "leave_group"
	MessageTypeGroupJoined = "group_joined"
	MessageTypeGroupLeft   = "group_left"
	MessageTypeError       = "error"

	// 业务消息类型
	MessageTypeChatMessage = "chat_message"
	MessageTypeReaction    = "reaction"
	MessageTypeChatUpdated = "chat_updated"
	MessageTypeChatDeleted = "chat_deleted"
)

const (
	DefaultMaxConnections    = 1000
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultConnectionTimeout = 60 * time.Second
	DefaultMessageBufferSize = 256
	DefaultMessageQueueSize  = 1000
	DefaultReadBufferSize    = 1024
	DefaultWriteBufferSize   = 1024
	DefaultMaxMessageSize    = 4096
	DefaultSendTimeout       = 50 * time.Millisecond

	writeWait = 10 * time.Second
)

// 环境变量配置键
const (
	EnvWebSocketMaxConnections    = "WEBSOCKET_MAX_CONNECTIONS"
	EnvWebSocketHeartbeatInterval = "WEBSOCKET_HEARTBEAT_INTERVAL"
	EnvWebSocketConnectionTimeout = "WEBSOCKET_CONNECTION_TIMEOUT"
	EnvWebSocketMessageBufferSize = "WEBSOCKET_MESSAGE_BUFFER_SIZE"
	EnvWebSocketMessageQueueSize  = "WEBSOCKET_MESSAGE_QUEUE_SIZE"
	EnvWebSocketEnableCompression = "WEBSOCKET_ENABLE_COMPRESSION"
	EnvWebSocketMaxMessageSize    = "WEBSOCKET_MAX_MESSAGE_SIZE"
	EnvWebSocketSendTimeoutMs     = "WEBSOCKET_SEND_TIMEOUT_MS"
)

var (
	ErrHubClosed          = errors.New("websocket hub closed")
	ErrQueueFull          = errors.New("broadcast queue full")
	ErrSendBufferFull     = errors.New("send buffer full")
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrInvalidMessageData = errors.New("invalid message data")
)
