package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler WebSocket HTTP处理器
type Handler struct {
	hub    *Hub
	userID func(c *gin.Context) string
}

// NewHandler userID resolves the identity attached to new connections.
func NewHandler(hub *Hub, userID func(c *gin.Context) string) *Handler {
	return &Handler{hub: hub, userID: userID}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws", h.HandleWebSocket)
	r.GET("/ws/stats", h.GetStats)
}

// HandleWebSocket 处理WebSocket连接请求；?chat= 可重复，预先加入的聊天
func (h *Handler) HandleWebSocket(c *gin.Context) {
	uid := ""
	if h.userID != nil {
		uid = h.userID(c)
	}
	HandleWebSocket(h.hub, c.Writer, c.Request, uid, c.QueryArray("chat")...)
}

// GetStats 获取WebSocket统计信息
func (h *Handler) GetStats(c *gin.Context) {
	stats := gin.H{
		"total_connections":  h.hub.GetConnectionCount(),
		"max_connections":    h.hub.config.MaxConnections,
		"heartbeat_interval": h.hub.config.HeartbeatInterval.String(),
		"connection_timeout": h.hub.config.ConnectionTimeout.String(),
	}
	if chat := c.Query("chat"); chat != "" {
		stats["chat"] = chat
		stats["chat_connections"] = h.hub.GetGroupConnections(chat)
	}
	c.JSON(http.StatusOK, stats)
}
