package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handleStream 推送通知、会话与数据包事件；?client= 用于断线重连
func (h *Handlers) handleStream(c *gin.Context) {
	id := c.Query("client")
	if id == "" {
		id = "sse_" + uuid.NewString()
	}
	h.Stream.Serve(c, id)
}
