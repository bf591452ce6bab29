package handlers

import (
	"net/http"
	"time"

	"GuardianLink/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// HealthCheck 健康检查接口，附带主机与进程状态
func (h *Handlers) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
		"system":  metrics.CollectSystemStats(c.Request.Context()),
		"session": h.Emitter != nil && h.Emitter.Session().Active,
	}
	if h.Stream != nil {
		body["streamClients"] = h.Stream.Clients()
	}
	if h.Hub != nil {
		body["wsConnections"] = h.Hub.GetConnectionCount()
	}
	c.JSON(http.StatusOK, body)
}
